package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/logging"
)

// Session is the authenticated identity everything else hangs off.
type Session struct {
	User       api.User  `json:"user"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// Manager holds the current session in memory and mirrors every change
// to its Store, so a restart picks up where the user left off.
type Manager struct {
	mu      sync.RWMutex
	store   Store
	current *Session
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a manager over the given store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore loads a previously persisted session into memory, if any. It
// reports whether a session was found.
func (m *Manager) Restore() (bool, error) {
	sess, err := m.store.Load()
	if err != nil {
		return false, fmt.Errorf("restoring session: %w", err)
	}
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
	if sess != nil {
		m.logger.Debug("session restored",
			logging.UserHash(sess.User.Email))
	}
	return sess != nil, nil
}

// Current returns the active session, or false when nobody is logged in.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// User returns the authenticated user, or false when nobody is logged in.
func (m *Manager) User() (api.User, bool) {
	sess, ok := m.Current()
	if !ok {
		return api.User{}, false
	}
	return sess.User, true
}

// Set installs user as the active session and persists it.
func (m *Manager) Set(user api.User) error {
	sess := &Session{User: user, LoggedInAt: time.Now()}
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	if err := m.store.Save(sess); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	m.logger.Info("session started",
		logging.UserHash(user.Email))
	return nil
}

// Update replaces the stored user without touching the login time, e.g.
// after a profile change.
func (m *Manager) Update(user api.User) error {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return fmt.Errorf("no active session")
	}
	sess := &Session{User: user, LoggedInAt: m.current.LoggedInAt}
	m.current = sess
	m.mu.Unlock()

	if err := m.store.Save(sess); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	return nil
}

// Clear ends the session in memory and on disk.
func (m *Manager) Clear() error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	m.logger.Info("session ended")
	return nil
}
