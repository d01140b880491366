package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/board"
	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/instrumentation"
	"github.com/taskdeck/taskdeck/internal/session"
)

// AppContext wires the application together: the remote task API client,
// the session manager, the task cache and the board that orchestrates
// them. It owns the shutdown lifecycle.
type AppContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	apiClient *api.Client
	sessions  *session.Manager
	cache     *cache.Cache
	board     *board.Board

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// AppContextConfig configures a new AppContext.
type AppContextConfig struct {
	// APIBaseURL is the base URL of the remote task API. Required.
	APIBaseURL string

	// SessionPath overrides the session file location. Empty means the
	// default location under the user cache directory.
	SessionPath string

	// Logger is the structured logger. Nil means slog.Default().
	Logger *slog.Logger

	// Metrics enables metric recording on the board. May be nil.
	Metrics *instrumentation.Metrics

	// AuditLogger enables audit logging of tool invocations. May be nil.
	AuditLogger *instrumentation.AuditLogger
}

// NewAppContext creates the application context and restores any
// persisted session. The remote API is not contacted here; callers gate
// startup on CheckRemote where required.
func NewAppContext(ctx context.Context, config AppContextConfig) (*AppContext, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	apiClient, err := api.NewClient(config.APIBaseURL, api.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating task api client: %w", err)
	}

	var store session.Store
	if config.SessionPath != "" {
		store = session.NewFileStoreAt(config.SessionPath)
	} else {
		fileStore, err := session.NewFileStore()
		if err != nil {
			return nil, fmt.Errorf("creating session store: %w", err)
		}
		store = fileStore
	}

	sessions := session.NewManager(store, session.WithLogger(logger))
	if _, err := sessions.Restore(); err != nil {
		// A broken session store is not fatal; the user logs in again.
		logger.Warn("could not restore previous session", "error", err.Error())
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	taskCache := cache.New()
	taskBoard := board.New(apiClient, sessions, taskCache,
		board.WithLogger(logger),
		board.WithMetrics(config.Metrics))

	return &AppContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		apiClient:   apiClient,
		sessions:    sessions,
		cache:       taskCache,
		board:       taskBoard,
		metrics:     config.Metrics,
		auditLogger: config.AuditLogger,
	}, nil
}

// Context returns the application context.
func (ac *AppContext) Context() context.Context {
	return ac.ctx
}

// APIClient returns the remote task API client.
func (ac *AppContext) APIClient() *api.Client {
	return ac.apiClient
}

// Sessions returns the session manager.
func (ac *AppContext) Sessions() *session.Manager {
	return ac.sessions
}

// Cache returns the task cache.
func (ac *AppContext) Cache() *cache.Cache {
	return ac.cache
}

// Board returns the mutation orchestrator.
func (ac *AppContext) Board() *board.Board {
	return ac.board
}

// Metrics returns the metrics recorder. May be nil when instrumentation
// is disabled.
func (ac *AppContext) Metrics() *instrumentation.Metrics {
	return ac.metrics
}

// AuditLogger returns the audit logger. May be nil when audit logging is
// disabled.
func (ac *AppContext) AuditLogger() *instrumentation.AuditLogger {
	return ac.auditLogger
}

// CheckRemote reports whether the remote task API answers its liveness
// endpoint. Used to gate app init and the readiness probe.
func (ac *AppContext) CheckRemote(ctx context.Context) error {
	return ac.apiClient.Health(ctx)
}

// IsShutdown returns whether the application has been shut down.
func (ac *AppContext) IsShutdown() bool {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return ac.shutdown
}

// Shutdown shuts down the application context.
func (ac *AppContext) Shutdown() error {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if ac.shutdown {
		return nil
	}

	ac.shutdown = true
	ac.cancel()
	return nil
}
