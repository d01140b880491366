package board

import (
	"context"
	"log/slog"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/instrumentation"
	"github.com/taskdeck/taskdeck/internal/logging"
	"github.com/taskdeck/taskdeck/internal/session"
)

// Client is the slice of the task API the board depends on.
type Client interface {
	Health(ctx context.Context) error
	ListTasks(ctx context.Context, userID string) ([]api.Task, error)
	CreateTask(ctx context.Context, draft api.TaskDraft) (api.Task, error)
	UpdateTask(ctx context.Context, id api.ID, patch api.TaskPatch) (api.Task, error)
	DeleteTask(ctx context.Context, id api.ID) error
	AddToCalendar(ctx context.Context, id api.ID, opts api.CalendarOptions) (string, error)
	RemoveFromCalendar(ctx context.Context, id api.ID) error
	SendReminder(ctx context.Context, id api.ID, recipientEmail string) error
	ExportToSheets(ctx context.Context, spreadsheetName string) (string, error)
	Login(ctx context.Context, creds api.Credentials) (api.User, error)
	Register(ctx context.Context, reg api.Registration) (api.User, error)
	UpdateProfile(ctx context.Context, patch api.ProfilePatch) (api.User, error)
}

// Board orchestrates mutations across the API client, the session and
// the task cache. Every data operation is gated on an active session and
// only confirmed server responses are folded into the cache.
type Board struct {
	client   Client
	sessions *session.Manager
	cache    *cache.Cache
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Board) { b.logger = logger }
}

// WithMetrics enables metric recording for mutations and effects.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(b *Board) { b.metrics = m }
}

// New creates a board over the given client, session manager and cache.
func New(client Client, sessions *session.Manager, c *cache.Cache, opts ...Option) *Board {
	b := &Board{
		client:   client,
		sessions: sessions,
		cache:    c,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Cache exposes the task cache for view derivation and subscriptions.
func (b *Board) Cache() *cache.Cache {
	return b.cache
}

// Sessions exposes the session manager.
func (b *Board) Sessions() *session.Manager {
	return b.sessions
}

// gate returns the authenticated user or ErrAuthenticationRequired.
// Every data operation calls it before touching the network.
func (b *Board) gate() (api.User, error) {
	user, ok := b.sessions.User()
	if !ok {
		return api.User{}, ErrAuthenticationRequired
	}
	return user, nil
}

// Health reports whether the remote API is reachable. Not gated; it runs
// before login during app init.
func (b *Board) Health(ctx context.Context) error {
	return b.client.Health(ctx)
}

// Refresh refetches the session user's tasks and replaces the cache.
// Out-of-order responses are discarded by the cache's generation guard,
// so a slow refresh never clobbers a newer one.
func (b *Board) Refresh(ctx context.Context) error {
	user, err := b.gate()
	if err != nil {
		// No identity means no tasks: an unauthenticated fetch leaves
		// the view empty rather than showing a previous user's data.
		b.cache.Clear()
		return err
	}

	gen := b.cache.Begin()
	tasks, err := b.client.ListTasks(ctx, user.ID.String())
	if err != nil {
		b.record(ctx, "refresh", err)
		return err
	}
	if !b.cache.Replace(gen, tasks) {
		b.logger.Debug("stale task list discarded",
			logging.Operation("refresh"))
		return nil
	}
	b.record(ctx, "refresh", nil)
	return nil
}

// Create submits the draft and, once the server confirms, prepends the
// created task to the cache. Nothing is shown until confirmation.
func (b *Board) Create(ctx context.Context, draft api.TaskDraft) (api.Task, error) {
	user, err := b.gate()
	if err != nil {
		return api.Task{}, err
	}
	draft.OwnerID = user.ID.String()

	task, err := b.client.CreateTask(ctx, draft)
	if err != nil {
		b.record(ctx, "create", err)
		return api.Task{}, err
	}
	b.cache.Apply(cache.Created, task)
	b.record(ctx, "create", nil)
	b.logger.Info("task created",
		logging.Operation("create"),
		logging.TaskID(task.ID.String()))
	return task, nil
}

// Update patches the task and folds the server's version of the record
// into the cache.
func (b *Board) Update(ctx context.Context, id api.ID, patch api.TaskPatch) (api.Task, error) {
	if _, err := b.gate(); err != nil {
		return api.Task{}, err
	}

	task, err := b.client.UpdateTask(ctx, id, patch)
	if err != nil {
		b.record(ctx, "update", err)
		return api.Task{}, err
	}
	b.cache.Apply(cache.Updated, task)
	b.record(ctx, "update", nil)
	return task, nil
}

// Complete marks the task completed.
func (b *Board) Complete(ctx context.Context, id api.ID) (api.Task, error) {
	status := api.StatusCompleted
	return b.Update(ctx, id, api.TaskPatch{Status: &status})
}

// Delete removes the task remotely and then locally. A not-found answer
// means the task is already gone server-side; the cache is reconciled
// and the delete reported as success.
func (b *Board) Delete(ctx context.Context, id api.ID) error {
	if _, err := b.gate(); err != nil {
		return err
	}

	err := b.client.DeleteTask(ctx, id)
	if err != nil {
		if api.IsKind(err, api.KindNotFound) {
			b.logger.Info("task already deleted remotely, reconciling cache",
				logging.Operation("delete"),
				logging.TaskID(id.String()))
			b.cache.Apply(cache.Deleted, api.Task{ID: id})
			b.record(ctx, "delete", nil)
			return nil
		}
		b.record(ctx, "delete", err)
		return err
	}
	b.cache.Apply(cache.Deleted, api.Task{ID: id})
	b.record(ctx, "delete", nil)
	return nil
}

// AddToCalendar asks the server to create a calendar event for the task.
// The event id is never written into the cache directly; a refresh pulls
// the server's updated record instead.
func (b *Board) AddToCalendar(ctx context.Context, id api.ID, opts api.CalendarOptions) (string, error) {
	if _, err := b.gate(); err != nil {
		return "", err
	}

	eventID, err := b.client.AddToCalendar(ctx, id, opts)
	if err != nil {
		b.recordEffect(ctx, "calendar", err)
		return "", &SecondaryError{Effect: "calendar", TaskID: id.String(), Err: err}
	}
	b.recordEffect(ctx, "calendar", nil)
	b.refreshAfterEffect(ctx, "calendar", id)
	return eventID, nil
}

// RemoveFromCalendar asks the server to drop the task's calendar event.
func (b *Board) RemoveFromCalendar(ctx context.Context, id api.ID) error {
	if _, err := b.gate(); err != nil {
		return err
	}

	if err := b.client.RemoveFromCalendar(ctx, id); err != nil {
		b.recordEffect(ctx, "calendar", err)
		return &SecondaryError{Effect: "calendar", TaskID: id.String(), Err: err}
	}
	b.recordEffect(ctx, "calendar", nil)
	b.refreshAfterEffect(ctx, "calendar", id)
	return nil
}

// SendReminder asks the server to mail a reminder for the task. The
// recipient defaults to the session user's own address.
func (b *Board) SendReminder(ctx context.Context, id api.ID, recipientEmail string) error {
	user, err := b.gate()
	if err != nil {
		return err
	}
	if recipientEmail == "" {
		recipientEmail = user.Email
	}

	if err := b.client.SendReminder(ctx, id, recipientEmail); err != nil {
		b.recordEffect(ctx, "reminder", err)
		return &SecondaryError{Effect: "reminder", TaskID: id.String(), Err: err}
	}
	b.recordEffect(ctx, "reminder", nil)
	b.logger.Info("reminder sent",
		logging.Effect("reminder"),
		logging.TaskID(id.String()),
		logging.UserHash(recipientEmail))
	return nil
}

// ExportToSheets asks the server to export all tasks to a spreadsheet
// and returns its URL.
func (b *Board) ExportToSheets(ctx context.Context, spreadsheetName string) (string, error) {
	if _, err := b.gate(); err != nil {
		return "", err
	}

	url, err := b.client.ExportToSheets(ctx, spreadsheetName)
	if err != nil {
		b.recordEffect(ctx, "sheets", err)
		return "", &SecondaryError{Effect: "sheets", Err: err}
	}
	b.recordEffect(ctx, "sheets", nil)
	return url, nil
}

// CreateWithCalendar creates the task and then tries to put it on the
// calendar. The calendar step is best effort: when it fails, the created
// task is returned alongside a *SecondaryError and nothing is rolled
// back.
func (b *Board) CreateWithCalendar(ctx context.Context, draft api.TaskDraft, opts api.CalendarOptions) (api.Task, error) {
	task, err := b.Create(ctx, draft)
	if err != nil {
		return api.Task{}, err
	}
	if _, err := b.AddToCalendar(ctx, task.ID, opts); err != nil {
		b.logger.Warn("task created but calendar effect failed",
			logging.TaskID(task.ID.String()),
			logging.Err(err))
		return task, err
	}
	return task, nil
}

// Login authenticates, installs the session and loads the user's tasks.
func (b *Board) Login(ctx context.Context, creds api.Credentials) (api.User, error) {
	user, err := b.client.Login(ctx, creds)
	if err != nil {
		return api.User{}, err
	}
	if err := b.sessions.Set(user); err != nil {
		return api.User{}, err
	}
	b.metrics.IncrementActiveSessions(ctx)
	if err := b.Refresh(ctx); err != nil {
		b.logger.Warn("task refresh after login failed",
			logging.Err(err))
	}
	return user, nil
}

// Register creates an account, installs the session and loads tasks.
func (b *Board) Register(ctx context.Context, reg api.Registration) (api.User, error) {
	user, err := b.client.Register(ctx, reg)
	if err != nil {
		return api.User{}, err
	}
	if err := b.sessions.Set(user); err != nil {
		return api.User{}, err
	}
	b.metrics.IncrementActiveSessions(ctx)
	if err := b.Refresh(ctx); err != nil {
		b.logger.Warn("task refresh after registration failed",
			logging.Err(err))
	}
	return user, nil
}

// UpdateProfile patches the session user's profile and updates the
// stored identity with the server's answer.
func (b *Board) UpdateProfile(ctx context.Context, patch api.ProfilePatch) (api.User, error) {
	user, err := b.gate()
	if err != nil {
		return api.User{}, err
	}
	patch.UserID = user.ID.String()

	updated, err := b.client.UpdateProfile(ctx, patch)
	if err != nil {
		return api.User{}, err
	}
	if err := b.sessions.Update(updated); err != nil {
		return api.User{}, err
	}
	if err := b.Refresh(ctx); err != nil {
		b.logger.Warn("task refresh after profile update failed",
			logging.Err(err))
	}
	return updated, nil
}

// Logout ends the session and drops all cached tasks. Safe to call with
// no session active.
func (b *Board) Logout(ctx context.Context) error {
	_, hadSession := b.sessions.User()
	if err := b.sessions.Clear(); err != nil {
		return err
	}
	b.cache.Clear()
	if hadSession {
		b.metrics.DecrementActiveSessions(ctx)
	}
	return nil
}

// refreshAfterEffect pulls fresh task state after a confirmed side
// operation, so server-assigned fields like the calendar event id come
// from the server rather than being fabricated locally. A failure here
// is logged, not returned; the effect itself succeeded.
func (b *Board) refreshAfterEffect(ctx context.Context, effect string, id api.ID) {
	if err := b.Refresh(ctx); err != nil {
		b.logger.Warn("task refresh after effect failed",
			logging.Effect(effect),
			logging.TaskID(id.String()),
			logging.Err(err))
	}
}

func (b *Board) record(ctx context.Context, op string, err error) {
	b.metrics.RecordMutation(ctx, op, err == nil)
}

func (b *Board) recordEffect(ctx context.Context, effect string, err error) {
	b.metrics.RecordSecondaryEffect(ctx, effect, err == nil)
}
