package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/internal/logging"
)

// DefaultTimeout bounds every request; timeouts surface as network errors.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Client talks to the task REST API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the task API at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do issues a JSON request and returns the response body for 2xx
// responses. Non-2xx statuses and transport failures come back as *Error.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Op: op, Kind: KindValidation, Err: fmt.Errorf("encoding request: %w", err)}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("task api request failed",
			logging.Operation(op),
			logging.Err(err))
		return nil, &Error{Op: op, Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Op: op, Kind: KindNetwork, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.Debug("task api request",
		logging.Operation(op),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration(logging.KeyDuration, time.Since(start)))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, c.statusError(op, resp.StatusCode, data)
}

// statusError maps an HTTP failure status to the error taxonomy.
func (c *Client) statusError(op string, status int, body []byte) *Error {
	msg := serverMessage(body, http.StatusText(status))
	kind := KindServer
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindUnauthenticated
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = KindValidation
	case status >= 500:
		kind = KindServer
	}
	return &Error{Op: op, Kind: kind, StatusCode: status, Err: fmt.Errorf("%s", msg)}
}

// malformed wraps a normalization failure. Logged distinctly so payload
// drift is visible in the logs even though callers treat it as a server
// failure.
func (c *Client) malformed(op string, err error) *Error {
	c.logger.Error("task api returned an unrecognizable payload",
		logging.Operation(op),
		logging.Err(err))
	return &Error{Op: op, Kind: KindMalformed, Err: err}
}

// Health checks API liveness. A failure here should block app init.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, "health", http.MethodGet, "/health", nil)
	return err
}

// ListTasks fetches every task owned by userID, in server order.
func (c *Client) ListTasks(ctx context.Context, userID string) ([]Task, error) {
	path := "/tasks"
	if userID != "" {
		path += "?user_id=" + url.QueryEscape(userID)
	}
	body, err := c.do(ctx, "list", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	tasks, err := normalizeTaskList(body)
	if err != nil {
		return nil, c.malformed("list", err)
	}
	return tasks, nil
}

// CreateTask creates a task from the draft. The title is validated
// client-side so an obviously bad draft never goes on the wire; priority
// and status default to medium/pending when unset.
func (c *Client) CreateTask(ctx context.Context, draft TaskDraft) (Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return Task{}, &Error{Op: "create", Kind: KindValidation, Err: fmt.Errorf("title is required")}
	}
	if draft.Priority == "" {
		draft.Priority = PriorityMedium
	}
	if draft.Status == "" {
		draft.Status = StatusPending
	}
	if !draft.Priority.IsValid() {
		return Task{}, &Error{Op: "create", Kind: KindValidation, Err: fmt.Errorf("invalid priority %q", draft.Priority)}
	}
	if !draft.Status.IsValid() {
		return Task{}, &Error{Op: "create", Kind: KindValidation, Err: fmt.Errorf("invalid status %q", draft.Status)}
	}

	body, err := c.do(ctx, "create", http.MethodPost, "/tasks", draft)
	if err != nil {
		return Task{}, err
	}
	task, err := normalizeTask(body)
	if err != nil {
		return Task{}, c.malformed("create", err)
	}
	return task, nil
}

// UpdateTask applies a partial patch to the task; unset fields keep their
// stored value.
func (c *Client) UpdateTask(ctx context.Context, id ID, patch TaskPatch) (Task, error) {
	if id == "" {
		return Task{}, &Error{Op: "update", Kind: KindValidation, Err: fmt.Errorf("task id is required")}
	}
	if patch.Priority != nil && !patch.Priority.IsValid() {
		return Task{}, &Error{Op: "update", Kind: KindValidation, Err: fmt.Errorf("invalid priority %q", *patch.Priority)}
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return Task{}, &Error{Op: "update", Kind: KindValidation, Err: fmt.Errorf("invalid status %q", *patch.Status)}
	}

	body, err := c.do(ctx, "update", http.MethodPut, "/tasks/"+url.PathEscape(id.String()), patch)
	if err != nil {
		return Task{}, err
	}
	task, err := normalizeTask(body)
	if err != nil {
		return Task{}, c.malformed("update", err)
	}
	return task, nil
}

// DeleteTask removes the task from the remote store. Deleting an already
// deleted task yields a not-found error; callers decide whether that is
// benign.
func (c *Client) DeleteTask(ctx context.Context, id ID) error {
	if id == "" {
		return &Error{Op: "delete", Kind: KindValidation, Err: fmt.Errorf("task id is required")}
	}
	_, err := c.do(ctx, "delete", http.MethodDelete, "/tasks/"+url.PathEscape(id.String()), nil)
	return err
}

// AddToCalendar asks the API to create a calendar event for the task and
// returns the event identifier.
func (c *Client) AddToCalendar(ctx context.Context, id ID, opts CalendarOptions) (string, error) {
	body, err := c.do(ctx, "calendar.add", http.MethodPost, "/tasks/"+url.PathEscape(id.String())+"/add-to-calendar", opts)
	if err != nil {
		return "", err
	}
	var env envelope
	var data struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err == nil && data.EventID != "" {
			return data.EventID, nil
		}
	}
	if err := json.Unmarshal(body, &data); err == nil && data.EventID != "" {
		return data.EventID, nil
	}
	return "", c.malformed("calendar.add", fmt.Errorf("no event_id in response"))
}

// RemoveFromCalendar asks the API to delete the task's calendar event.
func (c *Client) RemoveFromCalendar(ctx context.Context, id ID) error {
	_, err := c.do(ctx, "calendar.remove", http.MethodDelete, "/tasks/"+url.PathEscape(id.String())+"/remove-from-calendar", nil)
	return err
}

// SendReminder asks the API to mail a reminder for the task.
func (c *Client) SendReminder(ctx context.Context, id ID, recipientEmail string) error {
	payload := struct {
		RecipientEmail string `json:"recipient_email,omitempty"`
	}{RecipientEmail: recipientEmail}
	_, err := c.do(ctx, "reminder.send", http.MethodPost, "/tasks/"+url.PathEscape(id.String())+"/send-reminder", payload)
	return err
}

// ExportToSheets asks the API to export all tasks to a spreadsheet and
// returns its URL.
func (c *Client) ExportToSheets(ctx context.Context, spreadsheetName string) (string, error) {
	payload := struct {
		SpreadsheetName string `json:"spreadsheet_name,omitempty"`
	}{SpreadsheetName: spreadsheetName}
	body, err := c.do(ctx, "sheets.export", http.MethodPost, "/tasks/export/sheets", payload)
	if err != nil {
		return "", err
	}
	var env envelope
	var data struct {
		SpreadsheetURL string `json:"spreadsheet_url"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err == nil && data.SpreadsheetURL != "" {
			return data.SpreadsheetURL, nil
		}
	}
	if err := json.Unmarshal(body, &data); err == nil && data.SpreadsheetURL != "" {
		return data.SpreadsheetURL, nil
	}
	return "", c.malformed("sheets.export", fmt.Errorf("no spreadsheet_url in response"))
}

// Login authenticates with email and password. Invalid credentials
// surface as an unauthenticated error.
func (c *Client) Login(ctx context.Context, creds Credentials) (User, error) {
	if creds.Email == "" || creds.Password == "" {
		return User{}, &Error{Op: "login", Kind: KindValidation, Err: fmt.Errorf("email and password are required")}
	}
	body, err := c.do(ctx, "login", http.MethodPost, "/auth/login", creds)
	if err != nil {
		return User{}, err
	}
	user, err := normalizeUser(body)
	if err != nil {
		return User{}, c.malformed("login", err)
	}
	return user, nil
}

// Register creates a new account and returns the resulting user.
func (c *Client) Register(ctx context.Context, reg Registration) (User, error) {
	if reg.Email == "" || reg.Password == "" || reg.Name == "" {
		return User{}, &Error{Op: "register", Kind: KindValidation, Err: fmt.Errorf("name, email and password are required")}
	}
	body, err := c.do(ctx, "register", http.MethodPost, "/auth/register", reg)
	if err != nil {
		return User{}, err
	}
	user, err := normalizeUser(body)
	if err != nil {
		return User{}, c.malformed("register", err)
	}
	return user, nil
}

// UpdateProfile patches the authenticated user's profile.
func (c *Client) UpdateProfile(ctx context.Context, patch ProfilePatch) (User, error) {
	if patch.UserID == "" {
		return User{}, &Error{Op: "profile.update", Kind: KindValidation, Err: fmt.Errorf("user id is required")}
	}
	body, err := c.do(ctx, "profile.update", http.MethodPut, "/auth/profile", patch)
	if err != nil {
		return User{}, err
	}
	user, err := normalizeUser(body)
	if err != nil {
		return User{}, c.malformed("profile.update", err)
	}
	return user, nil
}
