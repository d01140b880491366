package api

import (
	"bytes"
	"encoding/json"
	"time"
)

// Priority levels accepted by the task API.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether p is one of the priorities the API accepts.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status values accepted by the task API.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// IsValid reports whether s is one of the statuses the API accepts.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ID is an opaque record identifier assigned by the remote store.
// The server serializes it as either a JSON number or a JSON string
// depending on the endpoint, so it unmarshals from both.
type ID string

// UnmarshalJSON accepts both string and numeric identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits the identifier as a string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// String returns the identifier as a plain string.
func (id ID) String() string { return string(id) }

// Task is the canonical task record as stored by the remote API.
type Task struct {
	ID              ID         `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Priority        Priority   `json:"priority"`
	Status          Status     `json:"status"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at,omitempty"`
	CalendarEventID string     `json:"calendar_event_id,omitempty"`
	OwnerID         string     `json:"owner_id,omitempty"`
}

// IsOverdue reports whether the task's due date has passed without the
// task being completed. Tasks without a due date are never overdue.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	return t.DueDate.Before(now)
}

// TaskDraft is the input for creating a task. Title is required; the
// server fills in medium priority and pending status when unspecified.
type TaskDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	Status      Status     `json:"status,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	OwnerID     string     `json:"user_id,omitempty"`
}

// TaskPatch is a partial update. Nil fields keep their stored value.
type TaskPatch struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Priority        *Priority  `json:"priority,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	CalendarEventID *string    `json:"calendar_event_id,omitempty"`
}

// IsZero reports whether the patch carries no fields.
func (p TaskPatch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.DueDate == nil && p.CalendarEventID == nil
}

// User is the authenticated actor as returned by the auth endpoints.
type User struct {
	ID                      ID     `json:"id"`
	Name                    string `json:"name"`
	Email                   string `json:"email"`
	Timezone                string `json:"timezone,omitempty"`
	NotificationPreferences string `json:"notification_preferences,omitempty"`
}

// Credentials is the login input.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the input for creating a new user account.
type Registration struct {
	Name                    string `json:"name"`
	Email                   string `json:"email"`
	Password                string `json:"password"`
	Timezone                string `json:"timezone,omitempty"`
	NotificationPreferences string `json:"notification_preferences,omitempty"`
}

// ProfilePatch updates the authenticated user's profile. The password is
// only changed when non-empty.
type ProfilePatch struct {
	UserID                  string `json:"user_id"`
	Name                    string `json:"name,omitempty"`
	Timezone                string `json:"timezone,omitempty"`
	NotificationPreferences string `json:"notification_preferences,omitempty"`
	Password                string `json:"password,omitempty"`
}

// CalendarOptions configures the calendar event created for a task.
type CalendarOptions struct {
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	ReminderMinutes int    `json:"reminder_minutes,omitempty"`
	Location        string `json:"location,omitempty"`
	Description     string `json:"description,omitempty"`
}
