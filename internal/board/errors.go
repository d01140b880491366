package board

import (
	"errors"
	"fmt"
)

// ErrAuthenticationRequired is returned by every data operation when no
// session is active. Nothing goes on the wire in that case.
var ErrAuthenticationRequired = errors.New("authentication required")

// SecondaryError reports the failure of a best-effort side operation
// (calendar, reminder, spreadsheet export). The primary mutation, if
// any, has already been confirmed; callers report the effect failure
// without undoing anything.
type SecondaryError struct {
	// Effect names the side operation: "calendar", "reminder", "sheets".
	Effect string
	// TaskID is the task the effect targeted, when there is one.
	TaskID string
	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *SecondaryError) Error() string {
	if e.TaskID != "" {
		return fmt.Sprintf("%s effect failed for task %s: %v", e.Effect, e.TaskID, e.Err)
	}
	return fmt.Sprintf("%s effect failed: %v", e.Effect, e.Err)
}

// Unwrap returns the underlying error.
func (e *SecondaryError) Unwrap() error {
	return e.Err
}

// IsSecondary reports whether err is a best-effort effect failure.
func IsSecondary(err error) bool {
	var se *SecondaryError
	return errors.As(err, &se)
}
