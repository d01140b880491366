package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed API call.
type ErrorKind string

const (
	// KindNetwork covers transport failures: connection refused, DNS,
	// timeouts. The server may never have seen the request.
	KindNetwork ErrorKind = "network"

	// KindUnauthenticated means the server rejected the user scope.
	KindUnauthenticated ErrorKind = "unauthenticated"

	// KindValidation means the server (or the client, pre-flight)
	// rejected the input.
	KindValidation ErrorKind = "validation"

	// KindNotFound means the target resource does not exist.
	KindNotFound ErrorKind = "not_found"

	// KindServer covers 5xx responses.
	KindServer ErrorKind = "server"

	// KindMalformed means the response carried no recognizable payload.
	// Treated like a server failure for user-visible purposes but logged
	// distinctly.
	KindMalformed ErrorKind = "malformed"
)

// Error is the typed error returned by all Client operations.
type Error struct {
	// Op is the operation that failed (e.g. "list", "create").
	Op string

	// Kind classifies the failure.
	Kind ErrorKind

	// StatusCode is the HTTP status, when a response was received.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("task api %s (%s, status %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("task api %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap implements the errors.Unwrap interface.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == kind
}
