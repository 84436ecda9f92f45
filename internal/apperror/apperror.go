// Package apperror defines the application's error taxonomy.
//
// Every layer returns these instead of raw errors so that callers can
// classify failures with errors.Is without string matching. The HTTP
// handlers map them to status codes in exactly one place (writeError),
// and the client maps them to user-facing guidance.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors. Wrap them with an AppError (below) to attach a
// human-readable message; classify with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")

	// Auth flow failures.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrResetFailed        = errors.New("reset failed")

	// Ingestion failures.
	ErrNoFileSelected   = errors.New("no file selected")
	ErrFileTooLarge     = errors.New("file too large")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrRemoteProcessing = errors.New("remote processing failed")

	// ErrNetwork covers connectivity failures and unparsable responses.
	ErrNetwork = errors.New("network error")

	// ErrBusy is returned when an operation of the same kind is already
	// in flight on a controller. The second attempt is rejected
	// immediately, never queued.
	ErrBusy = errors.New("operation already in progress")
)

// AppError pairs a sentinel with a human-readable message. The message is
// the server-supplied one when available, else a generic fallback.
type AppError struct {
	Err     error  // sentinel, reachable via errors.Is
	Message string // human-readable description
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps a sentinel with a message.
func New(sentinel error, message string) *AppError {
	return &AppError{Err: sentinel, Message: message}
}

// Newf wraps a sentinel with a formatted message.
func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{Err: sentinel, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed reports a client-side validation failure. These are
// resolved entirely within the controller or pipeline and never reach
// the network.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness conflict (duplicate email on register).
func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, key),
	}
}

// Busy reports a rejected re-entrant operation.
func Busy(operation string) *AppError {
	return &AppError{
		Err:     ErrBusy,
		Message: fmt.Sprintf("%s already in progress", operation),
	}
}

// Message extracts the human-readable message from err, falling back to
// err.Error() when it is not an AppError.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
