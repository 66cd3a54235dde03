package fetch

import (
	"errors"
	"fmt"
)

var (
	ErrRunInProgress    = errors.New("run in progress")
	ErrNoPendingSession = errors.New("no pending session")
	ErrSessionMismatch  = errors.New("session does not match the pending challenge")
	ErrEmptyAnswer      = errors.New("captcha answer is required")
)

// ValidationError reports a violated precondition. It is always raised
// locally, before any request reaches the backend.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

// TransportError reports a failed round trip: the request could not be sent,
// timed out, came back with an unusable status, or the body was not JSON.
type TransportError struct {
	// Op names the request, e.g. "POST /fetch_by_cnr_init".
	Op string

	// StatusCode is the HTTP status when a response was received.
	StatusCode int

	Err error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error: %s (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransportError reports whether err is, or wraps, a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
