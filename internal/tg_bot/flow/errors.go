package flow

import (
	"errors"
	"fmt"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
)

var (
	// ErrNoActiveFlow is returned by Submit when the user has no session.
	// Callers treat it as an ignorable event.
	ErrNoActiveFlow = errors.New("no active flow")
	// ErrUnknownFlow is returned by Start for a flow that was never registered.
	ErrUnknownFlow = errors.New("unknown flow")
	// ErrLookupFailed marks a repository lookup that failed, as opposed to one that
	// confirmed the record is absent.
	ErrLookupFailed = errors.New("lookup failed")
)

// ValidationError is a recoverable input error: the same step is asked again.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError with the message shown to the user.
func Invalid(message string) error {
	return &ValidationError{Message: message}
}

// RejectionError is returned by Start when the flow's entry guard refuses the user.
// No session is created.
type RejectionError struct {
	Flow    models.FlowID
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("flow %s rejected: %s", e.Flow, e.Message)
}

// FailureError is returned by a side effect to choose the message the user sees.
// The cause is logged, never shown.
type FailureError struct {
	Message string
	Cause   error
}

func (e *FailureError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *FailureError) Unwrap() error {
	return e.Cause
}

// Failure builds a FailureError.
func Failure(message string, cause error) error {
	return &FailureError{Message: message, Cause: cause}
}
