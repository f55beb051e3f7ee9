package errors

import (
	stderrors "errors"
	"fmt"
)

// Dispatch pipeline error kinds. Concrete errors wrap one of these so the
// worker and the HTTP layer can branch with errors.Is.
var (
	ErrValidation       = stderrors.New("validation error")
	ErrCapacity         = stderrors.New("dispatch queue is full")
	ErrRouting          = stderrors.New("no channel available for network")
	ErrActuationFailure = stderrors.New("actuation failed")
	ErrActuationTimeout = stderrors.New("actuation timed out")
	ErrRetryExhausted   = stderrors.New("retry limit reached")

	// ErrInterrupted marks a session cut short by cancellation of its caller.
	ErrInterrupted = fmt.Errorf("%w: interrupted", ErrActuationFailure)
)

// IsActuation reports whether err came from the actuation side of an attempt,
// including routing.
func IsActuation(err error) bool {
	return stderrors.Is(err, ErrActuationFailure) ||
		stderrors.Is(err, ErrActuationTimeout) ||
		stderrors.Is(err, ErrRouting)
}
