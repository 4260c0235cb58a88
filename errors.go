package usecase

import (
	"errors"
	"fmt"
)

var (
	// Contract errors.
	ErrNotImplemented = errors.New("usecase: execute not implemented")
	ErrNilUseCase     = errors.New("usecase: nil use case")

	// Lifecycle errors.
	ErrContextReleased = errors.New("usecase: context released")

	// Admission errors.
	ErrThrottled = errors.New("usecase: throttled")
)

// TypeError reports a use case that violates the execution contract, such
// as one that never defines Execute. It surfaces when execution is
// attempted, never at construction.
type TypeError struct {
	UseCase string
	Err     error
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("usecase: %s: %v", e.UseCase, e.Err)
}

func (e *TypeError) Unwrap() error { return e.Err }

// IsTypeError reports whether err is or wraps a *TypeError.
func IsTypeError(err error) bool {
	var te *TypeError
	return errors.As(err, &te)
}
