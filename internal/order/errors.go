package order

import "errors"

var (
	ErrNotFound            = errors.New("order not found")
	ErrDuplicateSubmission = errors.New("idempotency key already used")
)

// ValidationError carries a user-facing message for input the customer can
// correct. Anything else reaching a handler is an infrastructure failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
