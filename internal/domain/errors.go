package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyReviewed   = errors.New("execution already reviewed")
	ErrValidation        = errors.New("validation failed")
)

// Validationf wraps ErrValidation with a caller-facing message, so handlers
// can both match the kind with errors.Is and show the detail.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}
