package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("game session not found")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInternalError   = errors.New("internal server error")
)

// NewValidationError returns a validation error naming the offending field.
func NewValidationError(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrSessionNotFound)
}

// IsValidationError checks if an error is caused by invalid caller input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidRequest)
}
