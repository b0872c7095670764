package adventure

import (
	"errors"

	"backend-storymap/internal/lock"
)

var (
	ErrNotFound       = errors.New("adventure not found")
	ErrNotOwner       = errors.New("only the owner can change this adventure")
	ErrSignInRequired = errors.New("sign in required")
	ErrNotConfirmed   = errors.New("delete not confirmed")
	ErrNoMediaURL     = errors.New("media store returned no url")
	ErrInFlight       = lock.ErrHeld
)

// ValidationError is a local input error found before any remote call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
