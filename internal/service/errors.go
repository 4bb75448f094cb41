package service

import (
	"errors"
	"strings"

	"github.com/lalith-99/nextup/internal/repository"
)

// Re-exported so handlers only need to know about this package.
var (
	ErrNotFound = repository.ErrNotFound
	ErrConflict = repository.ErrConflict
)

// ErrUnauthorized is deliberately the only credential failure. Unknown
// shop, wrong secret and wrong email all map to it.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError lists the input fields that were missing or unusable.
// Handlers show Message to the user next to the form.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "invalid input: " + strings.Join(e.Fields, ", ")
}

func newValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Message: message}
}

// IsValidation reports whether err is a *ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
