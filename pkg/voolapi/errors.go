package voolapi

import (
	"errors"
	"fmt"
)

// ErrInvalidAuth marks failures that require the user to fix credentials:
// rejected login or a token the service refuses. Anything else returned by
// this package is considered transient.
var ErrInvalidAuth = errors.New("invalid auth")

// StatusError is an unexpected non-2xx response from the status endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

func IsInvalidAuth(err error) bool {
	return errors.Is(err, ErrInvalidAuth)
}
