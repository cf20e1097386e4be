package door

import "errors"

// ErrNotFound is returned when a door id does not resolve to a door.
var ErrNotFound = errors.New("door not found")

// ValidationError reports a rejected input. It is surfaced to callers as a
// bad request and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
