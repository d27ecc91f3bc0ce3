package rental

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a value that could not be used, e.g. a
	// non-numeric string where an integer is required.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateKey reports a uniqueness violation on add.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound reports a car, member or booking lookup miss.
	ErrNotFound = errors.New("not found")
	// ErrMalformedTable marks a table that was present but unreadable. Load
	// recovers from it by resetting the table, so it only shows up in logs.
	ErrMalformedTable = errors.New("malformed table")
	// ErrAborted is returned when the caller declines a confirmation.
	ErrAborted = errors.New("operation cancelled")
	// ErrInvalidCredentials is returned by the login gate.
	ErrInvalidCredentials = errors.New("invalid login credentials")
)

// NotFoundError names the entity kind and key of a failed lookup.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateKeyError names the table and unique field an add collided on.
type DuplicateKeyError struct {
	Table string
	Field string
	Value string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s: a record with %s %q already exists", e.Table, e.Field, e.Value)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
