package store

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicate is returned by create when the saving rule finds a
	// recent duplicate and its action is "error".
	ErrDuplicate = errors.New("duplicate event")

	// ErrUnknownUser is returned by a strict signed create for a user the
	// store has never seen.
	ErrUnknownUser = errors.New("unknown user")

	// ErrNotFound is returned by ReadEvent for an unknown id.
	ErrNotFound = errors.New("event not found")

	// ErrNoUser is returned when a signed request carries no user.
	ErrNoUser = errors.New("signed request without a user")
)

// Error is the error type of every Store operation.
type Error struct {
	Op  string // Operation that failed
	Err error  // The underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// IsDuplicate reports whether err is a saving-rule rejection.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
