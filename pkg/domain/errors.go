package domain

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when an index argument falls outside its valid bounds.
// It signals a caller bug: presentation layers derive indices from counts they already hold.
var ErrOutOfRange = errors.New("index out of range")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidSession is returned when a session does not fit the exercise it is bound to
// (e.g. a persisted session whose exercise changed shape).
var ErrInvalidSession = errors.New("invalid session")

// ErrEmptyCatalog is returned when the engine is built without exercises.
var ErrEmptyCatalog = errors.New("exercise catalog is empty")

// ErrInvalidCatalog is returned when exercise content fails validation.
var ErrInvalidCatalog = errors.New("invalid exercise catalog")

// RangeError describes a rejected index.
type RangeError struct {
	Op    string // operation that rejected the index, e.g. "goto_step"
	Index int
	Len   int // number of valid slots; valid indices are [0, Len)
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0, %d)", e.Op, e.Index, e.Len)
}

// Is reports ErrOutOfRange so callers can use errors.Is.
func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// CheckIndex returns a *RangeError if index is not in [0, length).
func CheckIndex(op string, index, length int) error {
	if index < 0 || index >= length {
		return &RangeError{Op: op, Index: index, Len: length}
	}
	return nil
}
