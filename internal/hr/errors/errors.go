// Package errors defines the failure taxonomy shared by the HR core.
// Every failure a caller can observe unwraps to one of the sentinel
// errors below, so call sites branch with errors.Is while the Error
// type carries enough structure to render a precise message.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced identifier does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey indicates a uniqueness-constraint violation.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrConflict indicates a cardinality or cascade rule blocks the mutation.
	ErrConflict = errors.New("conflict")
	// ErrOverlapConflict indicates a temporal interval collision.
	ErrOverlapConflict = errors.New("overlap conflict")
	// ErrInvalidInput indicates malformed input (negative amount, end before start, ...).
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable indicates the storage collaborator timed out or failed.
	ErrUnavailable = errors.New("storage unavailable")
)

// Error is a structured failure: which entity, which id, which rule.
// It unwraps to one of the sentinels above.
type Error struct {
	Sentinel error
	Entity   string
	ID       string
	Rule     string
}

func (e *Error) Error() string {
	msg := e.Sentinel.Error()
	if e.Entity != "" {
		msg = e.Entity + ": " + msg
	}
	if e.ID != "" {
		msg += fmt.Sprintf(" (id %s)", e.ID)
	}
	if e.Rule != "" {
		msg += ": " + e.Rule
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Sentinel
}

// NotFound reports a missing entity.
func NotFound(entity, id string) error {
	return &Error{Sentinel: ErrNotFound, Entity: entity, ID: id}
}

// DuplicateKey reports a uniqueness violation on the named rule (column or index).
func DuplicateKey(entity, rule string) error {
	return &Error{Sentinel: ErrDuplicateKey, Entity: entity, Rule: rule}
}

// Conflict reports a blocked mutation with the violated rule.
func Conflict(entity, id, rule string) error {
	return &Error{Sentinel: ErrConflict, Entity: entity, ID: id, Rule: rule}
}

// OverlapConflict reports a temporal interval collision.
func OverlapConflict(entity, id, rule string) error {
	return &Error{Sentinel: ErrOverlapConflict, Entity: entity, ID: id, Rule: rule}
}

// InvalidInput reports malformed input with the violated rule.
func InvalidInput(entity, rule string) error {
	return &Error{Sentinel: ErrInvalidInput, Entity: entity, Rule: rule}
}

// Unavailable reports a storage-collaborator failure.
func Unavailable(entity string, cause error) error {
	return &Error{Sentinel: ErrUnavailable, Entity: entity, Rule: cause.Error()}
}
