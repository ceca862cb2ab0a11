package store

import "errors"

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("not found")

// InvalidError reports input rejected before it reached a collection.
// Reason is safe to show to the caller.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string { return e.Reason }

// Invalid returns an *InvalidError carrying reason.
func Invalid(reason string) error {
	return &InvalidError{Reason: reason}
}

// NotFoundError reports a lookup that matched no document.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string { return e.Reason }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns a *NotFoundError carrying reason.
func NotFound(reason string) error {
	return &NotFoundError{Reason: reason}
}
