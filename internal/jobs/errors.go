package jobs

import "errors"

// ErrNotFound is returned for unknown or malformed job ids. A malformed id
// is a 404 by definition, never a 400.
var ErrNotFound = errors.New("job not found")

// ConflictError reports a state conflict: the operation is valid but the job
// is not in a state that permits it. Detail strings are part of the wire
// contract and must not change.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string {
	return e.Detail
}

var (
	errNotRunning   = &ConflictError{Detail: "job is not running"}
	errNoLease      = &ConflictError{Detail: "job has no active lease"}
	errLeaseExpired = &ConflictError{Detail: "lease has expired"}
	errWrongOwner   = &ConflictError{Detail: "job is owned by a different worker"}
)

// ValidationError reports malformed caller input.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}
