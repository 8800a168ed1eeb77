package services

import "errors"

var (
	// ErrEmptyInput is returned when a submission is blank or whitespace.
	ErrEmptyInput = errors.New("input is empty")
	// ErrInvalidMode is returned for an unknown chat mode.
	ErrInvalidMode = errors.New("invalid chat mode")
	// ErrBusy is returned when a thread already has a submission in flight.
	ErrBusy = errors.New("a submission is already in progress for this thread")
	// ErrConnectionNotFound is returned when a connection id is not in the registry.
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrNotReady is returned when execution is requested without a prepared active connection.
	ErrNotReady = errors.New("no active connection is prepared for querying")
	// ErrNoQuery is returned when execution is requested before any query was published.
	ErrNoQuery = errors.New("no query has been generated yet")
	// ErrMissingCollection is returned when a document-store execution
	// cannot resolve a target collection from metadata, the query, or the
	// caller. The caller may re-dispatch with a user-supplied name.
	ErrMissingCollection = errors.New("collection name is required for MongoDB queries")
	// ErrHistoryNotFound is returned when a history entry id does not exist.
	ErrHistoryNotFound = errors.New("history entry not found")
)

// ValidationError is a client-side rejection for a missing or invalid
// credential field. No network call is made when it is returned.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// ConnectError is an upstream rejection or transport failure of a
// connect call. The wrapped error carries the resolved message and, for
// rejections, the status code.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string { return e.Err.Error() }
func (e *ConnectError) Unwrap() error { return e.Err }

// PrepareError is the prepare-call counterpart of ConnectError.
type PrepareError struct {
	Err error
}

func (e *PrepareError) Error() string { return e.Err.Error() }
func (e *PrepareError) Unwrap() error { return e.Err }

// ExecutionError is a rejected or failed query execution. Message is
// already user-facing; Err retains the underlying cause when there is one.
type ExecutionError struct {
	Message string
	Err     error
}

func (e *ExecutionError) Error() string { return e.Message }
func (e *ExecutionError) Unwrap() error { return e.Err }
