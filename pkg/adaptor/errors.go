package adaptor

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for adaptor operations.
//
// Callers must be able to tell apart "my request was malformed" (location,
// configuration), "the backend could not be reached" (transport), "the
// backend ran but reported failure" (backend), and "we could not understand
// what the backend said" (parse), since each implies a different remediation.
var (
	// ErrLocation indicates a malformed URI, a disallowed fragment, or an
	// unsupported scheme.
	ErrLocation = errors.New("invalid location")

	// ErrConfiguration indicates a property not recognized by a strict adaptor.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrTransport indicates a process spawn or I/O failure reaching the backend.
	ErrTransport = errors.New("transport failure")

	// ErrParse indicates an expected field or token was absent or malformed
	// in backend output.
	ErrParse = errors.New("unparseable backend output")

	// ErrBackend indicates the backend explicitly reported a failure.
	ErrBackend = errors.New("backend reported failure")

	// ErrNotFound indicates an absent adaptor, scheduler, job, or queue.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyClosed indicates an operation on a handle after its close.
	ErrAlreadyClosed = errors.New("already closed")
)

// Error wraps a failure with the originating adaptor's name and operation.
type Error struct {
	// Adaptor is the name of the adaptor the failure originated in.
	Adaptor string

	// Op is the operation that failed (e.g., "SubmitJob", "NewFileSystem").
	Op string

	// Kind is one of the sentinel error kinds above.
	Kind error

	// Message is a human-readable description.
	Message string

	// Err is the wrapped cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Adaptor, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Adaptor, e.Op, e.Message)
}

// Unwrap supports errors.Is against both the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NewError builds an adaptor error of the given kind.
func NewError(kind error, adaptorName, op, message string, cause error) *Error {
	return &Error{Adaptor: adaptorName, Op: op, Kind: kind, Message: message, Err: cause}
}

// IsLocation returns true if the error is a location error.
func IsLocation(err error) bool {
	return errors.Is(err, ErrLocation)
}

// IsConfiguration returns true if the error is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsTransport returns true if the error indicates the backend could not be reached.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsParse returns true if the error indicates unintelligible backend output.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsBackend returns true if the backend explicitly reported the failure.
func IsBackend(err error) bool {
	return errors.Is(err, ErrBackend)
}

// IsNotFound returns true if the requested entity is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyClosed returns true if the handle was used after close.
func IsAlreadyClosed(err error) bool {
	return errors.Is(err, ErrAlreadyClosed)
}
