package svcwrap

import (
	"errors"
	"fmt"
)

// Common errors returned by svcwrap operations. Every *OpError unwraps to the
// sentinel matching its Operation, so errors.Is works on the category.
var (
	// ErrResolution indicates the download URL or expected checksum could not be determined
	ErrResolution = errors.New("svcwrap: resolution failed")

	// ErrDownload indicates a network or I/O failure while fetching the artifact or sidecar
	ErrDownload = errors.New("svcwrap: download failed")

	// ErrIntegrity indicates the artifact digest does not match the expected checksum
	ErrIntegrity = errors.New("svcwrap: checksum mismatch")

	// ErrSpawn indicates the service process could not be launched or died before becoming ready
	ErrSpawn = errors.New("svcwrap: spawn failed")

	// ErrTermination indicates the kill signal could not be delivered
	ErrTermination = errors.New("svcwrap: termination failed")

	// ErrTimeout indicates a bounded wait expired
	ErrTimeout = errors.New("svcwrap: timeout")

	// ErrInvalidState indicates an operation was requested mid-transition
	ErrInvalidState = errors.New("svcwrap: invalid state")

	// ErrInvalidConfig indicates the instance configuration is unusable
	ErrInvalidConfig = errors.New("svcwrap: invalid config")

	// ErrDefaultSet indicates SetDefault was called more than once
	ErrDefaultSet = errors.New("svcwrap: default supervisor already set")

	// ErrNoDefault indicates Default was used before SetDefault
	ErrNoDefault = errors.New("svcwrap: default supervisor not set")
)

// OpError represents an error from a svcwrap operation
type OpError struct {
	// Op is the operation that failed
	Op Operation
	// Path is the file path or URL involved in the operation
	Path string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *OpError) Error() string {
	return fmt.Sprintf("svcwrap %s %q: %v", e.Op.String(), e.Path, e.Err)
}

// Unwrap returns the operation category and the underlying error
func (e *OpError) Unwrap() []error {
	if cat := e.Op.category(); cat != nil && !errors.Is(e.Err, cat) {
		return []error{cat, e.Err}
	}
	return []error{e.Err}
}

// ChecksumMismatch describes a failed integrity check
type ChecksumMismatch struct {
	// Path is the file that was hashed
	Path string
	// Expected is the checksum the file should have
	Expected string
	// Actual is the checksum the file has
	Actual string
}

// Error returns a formatted error message
func (m *ChecksumMismatch) Error() string {
	return fmt.Sprintf("md5 of %s is %s, expected %s", m.Path, m.Actual, m.Expected)
}

// MultiError aggregates multiple errors from teardown operations
type MultiError struct {
	// Errors contains all accumulated errors
	Errors []error
}

// Error returns a summary of the accumulated errors
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred: %v", len(m.Errors), errors.Join(m.Errors...))
}

// Add appends an error to the collection if it's not nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Unwrap exposes the accumulated errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Err returns nil if no errors occurred, otherwise returns the MultiError itself
func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}
