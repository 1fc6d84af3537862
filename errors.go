package nexsql

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for the two error classes the toolkit produces
// itself. Semantic errors in caller-supplied SQL are never detected here;
// they surface as database-reported errors at execution time.
var (
	// ErrInvalidArgument is returned for invalid arguments to builder or
	// set operations.
	ErrInvalidArgument = errors.New("nexsql: invalid argument")

	// ErrUnsupportedDialect is returned when a statement is compiled for a
	// dialect the toolkit does not recognize. It is a configuration error:
	// surfaced, never retried.
	ErrUnsupportedDialect = errors.New("nexsql: unsupported dialect")
)

// UsageError reports an invalid argument to a builder or set operation.
type UsageError struct {
	Op     string // operation that was misused, e.g. "sql.Append"
	Reason string
}

// Error returns the error string.
func (e *UsageError) Error() string {
	return fmt.Sprintf("nexsql: %s: %s", e.Op, e.Reason)
}

// Is reports whether the target error matches UsageError.
// This allows errors.Is(usageErr, ErrInvalidArgument) to return true.
func (e *UsageError) Is(err error) bool {
	return err == ErrInvalidArgument
}

// IsUsage returns true if the error is a UsageError.
func IsUsage(err error) bool {
	if err == nil {
		return false
	}
	var e *UsageError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidArgument)
}

// DialectError reports an unrecognized dialect at compile time.
type DialectError struct {
	Dialect string
}

// Error returns the error string.
func (e *DialectError) Error() string {
	if e.Dialect == "" {
		return "nexsql: no dialect configured"
	}
	return fmt.Sprintf("nexsql: unsupported dialect %q", e.Dialect)
}

// Is reports whether the target error matches DialectError.
// This allows errors.Is(dialectErr, ErrUnsupportedDialect) to return true.
func (e *DialectError) Is(err error) bool {
	return err == ErrUnsupportedDialect
}

// IsUnsupportedDialect returns true if the error is a DialectError.
func IsUnsupportedDialect(err error) bool {
	if err == nil {
		return false
	}
	var e *DialectError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedDialect)
}
