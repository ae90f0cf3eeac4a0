package driver

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes driver errors.
type ErrorCode string

const (
	// ErrCodeDatabase wraps an error reported by the RethinkDB client:
	// network failure, query error, constraint violation.
	ErrCodeDatabase ErrorCode = "DATABASE"

	// ErrCodeMissingKey indicates a create produced no generated key and
	// the payload carried no id either.
	ErrCodeMissingKey ErrorCode = "MISSING_KEY"

	// ErrCodeUnsupported indicates a feature RethinkDB cannot express.
	// The wrapped error is a queryir.UnsupportedError.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"
)

// DriverError is returned by Driver operations.
//
// The underlying client error is kept in Err so errors.Is and errors.As
// see through it. Errors are never retried by the driver.
type DriverError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Entity is the table the operation targeted.
	Entity string

	// Action is the query action or schema operation.
	Action string

	// Err is the wrapped cause, if any.
	Err error
}

// Error implements the error interface.
func (e *DriverError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Action != "" || e.Entity != "" {
		msg = fmt.Sprintf("%s (%s %s)", msg, e.Action, e.Entity)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *DriverError) Unwrap() error {
	return e.Err
}

// IsDatabaseError returns true if err is a DriverError wrapping a client error.
// Uses errors.As to handle wrapped errors.
func IsDatabaseError(err error) bool {
	return hasCode(err, ErrCodeDatabase)
}

// IsMissingKey returns true if a create produced no identifier.
func IsMissingKey(err error) bool {
	return hasCode(err, ErrCodeMissingKey)
}

// Code returns the ErrorCode carried by err, or "" when err is not a
// DriverError.
func Code(err error) ErrorCode {
	var de *DriverError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	return Code(err) == code
}
