package queryir

import (
	"errors"
	"fmt"
)

// UnsupportedError reports a query feature the ReQL backend cannot express.
// It is never retried: the same query will always fail the same way.
type UnsupportedError struct {
	// Feature names what was requested (e.g. "unions", "raw queries").
	Feature string

	// Detail is an optional human-readable explanation.
	Detail string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("unsupported: %s: %s", e.Feature, e.Detail)
	}
	return fmt.Sprintf("unsupported: %s", e.Feature)
}

// NewUnsupportedError creates an UnsupportedError for the given feature.
func NewUnsupportedError(feature, detail string) *UnsupportedError {
	return &UnsupportedError{Feature: feature, Detail: detail}
}

// IsUnsupported returns true if err is (or wraps) an UnsupportedError.
// Uses errors.As to handle wrapped errors.
func IsUnsupported(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}
