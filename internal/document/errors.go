package document

import (
	"errors"
	"fmt"

	"github.com/roach88/reqlbridge/internal/ir"
)

// ConversionError reports a node that could not be decoded into a typed
// value, typically an extended-type object with malformed fields.
type ConversionError struct {
	// Value is the offending node.
	Value ir.IRValue

	// Expected describes the shape that was required.
	Expected string

	// Reason explains what was wrong.
	Reason string
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	rendered, err := ir.MarshalIRValue(e.Value)
	if err != nil {
		rendered = []byte(fmt.Sprintf("%T", e.Value))
	}
	return fmt.Sprintf("cannot convert %s: expected %s: %s", rendered, e.Expected, e.Reason)
}

// IsConversionError returns true if err is (or wraps) a ConversionError.
func IsConversionError(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}
