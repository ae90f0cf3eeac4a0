// Package ir provides the generic node value model exchanged with the ORM layer.
//
// IRValue is a sealed union over null, bool, signed and unsigned integers,
// doubles, strings, byte sequences, arrays and string-keyed objects. Every
// other internal package imports ir; ir imports nothing internal.
//
// Key design constraints:
//   - Numeric subkinds stay distinct (IRInt, IRUint, IRDouble) so conversions
//     never silently widen an integer through float64
//   - IRNull is an explicit value; a nil IRValue is treated as null
//   - MarshalCanonical (RFC 8785) is the only serialization used for hashing,
//     journal rows and golden files
package ir
