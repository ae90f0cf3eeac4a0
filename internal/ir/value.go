package ir

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"unicode/utf16"
)

// IRValue is a sealed interface representing a generic node value.
// Only IRNull, IRBool, IRInt, IRUint, IRDouble, IRString, IRBytes,
// IRArray, and IRObject implement this.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents a null node.
// Using an explicit type ensures all IRValues satisfy the sealed interface.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRBool represents a boolean node.
type IRBool bool

func (IRBool) irValue() {}

// IRInt represents a signed integer node.
type IRInt int64

func (IRInt) irValue() {}

// IRUint represents an unsigned integer node.
// Kept distinct from IRInt so values above math.MaxInt64 survive conversion.
type IRUint uint64

func (IRUint) irValue() {}

// IRDouble represents a double precision number node.
type IRDouble float64

func (IRDouble) irValue() {}

// IRString represents a string node.
type IRString string

func (IRString) irValue() {}

// IRBytes represents a raw byte sequence node.
// JSON renderings use standard base64.
type IRBytes []byte

func (IRBytes) irValue() {}

// IRArray represents an ordered sequence of nodes.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to nodes.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// NewIRArray creates an IRArray from values.
func NewIRArray(vals ...IRValue) IRArray {
	return IRArray(vals)
}

// IRPair represents a key-value pair for IRObject construction.
type IRPair struct {
	Key   string
	Value IRValue
}

// NewIRObjectFromPairs creates an IRObject from key-value pairs.
// Example: NewIRObjectFromPairs(O("title", IRString("Hello")), O("views", IRInt(5)))
func NewIRObjectFromPairs(pairs ...IRPair) IRObject {
	obj := make(IRObject, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// O is a shorthand for IRPair.
func O(key string, value IRValue) IRPair {
	return IRPair{Key: key, Value: value}
}

// IsNull reports whether v is nil or IRNull.
func IsNull(v IRValue) bool {
	if v == nil {
		return true
	}
	_, ok := v.(IRNull)
	return ok
}

// AsString returns the string held by v, if v is an IRString.
func AsString(v IRValue) (string, bool) {
	s, ok := v.(IRString)
	return string(s), ok
}

// AsFloat returns v as float64 when v is any numeric node.
func AsFloat(v IRValue) (float64, bool) {
	switch n := v.(type) {
	case IRInt:
		return float64(n), true
	case IRUint:
		return float64(n), true
	case IRDouble:
		return float64(n), true
	default:
		return 0, false
	}
}

// Equal reports whether a and b are structurally identical.
// Numeric subkinds must match: IRInt(1) is not equal to IRDouble(1).
func Equal(a, b IRValue) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	switch av := a.(type) {
	case IRBool:
		bv, ok := b.(IRBool)
		return ok && av == bv
	case IRInt:
		bv, ok := b.(IRInt)
		return ok && av == bv
	case IRUint:
		bv, ok := b.(IRUint)
		return ok && av == bv
	case IRDouble:
		bv, ok := b.(IRDouble)
		return ok && (av == bv || math.IsNaN(float64(av)) && math.IsNaN(float64(bv)))
	case IRString:
		bv, ok := b.(IRString)
		return ok && av == bv
	case IRBytes:
		bv, ok := b.(IRBytes)
		return ok && bytes.Equal(av, bv)
	case IRArray:
		bv, ok := b.(IRArray)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case IRObject:
		bv, ok := b.(IRObject)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, exists := bv[k]
			if !exists || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// SortedKeys returns the keys in RFC 8785 order, comparing UTF-16 code
// units. This differs from sort.Strings for keys outside the BMP.
func (obj IRObject) SortedKeys() []string {
	keys := slices.Collect(maps.Keys(obj))
	slices.SortFunc(keys, func(a, b string) int {
		return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
	})
	return keys
}

// UnmarshalJSON decodes a JSON object, keeping integer literals integral.
func (obj *IRObject) UnmarshalJSON(data []byte) error {
	v, err := UnmarshalIRValue(data)
	if err != nil {
		return err
	}
	o, ok := v.(IRObject)
	if !ok {
		return fmt.Errorf("expected JSON object, got %T", v)
	}
	*obj = o
	return nil
}

// UnmarshalJSON decodes a JSON array, keeping integer literals integral.
func (arr *IRArray) UnmarshalJSON(data []byte) error {
	v, err := UnmarshalIRValue(data)
	if err != nil {
		return err
	}
	a, ok := v.(IRArray)
	if !ok {
		return fmt.Errorf("expected JSON array, got %T", v)
	}
	*arr = a
	return nil
}

// MarshalJSON writes keys in SortedKeys order. The output is not canonical
// (HTML characters are escaped); use MarshalCanonical for journal rows and
// golden output.
func (obj IRObject) MarshalJSON() ([]byte, error) { return MarshalIRValue(obj) }

// MarshalJSON implements json.Marshaler.
func (arr IRArray) MarshalJSON() ([]byte, error) { return MarshalIRValue(arr) }

// MarshalIRValue marshals an IRValue to JSON bytes.
// IRBytes renders as a base64 string; non-finite doubles are rejected.
func MarshalIRValue(v IRValue) ([]byte, error) {
	return appendJSON(nil, v)
}

func appendJSON(dst []byte, v IRValue) ([]byte, error) {
	var scalar any
	switch val := v.(type) {
	case nil, IRNull:
		return append(dst, "null"...), nil
	case IRArray:
		dst = append(dst, '[')
		for i, elem := range val {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = appendJSON(dst, elem); err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		return append(dst, ']'), nil
	case IRObject:
		dst = append(dst, '{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				dst = append(dst, ',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return nil, fmt.Errorf("marshal key %q: %w", k, err)
			}
			dst = append(append(dst, key...), ':')
			if dst, err = appendJSON(dst, val[k]); err != nil {
				return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
			}
		}
		return append(dst, '}'), nil
	case IRBool:
		scalar = bool(val)
	case IRInt:
		scalar = int64(val)
	case IRUint:
		scalar = uint64(val)
	case IRDouble:
		scalar = float64(val)
	case IRString:
		scalar = string(val)
	case IRBytes:
		scalar = base64.StdEncoding.EncodeToString(val)
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
	b, err := json.Marshal(scalar)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}

// UnmarshalIRValue decodes JSON into an IRValue.
// Integral literals become IRInt (or IRUint above math.MaxInt64); anything
// with a fraction or exponent becomes IRDouble.
func UnmarshalIRValue(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromJSON(raw)
}

// FromJSON converts a value produced by encoding/json (decoded with
// UseNumber or not) into an IRValue.
func FromJSON(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case bool:
		return IRBool(val), nil
	case string:
		return IRString(val), nil
	case float64:
		return IRDouble(val), nil
	case json.Number:
		return NumberFromJSON(val)
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			node, err := FromJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = node
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			node, err := FromJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = node
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
