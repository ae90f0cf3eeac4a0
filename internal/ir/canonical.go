package ir

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical renders v as RFC 8785 canonical JSON. Journal rows, CLI
// output and query fingerprints all go through it.
//
// Compared with encoding/json:
//   - object keys are ordered by UTF-16 code units
//   - only quote, backslash and control characters are escaped
//   - strings are NFC normalized
//   - doubles use ECMAScript number formatting, NaN and Inf are errors
//   - IRBytes render as standard base64 strings
//
// Besides IRValue, v may be nil, string, int, int64, bool, float64, []any or
// map[string]any.
func MarshalCanonical(v any) ([]byte, error) {
	node, err := toIRValue(v)
	if err != nil {
		return nil, err
	}
	return appendCanonical(nil, node)
}

func appendCanonical(dst []byte, v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return append(dst, "null"...), nil
	case IRBool:
		return strconv.AppendBool(dst, bool(val)), nil
	case IRInt:
		return strconv.AppendInt(dst, int64(val), 10), nil
	case IRUint:
		return strconv.AppendUint(dst, uint64(val), 10), nil
	case IRDouble:
		s, err := formatCanonicalFloat(float64(val))
		if err != nil {
			return nil, err
		}
		return append(dst, s...), nil
	case IRString:
		return appendCanonicalString(dst, string(val)), nil
	case IRBytes:
		return appendCanonicalString(dst, base64.StdEncoding.EncodeToString(val)), nil
	case IRArray:
		dst = append(dst, '[')
		for i, elem := range val {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = appendCanonical(dst, elem); err != nil {
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
			dst = appendCanonicalString(dst, k)
			dst = append(dst, ':')
			var err error
			if dst, err = appendCanonical(dst, val[k]); err != nil {
				return nil, fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		return append(dst, '}'), nil
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// toIRValue lifts the plain Go values MarshalCanonical accepts.
func toIRValue(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case int:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case bool:
		return IRBool(val), nil
	case float64:
		return IRDouble(val), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			node, err := toIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = node
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			node, err := toIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = node
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

const hexDigits = "0123456789abcdef"

// appendCanonicalString quotes s after NFC normalization. Invalid UTF-8
// bytes become U+FFFD, one per byte.
func appendCanonicalString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for _, r := range norm.NFC.String(s) {
		switch {
		case r == '"' || r == '\\':
			dst = append(dst, '\\', byte(r))
		case r == '\b':
			dst = append(dst, `\b`...)
		case r == '\f':
			dst = append(dst, `\f`...)
		case r == '\n':
			dst = append(dst, `\n`...)
		case r == '\r':
			dst = append(dst, `\r`...)
		case r == '\t':
			dst = append(dst, `\t`...)
		case r < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[r>>4], hexDigits[r&0xf])
		default:
			dst = utf8.AppendRune(dst, r)
		}
	}
	return append(dst, '"')
}
