package document

import (
	"fmt"

	"github.com/roach88/reqlbridge/internal/ir"
)

// TypeKey is the reserved field that marks an object as an extended type.
const TypeKey = "$reql_type$"

// Recognised TypeKey values.
const (
	TypeTime     = "TIME"
	TypeBinary   = "BINARY"
	TypeGeometry = "GEOMETRY"
)

// Decode converts a node into a typed value.
//
// Scalars and arrays map structurally. Objects are checked for TypeKey
// first; a recognised discriminator dispatches to the matching decoder and
// anything else decodes field by field into a Document. A recognised
// discriminator with malformed fields is a ConversionError.
func Decode(node ir.IRValue) (Value, error) {
	switch n := node.(type) {
	case nil, ir.IRNull:
		return Null{}, nil
	case ir.IRBool:
		return Bool(n), nil
	case ir.IRString:
		return String(n), nil
	case ir.IRBytes:
		return Binary(n), nil
	case ir.IRInt:
		return Int(n), nil
	case ir.IRUint:
		return Uint(n), nil
	case ir.IRDouble:
		return Double(n), nil
	case ir.IRArray:
		out := make(Array, len(n))
		for i, elem := range n {
			v, err := Decode(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case ir.IRObject:
		return decodeObject(n)
	default:
		return nil, &ConversionError{Value: node, Expected: "node value", Reason: fmt.Sprintf("unknown node type %T", node)}
	}
}

func decodeObject(obj ir.IRObject) (Value, error) {
	if tag, ok := ir.AsString(obj[TypeKey]); ok {
		switch tag {
		case TypeTime:
			return decodeTime(obj)
		case TypeBinary:
			return decodeBinary(obj)
		case TypeGeometry:
			return decodeGeometry(obj)
		}
	}

	doc := make(Document, len(obj))
	for k, elem := range obj {
		v, err := Decode(elem)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		doc[k] = v
	}
	return doc, nil
}

// Encode converts a typed value into a node. It never fails: extended
// types always produce their discriminator object.
func Encode(v Value) ir.IRValue {
	switch val := v.(type) {
	case nil, Null:
		return ir.IRNull{}
	case Bool:
		return ir.IRBool(val)
	case String:
		return ir.IRString(val)
	case Binary:
		return encodeBinary(val)
	case Int:
		return ir.IRInt(val)
	case Uint:
		return ir.IRUint(val)
	case Float:
		return ir.IRDouble(float64(val))
	case Double:
		return ir.IRDouble(val)
	case Array:
		out := make(ir.IRArray, len(val))
		for i, elem := range val {
			out[i] = Encode(elem)
		}
		return out
	case Document:
		out := make(ir.IRObject, len(val))
		for k, elem := range val {
			out[k] = Encode(elem)
		}
		return out
	case Time:
		return encodeTime(val)
	case Geometry:
		return encodeGeometry(val)
	default:
		return ir.IRNull{}
	}
}
