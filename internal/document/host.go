package document

import (
	"encoding/json"
	"log/slog"
	"reflect"
	"time"

	"gopkg.in/rethinkdb/rethinkdb-go.v6/types"

	"github.com/roach88/reqlbridge/internal/ir"
)

// FromHost lifts a value read by rethinkdb-go into a typed value.
// Native time.Time, []byte and types.Geometry results become Time, Binary
// and Geometry; pseudo-type maps left unconverted by the client decode
// the same way.
func FromHost(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case time.Time:
		return Time{Time: val}, nil
	case types.Geometry:
		g, err := geometryFromNative(val)
		if err != nil {
			return nil, &ConversionError{Value: ir.IRString(val.Type), Expected: "Point, LineString or Polygon", Reason: err.Error()}
		}
		return g, nil
	}
	return Decode(HostValueToGeneric(v))
}

// HostValueToGeneric normalises a host value into a node.
//
// Every integer width, floats, bools, strings, byte slices, slices and
// string-keyed maps of any element type, json.Number, time.Time,
// types.Geometry, Value and ir.IRValue are accepted. Anything else becomes
// IRNull and is logged at warn level: the data is dropped.
func HostValueToGeneric(v any) ir.IRValue {
	switch val := v.(type) {
	case nil:
		return ir.IRNull{}
	case ir.IRValue:
		return val
	case Value:
		return Encode(val)
	case bool:
		return ir.IRBool(val)
	case string:
		return ir.IRString(val)
	case []byte:
		return ir.IRBytes(val)
	case int:
		return ir.IRInt(val)
	case int8:
		return ir.IRInt(val)
	case int16:
		return ir.IRInt(val)
	case int32:
		return ir.IRInt(val)
	case int64:
		return ir.IRInt(val)
	case uint:
		return ir.IRUint(val)
	case uint8:
		return ir.IRUint(val)
	case uint16:
		return ir.IRUint(val)
	case uint32:
		return ir.IRUint(val)
	case uint64:
		return ir.IRUint(val)
	case float32:
		return ir.IRDouble(val)
	case float64:
		return ir.IRDouble(val)
	case json.Number:
		n, err := ir.NumberFromJSON(val)
		if err != nil {
			slog.Warn("host value dropped", "type", "json.Number", "value", string(val), "error", err)
			return ir.IRNull{}
		}
		return n
	case time.Time:
		return encodeTime(Time{Time: val})
	case types.Geometry:
		g, err := geometryFromNative(val)
		if err != nil {
			slog.Warn("host value dropped", "type", "types.Geometry", "error", err)
			return ir.IRNull{}
		}
		return encodeGeometry(g)
	case []any:
		out := make(ir.IRArray, len(val))
		for i, elem := range val {
			out[i] = HostValueToGeneric(elem)
		}
		return out
	case map[string]any:
		out := make(ir.IRObject, len(val))
		for k, elem := range val {
			out[k] = HostValueToGeneric(elem)
		}
		return out
	}
	return reflectToGeneric(v)
}

// reflectToGeneric handles typed slices, arrays, maps and pointers.
func reflectToGeneric(v any) ir.IRValue {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ir.IRNull{}
		}
		return HostValueToGeneric(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return ir.IRNull{}
		}
		out := make(ir.IRArray, rv.Len())
		for i := range out {
			out[i] = HostValueToGeneric(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		out := make(ir.IRObject, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = HostValueToGeneric(iter.Value().Interface())
		}
		return out
	case reflect.String:
		return ir.IRString(rv.String())
	case reflect.Bool:
		return ir.IRBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ir.IRInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ir.IRUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return ir.IRDouble(rv.Float())
	}

	slog.Warn("host value dropped", "type", reflect.TypeOf(v).String())
	return ir.IRNull{}
}

// hostFromNode renders a node as plain host values for the query encoder.
func hostFromNode(node ir.IRValue) any {
	switch n := node.(type) {
	case nil, ir.IRNull:
		return nil
	case ir.IRBool:
		return bool(n)
	case ir.IRString:
		return string(n)
	case ir.IRBytes:
		return []byte(n)
	case ir.IRInt:
		return int64(n)
	case ir.IRUint:
		return uint64(n)
	case ir.IRDouble:
		return float64(n)
	case ir.IRArray:
		out := make([]any, len(n))
		for i, elem := range n {
			out[i] = hostFromNode(elem)
		}
		return out
	case ir.IRObject:
		out := make(map[string]any, len(n))
		for k, elem := range n {
			out[k] = hostFromNode(elem)
		}
		return out
	default:
		return nil
	}
}
