package document

import (
	"time"

	geojson "github.com/paulmach/go.geojson"
)

// Value is a typed database value.
//
// This is a sealed interface - only the types in this package implement it.
// Host returns the value in the shape rethinkdb-go encodes into a query.
type Value interface {
	Host() any
	value()
}

// Null is the database null.
type Null struct{}

func (Null) value()    {}
func (Null) Host() any { return nil }

// Bool is a boolean.
type Bool bool

func (Bool) value()      {}
func (b Bool) Host() any { return bool(b) }

// String is a UTF-8 string.
type String string

func (String) value()      {}
func (s String) Host() any { return string(s) }

// Binary is an opaque byte sequence (the BINARY pseudo-type).
type Binary []byte

func (Binary) value()      {}
func (b Binary) Host() any { return []byte(b) }

// Int is a signed integer.
type Int int64

func (Int) value()      {}
func (i Int) Host() any { return int64(i) }

// Uint is an unsigned integer.
type Uint uint64

func (Uint) value()      {}
func (u Uint) Host() any { return uint64(u) }

// Float is a single precision number. It has no node counterpart and
// widens to a double on encode.
type Float float32

func (Float) value()      {}
func (f Float) Host() any { return float32(f) }

// Double is a double precision number.
type Double float64

func (Double) value()      {}
func (d Double) Host() any { return float64(d) }

// Array is an ordered sequence of values.
type Array []Value

func (Array) value() {}

func (a Array) Host() any {
	out := make([]any, len(a))
	for i, v := range a {
		out[i] = hostOf(v)
	}
	return out
}

// Time is a point in time (the TIME pseudo-type). RethinkDB stores
// millisecond precision.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time { return Time{Time: t} }

func (Time) value()      {}
func (t Time) Host() any { return t.Time }

// Geometry is a GeoJSON geometry (the GEOMETRY pseudo-type). RethinkDB
// supports Point, LineString and Polygon.
type Geometry struct {
	*geojson.Geometry
}

// NewPoint returns a Point geometry at lon/lat.
func NewPoint(lon, lat float64) Geometry {
	return Geometry{geojson.NewPointGeometry([]float64{lon, lat})}
}

// NewLineString returns a LineString through the given [lon, lat] pairs.
func NewLineString(coords [][]float64) Geometry {
	return Geometry{geojson.NewLineStringGeometry(coords)}
}

// NewPolygon returns a Polygon. The first ring is the outer boundary,
// the rest are holes.
func NewPolygon(rings ...[][]float64) Geometry {
	return Geometry{geojson.NewPolygonGeometry(rings)}
}

func (Geometry) value() {}

// Host returns a types.Geometry for the kinds rethinkdb-go models natively
// and the raw pseudo-type object otherwise.
func (g Geometry) Host() any {
	if native, ok := nativeGeometry(g); ok {
		return native
	}
	return hostFromNode(Encode(g))
}

// hostOf tolerates nil entries inside arrays and documents.
func hostOf(v Value) any {
	if v == nil {
		return nil
	}
	return v.Host()
}
