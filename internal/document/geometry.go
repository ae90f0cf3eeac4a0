package document

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"
	"gopkg.in/rethinkdb/rethinkdb-go.v6/types"

	"github.com/roach88/reqlbridge/internal/ir"
)

const geometryShape = "GEOMETRY with type and coordinates"

// encodeGeometry emits coordinates as RethinkDB expects them: a bare pair
// for Point, pairs for LineString, and pairs for a single-ring Polygon.
// Polygons with holes keep the full ring nesting.
func encodeGeometry(g Geometry) ir.IRValue {
	if g.Geometry == nil {
		return ir.IRNull{}
	}

	var coords ir.IRValue
	switch g.Type {
	case geojson.GeometryPoint:
		coords = encodePair(g.Point)
	case geojson.GeometryLineString:
		coords = encodePairs(g.LineString)
	case geojson.GeometryPolygon:
		if len(g.Polygon) == 1 {
			coords = encodePairs(g.Polygon[0])
		} else {
			coords = encodeRings(g.Polygon)
		}
	case geojson.GeometryMultiPoint:
		coords = encodePairs(g.MultiPoint)
	case geojson.GeometryMultiLineString:
		coords = encodeRings(g.MultiLineString)
	case geojson.GeometryMultiPolygon:
		polys := make(ir.IRArray, len(g.MultiPolygon))
		for i, p := range g.MultiPolygon {
			polys[i] = encodeRings(p)
		}
		coords = polys
	default:
		coords = ir.IRArray{}
	}

	return ir.IRObject{
		TypeKey:       ir.IRString(TypeGeometry),
		"type":        ir.IRString(g.Type),
		"coordinates": coords,
	}
}

func encodePair(p []float64) ir.IRArray {
	out := make(ir.IRArray, len(p))
	for i, f := range p {
		out[i] = ir.IRDouble(f)
	}
	return out
}

func encodePairs(ps [][]float64) ir.IRArray {
	out := make(ir.IRArray, len(ps))
	for i, p := range ps {
		out[i] = encodePair(p)
	}
	return out
}

func encodeRings(rings [][][]float64) ir.IRArray {
	out := make(ir.IRArray, len(rings))
	for i, ring := range rings {
		out[i] = encodePairs(ring)
	}
	return out
}

func decodeGeometry(obj ir.IRObject) (Value, error) {
	kind, ok := ir.AsString(obj["type"])
	if !ok {
		return nil, &ConversionError{Value: obj, Expected: geometryShape, Reason: "type missing or not a string"}
	}
	coords, ok := obj["coordinates"].(ir.IRArray)
	if !ok {
		return nil, &ConversionError{Value: obj, Expected: geometryShape, Reason: "coordinates missing or not an array"}
	}

	fail := func(reason string) (Value, error) {
		return nil, &ConversionError{Value: obj, Expected: geometryShape, Reason: reason}
	}

	switch geojson.GeometryType(kind) {
	case geojson.GeometryPoint:
		p, err := decodePair(coords)
		if err != nil {
			return fail("Point " + err.Error())
		}
		return Geometry{geojson.NewPointGeometry(p)}, nil
	case geojson.GeometryLineString:
		ps, err := decodePairs(coords)
		if err != nil {
			return fail("LineString " + err.Error())
		}
		return Geometry{geojson.NewLineStringGeometry(ps)}, nil
	case geojson.GeometryPolygon:
		if len(coords) == 0 {
			return fail("Polygon has no coordinates")
		}
		if ps, err := decodePairs(coords); err == nil {
			return Geometry{geojson.NewPolygonGeometry([][][]float64{ps})}, nil
		}
		rings := make([][][]float64, len(coords))
		for i, ring := range coords {
			arr, ok := ring.(ir.IRArray)
			if !ok {
				return fail(fmt.Sprintf("Polygon ring %d is not an array", i))
			}
			ps, err := decodePairs(arr)
			if err != nil {
				return fail(fmt.Sprintf("Polygon ring %d: %v", i, err))
			}
			rings[i] = ps
		}
		return Geometry{geojson.NewPolygonGeometry(rings)}, nil
	default:
		return fail(fmt.Sprintf("unsupported geometry type %q", kind))
	}
}

func decodePair(arr ir.IRArray) ([]float64, error) {
	if len(arr) != 2 {
		return nil, fmt.Errorf("coordinate pair has %d elements", len(arr))
	}
	lon, ok := ir.AsFloat(arr[0])
	if !ok {
		return nil, fmt.Errorf("longitude is not a number")
	}
	lat, ok := ir.AsFloat(arr[1])
	if !ok {
		return nil, fmt.Errorf("latitude is not a number")
	}
	return []float64{lon, lat}, nil
}

func decodePairs(arr ir.IRArray) ([][]float64, error) {
	out := make([][]float64, len(arr))
	for i, elem := range arr {
		pair, ok := elem.(ir.IRArray)
		if !ok {
			return nil, fmt.Errorf("coordinates[%d] is not a pair", i)
		}
		p, err := decodePair(pair)
		if err != nil {
			return nil, fmt.Errorf("coordinates[%d]: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// nativeGeometry converts to the rethinkdb-go representation, which only
// covers Point, LineString and Polygon.
func nativeGeometry(g Geometry) (types.Geometry, bool) {
	if g.Geometry == nil {
		return types.Geometry{}, false
	}
	switch g.Type {
	case geojson.GeometryPoint:
		if len(g.Point) != 2 {
			return types.Geometry{}, false
		}
		return types.Geometry{Type: "Point", Point: toPoint(g.Point)}, true
	case geojson.GeometryLineString:
		return types.Geometry{Type: "LineString", Line: toLine(g.LineString)}, true
	case geojson.GeometryPolygon:
		lines := make(types.Lines, len(g.Polygon))
		for i, ring := range g.Polygon {
			lines[i] = toLine(ring)
		}
		return types.Geometry{Type: "Polygon", Lines: lines}, true
	default:
		return types.Geometry{}, false
	}
}

func toPoint(p []float64) types.Point {
	if len(p) < 2 {
		return types.Point{}
	}
	return types.Point{Lon: p[0], Lat: p[1]}
}

func toLine(ps [][]float64) types.Line {
	line := make(types.Line, len(ps))
	for i, p := range ps {
		line[i] = toPoint(p)
	}
	return line
}

func fromLine(line types.Line) [][]float64 {
	out := make([][]float64, len(line))
	for i, p := range line {
		out[i] = []float64{p.Lon, p.Lat}
	}
	return out
}

// geometryFromNative lifts a rethinkdb-go geometry result.
func geometryFromNative(g types.Geometry) (Geometry, error) {
	switch g.Type {
	case "Point":
		return NewPoint(g.Point.Lon, g.Point.Lat), nil
	case "LineString":
		return NewLineString(fromLine(g.Line)), nil
	case "Polygon":
		rings := make([][][]float64, len(g.Lines))
		for i, line := range g.Lines {
			rings[i] = fromLine(line)
		}
		return NewPolygon(rings...), nil
	default:
		return Geometry{}, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}
