// Package document converts between the generic node model (internal/ir)
// and RethinkDB's typed value model.
//
// Three representations meet here:
//
//   - ir.IRValue: the dynamic node values exchanged with the ORM layer.
//   - Value: typed database values, including the extended TIME, BINARY
//     and GEOMETRY types.
//   - host values: what rethinkdb-go reads and writes (time.Time, []byte,
//     types.Geometry, map[string]interface{}, json.Number, ...).
//
// Extended types cross into the node model as objects carrying the
// reserved TypeKey discriminator:
//
//	{"$reql_type$": "TIME", "epoch_time": 1700000000.123, "timezone": "+00:00"}
//	{"$reql_type$": "BINARY", "data": "aGVsbG8="}
//	{"$reql_type$": "GEOMETRY", "type": "Point", "coordinates": [-122.42, 37.77]}
//
// Decode peeks the discriminator and dispatches to a fixed set of decoders.
// Objects with an unknown or missing discriminator are plain documents.
package document
