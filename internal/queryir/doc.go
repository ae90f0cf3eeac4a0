// Package queryir defines the abstract ORM query consumed by the ReQL compiler.
//
// A Query names an entity (the table), an Action (create, fetch, modify,
// delete), a list of Filter trees, Sorts, an optional Limit, an optional
// payload and optional Unions. Filter and SchemaOp are sealed interfaces
// using the marker method pattern, so backends can switch exhaustively:
//
//	switch f := filter.(type) {
//	case Compare:
//	    // field <op> value
//	case Subset:
//	    // field in / not in values
//	case Group:
//	    // and / or over child filters
//	}
//
// Queries are built per call by the ORM layer and treated as immutable.
// Validate reports constructs that compile but behave surprisingly
// (prefix matching on non-strings, empty groups) and constructs the
// backend rejects (unions). Unsupported features surface as
// *UnsupportedError.
package queryir
