package queryir

import (
	"fmt"

	"github.com/roach88/reqlbridge/internal/ir"
)

// Action is the kind of operation an abstract query performs.
type Action string

const (
	ActionCreate Action = "create"
	ActionFetch  Action = "fetch"
	ActionModify Action = "modify"
	ActionDelete Action = "delete"
)

// ParseAction maps a lower-case action name onto an Action.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionCreate, ActionFetch, ActionModify, ActionDelete:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q: must be one of create, fetch, modify, delete", s)
	}
}

// Query is the abstract ORM request handed to the compiler.
//
// Example (conceptual ReQL translation):
//
//	Query{
//	  Entity: "posts",
//	  Action: ActionFetch,
//	  Filters: []Filter{
//	    Compare{Field: "views", Op: OpGreaterThan, Value: ir.IRInt(10)},
//	  },
//	  Sorts: []Sort{{Field: "title", Direction: Ascending}},
//	  Limit: &Limit{Offset: 20, Count: 10},
//	}
//
// Translates to:
//
//	r.Table("posts").
//	  Filter(r.Row.Field("views").Gt(10)).
//	  OrderBy(r.Asc("title")).
//	  Skip(20).Limit(10)
//
// Entity maps to the table name verbatim. Each entry of Filters becomes its
// own filter stage; there is no implicit grouping between them.
type Query struct {
	Entity  string
	Action  Action
	Filters []Filter
	Sorts   []Sort
	Limit   *Limit
	Data    ir.IRObject // payload for create/modify (nil = empty document)
	Unions  []Union     // not supported by the ReQL backend
}

// String returns a short description such as "fetch posts".
func (q Query) String() string {
	return fmt.Sprintf("%s %s", q.Action, q.Entity)
}

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// Sort orders results by a single field.
type Sort struct {
	Field     string
	Direction Direction
}

// Limit paginates results. Offset is always applied, even when zero.
type Limit struct {
	Offset int
	Count  int
}

// Union describes a join against another entity.
//
// The ReQL backend cannot express ORM unions; the type exists so callers
// can describe them and receive a clear UnsupportedError.
type Union struct {
	Entity     string
	LocalKey   string
	ForeignKey string
}

// Filter represents a predicate node in a query.
//
// This is a sealed interface - only Compare, Subset and Group implement it.
// The marker method pattern enables exhaustive type switches in backends.
type Filter interface {
	filterNode() // Marker method - seals interface to this package
}

// Comparison is the operator of a Compare filter.
type Comparison string

const (
	OpEquals              Comparison = "equals"
	OpNotEquals           Comparison = "notEquals"
	OpGreaterThan         Comparison = "greaterThan"
	OpGreaterThanOrEquals Comparison = "greaterThanOrEquals"
	OpLessThan            Comparison = "lessThan"
	OpLessThanOrEquals    Comparison = "lessThanOrEquals"
	OpContains            Comparison = "contains"
	OpHasPrefix           Comparison = "hasPrefix"
	OpHasSuffix           Comparison = "hasSuffix"
)

// Comparisons lists every supported operator in declaration order.
var Comparisons = []Comparison{
	OpEquals, OpNotEquals,
	OpGreaterThan, OpGreaterThanOrEquals,
	OpLessThan, OpLessThanOrEquals,
	OpContains, OpHasPrefix, OpHasSuffix,
}

// ParseComparison accepts the canonical operator names plus the usual
// symbolic shorthands (==, !=, >, >=, <, <=).
func ParseComparison(s string) (Comparison, error) {
	switch s {
	case "==", "eq":
		return OpEquals, nil
	case "!=", "ne":
		return OpNotEquals, nil
	case ">", "gt":
		return OpGreaterThan, nil
	case ">=", "ge":
		return OpGreaterThanOrEquals, nil
	case "<", "lt":
		return OpLessThan, nil
	case "<=", "le":
		return OpLessThanOrEquals, nil
	}
	for _, op := range Comparisons {
		if string(op) == s {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown comparison %q", s)
}

// Compare represents a field-operator-value predicate.
//
// Semantics:
//
//	<field> <op> <value>
//
// OpHasPrefix and OpHasSuffix only filter when Value is an ir.IRString;
// any other value leaves the row set unfiltered.
type Compare struct {
	Field string
	Op    Comparison
	Value ir.IRValue
}

func (Compare) filterNode() {}

// Scope is the membership kind of a Subset filter.
type Scope string

const (
	ScopeIn    Scope = "in"
	ScopeNotIn Scope = "notIn"
)

// Subset represents a membership predicate.
//
// Semantics:
//
//	<field> IN (<values>)      (ScopeIn)
//	<field> NOT IN (<values>)  (ScopeNotIn)
type Subset struct {
	Field  string
	Scope  Scope
	Values []ir.IRValue
}

func (Subset) filterNode() {}

// Relation is the boolean connective of a Group filter.
type Relation string

const (
	RelationAnd Relation = "and"
	RelationOr  Relation = "or"
)

// Group combines child filters with a boolean relation.
//
// Backends fold the children left to right: each child is evaluated
// against the accumulated expression, not against the original row.
// An empty group evaluates to the row itself.
type Group struct {
	Relation Relation
	Filters  []Filter
}

func (Group) filterNode() {}

// SchemaOp represents a table-level schema operation.
//
// This is a sealed interface - only CreateTable, ModifyTable and
// DeleteTable implement it.
type SchemaOp interface {
	schemaOp()
	TableName() string
}

// CreateTable creates a table. Fields are informational only: RethinkDB
// tables are schemaless.
type CreateTable struct {
	Table  string
	Fields []string
}

func (CreateTable) schemaOp()           {}
func (c CreateTable) TableName() string { return c.Table }

// ModifyTable alters a table's declared fields. It is a no-op for
// schemaless tables.
type ModifyTable struct {
	Table  string
	Add    []string
	Remove []string
}

func (ModifyTable) schemaOp()           {}
func (m ModifyTable) TableName() string { return m.Table }

// DeleteTable drops a table.
type DeleteTable struct {
	Table string
}

func (DeleteTable) schemaOp()           {}
func (d DeleteTable) TableName() string { return d.Table }
