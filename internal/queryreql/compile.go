package queryreql

import (
	"fmt"
	"regexp"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"

	"github.com/roach88/reqlbridge/internal/document"
	"github.com/roach88/reqlbridge/internal/ir"
	"github.com/roach88/reqlbridge/internal/queryir"
)

// DefaultIDKey is the primary key field RethinkDB assigns by default.
const DefaultIDKey = "id"

// Compiler compiles abstract queries into rethinkdb-go terms.
//
// Compilation is pure: nothing is sent to the database. Literal values are
// decoded through the document codec, so extended-type nodes reach the
// server as native TIME, BINARY and GEOMETRY values.
type Compiler struct {
	// IDKey is the primary key field omitted from create payloads when null.
	IDKey string
}

// NewCompiler creates a Compiler using DefaultIDKey.
func NewCompiler() *Compiler {
	return &Compiler{IDKey: DefaultIDKey}
}

// Compile converts a query into a term ready to run.
//
// Unions are rejected with a queryir.UnsupportedError before any term is
// built. Malformed extended-type literals fail with a
// document.ConversionError.
func (c *Compiler) Compile(q queryir.Query) (r.Term, error) {
	switch q.Action {
	case queryir.ActionFetch:
		return c.compileFetch(q)
	case queryir.ActionCreate:
		return c.compileCreate(q)
	case queryir.ActionModify:
		return c.compileModify(q)
	case queryir.ActionDelete:
		return c.compileDelete(q)
	default:
		return r.Term{}, fmt.Errorf("unknown action %q", q.Action)
	}
}

// compileFetch builds the row set shared by fetch, modify and delete:
//
//	r.Table(entity).Filter(...)...OrderBy(...)...Skip(offset).Limit(count)
//
// Each filter is its own stage. Skip is emitted whenever a limit is
// present, even for a zero offset.
func (c *Compiler) compileFetch(q queryir.Query) (r.Term, error) {
	if len(q.Unions) > 0 {
		return r.Term{}, queryir.NewUnsupportedError("unions", fmt.Sprintf("%d requested on %q", len(q.Unions), q.Entity))
	}
	if q.Entity == "" {
		return r.Term{}, fmt.Errorf("query has no entity")
	}

	term := r.Table(q.Entity)

	for i, f := range q.Filters {
		pred, err := c.compileFilter(f, r.Row)
		if err != nil {
			return r.Term{}, fmt.Errorf("filter[%d]: %w", i, err)
		}
		term = term.Filter(pred)
	}

	for _, s := range q.Sorts {
		switch s.Direction {
		case queryir.Ascending:
			term = term.OrderBy(r.Asc(s.Field))
		case queryir.Descending:
			term = term.OrderBy(r.Desc(s.Field))
		default:
			return r.Term{}, fmt.Errorf("sort on %q: unknown direction %q", s.Field, s.Direction)
		}
	}

	if q.Limit != nil {
		term = term.Skip(q.Limit.Offset).Limit(q.Limit.Count)
	}

	return term, nil
}

// compileCreate inserts the payload. A null primary key is dropped so the
// server generates one.
func (c *Compiler) compileCreate(q queryir.Query) (r.Term, error) {
	if len(q.Unions) > 0 {
		return r.Term{}, queryir.NewUnsupportedError("unions", fmt.Sprintf("%d requested on %q", len(q.Unions), q.Entity))
	}
	if q.Entity == "" {
		return r.Term{}, fmt.Errorf("query has no entity")
	}

	payload, err := c.payload(q.Data, true)
	if err != nil {
		return r.Term{}, err
	}
	return r.Table(q.Entity).Insert(payload), nil
}

func (c *Compiler) compileModify(q queryir.Query) (r.Term, error) {
	rows, err := c.compileFetch(q)
	if err != nil {
		return r.Term{}, err
	}
	payload, err := c.payload(q.Data, false)
	if err != nil {
		return r.Term{}, err
	}
	return rows.Update(payload, r.UpdateOpts{ReturnChanges: true}), nil
}

func (c *Compiler) compileDelete(q queryir.Query) (r.Term, error) {
	rows, err := c.compileFetch(q)
	if err != nil {
		return r.Term{}, err
	}
	return rows.Delete(r.DeleteOpts{ReturnChanges: true}), nil
}

// payload converts the query data into the host map sent to the server.
func (c *Compiler) payload(data ir.IRObject, omitNullID bool) (map[string]any, error) {
	obj := make(ir.IRObject, len(data))
	for k, v := range data {
		if omitNullID && k == c.idKey() && ir.IsNull(v) {
			continue
		}
		obj[k] = v
	}

	doc, err := document.NewDocument(obj)
	if err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	return doc.Host().(map[string]any), nil
}

func (c *Compiler) idKey() string {
	if c.IDKey == "" {
		return DefaultIDKey
	}
	return c.IDKey
}

// compileFilter compiles one filter node against row. Group children are
// compiled against the running accumulator, not the original row.
func (c *Compiler) compileFilter(f queryir.Filter, row r.Term) (r.Term, error) {
	switch node := f.(type) {
	case queryir.Compare:
		return c.compileCompare(node, row)
	case *queryir.Compare:
		return c.compileCompare(*node, row)
	case queryir.Subset:
		return c.compileSubset(node, row)
	case *queryir.Subset:
		return c.compileSubset(*node, row)
	case queryir.Group:
		return c.compileGroup(node, row)
	case *queryir.Group:
		return c.compileGroup(*node, row)
	case nil:
		return r.Term{}, fmt.Errorf("nil filter")
	default:
		return r.Term{}, fmt.Errorf("unsupported filter type: %T", f)
	}
}

// compileCompare projects the field off row and applies the operator.
// hasPrefix and hasSuffix with a non-string value return row unchanged,
// which lets every row through.
func (c *Compiler) compileCompare(cmp queryir.Compare, row r.Term) (r.Term, error) {
	field := row.Field(cmp.Field)

	switch cmp.Op {
	case queryir.OpHasPrefix:
		s, ok := ir.AsString(cmp.Value)
		if !ok {
			return row, nil
		}
		return field.Match("^" + regexp.QuoteMeta(s)), nil
	case queryir.OpHasSuffix:
		s, ok := ir.AsString(cmp.Value)
		if !ok {
			return row, nil
		}
		return field.Match(r.Expr(regexp.QuoteMeta(s)).Add("$")), nil
	}

	value, err := literal(cmp.Value)
	if err != nil {
		return r.Term{}, fmt.Errorf("field %q: %w", cmp.Field, err)
	}

	switch cmp.Op {
	case queryir.OpEquals:
		return field.Eq(value), nil
	case queryir.OpNotEquals:
		return field.Ne(value), nil
	case queryir.OpGreaterThan:
		return field.Gt(value), nil
	case queryir.OpGreaterThanOrEquals:
		return field.Ge(value), nil
	case queryir.OpLessThan:
		return field.Lt(value), nil
	case queryir.OpLessThanOrEquals:
		return field.Le(value), nil
	case queryir.OpContains:
		return field.Contains(value), nil
	default:
		return r.Term{}, fmt.Errorf("field %q: unknown comparison %q", cmp.Field, cmp.Op)
	}
}

// compileSubset checks membership of the field in a literal array.
func (c *Compiler) compileSubset(s queryir.Subset, row r.Term) (r.Term, error) {
	values := make([]any, len(s.Values))
	for i, v := range s.Values {
		lit, err := literal(v)
		if err != nil {
			return r.Term{}, fmt.Errorf("field %q value[%d]: %w", s.Field, i, err)
		}
		values[i] = lit
	}

	contains := r.Expr(values).Contains(row.Field(s.Field))
	switch s.Scope {
	case queryir.ScopeIn:
		return contains, nil
	case queryir.ScopeNotIn:
		return contains.Not(), nil
	default:
		return r.Term{}, fmt.Errorf("field %q: unknown subset scope %q", s.Field, s.Scope)
	}
}

// compileGroup left-folds the children:
//
//	acc = row
//	acc = acc.And(compile(child, acc))   // .Or for RelationOr
//
// An empty group is the row itself.
func (c *Compiler) compileGroup(g queryir.Group, row r.Term) (r.Term, error) {
	combine := func(acc, pred r.Term) r.Term { return acc.And(pred) }
	switch g.Relation {
	case queryir.RelationAnd:
	case queryir.RelationOr:
		combine = func(acc, pred r.Term) r.Term { return acc.Or(pred) }
	default:
		return r.Term{}, fmt.Errorf("unknown group relation %q", g.Relation)
	}

	acc := row
	for i, child := range g.Filters {
		pred, err := c.compileFilter(child, acc)
		if err != nil {
			return r.Term{}, fmt.Errorf("%s[%d]: %w", g.Relation, i, err)
		}
		acc = combine(acc, pred)
	}
	return acc, nil
}

// literal turns a node into the host value embedded in the term.
func literal(v ir.IRValue) (any, error) {
	decoded, err := document.Decode(v)
	if err != nil {
		return nil, err
	}
	return decoded.Host(), nil
}
