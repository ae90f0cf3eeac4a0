package queryir

import (
	"fmt"

	"github.com/roach88/reqlbridge/internal/ir"
)

// ValidationResult contains the compatibility analysis of a query.
type ValidationResult struct {
	// Compilable is false when the query uses a feature the ReQL backend
	// rejects outright (unions, unknown actions or operators).
	Compilable bool

	// Warnings lists constructs that compile but probably do not do what
	// the caller expects.
	Warnings []string

	// Errors lists the reasons Compilable is false.
	Errors []string
}

// Validate inspects a query without compiling it.
//
// Warnings (query still compiles):
//  1. hasPrefix/hasSuffix with a non-string value - the filter is a no-op
//  2. ordering comparisons against null
//  3. empty groups - they evaluate to the row itself
//  4. create/modify without a payload
//
// Errors (query will not compile):
//  1. unions
//  2. unknown action, comparison, scope or relation
//  3. missing entity
//
// Validate is a pure function with no side effects.
func Validate(q Query) ValidationResult {
	v := &validator{
		warnings: []string{},
		errors:   []string{},
	}
	v.validateQuery(q)

	return ValidationResult{
		Compilable: len(v.errors) == 0,
		Warnings:   v.warnings,
		Errors:     v.errors,
	}
}

// validator accumulates findings during traversal.
type validator struct {
	warnings []string
	errors   []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	if q.Entity == "" {
		v.addError("query has no entity")
	}
	if _, err := ParseAction(string(q.Action)); err != nil {
		v.addError("%v", err)
	}
	if len(q.Unions) > 0 {
		v.addError("unions are not supported (%d requested)", len(q.Unions))
	}
	if (q.Action == ActionCreate || q.Action == ActionModify) && len(q.Data) == 0 {
		v.addWarning("%s without data writes an empty document", q.Action)
	}
	for i, s := range q.Sorts {
		if s.Direction != Ascending && s.Direction != Descending {
			v.addError("sort[%d] on %q has unknown direction %q", i, s.Field, s.Direction)
		}
	}
	if q.Limit != nil && (q.Limit.Offset < 0 || q.Limit.Count < 0) {
		v.addError("limit offset and count must be non-negative")
	}
	for _, f := range q.Filters {
		v.validateFilter(f)
	}
}

// validateFilter recursively validates a filter node.
func (v *validator) validateFilter(f Filter) {
	switch node := f.(type) {
	case Compare:
		v.validateCompare(node)
	case *Compare:
		v.validateCompare(*node)
	case Subset:
		v.validateSubset(node)
	case *Subset:
		v.validateSubset(*node)
	case Group:
		v.validateGroup(node)
	case *Group:
		v.validateGroup(*node)
	case nil:
		v.addError("nil filter")
	default:
		v.addError("unknown filter type: %T", f)
	}
}

func (v *validator) validateCompare(c Compare) {
	if _, err := ParseComparison(string(c.Op)); err != nil {
		v.addError("field %q: %v", c.Field, err)
		return
	}
	switch c.Op {
	case OpHasPrefix, OpHasSuffix:
		if _, ok := c.Value.(ir.IRString); !ok {
			v.addWarning("field %q: %s with a non-string value (%T) does not filter anything", c.Field, c.Op, c.Value)
		}
	case OpGreaterThan, OpGreaterThanOrEquals, OpLessThan, OpLessThanOrEquals:
		if ir.IsNull(c.Value) {
			v.addWarning("field %q: %s compared to null", c.Field, c.Op)
		}
	}
}

func (v *validator) validateSubset(s Subset) {
	if s.Scope != ScopeIn && s.Scope != ScopeNotIn {
		v.addError("field %q: unknown subset scope %q", s.Field, s.Scope)
	}
}

func (v *validator) validateGroup(g Group) {
	if g.Relation != RelationAnd && g.Relation != RelationOr {
		v.addError("unknown group relation %q", g.Relation)
	}
	if len(g.Filters) == 0 {
		v.addWarning("empty %s group evaluates to the row itself", g.Relation)
	}
	for _, sub := range g.Filters {
		v.validateFilter(sub)
	}
}
