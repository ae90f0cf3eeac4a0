package queryir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reqlbridge/internal/ir"
)

func TestFilterSealed(t *testing.T) {
	var _ Filter = Compare{}
	var _ Filter = &Compare{}
	var _ Filter = Subset{}
	var _ Filter = Group{}
}

func TestSchemaOpSealed(t *testing.T) {
	ops := []SchemaOp{
		CreateTable{Table: "posts"},
		ModifyTable{Table: "posts"},
		DeleteTable{Table: "posts"},
	}
	for _, op := range ops {
		assert.Equal(t, "posts", op.TableName())
	}
}

func TestParseAction(t *testing.T) {
	for _, name := range []string{"create", "fetch", "modify", "delete"} {
		a, err := ParseAction(name)
		require.NoError(t, err)
		assert.Equal(t, Action(name), a)
	}

	_, err := ParseAction("upsert")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert")
}

func TestParseComparison(t *testing.T) {
	tests := []struct {
		input string
		want  Comparison
	}{
		{"==", OpEquals},
		{"eq", OpEquals},
		{"!=", OpNotEquals},
		{">", OpGreaterThan},
		{">=", OpGreaterThanOrEquals},
		{"<", OpLessThan},
		{"<=", OpLessThanOrEquals},
		{"contains", OpContains},
		{"hasPrefix", OpHasPrefix},
		{"hasSuffix", OpHasSuffix},
		{"greaterThanOrEquals", OpGreaterThanOrEquals},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseComparison(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseComparison("like")
	assert.Error(t, err)
}

func TestQueryString(t *testing.T) {
	q := Query{Entity: "posts", Action: ActionFetch}
	assert.Equal(t, "fetch posts", q.String())
}

func TestNestedGroupConstruction(t *testing.T) {
	g := Group{
		Relation: RelationOr,
		Filters: []Filter{
			Compare{Field: "status", Op: OpEquals, Value: ir.IRString("draft")},
			Group{
				Relation: RelationAnd,
				Filters: []Filter{
					Subset{Field: "tag", Scope: ScopeIn, Values: []ir.IRValue{ir.IRString("go")}},
				},
			},
		},
	}

	inner, ok := g.Filters[1].(Group)
	require.True(t, ok)
	assert.Equal(t, RelationAnd, inner.Relation)
	assert.Len(t, inner.Filters, 1)
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupportedError("unions", "joins cannot be expressed")
	assert.Equal(t, "unsupported: unions: joins cannot be expressed", err.Error())
	assert.True(t, IsUnsupported(err))

	wrapped := fmt.Errorf("compile posts: %w", err)
	assert.True(t, IsUnsupported(wrapped))
	assert.False(t, IsUnsupported(assert.AnError))

	assert.Equal(t, "unsupported: raw queries", NewUnsupportedError("raw queries", "").Error())
}
