package cli

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reqlbridge/internal/ir"
	"github.com/roach88/reqlbridge/internal/queryir"
)

func queryPath(name string) string {
	return filepath.Join("testdata", "queries", name)
}

func fetchPostsQuery() queryir.Query {
	return queryir.Query{
		Entity: "posts",
		Action: queryir.ActionFetch,
		Filters: []queryir.Filter{
			queryir.Compare{Field: "views", Op: queryir.OpGreaterThan, Value: ir.IRInt(10)},
			queryir.Subset{Field: "status", Scope: queryir.ScopeIn, Values: []ir.IRValue{ir.IRString("draft"), ir.IRString("review")}},
			queryir.Group{Relation: queryir.RelationOr, Filters: []queryir.Filter{
				queryir.Compare{Field: "title", Op: queryir.OpHasPrefix, Value: ir.IRString("Hello")},
				queryir.Compare{Field: "title", Op: queryir.OpHasSuffix, Value: ir.IRString("world")},
			}},
		},
		Sorts: []queryir.Sort{{Field: "title", Direction: queryir.Descending}},
		Limit: &queryir.Limit{Offset: 20, Count: 10},
	}
}

func TestLoadQuery_FormatsAgree(t *testing.T) {
	for _, name := range []string{"fetch_posts.yaml", "fetch_posts.cue", "fetch_posts.json"} {
		t.Run(name, func(t *testing.T) {
			q, err := LoadQuery(afero.NewOsFs(), queryPath(name))
			require.NoError(t, err)
			assert.Equal(t, fetchPostsQuery(), q)
		})
	}
}

func TestLoadQuery_ExtendedTypeInCUE(t *testing.T) {
	q, err := LoadQuery(afero.NewOsFs(), queryPath("create_event.cue"))
	require.NoError(t, err)

	assert.Equal(t, queryir.ActionCreate, q.Action)
	assert.Equal(t, ir.IRNull{}, q.Data["id"])
	at, ok := q.Data["at"].(ir.IRObject)
	require.True(t, ok)
	assert.Equal(t, ir.IRString("TIME"), at["$reql_type$"])
	assert.Equal(t, ir.IRInt(1700000000), at["epoch_time"])
}

func TestLoadQuery_Unions(t *testing.T) {
	q, err := LoadQuery(afero.NewOsFs(), queryPath("with_union.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []queryir.Union{{Entity: "users", LocalKey: "author", ForeignKey: "id"}}, q.Unions)
}

func TestLoadQuery_MemFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/q/fetch.yml", []byte("entity: posts\naction: fetch\n"), 0o644))

	q, err := LoadQuery(fs, "/q/fetch.yml")
	require.NoError(t, err)
	assert.Equal(t, queryir.Query{Entity: "posts", Action: queryir.ActionFetch}, q)
}

func TestLoadQuery_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantCode string
	}{
		{"missing file", queryPath("nope.yaml"), ErrCodeNotFound},
		{"unknown extension", "loader_test.go", ErrCodeFileType},
		{"malformed yaml", queryPath("malformed.yaml"), ErrCodeParseFailed},
		{"conflicting cue", queryPath("malformed.cue"), ErrCodeParseFailed},
		{"unknown action", queryPath("unknown_action.yaml"), ErrCodeInvalidQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadQuery(afero.NewOsFs(), tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ErrorCodeFor(err))
		})
	}
}

func TestQueryFromNode(t *testing.T) {
	obj := func(pairs ...ir.IRPair) ir.IRObject { return ir.NewIRObjectFromPairs(pairs...) }
	base := func(extra ...ir.IRPair) ir.IRObject {
		return obj(append([]ir.IRPair{ir.O("entity", ir.IRString("posts")), ir.O("action", ir.IRString("fetch"))}, extra...)...)
	}

	t.Run("not_in subset", func(t *testing.T) {
		q, err := QueryFromNode(base(ir.O("filters", ir.NewIRArray(
			obj(ir.O("field", ir.IRString("tag")), ir.O("not_in", ir.NewIRArray(ir.IRString("x")))),
		))))
		require.NoError(t, err)
		assert.Equal(t, []queryir.Filter{
			queryir.Subset{Field: "tag", Scope: queryir.ScopeNotIn, Values: []ir.IRValue{ir.IRString("x")}},
		}, q.Filters)
	})

	t.Run("compare without value is null", func(t *testing.T) {
		q, err := QueryFromNode(base(ir.O("filters", ir.NewIRArray(
			obj(ir.O("field", ir.IRString("deleted_at")), ir.O("op", ir.IRString("=="))),
		))))
		require.NoError(t, err)
		assert.Equal(t, []queryir.Filter{
			queryir.Compare{Field: "deleted_at", Op: queryir.OpEquals, Value: ir.IRNull{}},
		}, q.Filters)
	})

	t.Run("default sort direction", func(t *testing.T) {
		q, err := QueryFromNode(base(ir.O("sorts", ir.NewIRArray(obj(ir.O("field", ir.IRString("title")))))))
		require.NoError(t, err)
		assert.Equal(t, []queryir.Sort{{Field: "title", Direction: queryir.Ascending}}, q.Sorts)
	})

	t.Run("limit from doubles", func(t *testing.T) {
		q, err := QueryFromNode(base(ir.O("limit", obj(ir.O("count", ir.IRDouble(5))))))
		require.NoError(t, err)
		assert.Equal(t, &queryir.Limit{Offset: 0, Count: 5}, q.Limit)
	})

	errorCases := []struct {
		name string
		node ir.IRValue
		want string
	}{
		{"not an object", ir.IRString("posts"), "query must be an object"},
		{"missing entity", obj(ir.O("action", ir.IRString("fetch"))), `missing "entity"`},
		{"entity not a string", obj(ir.O("entity", ir.IRInt(1)), ir.O("action", ir.IRString("fetch"))), `"entity" must be a string`},
		{"filters not a list", base(ir.O("filters", ir.IRString("x"))), "filters must be a list"},
		{"filter missing field", base(ir.O("filters", ir.NewIRArray(obj(ir.O("op", ir.IRString("==")))))), `filters[0]`},
		{"unknown op", base(ir.O("filters", ir.NewIRArray(obj(ir.O("field", ir.IRString("a")), ir.O("op", ir.IRString("~=")))))), "unknown comparison"},
		{"group not a list", base(ir.O("filters", ir.NewIRArray(obj(ir.O("and", ir.IRString("x")))))), "filters[0].and must be a list"},
		{"bad direction", base(ir.O("sorts", ir.NewIRArray(obj(ir.O("field", ir.IRString("a")), ir.O("direction", ir.IRString("up")))))), "unknown direction"},
		{"fractional limit", base(ir.O("limit", obj(ir.O("count", ir.IRDouble(1.5))))), "whole number"},
		{"data not an object", base(ir.O("data", ir.IRArray{})), "data must be an object"},
		{"union without entity", base(ir.O("unions", ir.NewIRArray(obj()))), "unions[0]"},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := QueryFromNode(tt.node)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, ErrCodeInvalidQuery, ErrorCodeFor(err))
		})
	}
}
