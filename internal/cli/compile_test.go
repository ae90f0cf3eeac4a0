package cli

import (
	"bytes"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"

	"github.com/roach88/reqlbridge/internal/ir"
	"github.com/roach88/reqlbridge/internal/queryreql"
)

var varIDs = regexp.MustCompile(`var_\d+`)

// normalizeTerm strips the per-process variable numbering from a printed term.
func normalizeTerm(s string) string {
	return varIDs.ReplaceAllString(s, "var_N")
}

func TestCompileYAML(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{queryPath("create_post.yaml")})

	require.NoError(t, cmd.Execute())

	want := r.Table("posts").Insert(map[string]any{"title": "Hello, world"}).String()
	assert.Equal(t, want+"\n", buf.String())
}

func TestCompileFormatsProduceSameTerm(t *testing.T) {
	want, err := queryreql.NewCompiler().Compile(fetchPostsQuery())
	require.NoError(t, err)

	for _, name := range []string{"fetch_posts.yaml", "fetch_posts.cue", "fetch_posts.json"} {
		t.Run(name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			cmd := NewCompileCommand(&RootOptions{Format: "text"})
			cmd.SetOut(buf)
			cmd.SetArgs([]string{queryPath(name)})

			require.NoError(t, cmd.Execute())
			assert.Equal(t, normalizeTerm(want.String())+"\n", normalizeTerm(buf.String()))
			assert.Contains(t, buf.String(), "Skip(20)")
		})
	}
}

func TestCompileJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{queryPath("delete_post.yaml")})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string        `json:"status"`
		Data   CompileResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "posts", resp.Data.Entity)
	assert.Equal(t, "delete", resp.Data.Action)
	assert.Contains(t, resp.Data.Term, "Delete(")

	fp, err := ir.QueryFingerprint("posts", "delete", resp.Data.Term)
	require.NoError(t, err)
	assert.Equal(t, fp, resp.Data.Fingerprint)
}

func TestCompileIDKeyFlag(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "create.yaml", []byte("entity: posts\naction: create\ndata:\n  id: null\n"), 0o644))

	tests := []struct {
		name string
		args []string
		want r.Term
	}{
		{"default key dropped when null", nil, r.Table("posts").Insert(map[string]any{})},
		{"other key keeps id", []string{"--id-key", "_key"}, r.Table("posts").Insert(map[string]any{"id": nil})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			cmd := NewCompileCommand(&RootOptions{Format: "text", Fs: fs})
			cmd.SetOut(buf)
			cmd.SetArgs(append([]string{"create.yaml"}, tt.args...))

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.want.String()+"\n", buf.String())
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		wantCode string
		wantExit int
	}{
		{"missing file", "nope.yaml", ErrCodeNotFound, ExitCommandError},
		{"unions", "with_union.yaml", ErrCodeUnsupported, ExitFailure},
		{"malformed time literal", "bad_time.yaml", ErrCodeConversion, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			cmd := NewCompileCommand(&RootOptions{Format: "text"})
			cmd.SetOut(buf)
			cmd.SetArgs([]string{queryPath(tt.file)})

			err := cmd.Execute()
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantCode)
			assert.Contains(t, buf.String(), "Error ["+tt.wantCode+"]")
		})
	}
}

func TestCompileErrorJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{queryPath("with_union.yaml")})

	require.Error(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUnsupported, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "unions")
}
