package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"

	"github.com/roach88/reqlbridge/internal/config"
	"github.com/roach88/reqlbridge/internal/driver"
	"github.com/roach88/reqlbridge/internal/queryreql"
	"github.com/roach88/reqlbridge/internal/store"
)

const (
	createYAML = "entity: posts\naction: create\ndata:\n  id: null\n  title: Hello, world\n"
	deleteYAML = "entity: posts\naction: delete\nfilters:\n  - {field: id, op: equals, value: abc}\n"
)

// execEnv is an in-memory filesystem plus a mock server for commands that
// connect.
type execEnv struct {
	fs   afero.Fs
	mock *r.Mock
}

func newExecEnv(t *testing.T) *execEnv {
	t.Helper()
	for _, key := range []string{"RETHINKDB_READY_TIMEOUT", "RETHINKDB_ID_KEY", "RETHINKDB_PORT", "RETHINKDB_TIMEOUT"} {
		t.Setenv(key, "")
	}
	return &execEnv{fs: afero.NewMemMapFs(), mock: r.NewMock()}
}

func (e *execEnv) opts(format string) *RootOptions {
	return &RootOptions{
		Format: format,
		Fs:     e.fs,
		Connect: func(config.Config) (r.QueryExecutor, func(), error) {
			return e.mock, func() {}, nil
		},
	}
}

func (e *execEnv) writeQuery(t *testing.T, name, body string) string {
	t.Helper()
	require.NoError(t, afero.WriteFile(e.fs, name, []byte(body), 0o644))
	return name
}

// expectQuery registers the compiled form of the query file on the mock.
func (e *execEnv) expectQuery(t *testing.T, name string) *r.MockQuery {
	t.Helper()
	q, err := LoadQuery(e.fs, name)
	require.NoError(t, err)
	term, err := queryreql.NewCompiler().Compile(q)
	require.NoError(t, err)
	return e.mock.On(term)
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestExecCreate(t *testing.T) {
	env := newExecEnv(t)
	path := env.writeQuery(t, "create.yaml", createYAML)
	env.expectQuery(t, path).Return(map[string]interface{}{
		"inserted":       1,
		"generated_keys": []interface{}{"abc"},
	}, nil)

	out, err := execute(t, NewExecCommand(env.opts("text")), path)
	require.NoError(t, err)
	assert.Equal(t, "\"abc\"\n", out)
	env.mock.AssertExpectations(t)
}

func TestExecDeleteJSON(t *testing.T) {
	env := newExecEnv(t)
	path := env.writeQuery(t, "delete.yaml", deleteYAML)
	env.expectQuery(t, path).Return(map[string]interface{}{
		"deleted": 1,
		"changes": []interface{}{
			map[string]interface{}{"old_val": map[string]interface{}{"id": "abc", "title": "Hello, world"}},
		},
	}, nil)

	out, err := execute(t, NewExecCommand(env.opts("json")), path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":[{"id":"abc","title":"Hello, world"}]}`, out)
}

func TestExecDatabaseError(t *testing.T) {
	env := newExecEnv(t)
	path := env.writeQuery(t, "delete.yaml", deleteYAML)
	env.expectQuery(t, path).Return(nil, errors.New("Table `test.posts` does not exist"))

	out, err := execute(t, NewExecCommand(env.opts("text")), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeDatabase+"]")
	assert.Contains(t, out, "does not exist")
}

func TestExecUnsupportedNeverReachesServer(t *testing.T) {
	env := newExecEnv(t)
	path := env.writeQuery(t, "union.yaml", "entity: posts\naction: fetch\nunions:\n  - entity: users\n")

	out, err := execute(t, NewExecCommand(env.opts("text")), path)
	require.Error(t, err)
	assert.Contains(t, out, "Error ["+ErrCodeUnsupported+"]")
	env.mock.AssertExpectations(t)
}

func TestExecConnectFailure(t *testing.T) {
	env := newExecEnv(t)
	path := env.writeQuery(t, "create.yaml", createYAML)
	opts := env.opts("text")
	opts.Connect = func(cfg config.Config) (r.QueryExecutor, func(), error) {
		return nil, nil, &driver.DriverError{Code: driver.ErrCodeDatabase, Message: "connect to " + cfg.Address(), Err: errors.New("connection refused")}
	}

	out, err := execute(t, NewExecCommand(opts), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "connection refused")
}

func TestExecBadConfig(t *testing.T) {
	env := newExecEnv(t)
	path := env.writeQuery(t, "create.yaml", createYAML)
	require.NoError(t, afero.WriteFile(env.fs, ".env", []byte("RETHINKDB_PORT=0\n"), 0o644))

	out, err := execute(t, NewExecCommand(env.opts("text")), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeConfig+"]")
}

func TestExecJournalAndHistory(t *testing.T) {
	env := newExecEnv(t)
	createPath := env.writeQuery(t, "create.yaml", createYAML)
	deletePath := env.writeQuery(t, "delete.yaml", deleteYAML)
	journal := filepath.Join(t.TempDir(), "journal.db")

	env.expectQuery(t, createPath).Return(map[string]interface{}{"generated_keys": []interface{}{"abc"}}, nil)
	env.expectQuery(t, deletePath).Return(nil, errors.New("boom"))

	_, err := execute(t, NewExecCommand(env.opts("text")), createPath, "--journal", journal)
	require.NoError(t, err)
	_, err = execute(t, NewExecCommand(env.opts("text")), deletePath, "--journal", journal)
	require.Error(t, err)

	// history reads the journal from the real filesystem.
	out, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--journal", journal)
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^\s+2\s+delete\s+posts\s+error .*DATABASE`, out)
	assert.Regexp(t, `(?m)^\s+1\s+create\s+posts\s+ok`, out)

	out, err = execute(t, NewHistoryCommand(&RootOptions{Format: "json"}), "--journal", journal, "--limit", "1")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   []store.Execution `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(2), resp.Data[0].Seq)
	assert.Equal(t, "DATABASE", resp.Data[0].ErrorCode)
}

func TestHistoryEmptyJournal(t *testing.T) {
	journal := filepath.Join(t.TempDir(), "journal.db")
	s, err := store.Open(journal)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--journal", journal)
	require.NoError(t, err)
	assert.Contains(t, out, "No executions recorded")
}

func TestHistoryMissingJournal(t *testing.T) {
	out, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--journal", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "journal not found")
}

func TestSchemaCommands(t *testing.T) {
	env := newExecEnv(t)
	env.mock.On(r.TableCreate("posts")).Return(map[string]interface{}{"tables_created": 1}, nil)
	env.mock.On(r.Table("posts").Wait()).Return(map[string]interface{}{"ready": 1}, nil)
	env.mock.On(r.TableDrop("posts")).Return(map[string]interface{}{"tables_dropped": 1}, nil)

	out, err := execute(t, NewSchemaCommand(env.opts("text")), "create", "posts", "--field", "title")
	require.NoError(t, err)
	assert.Equal(t, "✓ create posts\n", out)

	out, err = execute(t, NewSchemaCommand(env.opts("text")), "modify", "posts", "--add", "body")
	require.NoError(t, err)
	assert.Equal(t, "✓ modify posts\n", out)

	out, err = execute(t, NewSchemaCommand(env.opts("json")), "drop", "posts")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":{"table":"posts","operation":"drop"}}`, out)

	env.mock.AssertExpectations(t)
}

func TestSchemaCreateFailure(t *testing.T) {
	env := newExecEnv(t)
	env.mock.On(r.TableCreate("posts")).Return(nil, errors.New("Table `test.posts` already exists"))

	out, err := execute(t, NewSchemaCommand(env.opts("text")), "create", "posts")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "already exists")
}
