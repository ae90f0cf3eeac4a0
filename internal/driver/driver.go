// Package driver is the entry point the ORM layer calls: it compiles
// abstract queries, runs them through rethinkdb-go and converts results
// back into generic nodes.
//
// A Driver holds no locks. It is as safe for concurrent use as the
// QueryExecutor it wraps; an *r.Session is.
package driver

import (
	"context"
	"log/slog"
	"time"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"

	"github.com/roach88/reqlbridge/internal/config"
	"github.com/roach88/reqlbridge/internal/ir"
	"github.com/roach88/reqlbridge/internal/queryir"
	"github.com/roach88/reqlbridge/internal/queryreql"
	"github.com/roach88/reqlbridge/internal/store"
)

// Journal records executed operations. *store.Store implements it.
type Journal interface {
	RecordExecution(ctx context.Context, rec store.Record) (store.Execution, error)
}

// Driver executes queries and schema operations against one executor.
type Driver struct {
	exec         r.QueryExecutor
	compiler     *queryreql.Compiler
	readyTimeout time.Duration
	journal      Journal
}

// Option configures a Driver.
type Option func(*Driver)

// WithIDKey sets the primary key field. Defaults to "id".
func WithIDKey(key string) Option {
	return func(d *Driver) { d.compiler.IDKey = key }
}

// WithReadyTimeout bounds the wait after a table is created.
// Zero (the default) waits until the server reports the table ready.
func WithReadyTimeout(timeout time.Duration) Option {
	return func(d *Driver) { d.readyTimeout = timeout }
}

// WithJournal records every Execute and ApplySchema call.
func WithJournal(j Journal) Option {
	return func(d *Driver) { d.journal = j }
}

// New creates a Driver over exec, typically an *r.Session.
func New(exec r.QueryExecutor, opts ...Option) *Driver {
	d := &Driver{
		exec:     exec,
		compiler: queryreql.NewCompiler(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FromConfig applies the id key and ready timeout from cfg.
func FromConfig(cfg config.Config) []Option {
	return []Option{WithIDKey(cfg.IDKey), WithReadyTimeout(cfg.ReadyTimeout)}
}

// Connect opens a session using cfg.
func Connect(cfg config.Config) (*r.Session, error) {
	slog.Debug("connecting", "address", cfg.Address(), "database", cfg.Database)
	session, err := r.Connect(cfg.ConnectOpts())
	if err != nil {
		return nil, &DriverError{Code: ErrCodeDatabase, Message: "connect to " + cfg.Address(), Err: err}
	}
	return session, nil
}

// Compile exposes the compiled term for q without running it.
func (d *Driver) Compile(q queryir.Query) (r.Term, error) {
	term, err := d.compiler.Compile(q)
	if err != nil {
		return r.Term{}, wrapCompileError(q, err)
	}
	return term, nil
}

// Raw always fails: arbitrary query strings are never interpreted.
func (d *Driver) Raw(ctx context.Context, query string, values []ir.IRValue) (ir.IRValue, error) {
	return nil, &DriverError{
		Code:    ErrCodeUnsupported,
		Message: "raw query rejected",
		Action:  "raw",
		Err:     queryir.NewUnsupportedError("raw queries", "RethinkDB has no textual query language"),
	}
}

func (d *Driver) runOpts(ctx context.Context) r.RunOpts {
	return r.RunOpts{Context: ctx}
}

// record appends to the journal if one is configured. Journal failures are
// logged and never fail the operation.
func (d *Driver) record(ctx context.Context, entity, action, term string, started time.Time, result ir.IRValue, err error) {
	if d.journal == nil {
		return
	}
	rec := store.Record{
		Entity:     entity,
		Action:     action,
		Term:       term,
		Result:     result,
		Err:        err,
		DurationMS: time.Since(started).Milliseconds(),
	}
	if err != nil {
		rec.Result = nil
		rec.ErrorCode = string(Code(err))
	}
	if _, jerr := d.journal.RecordExecution(ctx, rec); jerr != nil {
		slog.Warn("journal write failed", "entity", entity, "action", action, "error", jerr)
	}
}
