package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"

	"github.com/roach88/reqlbridge/internal/document"
	"github.com/roach88/reqlbridge/internal/ir"
	"github.com/roach88/reqlbridge/internal/queryir"
)

// Execute compiles q, runs it and converts the result.
//
// Result shapes:
//
//	create -> IRString(generated key, or the payload key rendered as text)
//	fetch  -> IRArray of documents, materialised eagerly
//	modify -> IRArray{new value}, or an empty array when nothing changed
//	delete -> IRArray{old value}, or an empty array when nothing changed
//
// The call blocks until the server responds or ctx is done. It is run at
// most once; retries are the caller's decision.
func (d *Driver) Execute(ctx context.Context, q queryir.Query) (ir.IRValue, error) {
	started := time.Now()

	term, err := d.Compile(q)
	if err != nil {
		d.record(ctx, q.Entity, string(q.Action), "", started, nil, err)
		return nil, err
	}
	termStr := term.String()

	slog.Debug("executing query",
		"entity", q.Entity,
		"action", q.Action,
		"term", termStr,
	)

	var result ir.IRValue
	switch q.Action {
	case queryir.ActionCreate:
		result, err = d.create(ctx, q, term)
	case queryir.ActionFetch:
		result, err = d.fetch(ctx, q, term)
	case queryir.ActionModify:
		result, err = d.changes(ctx, q, term, func(c r.ChangeResponse) any { return c.NewValue })
	case queryir.ActionDelete:
		result, err = d.changes(ctx, q, term, func(c r.ChangeResponse) any { return c.OldValue })
	}

	d.record(ctx, q.Entity, string(q.Action), termStr, started, result, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Driver) create(ctx context.Context, q queryir.Query, term r.Term) (ir.IRValue, error) {
	resp, err := term.RunWrite(d.exec, d.runOpts(ctx))
	if err != nil {
		return nil, databaseError(q, "insert failed", err)
	}

	if len(resp.GeneratedKeys) > 0 {
		slog.Debug("document created", "entity", q.Entity, "id", resp.GeneratedKeys[0])
		return ir.IRString(resp.GeneratedKeys[0]), nil
	}

	// The server only generates keys when the payload has none.
	if id, ok := q.Data[d.compiler.IDKey]; ok && !ir.IsNull(id) {
		return idString(id)
	}

	return nil, &DriverError{
		Code:    ErrCodeMissingKey,
		Message: "insert returned no generated key",
		Entity:  q.Entity,
		Action:  string(q.Action),
	}
}

func (d *Driver) fetch(ctx context.Context, q queryir.Query, term r.Term) (ir.IRValue, error) {
	cursor, err := term.Run(d.exec, d.runOpts(ctx))
	if err != nil {
		return nil, databaseError(q, "query failed", err)
	}
	defer cursor.Close()

	var rows []any
	if err := cursor.All(&rows); err != nil {
		return nil, databaseError(q, "reading cursor failed", err)
	}

	out := make(ir.IRArray, len(rows))
	for i, row := range rows {
		node, err := toNode(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = node
	}

	slog.Debug("query fetched", "entity", q.Entity, "rows", len(out))
	return out, nil
}

// changes runs an update or delete and returns the first changed value
// picked by pick. Zero affected rows is an empty array, not an error.
func (d *Driver) changes(ctx context.Context, q queryir.Query, term r.Term, pick func(r.ChangeResponse) any) (ir.IRValue, error) {
	resp, err := term.RunWrite(d.exec, d.runOpts(ctx))
	if err != nil {
		return nil, databaseError(q, string(q.Action)+" failed", err)
	}

	slog.Debug("write applied",
		"entity", q.Entity,
		"action", q.Action,
		"changes", len(resp.Changes),
	)

	if len(resp.Changes) == 0 {
		return ir.IRArray{}, nil
	}

	node, err := toNode(pick(resp.Changes[0]))
	if err != nil {
		return nil, err
	}
	return ir.NewIRArray(node), nil
}

// toNode converts one value read by the client into a node, going
// through the typed model so pseudo-types are normalised.
func toNode(v any) (ir.IRValue, error) {
	val, err := document.FromHost(v)
	if err != nil {
		return nil, err
	}
	return document.Encode(val), nil
}

func databaseError(q queryir.Query, msg string, err error) error {
	return &DriverError{
		Code:    ErrCodeDatabase,
		Message: msg,
		Entity:  q.Entity,
		Action:  string(q.Action),
		Err:     err,
	}
}

// wrapCompileError tags unsupported features; conversion and validation
// errors pass through unchanged.
func wrapCompileError(q queryir.Query, err error) error {
	if queryir.IsUnsupported(err) {
		return &DriverError{
			Code:    ErrCodeUnsupported,
			Message: "query rejected",
			Entity:  q.Entity,
			Action:  string(q.Action),
			Err:     err,
		}
	}
	return err
}

// idString renders an explicit primary key the way create reports keys.
// Non-string keys use their canonical JSON text, so IRInt(7) becomes "7".
func idString(id ir.IRValue) (ir.IRValue, error) {
	if s, ok := ir.AsString(id); ok {
		return ir.IRString(s), nil
	}
	b, err := ir.MarshalCanonical(id)
	if err != nil {
		return nil, fmt.Errorf("render primary key: %w", err)
	}
	return ir.IRString(b), nil
}
