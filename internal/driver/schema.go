package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"

	"github.com/roach88/reqlbridge/internal/queryir"
)

// ApplySchema runs a table-level schema operation.
//
//	CreateTable -> r.TableCreate, then r.Table(t).Wait until ready
//	DeleteTable -> r.TableDrop
//	ModifyTable -> no-op, tables are schemaless
//
// The ready wait blocks until the server answers, bounded by
// WithReadyTimeout when set and always by ctx.
func (d *Driver) ApplySchema(ctx context.Context, op queryir.SchemaOp) error {
	started := time.Now()

	var (
		action string
		term   r.Term
		err    error
	)

	switch s := op.(type) {
	case queryir.CreateTable:
		action, term = "create_table", r.TableCreate(s.Table)
		err = d.createTable(ctx, s.Table)
	case *queryir.CreateTable:
		action, term = "create_table", r.TableCreate(s.Table)
		err = d.createTable(ctx, s.Table)
	case queryir.DeleteTable:
		action, term = "delete_table", r.TableDrop(s.Table)
		err = d.dropTable(ctx, s.Table)
	case *queryir.DeleteTable:
		action, term = "delete_table", r.TableDrop(s.Table)
		err = d.dropTable(ctx, s.Table)
	case queryir.ModifyTable, *queryir.ModifyTable:
		slog.Info("schema modify ignored: tables are schemaless", "table", op.TableName())
		return nil
	case nil:
		return fmt.Errorf("nil schema operation")
	default:
		return fmt.Errorf("unsupported schema operation: %T", op)
	}

	d.record(ctx, op.TableName(), action, term.String(), started, nil, err)
	return err
}

func (d *Driver) createTable(ctx context.Context, table string) error {
	if _, err := r.TableCreate(table).RunWrite(d.exec, d.runOpts(ctx)); err != nil {
		return &DriverError{Code: ErrCodeDatabase, Message: "table create failed", Entity: table, Action: "create_table", Err: err}
	}
	slog.Info("table created", "table", table)

	if err := d.waitReady(ctx, table); err != nil {
		return &DriverError{Code: ErrCodeDatabase, Message: "table wait failed", Entity: table, Action: "create_table", Err: err}
	}
	slog.Info("table ready", "table", table)
	return nil
}

func (d *Driver) waitReady(ctx context.Context, table string) error {
	wait := r.Table(table).Wait()
	if d.readyTimeout > 0 {
		wait = r.Table(table).Wait(r.WaitOpts{Timeout: d.readyTimeout.Seconds()})
	}

	cursor, err := wait.Run(d.exec, d.runOpts(ctx))
	if err != nil {
		return err
	}
	return cursor.Close()
}

func (d *Driver) dropTable(ctx context.Context, table string) error {
	if _, err := r.TableDrop(table).RunWrite(d.exec, d.runOpts(ctx)); err != nil {
		return &DriverError{Code: ErrCodeDatabase, Message: "table drop failed", Entity: table, Action: "delete_table", Err: err}
	}
	slog.Info("table dropped", "table", table)
	return nil
}
