package store

import (
	"context"
	"fmt"

	"github.com/roach88/reqlbridge/internal/ir"
)

// Record describes an execution before the journal assigns its identity.
type Record struct {
	Entity     string
	Action     string
	Term       string
	Result     ir.IRValue // nil when Err is set
	ErrorCode  string
	Err        error
	DurationMS int64
}

// RecordExecution appends an execution and returns the stored row.
//
// The id comes from the store's IDGenerator; seq is one past the current
// maximum, assigned inside the insert transaction.
func (s *Store) RecordExecution(ctx context.Context, rec Record) (Execution, error) {
	fingerprint, err := ir.QueryFingerprint(rec.Entity, rec.Action, rec.Term)
	if err != nil {
		return Execution{}, fmt.Errorf("record execution: %w", err)
	}

	exec := Execution{
		ID:          s.ids.Generate(),
		Entity:      rec.Entity,
		Action:      rec.Action,
		Term:        rec.Term,
		Fingerprint: fingerprint,
		Status:      StatusOK,
		DurationMS:  rec.DurationMS,
	}

	if rec.Err != nil {
		exec.Status = StatusError
		exec.ErrorCode = rec.ErrorCode
		exec.Error = rec.Err.Error()
	} else if rec.Result != nil {
		exec.Result, exec.ResultHash, err = marshalResult(rec.Result)
		if err != nil {
			return Execution{}, fmt.Errorf("record execution: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Execution{}, fmt.Errorf("record execution: begin: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM executions`).Scan(&exec.Seq); err != nil {
		return Execution{}, fmt.Errorf("record execution: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO executions
		(id, seq, entity, action, term, fingerprint, status, result, result_hash, error_code, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		exec.ID,
		exec.Seq,
		exec.Entity,
		exec.Action,
		exec.Term,
		exec.Fingerprint,
		string(exec.Status),
		nullable(exec.Result),
		nullable(exec.ResultHash),
		nullable(exec.ErrorCode),
		nullable(exec.Error),
		exec.DurationMS,
	)
	if err != nil {
		return Execution{}, fmt.Errorf("record execution: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Execution{}, fmt.Errorf("record execution: commit: %w", err)
	}
	return exec, nil
}
