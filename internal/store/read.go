package store

import (
	"context"
	"database/sql"
	"fmt"
)

const executionColumns = `id, seq, entity, action, term, fingerprint, status, result, result_hash, error_code, error, duration_ms`

// ListExecutions returns up to limit executions, newest first.
// A limit <= 0 returns every row.
//
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ListExecutions(ctx context.Context, limit int) ([]Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryExecutions(ctx, query, args...)
}

// ExecutionsByFingerprint returns every execution of the same compiled
// query, oldest first.
func (s *Store) ExecutionsByFingerprint(ctx context.Context, fingerprint string) ([]Execution, error) {
	return s.queryExecutions(ctx,
		`SELECT `+executionColumns+` FROM executions WHERE fingerprint = ? ORDER BY seq ASC`,
		fingerprint)
}

// GetExecution fetches one execution by id.
func (s *Store) GetExecution(ctx context.Context, id string) (Execution, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+executionColumns+` FROM executions WHERE id = ?`, id)
	exec, err := scanExecution(row)
	if err == sql.ErrNoRows {
		return Execution{}, fmt.Errorf("execution %q not found", id)
	}
	if err != nil {
		return Execution{}, err
	}
	return exec, nil
}

func (s *Store) queryExecutions(ctx context.Context, query string, args ...any) ([]Execution, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	executions := []Execution{}
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, exec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	return executions, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(row scanner) (Execution, error) {
	var (
		exec                                  Execution
		status                                string
		result, resultHash, errorCode, errMsg sql.NullString
	)
	err := row.Scan(
		&exec.ID,
		&exec.Seq,
		&exec.Entity,
		&exec.Action,
		&exec.Term,
		&exec.Fingerprint,
		&status,
		&result,
		&resultHash,
		&errorCode,
		&errMsg,
		&exec.DurationMS,
	)
	if err == sql.ErrNoRows {
		return Execution{}, err
	}
	if err != nil {
		return Execution{}, fmt.Errorf("scan execution: %w", err)
	}

	exec.Status = Status(status)
	exec.Result = result.String
	exec.ResultHash = resultHash.String
	exec.ErrorCode = errorCode.String
	exec.Error = errMsg.String
	return exec, nil
}
