package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wakala/be2bill/internal/domain"
)

var ErrRunNotFound = errors.New("batch run not found")

// LedgerRepo stores batch runs and the outcome of each of their lines.
type LedgerRepo struct {
	db *sql.DB
}

func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) CreateRun(ctx context.Context, run *domain.BatchRun) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO batch_runs (id, source, status, started_at) VALUES (?,?,?,?)`,
		run.ID, run.Source, string(run.Status), run.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun records the final status of a run. runErr may be nil.
func (r *LedgerRepo) FinishRun(ctx context.Context, id string, finishedAt time.Time, runErr error) error {
	status, msg := domain.RunFinished, ""
	if runErr != nil {
		status, msg = domain.RunFailed, runErr.Error()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE batch_runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), msg, finishedAt.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (r *LedgerRepo) GetRun(ctx context.Context, id string) (*domain.BatchRun, error) {
	var (
		run                domain.BatchRun
		status, startedStr string
		finishedStr        sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, source, status, error, started_at, finished_at FROM batch_runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Source, &status, &run.Error, &startedStr, &finishedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	run.Status = domain.RunStatus(status)
	run.StartedAt, _ = time.Parse(time.RFC3339, startedStr)
	if finishedStr.Valid {
		t, _ := time.Parse(time.RFC3339, finishedStr.String)
		run.FinishedAt = &t
	}
	return &run, nil
}

func (r *LedgerRepo) InsertLine(ctx context.Context, line *domain.BatchLine) error {
	record, err := json.Marshal(line.Record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	var result any
	if line.Result != nil {
		b, err := json.Marshal(line.Result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		result = string(b)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO batch_lines
		(run_id, line, order_id, transaction_id, exec_code, message, record, result, processed_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		line.RunID, line.Line, line.OrderID, line.TransactionID, line.ExecCode, line.Message,
		string(record), result, line.ProcessedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert line %d of run %s: %w", line.Line, line.RunID, err)
	}
	return nil
}

// ListLines returns the lines of a run in processing order.
func (r *LedgerRepo) ListLines(ctx context.Context, runID string) ([]domain.BatchLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id, line, order_id, transaction_id, exec_code, message, record, result, processed_at
		FROM batch_lines WHERE run_id = ? ORDER BY line`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lines of run %s: %w", runID, err)
	}
	defer rows.Close()

	var lines []domain.BatchLine
	for rows.Next() {
		line, err := scanBatchLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, rows.Err()
}

func scanBatchLine(rows *sql.Rows) (*domain.BatchLine, error) {
	var (
		line                    domain.BatchLine
		recordStr, processedStr string
		resultStr               sql.NullString
	)
	err := rows.Scan(
		&line.RunID, &line.Line, &line.OrderID, &line.TransactionID, &line.ExecCode,
		&line.Message, &recordStr, &resultStr, &processedStr,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(recordStr), &line.Record); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if resultStr.Valid {
		if err := json.Unmarshal([]byte(resultStr.String), &line.Result); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
	}
	line.ProcessedAt, _ = time.Parse(time.RFC3339, processedStr)
	return &line, nil
}
