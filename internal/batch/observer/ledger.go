package observer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"

	"github.com/wakala/be2bill/internal/batch"
	"github.com/wakala/be2bill/internal/domain"
)

// LedgerStore persists runs and lines. *repository.LedgerRepo satisfies it.
type LedgerStore interface {
	CreateRun(ctx context.Context, run *domain.BatchRun) error
	FinishRun(ctx context.Context, id string, finishedAt time.Time, runErr error) error
	InsertLine(ctx context.Context, line *domain.BatchLine) error
}

// Ledger records every processed line of one run.
type Ledger struct {
	store LedgerStore
	clock clockz.Clock
	runID string
}

func NewLedger(store LedgerStore, clock clockz.Clock) *Ledger {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Ledger{store: store, clock: clock}
}

// Begin opens a new run for source and returns its id.
func (l *Ledger) Begin(ctx context.Context, source string) (string, error) {
	run := &domain.BatchRun{
		ID:        uuid.NewString(),
		Source:    source,
		Status:    domain.RunRunning,
		StartedAt: l.clock.Now(),
	}
	if err := l.store.CreateRun(ctx, run); err != nil {
		return "", fmt.Errorf("begin ledger run: %w", err)
	}
	l.runID = run.ID
	return run.ID, nil
}

// Finish closes the current run with the outcome of Processor.Run.
func (l *Ledger) Finish(ctx context.Context, runErr error) error {
	if l.runID == "" {
		return nil
	}
	return l.store.FinishRun(ctx, l.runID, l.clock.Now(), runErr)
}

func (l *Ledger) RunID() string {
	return l.runID
}

func (l *Ledger) Update(ctx context.Context, n batch.Notification) error {
	if l.runID == "" {
		return errors.New("ledger: no run started")
	}
	line := &domain.BatchLine{
		RunID:       l.runID,
		Line:        n.Line,
		OrderID:     n.Record[domain.KeyOrderID],
		Record:      n.Record,
		Result:      n.Result,
		ProcessedAt: l.clock.Now(),
	}
	if n.Result != nil {
		line.TransactionID = n.Result[domain.KeyTransactionID]
		line.ExecCode = n.Result.ExecCode()
		line.Message = n.Result[domain.ResultMessage]
	}
	return l.store.InsertLine(ctx, line)
}
