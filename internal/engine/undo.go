package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/receipt-flow/internal/common"
)

// UndoStats summarizes what an undo reversed.
type UndoStats struct {
	RunID    string
	Deleted  int
	NotFound int
	Errors   int
	Unmarked int
}

// Undo reverses the most recent completed run: deletes its transactions
// from the ledger (tolerating ones already gone), unmarks its emails, and
// removes the run record. Deletion failures are logged and counted, never
// fatal. With no completed run left, undo is a no-op, so calling it twice
// in a row always succeeds.
func (e *Engine) Undo(ctx context.Context) (*UndoStats, error) {
	run, err := e.storage.GetLastCompletedRun(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			e.logger.Info("No completed runs to undo")
			return &UndoStats{}, nil
		}
		return nil, fmt.Errorf("failed to find last run: %w", err)
	}

	stats := &UndoStats{RunID: run.ID}
	e.logger.Info("Undoing run",
		"run_id", shortRunID(run.ID),
		"entries", len(run.Entries))

	for _, entry := range run.Entries {
		if entry.TransactionID == "" {
			stats.NotFound++
		} else {
			deleted, err := e.ledger.DeleteTransaction(ctx, entry.TransactionID)
			switch {
			case err != nil:
				e.logger.Error("Failed to delete transaction",
					"transaction_id", entry.TransactionID, "error", err)
				stats.Errors++
			case deleted:
				stats.Deleted++
			default:
				e.logger.Info("Transaction already gone",
					"transaction_id", entry.TransactionID)
				stats.NotFound++
			}
		}

		if err := e.storage.Unmark(ctx, entry.EmailID); err != nil {
			e.logger.Error("Failed to unmark email", "email_id", entry.EmailID, "error", err)
			stats.Errors++
			continue
		}
		stats.Unmarked++
	}

	if err := e.storage.DeleteRun(ctx, run.ID); err != nil {
		return stats, fmt.Errorf("failed to delete run record: %w", err)
	}

	e.logger.Info("Undo complete",
		"run_id", shortRunID(run.ID),
		"deleted", stats.Deleted,
		"not_found", stats.NotFound,
		"errors", stats.Errors)
	return stats, nil
}
