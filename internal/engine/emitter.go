package engine

import (
	"context"

	"github.com/Veraticus/receipt-flow/internal/common"
	"github.com/Veraticus/receipt-flow/internal/model"
	"github.com/Veraticus/receipt-flow/internal/service"
)

// emitBatchSize is how many regular transactions go to the ledger per
// request. Small batches keep one bad transaction from failing many.
const emitBatchSize = 5

// emit sends the selected transactions to the ledger. Scheduled
// transactions go one at a time; regular transactions go in batches. Each
// success appends a run entry and marks its email; a failed batch leaves
// its emails unmarked for the next run.
func (e *Engine) emit(ctx context.Context, selected []model.PendingTransaction, runID string, stats *Stats) {
	var scheduled, regular []model.PendingTransaction
	for _, txn := range selected {
		if txn.IsScheduled {
			scheduled = append(scheduled, txn)
		} else {
			regular = append(regular, txn)
		}
	}

	for _, txn := range scheduled {
		var id string
		err := common.WithRetry(ctx, func() error {
			var createErr error
			id, createErr = e.ledger.CreateScheduledTransaction(ctx, txn)
			return createErr
		}, e.retry)
		if err != nil {
			e.logger.Error("Failed to create scheduled transaction",
				"email_id", txn.EmailID, "date", txn.Date, "error", err)
			stats.Errors++
			continue
		}
		e.recordEmission(ctx, runID, model.RunEntry{
			EmailID:       txn.EmailID,
			DedupKey:      txn.DedupKey,
			TransactionID: id,
			Scheduled:     true,
		})
		stats.Scheduled++
	}

	for start := 0; start < len(regular); start += emitBatchSize {
		end := start + emitBatchSize
		if end > len(regular) {
			end = len(regular)
		}
		batch := regular[start:end]

		var outcomes []service.TransactionOutcome
		err := common.WithRetry(ctx, func() error {
			var createErr error
			outcomes, createErr = e.ledger.CreateTransactions(ctx, batch)
			return createErr
		}, e.retry)
		if err != nil {
			e.logger.Error("Batch creation failed",
				"batch_size", len(batch), "error", err)
			stats.Errors += len(batch)
			continue
		}

		for _, outcome := range outcomes {
			if outcome.AlreadyExists {
				// The ledger already has this dedup key. The email's work
				// is done; it gets marked but contributes no run entry, so
				// undo will not delete a transaction this run did not make.
				e.logger.Info("Transaction already exists in ledger",
					"email_id", outcome.EmailID, "dedup_key", outcome.DedupKey)
				e.markAll(ctx, []string{outcome.EmailID}, runID)
				stats.Duplicates++
				continue
			}
			e.recordEmission(ctx, runID, model.RunEntry{
				EmailID:       outcome.EmailID,
				DedupKey:      outcome.DedupKey,
				TransactionID: outcome.TransactionID,
			})
			stats.Created++
		}
	}
}

func (e *Engine) recordEmission(ctx context.Context, runID string, entry model.RunEntry) {
	if err := e.storage.AppendRunEntry(ctx, runID, entry); err != nil {
		e.logger.Error("Failed to record run entry",
			"email_id", entry.EmailID, "error", err)
	}
	e.markAll(ctx, []string{entry.EmailID}, runID)
}
