// Package engine orchestrates the receipt pipeline: fetch, classify,
// build, review, and emit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/receipt-flow/internal/model"
	"github.com/Veraticus/receipt-flow/internal/service"
)

// DefaultFetchLimit caps how many recent emails a run examines.
const DefaultFetchLimit = 100

// Options control a single run.
type Options struct {
	DryRun      bool
	Force       bool
	AutoApprove bool
	Limit       int
}

// Stats summarizes what a run did.
type Stats struct {
	Created    int
	Scheduled  int
	Duplicates int
	Skipped    int
	Errors     int
}

// Engine wires the pipeline's collaborators together.
type Engine struct {
	storage    service.Storage
	mail       service.MailSource
	classifier service.Classifier
	ledger     service.LedgerClient
	directory  PayeeDirectory
	reviewer   Reviewer
	logger     *slog.Logger
	accounts   []model.Account
	retry      service.RetryOptions
	minScore   int
}

// New creates an engine. A nil reviewer approves everything.
func New(
	storage service.Storage,
	mail service.MailSource,
	classifier service.Classifier,
	ledger service.LedgerClient,
	directory PayeeDirectory,
	reviewer Reviewer,
	accounts []model.Account,
	minScore int,
	logger *slog.Logger,
) *Engine {
	if reviewer == nil {
		reviewer = approveAll{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		storage:    storage,
		mail:       mail,
		classifier: classifier,
		ledger:     ledger,
		directory:  directory,
		reviewer:   reviewer,
		accounts:   accounts,
		minScore:   minScore,
		logger:     logger,
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Run executes one pipeline pass. Emails that produce a transaction or a
// permanent skip are marked processed; emails hit by transient errors are
// left unmarked and picked up again next run.
func (e *Engine) Run(ctx context.Context, opts Options) (*Stats, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultFetchLimit
	}

	runID := uuid.New().String()
	stats := &Stats{}

	if !opts.DryRun {
		if err := e.storage.CreateRun(ctx, &model.Run{ID: runID, StartedAt: time.Now().UTC()}); err != nil {
			return nil, fmt.Errorf("failed to start run: %w", err)
		}
	}

	if err := e.directory.Refresh(ctx, false); err != nil {
		// A stale payee mirror degrades matching, it does not block the run.
		e.logger.Warn("Payee refresh failed, using cached directory", "error", err)
	}
	payees, err := e.directory.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payee directory: %w", err)
	}

	e.logger.Info("Fetching emails", "limit", limit, "run_id", shortRunID(runID))
	emails, err := e.mail.FetchRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch emails: %w", err)
	}
	e.logger.Info("Fetched emails", "count", len(emails))

	plan := e.plan(ctx, emails, payees, runID, opts, stats)

	if len(plan.pending) == 0 {
		e.logger.Info("No transactions to review")
		if !opts.DryRun {
			e.markAll(ctx, plan.permanentSkips, runID)
			if err := e.storage.CompleteRun(ctx, runID); err != nil {
				return stats, fmt.Errorf("failed to complete run: %w", err)
			}
		}
		return stats, nil
	}

	items := make([]ReviewItem, 0, len(plan.pending))
	for _, p := range plan.pending {
		items = append(items, ReviewItem{Transaction: p.txn, Score: p.score})
	}

	if opts.DryRun {
		e.logger.Info("Dry run: transactions planned, nothing emitted", "count", len(items))
		return stats, nil
	}

	reviewer := e.reviewer
	if opts.AutoApprove {
		reviewer = approveAll{}
	}
	selected, cancelled, err := reviewer.Review(ctx, items)
	if err != nil {
		return stats, fmt.Errorf("review failed: %w", err)
	}
	if cancelled {
		// Preview mode: nothing marked, everything eligible again next run.
		e.logger.Info("Review cancelled, no emails marked as processed")
		return stats, nil
	}

	// Permanent skips and explicitly deselected transactions both become
	// processed without emission.
	e.markAll(ctx, plan.permanentSkips, runID)
	selectedIDs := make(map[string]bool, len(selected))
	for i := range selected {
		selectedIDs[selected[i].EmailID] = true
	}
	for _, p := range plan.pending {
		if !selectedIDs[p.txn.EmailID] {
			e.markAll(ctx, []string{p.txn.EmailID}, runID)
			stats.Skipped++
		}
	}

	e.emit(ctx, selected, runID, stats)

	if err := e.storage.CompleteRun(ctx, runID); err != nil {
		return stats, fmt.Errorf("failed to complete run: %w", err)
	}

	e.logger.Info("Run complete",
		"run_id", shortRunID(runID),
		"created", stats.Created,
		"scheduled", stats.Scheduled,
		"duplicates", stats.Duplicates,
		"skipped", stats.Skipped,
		"errors", stats.Errors)
	return stats, nil
}

type planned struct {
	txn   model.PendingTransaction
	score int
}

type runPlan struct {
	pending        []planned
	permanentSkips []string
}

// plan classifies each candidate email and builds its transaction. It
// performs no writes besides the classification cache.
func (e *Engine) plan(ctx context.Context, emails []model.Email, payees []string, runID string, opts Options, stats *Stats) *runPlan {
	plan := &runPlan{}
	now := time.Now()

	for _, email := range emails {
		if !opts.Force {
			processed, err := e.storage.IsProcessed(ctx, email.ID)
			if err != nil {
				e.logger.Error("Failed to check processed state", "email_id", email.ID, "error", err)
				stats.Errors++
				continue
			}
			if processed {
				stats.Skipped++
				continue
			}
		}

		result, err := e.classifier.Classify(ctx, email, payees, e.accounts)
		if err != nil {
			// Transient: leave unmarked so the next run retries.
			e.logger.Error("Classification failed", "email_id", email.ID, "subject", email.Subject, "error", err)
			stats.Errors++
			continue
		}

		txn, err := e.buildTransaction(ctx, email, result, runID, now)
		if err != nil {
			var skip *skipError
			if errors.As(err, &skip) {
				e.logger.Debug("Skipping email",
					"email_id", email.ID,
					"subject", email.Subject,
					"reason", skip.reason)
				plan.permanentSkips = append(plan.permanentSkips, email.ID)
				stats.Skipped++
				continue
			}
			e.logger.Error("Failed to build transaction", "email_id", email.ID, "error", err)
			stats.Errors++
			continue
		}

		e.logger.Info("Planned transaction",
			"email_id", email.ID,
			"payee", txn.PayeeName,
			"amount", txn.Amount,
			"date", txn.Date,
			"scheduled", txn.IsScheduled,
			"score", result.Score)
		plan.pending = append(plan.pending, planned{txn: *txn, score: result.Score})
	}

	return plan
}

func (e *Engine) markAll(ctx context.Context, emailIDs []string, runID string) {
	for _, id := range emailIDs {
		if err := e.storage.MarkProcessed(ctx, id, runID); err != nil {
			e.logger.Error("Failed to mark email processed", "email_id", id, "error", err)
		}
	}
}
