// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/receipt-flow/internal/model"
)

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Idempotency ledger. A marked email is excluded from every future
	// run's candidate set until explicitly unmarked.
	IsProcessed(ctx context.Context, emailID string) (bool, error)
	MarkProcessed(ctx context.Context, emailID, runID string) error
	Unmark(ctx context.Context, emailID string) error

	// Classification cache, keyed by content fingerprint.
	GetCachedClassification(ctx context.Context, fingerprint string) (*model.ClassificationResult, error)
	SaveCachedClassification(ctx context.Context, fingerprint string, result *model.ClassificationResult) error
	ClearClassificationCache(ctx context.Context) error

	// Payee mirror and its sync state.
	ReplacePayees(ctx context.Context, payees []model.PayeeRecord) error
	UpsertPayees(ctx context.Context, payees []model.PayeeRecord) error
	GetPayees(ctx context.Context) ([]model.PayeeRecord, error)
	GetSyncState(ctx context.Context, resource string) (*model.SyncState, error)
	SaveSyncState(ctx context.Context, state *model.SyncState) error

	// Run ledger.
	CreateRun(ctx context.Context, run *model.Run) error
	AppendRunEntry(ctx context.Context, runID string, entry model.RunEntry) error
	CompleteRun(ctx context.Context, runID string) error
	GetLastCompletedRun(ctx context.Context) (*model.Run, error)
	DeleteRun(ctx context.Context, runID string) error

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}

// MailSource fetches recent emails from the configured mailbox.
type MailSource interface {
	FetchRecent(ctx context.Context, limit int) ([]model.Email, error)
}

// Classifier analyzes an email for financial-transaction content. The payee
// names and configured accounts are provided as context for payee matching
// and account routing.
type Classifier interface {
	Classify(ctx context.Context, email model.Email, payees []string, accounts []model.Account) (*model.ClassificationResult, error)
}

// TransactionOutcome is the per-item result of a batch emission.
type TransactionOutcome struct {
	EmailID       string
	DedupKey      string
	TransactionID string
	AlreadyExists bool
}

// LedgerClient talks to the external budgeting service.
type LedgerClient interface {
	CreateTransactions(ctx context.Context, batch []model.PendingTransaction) ([]TransactionOutcome, error)
	CreateScheduledTransaction(ctx context.Context, txn model.PendingTransaction) (string, error)
	// DeleteTransaction returns false without error when the transaction
	// no longer exists remotely.
	DeleteTransaction(ctx context.Context, transactionID string) (bool, error)
	// FetchPayees returns payees changed since cursor (all payees when
	// cursor is zero) and the new cursor.
	FetchPayees(ctx context.Context, cursor int64) ([]model.PayeeRecord, int64, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
