package payee

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/receipt-flow/internal/common"
	"github.com/Veraticus/receipt-flow/internal/model"
	"github.com/Veraticus/receipt-flow/internal/service"
)

// syncResource is the row key in ynab_sync_state for the payee mirror.
const syncResource = "payees"

// fullRefreshInterval bounds how stale the mirror may get before a delta
// sync is upgraded to a full refresh.
const fullRefreshInterval = 24 * time.Hour

// Directory keeps the local payee mirror current and answers name lookups.
type Directory struct {
	storage service.Storage
	ledger  service.LedgerClient
	matcher Matcher
	logger  *slog.Logger
	retry   service.RetryOptions
}

// NewDirectory creates a payee directory backed by the given storage and
// ledger client.
func NewDirectory(storage service.Storage, ledger service.LedgerClient, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		storage: storage,
		ledger:  ledger,
		matcher: NewLevenshteinMatcher(),
		logger:  logger,
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Refresh brings the local mirror up to date. A full refresh replaces the
// whole set; otherwise only changes since the stored cursor are applied.
// The cursor only moves after the fetched rows are safely persisted, so an
// interrupted sync repeats work instead of losing it.
func (d *Directory) Refresh(ctx context.Context, force bool) error {
	state, err := d.storage.GetSyncState(ctx, syncResource)
	if err != nil {
		return fmt.Errorf("failed to load sync state: %w", err)
	}

	full := force || state.Cursor == 0 || time.Since(state.LastFullRefreshAt) > fullRefreshInterval

	cursor := state.Cursor
	if full {
		cursor = 0
	}

	var payees []model.PayeeRecord
	var newCursor int64
	err = common.WithRetry(ctx, func() error {
		var fetchErr error
		payees, newCursor, fetchErr = d.ledger.FetchPayees(ctx, cursor)
		return fetchErr
	}, d.retry)
	if err != nil {
		return fmt.Errorf("failed to fetch payees: %w", err)
	}

	now := time.Now().UTC()
	for i := range payees {
		payees[i].LastSeenAt = now
	}

	if full {
		if err := d.storage.ReplacePayees(ctx, payees); err != nil {
			return fmt.Errorf("failed to replace payees: %w", err)
		}
		state.LastFullRefreshAt = now
	} else if len(payees) > 0 {
		if err := d.storage.UpsertPayees(ctx, payees); err != nil {
			return fmt.Errorf("failed to upsert payees: %w", err)
		}
	}

	state.Resource = syncResource
	state.Cursor = newCursor
	if err := d.storage.SaveSyncState(ctx, state); err != nil {
		return fmt.Errorf("failed to save sync state: %w", err)
	}

	d.logger.Info("Payee directory refreshed",
		"full", full,
		"changed", len(payees),
		"cursor", newCursor)
	return nil
}

// Names returns all known payee names, alphabetically.
func (d *Directory) Names(ctx context.Context) ([]string, error) {
	records, err := d.storage.GetPayees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payees: %w", err)
	}
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	return names, nil
}

// Resolve matches a merchant name against the mirror, falling back to the
// raw merchant string when nothing is close enough.
func (d *Directory) Resolve(ctx context.Context, merchant string) (string, error) {
	names, err := d.Names(ctx)
	if err != nil {
		return "", err
	}
	if matched, ok := d.matcher.Match(merchant, names); ok {
		return matched, nil
	}
	return merchant, nil
}
