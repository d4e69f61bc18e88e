package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/receipt-flow/internal/model"
)

// ReplacePayees swaps the entire payee mirror for the given set, in a single
// transaction. Used by full refreshes.
func (s *SQLiteStorage) ReplacePayees(ctx context.Context, payees []model.PayeeRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePayees(payees); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ynab_payees`); err != nil {
		return fmt.Errorf("failed to clear payee mirror: %w", err)
	}

	if err := upsertPayeesTx(ctx, tx, payees); err != nil {
		return err
	}

	return tx.Commit()
}

// UpsertPayees applies a delta of changed payee records.
func (s *SQLiteStorage) UpsertPayees(ctx context.Context, payees []model.PayeeRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePayees(payees); err != nil {
		return err
	}
	if len(payees) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertPayeesTx(ctx, tx, payees); err != nil {
		return err
	}

	return tx.Commit()
}

func upsertPayeesTx(ctx context.Context, tx *sql.Tx, payees []model.PayeeRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ynab_payees (external_id, name, deleted, last_seen_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			name = excluded.name,
			deleted = excluded.deleted,
			last_seen_at = excluded.last_seen_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare payee upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range payees {
		if _, err := stmt.ExecContext(ctx, p.ExternalID, p.Name, p.Deleted, p.LastSeenAt.UTC()); err != nil {
			return fmt.Errorf("failed to upsert payee %s: %w", p.ExternalID, err)
		}
	}
	return nil
}

// GetPayees returns all non-deleted mirrored payees in lexical name order.
// The ordering is part of the matcher's determinism contract.
func (s *SQLiteStorage) GetPayees(ctx context.Context) ([]model.PayeeRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT external_id, name, deleted, last_seen_at
		FROM ynab_payees
		WHERE deleted = 0
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var payees []model.PayeeRecord
	for rows.Next() {
		var p model.PayeeRecord
		if err := rows.Scan(&p.ExternalID, &p.Name, &p.Deleted, &p.LastSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan payee: %w", err)
		}
		payees = append(payees, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payees: %w", err)
	}
	return payees, nil
}

// GetSyncState returns the sync position for a resource, or a zero state
// when the resource has never been synced.
func (s *SQLiteStorage) GetSyncState(ctx context.Context, resource string) (*model.SyncState, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(resource, "resource"); err != nil {
		return nil, err
	}

	state := &model.SyncState{Resource: resource}
	var lastFull sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT cursor, last_full_refresh_at FROM ynab_sync_state WHERE resource = ?
	`, resource).Scan(&state.Cursor, &lastFull)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sync state: %w", err)
	}
	if lastFull.Valid {
		state.LastFullRefreshAt = lastFull.Time
	}
	return state, nil
}

// SaveSyncState persists the sync position for a resource. The cursor is
// monotonic: a write that would move it backwards is rejected, so a failed
// delta can never regress the mirror.
func (s *SQLiteStorage) SaveSyncState(ctx context.Context, state *model.SyncState) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("%w: state", ErrNilParameter)
	}
	if err := validateString(state.Resource, "resource"); err != nil {
		return err
	}

	existing, err := s.GetSyncState(ctx, state.Resource)
	if err != nil {
		return err
	}
	if state.Cursor < existing.Cursor {
		return fmt.Errorf("sync cursor for %s would regress: %d -> %d", state.Resource, existing.Cursor, state.Cursor)
	}

	var lastFull any
	if !state.LastFullRefreshAt.IsZero() {
		lastFull = state.LastFullRefreshAt.UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ynab_sync_state (resource, cursor, last_full_refresh_at)
		VALUES (?, ?, ?)
		ON CONFLICT(resource) DO UPDATE SET
			cursor = excluded.cursor,
			last_full_refresh_at = excluded.last_full_refresh_at
	`, state.Resource, state.Cursor, lastFull)
	if err != nil {
		return fmt.Errorf("failed to save sync state: %w", err)
	}
	return nil
}
