package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/receipt-flow/internal/common"
	"github.com/Veraticus/receipt-flow/internal/model"
)

// CreateRun records the start of a pipeline execution.
func (s *SQLiteStorage) CreateRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	entriesJSON, err := json.Marshal(run.Entries)
	if err != nil {
		return fmt.Errorf("failed to encode run entries: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at, entries_json)
		VALUES (?, ?, ?)
	`, run.ID, run.StartedAt.UTC(), string(entriesJSON))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: run %s", common.ErrDuplicateEntry, run.ID)
		}
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// AppendRunEntry adds one created-transaction record to a run. The append
// happens inside a transaction so a crash never leaves a half-written entry
// list.
func (s *SQLiteStorage) AppendRunEntry(ctx context.Context, runID string, entry model.RunEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var entriesJSON string
	err = tx.QueryRowContext(ctx, `SELECT entries_json FROM runs WHERE run_id = ?`, runID).Scan(&entriesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: run %s", common.ErrNotFound, runID)
	}
	if err != nil {
		return fmt.Errorf("failed to read run entries: %w", err)
	}

	var entries []model.RunEntry
	if err := json.Unmarshal([]byte(entriesJSON), &entries); err != nil {
		return fmt.Errorf("failed to decode run entries: %w", err)
	}
	entries = append(entries, entry)

	updated, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode run entries: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE runs SET entries_json = ? WHERE run_id = ?`, string(updated), runID); err != nil {
		return fmt.Errorf("failed to append run entry: %w", err)
	}

	return tx.Commit()
}

// CompleteRun marks a run finished. Only completed runs are undo candidates.
func (s *SQLiteStorage) CompleteRun(ctx context.Context, runID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET completed_at = ? WHERE run_id = ?
	`, time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check completed run: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run %s", common.ErrNotFound, runID)
	}
	return nil
}

// GetLastCompletedRun returns the most recently completed run, or
// common.ErrNotFound when none exists.
func (s *SQLiteStorage) GetLastCompletedRun(ctx context.Context) (*model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	run := &model.Run{}
	var entriesJSON string
	var completedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, started_at, completed_at, entries_json
		FROM runs
		WHERE completed_at IS NOT NULL
		ORDER BY completed_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.StartedAt, &completedAt, &entriesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no completed runs", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last run: %w", err)
	}
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}

	if err := json.Unmarshal([]byte(entriesJSON), &run.Entries); err != nil {
		return nil, fmt.Errorf("failed to decode run entries: %w", err)
	}
	return run, nil
}

// DeleteRun removes a run's own record. The processed_emails rows it owns
// are unmarked separately by undo.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, runID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}
