package storage

import (
	"context"
	"fmt"
	"time"
)

// IsProcessed reports whether an email has already been handled by a prior
// run. Presence of a row is the sole gate against reprocessing.
func (s *SQLiteStorage) IsProcessed(ctx context.Context, emailID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(emailID, "emailID"); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM processed_emails WHERE email_id = ?)
	`, emailID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check processed email: %w", err)
	}
	return exists, nil
}

// MarkProcessed records an email as handled by the given run. Re-marking an
// already-marked email updates the owning run, which keeps --force runs
// undoable.
func (s *SQLiteStorage) MarkProcessed(ctx context.Context, emailID, runID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(emailID, "emailID"); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_emails (email_id, run_id, processed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(email_id) DO UPDATE SET
			run_id = excluded.run_id,
			processed_at = excluded.processed_at
	`, emailID, runID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark email processed: %w", err)
	}
	return nil
}

// Unmark makes an email eligible for reprocessing. Unmarking an email that
// was never marked is a no-op; undo relies on that.
func (s *SQLiteStorage) Unmark(ctx context.Context, emailID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(emailID, "emailID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM processed_emails WHERE email_id = ?`, emailID)
	if err != nil {
		return fmt.Errorf("failed to unmark email: %w", err)
	}
	return nil
}
