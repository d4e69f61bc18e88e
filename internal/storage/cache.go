package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/receipt-flow/internal/common"
	"github.com/Veraticus/receipt-flow/internal/model"
)

// GetCachedClassification retrieves a cached classifier result by content
// fingerprint. Returns common.ErrNotFound on a miss.
func (s *SQLiteStorage) GetCachedClassification(ctx context.Context, fingerprint string) (*model.ClassificationResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(fingerprint, "fingerprint"); err != nil {
		return nil, err
	}

	var resultJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT result_json FROM classification_cache WHERE fingerprint = ?
	`, fingerprint).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: classification for fingerprint", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query classification cache: %w", err)
	}

	var result model.ClassificationResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached classification: %w", err)
	}
	return &result, nil
}

// SaveCachedClassification stores a classifier result keyed by fingerprint,
// replacing any previous entry for the same content.
func (s *SQLiteStorage) SaveCachedClassification(ctx context.Context, fingerprint string, result *model.ClassificationResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(fingerprint, "fingerprint"); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode classification: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO classification_cache (fingerprint, result_json, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			result_json = excluded.result_json,
			cached_at = excluded.cached_at
	`, fingerprint, string(resultJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save classification: %w", err)
	}
	return nil
}

// ClearClassificationCache wipes the cache wholesale. This is the only
// invalidation path; cached results have no TTL.
func (s *SQLiteStorage) ClearClassificationCache(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM classification_cache`)
	if err != nil {
		return fmt.Errorf("failed to clear classification cache: %w", err)
	}
	return nil
}
