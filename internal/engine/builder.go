package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/receipt-flow/internal/model"
)

// Date window accepted for extracted transaction dates. The ledger rejects
// regular transactions dated in the future, and dates far in the past are
// almost always extraction mistakes.
const (
	maxPastYears  = 5
	maxFutureDays = 90
	dateLayout    = "2006-01-02"
	payeeMaxLen   = 50
	memoMarker    = "rflow"
	shortRunIDLen = 8
)

// skipError marks an email that cannot become a transaction. These emails
// are marked processed so they are never re-examined; the classifier's
// decision is stable, so retrying would reach the same conclusion.
type skipError struct {
	reason string
}

func (e *skipError) Error() string { return e.reason }

// effectiveDate validates the extracted date and reports whether it lies in
// the future. An out-of-window or missing date falls back to the email's
// received date, which is never future. Returns empty when unrecoverable.
func effectiveDate(extracted string, receivedAt time.Time, now time.Time) (date string, future bool) {
	today := now.UTC().Truncate(24 * time.Hour)
	earliest := today.AddDate(-maxPastYears, 0, 0)
	latest := today.AddDate(0, 0, maxFutureDays)

	if extracted != "" {
		if parsed, err := time.Parse(dateLayout, extracted); err == nil {
			if !parsed.Before(earliest) && !parsed.After(latest) {
				return extracted, parsed.After(today)
			}
		}
	}

	if receivedAt.IsZero() {
		return "", false
	}
	received := receivedAt.UTC().Truncate(24 * time.Hour)
	if received.Before(earliest) || received.After(today) {
		return "", false
	}
	return received.Format(dateLayout), false
}

// buildTransaction turns a classified email into a PendingTransaction, or
// a skipError explaining why it cannot be one.
func (e *Engine) buildTransaction(ctx context.Context, email model.Email, result *model.ClassificationResult, runID string, now time.Time) (*model.PendingTransaction, error) {
	if result.Score < e.minScore {
		return nil, &skipError{reason: fmt.Sprintf("score %d below threshold %d", result.Score, e.minScore)}
	}
	if result.Amount == 0 {
		return nil, &skipError{reason: "no amount extracted"}
	}
	if result.Merchant == "" && result.MatchedPayee == "" {
		return nil, &skipError{reason: "no merchant extracted"}
	}

	date, future := effectiveDate(result.Date, email.ReceivedAt, now)
	if date == "" {
		return nil, &skipError{reason: "no usable transaction date"}
	}

	// Only an explicitly stated future date becomes a scheduled
	// transaction; weaker confidence caps to today.
	scheduled := future && result.DateConfidence == model.DateCertain
	if future && !scheduled {
		date = now.UTC().Format(dateLayout)
	}

	// The classifier's explicit payee match wins; otherwise the directory
	// matcher resolves the raw merchant, falling back to it unchanged.
	payeeName := result.MatchedPayee
	if payeeName == "" {
		resolved, err := e.directory.Resolve(ctx, result.Merchant)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve payee: %w", err)
		}
		payeeName = resolved
	}
	if runes := []rune(payeeName); len(runes) > payeeMaxLen {
		payeeName = string(runes[:payeeMaxLen])
	}

	account := e.routeAccount(result.AccountName)

	memo := fmt.Sprintf("%s | Run: %s | Score: %d/10 %s",
		memoMarker, shortRunID(runID), result.Score, result.Direction)

	return &model.PendingTransaction{
		EmailID:     email.ID,
		AccountID:   account.YNABID,
		Date:        date,
		PayeeName:   payeeName,
		Memo:        memo,
		DedupKey:    model.DedupKey(email.ID, account.YNABID, result.Amount, date),
		Direction:   result.Direction,
		Amount:      result.Amount,
		IsScheduled: scheduled,
	}, nil
}

func shortRunID(runID string) string {
	if len(runID) > shortRunIDLen {
		return runID[:shortRunIDLen]
	}
	return runID
}
