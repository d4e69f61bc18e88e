package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/receipt-flow/internal/common"
	"github.com/Veraticus/receipt-flow/internal/model"
	"github.com/Veraticus/receipt-flow/internal/service"
)

// Classifier analyzes emails via an LLM client, with a persistent cache
// keyed by content fingerprint. A cached decision is reused verbatim so
// the same email always classifies the same way.
type Classifier struct {
	client  Client
	storage service.Storage
	logger  *slog.Logger
	retry   service.RetryOptions
}

// NewClassifier creates a cache-backed classifier.
func NewClassifier(client Client, storage service.Storage, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		client:  client,
		storage: storage,
		logger:  logger,
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 2 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Classify implements service.Classifier.
func (c *Classifier) Classify(ctx context.Context, email model.Email, payees []string, accounts []model.Account) (*model.ClassificationResult, error) {
	fingerprint := email.Fingerprint()

	cached, err := c.storage.GetCachedClassification(ctx, fingerprint)
	if err == nil {
		c.logger.Debug("Classification cache hit", "email_id", email.ID)
		return cached, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check classification cache: %w", err)
	}

	prompt := buildPrompt(email, payees, accounts)

	var result *model.ClassificationResult
	err = common.WithRetry(ctx, func() error {
		var analyzeErr error
		result, analyzeErr = c.client.Analyze(ctx, prompt)
		return analyzeErr
	}, c.retry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrClassificationFailed, err)
	}

	if err := c.storage.SaveCachedClassification(ctx, fingerprint, result); err != nil {
		// Cache write failures cost a re-classification later, nothing more.
		c.logger.Warn("Failed to cache classification", "email_id", email.ID, "error", err)
	}

	c.logger.Debug("Classified email",
		"email_id", email.ID,
		"score", result.Score,
		"direction", result.Direction,
		"merchant", result.Merchant)
	return result, nil
}
