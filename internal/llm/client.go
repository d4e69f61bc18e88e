// Package llm analyzes emails for transaction content using a language
// model provider.
package llm

import (
	"context"

	"github.com/Veraticus/receipt-flow/internal/model"
)

// Client defines the interface for LLM providers.
type Client interface {
	Analyze(ctx context.Context, prompt string) (*model.ClassificationResult, error)
}

// Config holds LLM client configuration.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// NewClient creates an LLM client for the configured provider.
func NewClient(cfg Config) (Client, error) {
	return newAnthropicClient(cfg)
}
