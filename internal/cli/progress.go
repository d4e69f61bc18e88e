package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/receipt-flow/internal/model"
	"github.com/Veraticus/receipt-flow/internal/service"
)

// ProgressClassifier wraps a classifier with a terminal progress bar that
// advances once per classified email.
type ProgressClassifier struct {
	inner  service.Classifier
	writer io.Writer
	bar    *progressbar.ProgressBar
}

// NewProgressClassifier wraps inner. A nil writer defaults to stdout.
func NewProgressClassifier(inner service.Classifier, writer io.Writer) *ProgressClassifier {
	if writer == nil {
		writer = os.Stdout
	}
	return &ProgressClassifier{inner: inner, writer: writer}
}

// Classify delegates to the wrapped classifier and advances the bar.
func (p *ProgressClassifier) Classify(ctx context.Context, email model.Email, payees []string, accounts []model.Account) (*model.ClassificationResult, error) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(p.writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]Classifying emails...[reset]"),
			progressbar.OptionSpinnerType(14),
		)
	}
	result, err := p.inner.Classify(ctx, email, payees, accounts)
	if addErr := p.bar.Add(1); addErr != nil {
		slog.Warn("Failed to update progress bar", "error", addErr)
	}
	return result, err
}

// Finish completes the progress bar.
func (p *ProgressClassifier) Finish() {
	if p.bar == nil {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
