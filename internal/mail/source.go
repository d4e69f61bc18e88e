package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/receipt-flow/internal/config"
	"github.com/Veraticus/receipt-flow/internal/service"
)

// NewSource creates the mail source selected by configuration.
func NewSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.MailSource, error) {
	switch cfg.MailSource {
	case config.MailSourceJMAP:
		return NewJMAPSource(cfg.JMAPToken, logger)
	case config.MailSourceGmail:
		return NewGmailSource(ctx, cfg.GmailToken, logger)
	default:
		return nil, fmt.Errorf("unknown mail source %q", cfg.MailSource)
	}
}
