package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/Veraticus/receipt-flow/internal/common"
	"github.com/Veraticus/receipt-flow/internal/model"
)

// GmailSource fetches emails from a Gmail inbox.
type GmailSource struct {
	service *gmail.Service
	logger  *slog.Logger
}

// NewGmailSource creates a Gmail mail source authenticated with an OAuth
// access token.
func NewGmailSource(ctx context.Context, accessToken string, logger *slog.Logger) (*GmailSource, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("gmail access token is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &GmailSource{service: service, logger: logger}, nil
}

// FetchRecent implements service.MailSource.
func (s *GmailSource) FetchRecent(ctx context.Context, limit int) ([]model.Email, error) {
	list, err := s.service.Users.Messages.List("me").
		LabelIds("INBOX").
		MaxResults(int64(limit)).
		Context(ctx).Do()
	if err != nil {
		if strings.Contains(err.Error(), "401") || strings.Contains(err.Error(), "403") {
			return nil, fmt.Errorf("%w: %v", common.ErrMailAuth, err)
		}
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	emails := make([]model.Email, 0, len(list.Messages))
	for _, msg := range list.Messages {
		message, err := s.service.Users.Messages.Get("me", msg.Id).Format("full").Context(ctx).Do()
		if err != nil {
			s.logger.Warn("Failed to fetch message", "message_id", msg.Id, "error", err)
			continue
		}

		from := "unknown"
		subject := ""
		for _, header := range message.Payload.Headers {
			switch header.Name {
			case "From":
				from = header.Value
			case "Subject":
				subject = header.Value
			}
		}

		textBody, htmlBody := extractParts(message.Payload)

		emails = append(emails, model.Email{
			ID:         msg.Id,
			From:       from,
			Subject:    subject,
			ReceivedAt: time.UnixMilli(message.InternalDate),
			Body:       SelectBody(textBody, htmlBody, message.Snippet),
		})
	}

	s.logger.Debug("Fetched emails via Gmail", "count", len(emails))
	return emails, nil
}

// extractParts walks the MIME tree collecting plain and HTML bodies. The
// HTML is stripped to text on the way out.
func extractParts(payload *gmail.MessagePart) (textBody, htmlBody string) {
	if payload == nil {
		return "", ""
	}

	if len(payload.Parts) > 0 {
		for _, part := range payload.Parts {
			text, html := extractParts(part)
			textBody += text
			htmlBody += html
		}
		return textBody, htmlBody
	}

	if payload.Body == nil || payload.Body.Data == "" {
		return "", ""
	}
	decoded, err := base64.URLEncoding.DecodeString(payload.Body.Data)
	if err != nil {
		return "", ""
	}

	switch {
	case payload.MimeType == "text/html":
		return "", StripHTML(string(decoded))
	case strings.HasPrefix(payload.MimeType, "text/"):
		return string(decoded), ""
	default:
		return "", ""
	}
}
