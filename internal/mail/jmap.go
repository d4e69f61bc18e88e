package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/receipt-flow/internal/common"
	"github.com/Veraticus/receipt-flow/internal/model"
)

const (
	jmapSessionURL  = "https://api.fastmail.com/jmap/session"
	jmapMailURN     = "urn:ietf:params:jmap:mail"
	jmapCoreURN     = "urn:ietf:params:jmap:core"
	maxBodyValBytes = 50000
)

// JMAPSource fetches emails from a Fastmail inbox over JMAP.
type JMAPSource struct {
	httpClient *http.Client
	logger     *slog.Logger
	token      string
	sessionURL string
}

// NewJMAPSource creates a JMAP mail source.
func NewJMAPSource(token string, logger *slog.Logger) (*JMAPSource, error) {
	if token == "" {
		return nil, fmt.Errorf("JMAP token is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JMAPSource{
		token:      token,
		sessionURL: jmapSessionURL,
		logger:     logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type jmapSession struct {
	APIURL          string            `json:"apiUrl"`
	PrimaryAccounts map[string]string `json:"primaryAccounts"`
}

type jmapResponse struct {
	MethodResponses []json.RawMessage `json:"methodResponses"`
}

type jmapEmailPart struct {
	PartID string `json:"partId"`
	Type   string `json:"type"`
}

type jmapBodyValue struct {
	Value string `json:"value"`
}

type jmapEmail struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"receivedAt"`
	Subject    string    `json:"subject"`
	Preview    string    `json:"preview"`
	From       []struct {
		Email string `json:"email"`
	} `json:"from"`
	TextBody   []jmapEmailPart          `json:"textBody"`
	HTMLBody   []jmapEmailPart          `json:"htmlBody"`
	BodyValues map[string]jmapBodyValue `json:"bodyValues"`
}

// FetchRecent implements service.MailSource. It resolves the session, finds
// the Inbox, queries the newest message ids, and fetches their bodies.
func (s *JMAPSource) FetchRecent(ctx context.Context, limit int) ([]model.Email, error) {
	session, err := s.getSession(ctx)
	if err != nil {
		return nil, err
	}
	accountID, ok := session.PrimaryAccounts[jmapMailURN]
	if !ok || accountID == "" {
		return nil, fmt.Errorf("%w: session has no mail account", common.ErrMailAuth)
	}

	inboxID, err := s.findInbox(ctx, session.APIURL, accountID)
	if err != nil {
		return nil, err
	}

	ids, err := s.queryEmailIDs(ctx, session.APIURL, accountID, inboxID, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	return s.getEmails(ctx, session.APIURL, accountID, ids)
}

func (s *JMAPSource) getSession(ctx context.Context) (*jmapSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sessionURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: jmap session returned %d", common.ErrMailAuth, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("jmap session error (status %d): %s", resp.StatusCode, string(body))
	}

	var session jmapSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &session, nil
}

// request executes one JMAP method call and returns its arguments object.
func (s *JMAPSource) request(ctx context.Context, apiURL, method string, args any) (json.RawMessage, error) {
	body := map[string]any{
		"using":       []string{jmapCoreURN, jmapMailURN},
		"methodCalls": []any{[]any{method, args, "0"}},
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jmap request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("jmap %s error (status %d): %s", method, resp.StatusCode, string(respBody))
	}

	var parsed jmapResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse jmap response: %w", err)
	}
	if len(parsed.MethodResponses) == 0 {
		return nil, fmt.Errorf("jmap %s returned no method responses", method)
	}

	// Each method response is [name, arguments, callId].
	var envelope []json.RawMessage
	if err := json.Unmarshal(parsed.MethodResponses[0], &envelope); err != nil || len(envelope) < 2 {
		return nil, fmt.Errorf("malformed jmap method response for %s", method)
	}

	var name string
	if err := json.Unmarshal(envelope[0], &name); err != nil {
		return nil, fmt.Errorf("malformed jmap method response for %s", method)
	}
	if name == "error" {
		return nil, fmt.Errorf("jmap %s error: %s", method, string(envelope[1]))
	}
	return envelope[1], nil
}

func (s *JMAPSource) findInbox(ctx context.Context, apiURL, accountID string) (string, error) {
	args, err := s.request(ctx, apiURL, "Mailbox/query", map[string]any{
		"accountId": accountID,
		"filter":    map[string]string{"name": "Inbox"},
	})
	if err != nil {
		return "", err
	}

	var result struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(args, &result); err != nil {
		return "", fmt.Errorf("failed to parse mailbox query: %w", err)
	}
	if len(result.IDs) == 0 {
		return "", common.ErrInboxNotFound
	}
	return result.IDs[0], nil
}

func (s *JMAPSource) queryEmailIDs(ctx context.Context, apiURL, accountID, inboxID string, limit int) ([]string, error) {
	args, err := s.request(ctx, apiURL, "Email/query", map[string]any{
		"accountId": accountID,
		"filter":    map[string]string{"inMailbox": inboxID},
		"sort": []map[string]any{
			{"property": "receivedAt", "isAscending": false},
		},
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(args, &result); err != nil {
		return nil, fmt.Errorf("failed to parse email query: %w", err)
	}
	return result.IDs, nil
}

func (s *JMAPSource) getEmails(ctx context.Context, apiURL, accountID string, ids []string) ([]model.Email, error) {
	args, err := s.request(ctx, apiURL, "Email/get", map[string]any{
		"accountId": accountID,
		"ids":       ids,
		"properties": []string{
			"id", "receivedAt", "from", "subject", "preview",
			"textBody", "htmlBody", "bodyValues",
		},
		"fetchTextBodyValues": true,
		"fetchHTMLBodyValues": true,
		"maxBodyValueBytes":   maxBodyValBytes,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		List []jmapEmail `json:"list"`
	}
	if err := json.Unmarshal(args, &result); err != nil {
		return nil, fmt.Errorf("failed to parse email get: %w", err)
	}

	emails := make([]model.Email, 0, len(result.List))
	for _, raw := range result.List {
		emails = append(emails, model.Email{
			ID:         raw.ID,
			Subject:    raw.Subject,
			From:       senderOf(raw),
			ReceivedAt: raw.ReceivedAt,
			Body:       bodyOf(raw),
		})
	}

	s.logger.Debug("Fetched emails via JMAP", "count", len(emails))
	return emails, nil
}

func senderOf(raw jmapEmail) string {
	if len(raw.From) > 0 && raw.From[0].Email != "" {
		return raw.From[0].Email
	}
	return "unknown"
}

// bodyOf assembles the plain-text body from JMAP body parts. Text parts
// that are actually HTML still get stripped.
func bodyOf(raw jmapEmail) string {
	var textBody strings.Builder
	for _, part := range raw.TextBody {
		value := raw.BodyValues[part.PartID].Value
		if value == "" {
			continue
		}
		if strings.HasPrefix(part.Type, "text/html") {
			value = StripHTML(value)
		}
		textBody.WriteString(value)
	}

	var htmlBody strings.Builder
	for _, part := range raw.HTMLBody {
		value := raw.BodyValues[part.PartID].Value
		if value == "" {
			continue
		}
		htmlBody.WriteString(StripHTML(value))
	}

	return SelectBody(textBody.String(), htmlBody.String(), raw.Preview)
}
