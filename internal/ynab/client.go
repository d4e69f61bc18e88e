// Package ynab is a client for the YNAB REST API, covering transaction
// creation, scheduled transactions, deletion, and payee delta sync.
package ynab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/receipt-flow/internal/common"
	"github.com/Veraticus/receipt-flow/internal/model"
	"github.com/Veraticus/receipt-flow/internal/service"
)

const defaultBaseURL = "https://api.ynab.com/v1"

// Client talks to the YNAB API for a single budget.
type Client struct {
	httpClient *http.Client
	token      string
	budgetID   string
	baseURL    string
}

// NewClient creates a YNAB client for the given budget.
func NewClient(token, budgetID string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("YNAB token is required")
	}
	if budgetID == "" {
		return nil, fmt.Errorf("YNAB budget ID is required")
	}
	return &Client{
		token:    token,
		budgetID: budgetID,
		baseURL:  defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// CreateTransactions creates a batch of regular transactions. Transactions
// whose import_id already exists come back flagged AlreadyExists instead
// of failing the batch.
func (c *Client) CreateTransactions(ctx context.Context, batch []model.PendingTransaction) ([]service.TransactionOutcome, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	payloads := make([]transactionPayload, 0, len(batch))
	for i := range batch {
		pt := &batch[i]
		payloads = append(payloads, transactionPayload{
			AccountID: pt.AccountID,
			Date:      pt.Date,
			Amount:    pt.Milliunits(),
			PayeeName: pt.PayeeName,
			Memo:      pt.Memo,
			Cleared:   "uncleared",
			Approved:  false,
			ImportID:  pt.DedupKey,
		})
	}

	var response createTransactionsResponse
	err := c.post(ctx, fmt.Sprintf("/budgets/%s/transactions", c.budgetID),
		createTransactionsRequest{Transactions: payloads}, &response)
	if err != nil {
		return nil, err
	}

	duplicates := make(map[string]bool, len(response.Data.DuplicateImportIDs))
	for _, id := range response.Data.DuplicateImportIDs {
		duplicates[id] = true
	}

	// Created transactions echo their import_id, so match on that rather
	// than on response order.
	createdByImportID := make(map[string]string, len(response.Data.Transactions))
	for _, created := range response.Data.Transactions {
		createdByImportID[created.ImportID] = created.ID
	}

	outcomes := make([]service.TransactionOutcome, 0, len(batch))
	for i := range batch {
		pt := &batch[i]
		outcome := service.TransactionOutcome{
			EmailID:  pt.EmailID,
			DedupKey: pt.DedupKey,
		}
		if duplicates[pt.DedupKey] {
			outcome.AlreadyExists = true
		} else {
			outcome.TransactionID = createdByImportID[pt.DedupKey]
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// CreateScheduledTransaction creates a one-time scheduled transaction for
// a future date. The scheduled endpoint accepts no import_id, so there is
// no server-side dedup here.
func (c *Client) CreateScheduledTransaction(ctx context.Context, txn model.PendingTransaction) (string, error) {
	var response createScheduledTransactionResponse
	err := c.post(ctx, fmt.Sprintf("/budgets/%s/scheduled_transactions", c.budgetID),
		createScheduledTransactionRequest{
			ScheduledTransaction: scheduledTransactionPayload{
				AccountID: txn.AccountID,
				Date:      txn.Date,
				Frequency: "never",
				Amount:    txn.Milliunits(),
				PayeeName: txn.PayeeName,
				Memo:      txn.Memo,
			},
		}, &response)
	if err != nil {
		return "", err
	}
	return response.Data.ScheduledTransaction.ID, nil
}

// DeleteTransaction removes a transaction. Returns false without error
// when it no longer exists.
func (c *Client) DeleteTransaction(ctx context.Context, transactionID string) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodDelete,
		fmt.Sprintf("/budgets/%s/transactions/%s", c.budgetID, transactionID), nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err := checkStatus(resp); err != nil {
		return false, err
	}
	return true, nil
}

// FetchPayees returns payees changed since cursor and the new server
// knowledge. Cursor zero fetches everything.
func (c *Client) FetchPayees(ctx context.Context, cursor int64) ([]model.PayeeRecord, int64, error) {
	path := fmt.Sprintf("/budgets/%s/payees", c.budgetID)
	if cursor > 0 {
		path = fmt.Sprintf("%s?last_knowledge_of_server=%d", path, cursor)
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return nil, 0, err
	}

	var response payeesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, 0, fmt.Errorf("failed to parse payees response: %w", err)
	}

	payees := make([]model.PayeeRecord, 0, len(response.Data.Payees))
	for _, p := range response.Data.Payees {
		payees = append(payees, model.PayeeRecord{
			ExternalID: p.ID,
			Name:       p.Name,
			Deleted:    p.Deleted,
		})
	}
	return payees, response.Data.ServerKnowledge, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, strings.NewReader(string(jsonBody)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

// checkStatus converts non-2xx responses to errors, pulling the API's
// error detail out of the body when present.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	detail := string(body)
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Detail != "" {
		detail = apiErr.Error.Detail
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &common.RetryableError{Err: fmt.Errorf("%w: ynab", common.ErrRateLimit), Retryable: true}
	case resp.StatusCode >= 500:
		return &common.RetryableError{Err: fmt.Errorf("ynab API error (status %d): %s", resp.StatusCode, detail), Retryable: true}
	case resp.StatusCode == http.StatusConflict:
		return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrLedgerConflict, detail), Retryable: false}
	default:
		return &common.RetryableError{Err: fmt.Errorf("ynab API error (status %d): %s", resp.StatusCode, detail), Retryable: false}
	}
}
