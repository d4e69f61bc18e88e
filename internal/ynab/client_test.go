package ynab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/receipt-flow/internal/common"
	"github.com/Veraticus/receipt-flow/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("test-token", "budget-1")
	require.NoError(t, err)
	client.baseURL = server.URL
	return client
}

func pendingTxn(emailID string, amount float64) model.PendingTransaction {
	return model.PendingTransaction{
		EmailID:   emailID,
		AccountID: "acct-1",
		Date:      "2026-08-30",
		PayeeName: "Acme Grocer",
		Memo:      "rflow | Run: abcd1234 | Score: 9/10 outflow",
		DedupKey:  model.DedupKey(emailID, "acct-1", amount, "2026-08-30"),
		Direction: model.DirectionOutflow,
		Amount:    amount,
	}
}

func TestClient_CreateTransactions(t *testing.T) {
	var gotPath, gotAuth string
	var gotRequest createTransactionsRequest

	batch := []model.PendingTransaction{pendingTxn("e1", 10.00), pendingTxn("e2", 29.99)}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"transactions": []map[string]string{
					{"id": "txn-1", "import_id": batch[0].DedupKey},
					{"id": "txn-2", "import_id": batch[1].DedupKey},
				},
				"duplicate_import_ids": []string{},
			},
		})
	}))

	outcomes, err := client.CreateTransactions(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, "/budgets/budget-1/transactions", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	require.Len(t, gotRequest.Transactions, 2)
	payload := gotRequest.Transactions[1]
	assert.Equal(t, int64(-29990), payload.Amount)
	assert.Equal(t, "uncleared", payload.Cleared)
	assert.False(t, payload.Approved)
	assert.Equal(t, batch[1].DedupKey, payload.ImportID, "import_id must be the dedup key")

	require.Len(t, outcomes, 2)
	assert.Equal(t, "txn-1", outcomes[0].TransactionID)
	assert.Equal(t, "txn-2", outcomes[1].TransactionID)
	assert.False(t, outcomes[0].AlreadyExists)
	assert.False(t, outcomes[1].AlreadyExists)
}

func TestClient_CreateTransactions_Duplicates(t *testing.T) {
	batch := []model.PendingTransaction{pendingTxn("e1", 10.00), pendingTxn("e2", 20.00), pendingTxn("e3", 30.00)}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// e2 already exists; only e1 and e3 are created. The response lists
		// the created transactions in reverse of request order, which the
		// API does not promise to preserve.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"transactions": []map[string]string{
					{"id": "txn-3", "import_id": batch[2].DedupKey},
					{"id": "txn-1", "import_id": batch[0].DedupKey},
				},
				"duplicate_import_ids": []string{batch[1].DedupKey},
			},
		})
	}))

	outcomes, err := client.CreateTransactions(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.Equal(t, "txn-1", outcomes[0].TransactionID)
	assert.False(t, outcomes[0].AlreadyExists)
	assert.True(t, outcomes[1].AlreadyExists)
	assert.Empty(t, outcomes[1].TransactionID, "duplicates carry no ID")
	assert.Equal(t, "txn-3", outcomes[2].TransactionID, "IDs must match by import_id, not position")
}

func TestClient_CreateTransactions_EmptyBatch(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("No request expected for empty batch")
	}))

	outcomes, err := client.CreateTransactions(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, outcomes)
}

func TestClient_CreateScheduledTransaction(t *testing.T) {
	var gotPath string
	var gotRequest createScheduledTransactionRequest

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"scheduled_transaction": map[string]string{"id": "sched-1"},
			},
		})
	}))

	txn := pendingTxn("e1", 120.00)
	txn.Date = "2026-09-15"
	txn.IsScheduled = true

	id, err := client.CreateScheduledTransaction(context.Background(), txn)
	require.NoError(t, err)
	assert.Equal(t, "sched-1", id)
	assert.Equal(t, "/budgets/budget-1/scheduled_transactions", gotPath)
	assert.Equal(t, "never", gotRequest.ScheduledTransaction.Frequency, "scheduled transactions must be one-time")
	assert.Equal(t, int64(-120000), gotRequest.ScheduledTransaction.Amount)
}

func TestClient_DeleteTransaction(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    bool
		wantErr bool
	}{
		{name: "deleted", status: http.StatusOK, want: true},
		{name: "already gone", status: http.StatusNotFound, want: false},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				w.WriteHeader(tt.status)
				if tt.status == http.StatusOK {
					_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
				}
			}))

			deleted, err := client.DeleteTransaction(context.Background(), "txn-1")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, deleted)
		})
	}
}

func TestClient_FetchPayees(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"payees": []map[string]any{
					{"id": "p1", "name": "Acme Grocer", "deleted": false},
					{"id": "p2", "name": "Old Store", "deleted": true},
				},
				"server_knowledge": 150,
			},
		})
	}))

	payees, cursor, err := client.FetchPayees(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, gotQuery, "cursor zero must omit last_knowledge_of_server")
	assert.Equal(t, int64(150), cursor)
	require.Len(t, payees, 2)
	assert.True(t, payees[1].Deleted, "tombstones must carry through")

	_, _, err = client.FetchPayees(context.Background(), 150)
	require.NoError(t, err)
	assert.Equal(t, "last_knowledge_of_server=150", gotQuery)
}

func TestClient_ErrorDetailExtraction(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"id":     "400",
				"name":   "bad_request",
				"detail": "account_id is invalid",
			},
		})
	}))

	_, err := client.CreateTransactions(context.Background(), []model.PendingTransaction{pendingTxn("e1", 10)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account_id is invalid")
	assert.False(t, common.IsRetryable(err), "client errors must not be retried")
}

func TestClient_RateLimitRetryable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, _, err := client.FetchPayees(context.Background(), 0)
	assert.ErrorIs(t, err, common.ErrRateLimit)
	assert.True(t, common.IsRetryable(err))
}
