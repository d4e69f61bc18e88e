package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/receipt-flow/internal/common"
)

// jmapTestServer serves the session endpoint at / and the API endpoint at
// /api, dispatching on the JMAP method name.
func jmapTestServer(t *testing.T, methods map[string]any) *JMAPSource {
	t.Helper()

	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		var request struct {
			MethodCalls [][]json.RawMessage `json:"methodCalls"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil || len(request.MethodCalls) == 0 {
			t.Errorf("Malformed JMAP request: %v", err)
			return
		}
		var method string
		_ = json.Unmarshal(request.MethodCalls[0][0], &method)

		args, ok := methods[method]
		if !ok {
			t.Errorf("Unexpected JMAP method %q", method)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"methodResponses": []any{[]any{method, args, "0"}},
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"apiUrl": server.URL + "/api",
			"primaryAccounts": map[string]string{
				"urn:ietf:params:jmap:mail": "acct-1",
			},
		})
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	source, err := NewJMAPSource("test-token", nil)
	require.NoError(t, err)
	source.sessionURL = server.URL
	return source
}

func TestJMAPSource_FetchRecent(t *testing.T) {
	source := jmapTestServer(t, map[string]any{
		"Mailbox/query": map[string]any{"ids": []string{"inbox-1"}},
		"Email/query":   map[string]any{"ids": []string{"m1", "m2"}},
		"Email/get": map[string]any{
			"list": []map[string]any{
				{
					"id":         "m1",
					"receivedAt": "2026-08-30T12:00:00Z",
					"subject":    "Your receipt",
					"from":       []map[string]string{{"email": "billing@example.com"}},
					"textBody":   []map[string]string{{"partId": "1", "type": "text/plain"}},
					"bodyValues": map[string]any{
						"1": map[string]string{"value": "Charged $42.10."},
					},
				},
				{
					"id":         "m2",
					"receivedAt": "2026-08-30T11:00:00Z",
					"subject":    "HTML only",
					"from":       []map[string]string{{"email": "shop@example.com"}},
					"htmlBody":   []map[string]string{{"partId": "2", "type": "text/html"}},
					"bodyValues": map[string]any{
						"2": map[string]string{"value": "<p>Order total <b>$9.99</b></p>"},
					},
				},
			},
		},
	})

	emails, err := source.FetchRecent(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, emails, 2)

	assert.Equal(t, "m1", emails[0].ID)
	assert.Equal(t, "billing@example.com", emails[0].From)
	assert.Equal(t, "Charged $42.10.", emails[0].Body)
	assert.Equal(t, "Order total $9.99", emails[1].Body, "html body should arrive stripped")
}

func TestJMAPSource_InboxNotFound(t *testing.T) {
	source := jmapTestServer(t, map[string]any{
		"Mailbox/query": map[string]any{"ids": []string{}},
	})

	_, err := source.FetchRecent(context.Background(), 100)
	assert.ErrorIs(t, err, common.ErrInboxNotFound)
}

func TestJMAPSource_EmptyInbox(t *testing.T) {
	source := jmapTestServer(t, map[string]any{
		"Mailbox/query": map[string]any{"ids": []string{"inbox-1"}},
		"Email/query":   map[string]any{"ids": []string{}},
	})

	emails, err := source.FetchRecent(context.Background(), 100)
	require.NoError(t, err)
	assert.Empty(t, emails)
}

func TestJMAPSource_BadToken(t *testing.T) {
	source := jmapTestServer(t, nil)
	source.token = "wrong-token"

	_, err := source.FetchRecent(context.Background(), 100)
	assert.ErrorIs(t, err, common.ErrMailAuth)
}
