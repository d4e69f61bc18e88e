package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalsScore(t *testing.T) {
	tests := []struct {
		name    string
		signals Signals
		want    int
	}{
		{
			name:    "no signals stays at base",
			signals: Signals{},
			want:    5,
		},
		{
			name: "all positives cap at ten",
			signals: Signals{
				ConfirmedCharge: true,
				HasAmount:       true,
				HasMerchant:     true,
				ExplicitDate:    true,
			},
			want: 10,
		},
		{
			name: "stacked negatives floor at one",
			signals: Signals{
				ConfirmedCharge:  true,
				HasAmount:        true,
				MarketingContent: true,
				ReminderOnly:     true,
				QuoteOrEstimate:  true,
			},
			want: 1,
		},
		{
			name: "confirmed charge with amount",
			signals: Signals{
				ConfirmedCharge: true,
				HasAmount:       true,
			},
			want: 8,
		},
		{
			name: "marketing drags financial language down",
			signals: Signals{
				HasAmount:        true,
				HasMerchant:      true,
				MarketingContent: true,
			},
			want: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.signals.Score()
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, MinScore)
			assert.LessOrEqual(t, got, MaxScore)
		})
	}
}

func TestEmailFingerprint(t *testing.T) {
	email := Email{
		ID:      "id-1",
		From:    "billing@example.com",
		Subject: "Your receipt",
		Body:    "You paid $10.00",
	}

	// Fingerprint depends on content, not the transport id.
	refetched := email
	refetched.ID = "id-2"
	assert.Equal(t, email.Fingerprint(), refetched.Fingerprint())

	// Any content change produces a new fingerprint.
	edited := email
	edited.Body = "You paid $11.00"
	assert.NotEqual(t, email.Fingerprint(), edited.Fingerprint())
}

func TestDedupKey(t *testing.T) {
	key := DedupKey("email-1", "acct-1", 42.10, "2024-05-01")

	// Pure function: identical inputs always agree.
	assert.Equal(t, key, DedupKey("email-1", "acct-1", 42.10, "2024-05-01"))

	// Changing any single input changes the key.
	assert.NotEqual(t, key, DedupKey("email-2", "acct-1", 42.10, "2024-05-01"))
	assert.NotEqual(t, key, DedupKey("email-1", "acct-2", 42.10, "2024-05-01"))
	assert.NotEqual(t, key, DedupKey("email-1", "acct-1", 42.11, "2024-05-01"))
	assert.NotEqual(t, key, DedupKey("email-1", "acct-1", 42.10, "2024-05-02"))

	assert.LessOrEqual(t, len(key), ImportIDMaxLen)
}

func TestPendingTransactionMilliunits(t *testing.T) {
	outflow := PendingTransaction{Amount: 29.99, Direction: DirectionOutflow}
	assert.Equal(t, int64(-29990), outflow.Milliunits())

	inflow := PendingTransaction{Amount: 5.25, Direction: DirectionInflow}
	assert.Equal(t, int64(5250), inflow.Milliunits())
}
