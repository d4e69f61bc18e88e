package payee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevenshteinMatcher_Match(t *testing.T) {
	payees := []string{"Whole Foods Market", "Trader Joe's", "Shell", "Spotify", "Spotify Family"}

	tests := []struct {
		name      string
		merchant  string
		want      string
		wantMatch bool
	}{
		{
			name:      "exact match",
			merchant:  "Shell",
			want:      "Shell",
			wantMatch: true,
		},
		{
			name:      "case insensitive exact match",
			merchant:  "SPOTIFY",
			want:      "Spotify",
			wantMatch: true,
		},
		{
			name:      "exact match with surrounding whitespace",
			merchant:  "  Trader Joe's  ",
			want:      "Trader Joe's",
			wantMatch: true,
		},
		{
			name:      "fuzzy match above threshold",
			merchant:  "Whole Foods Markt",
			want:      "Whole Foods Market",
			wantMatch: true,
		},
		{
			name:      "below threshold",
			merchant:  "Completely Unrelated Vendor",
			wantMatch: false,
		},
		{
			name:      "empty merchant",
			merchant:  "",
			wantMatch: false,
		},
		{
			name:      "whitespace only merchant",
			merchant:  "   ",
			wantMatch: false,
		},
	}

	m := NewLevenshteinMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Match(tt.merchant, payees)
			require.Equal(t, tt.wantMatch, ok, "Match(%q)", tt.merchant)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLevenshteinMatcher_Deterministic(t *testing.T) {
	// Two candidates equally distant from the input. Lexical order decides,
	// regardless of slice order.
	forward := []string{"Cafe A", "Cafe B"}
	backward := []string{"Cafe B", "Cafe A"}

	m := NewLevenshteinMatcher()
	got1, ok1 := m.Match("Cafe C", forward)
	got2, ok2 := m.Match("Cafe C", backward)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, got1, got2, "match must not depend on slice order")
	assert.Equal(t, "Cafe A", got1, "lexically first candidate wins ties")
}

func TestLevenshteinMatcher_EmptyDirectory(t *testing.T) {
	m := NewLevenshteinMatcher()
	_, ok := m.Match("Anything", nil)
	assert.False(t, ok)
}
