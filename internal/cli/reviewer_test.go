package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/receipt-flow/internal/engine"
	"github.com/Veraticus/receipt-flow/internal/model"
)

func reviewItems(payees ...string) []engine.ReviewItem {
	items := make([]engine.ReviewItem, 0, len(payees))
	for i, payee := range payees {
		items = append(items, engine.ReviewItem{
			Transaction: model.PendingTransaction{
				EmailID:   payee + "-email",
				Date:      "2025-06-14",
				PayeeName: payee,
				Amount:    10.50 + float64(i),
				Direction: model.DirectionOutflow,
			},
			Score: 8,
		})
	}
	return items
}

func TestReviewer_ApproveAll(t *testing.T) {
	var out bytes.Buffer
	reviewer := NewReviewer(strings.NewReader("a\n"), &out)

	selected, cancelled, err := reviewer.Review(context.Background(), reviewItems("Acme", "Bookshop"))
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.Len(t, selected, 2)
	assert.Contains(t, out.String(), "Acme")
	assert.Contains(t, out.String(), "Bookshop")
}

func TestReviewer_Cancel(t *testing.T) {
	var out bytes.Buffer
	reviewer := NewReviewer(strings.NewReader("c\n"), &out)

	selected, cancelled, err := reviewer.Review(context.Background(), reviewItems("Acme"))
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.Empty(t, selected, "cancel should select nothing")
}

func TestReviewer_ExcludeSome(t *testing.T) {
	var out bytes.Buffer
	reviewer := NewReviewer(strings.NewReader("e\n1,3\n"), &out)

	selected, cancelled, err := reviewer.Review(context.Background(), reviewItems("Acme", "Bookshop", "Cafe"))
	require.NoError(t, err)
	assert.False(t, cancelled)
	require.Len(t, selected, 1)
	assert.Equal(t, "Bookshop", selected[0].PayeeName)
}

func TestReviewer_ExcludeNothingKeepsAll(t *testing.T) {
	var out bytes.Buffer
	reviewer := NewReviewer(strings.NewReader("e\n\n"), &out)

	selected, _, err := reviewer.Review(context.Background(), reviewItems("Acme", "Bookshop"))
	require.NoError(t, err)
	assert.Len(t, selected, 2, "empty exclusion should keep everything")
}

func TestReviewer_InvalidChoiceReprompts(t *testing.T) {
	var out bytes.Buffer
	reviewer := NewReviewer(strings.NewReader("x\na\n"), &out)

	selected, _, err := reviewer.Review(context.Background(), reviewItems("Acme"))
	require.NoError(t, err)
	assert.Len(t, selected, 1, "expected approval after reprompt")
	assert.Contains(t, out.String(), "A/E/C", "invalid input should show the valid choices")
}

func TestReviewer_InvalidExclusionReprompts(t *testing.T) {
	var out bytes.Buffer
	reviewer := NewReviewer(strings.NewReader("e\n9\n1\n"), &out)

	selected, _, err := reviewer.Review(context.Background(), reviewItems("Acme", "Bookshop"))
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "Bookshop", selected[0].PayeeName)
	assert.Contains(t, out.String(), "out of range")
}

func TestReviewer_EmptyItems(t *testing.T) {
	reviewer := NewReviewer(strings.NewReader(""), &bytes.Buffer{})

	selected, cancelled, err := reviewer.Review(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.Empty(t, selected)
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		max     int
		want    []int
		wantErr bool
	}{
		{name: "single", line: "2", max: 3, want: []int{2}},
		{name: "multiple", line: "1, 3", max: 3, want: []int{1, 3}},
		{name: "empty", line: "", max: 3, want: nil},
		{name: "trailing comma", line: "1,", max: 3, want: []int{1}},
		{name: "zero", line: "0", max: 3, wantErr: true},
		{name: "too big", line: "4", max: 3, wantErr: true},
		{name: "not a number", line: "abc", max: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSelection(tt.line, tt.max)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, len(tt.want))
			for _, n := range tt.want {
				assert.True(t, got[n], "expected %d selected", n)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "short passes through", input: "Acme", max: 10, want: "Acme"},
		{name: "long gets ellipsis", input: "A Very Long Payee Name", max: 10, want: "A Very Lo…"},
		{name: "multibyte stays valid", input: strings.Repeat("ü", 20), max: 10, want: strings.Repeat("ü", 9) + "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.input, tt.max))
		})
	}
}
