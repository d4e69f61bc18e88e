package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/receipt-flow/internal/common"
	"github.com/Veraticus/receipt-flow/internal/model"
)

const validAnalysisJSON = `{
  "direction": "outflow",
  "merchant": "Amazon.com",
  "matched_payee": "Amazon",
  "account_name": "Checking",
  "amount": 42.10,
  "currency": "USD",
  "date": "2024-05-01",
  "date_confidence": "certain",
  "description": "Order confirmation",
  "reasoning": "Email confirms a completed charge",
  "signals": {
    "confirmed_charge": true,
    "has_amount": true,
    "has_merchant": true,
    "explicit_date": true,
    "marketing_content": false,
    "reminder_only": false,
    "quote_or_estimate": false
  }
}`

func TestParseAnalysis_Valid(t *testing.T) {
	result, err := parseAnalysis(validAnalysisJSON)
	require.NoError(t, err)

	assert.Equal(t, model.DirectionOutflow, result.Direction)
	assert.Equal(t, "Amazon.com", result.Merchant)
	assert.Equal(t, "Amazon", result.MatchedPayee)
	assert.Equal(t, 42.10, result.Amount)
	assert.Equal(t, "2024-05-01", result.Date)
	assert.Equal(t, model.DateCertain, result.DateConfidence)
	// All positive signals, no negatives: clamps at the top.
	assert.Equal(t, 10, result.Score)
}

func TestParseAnalysis_MarkdownFence(t *testing.T) {
	fenced := "```json\n" + validAnalysisJSON + "\n```"
	result, err := parseAnalysis(fenced)
	require.NoError(t, err)
	assert.Equal(t, "Amazon.com", result.Merchant)
}

func TestParseAnalysis_ProseWrapped(t *testing.T) {
	wrapped := "Here is my analysis:\n" + validAnalysisJSON + "\nLet me know if you need more."
	result, err := parseAnalysis(wrapped)
	require.NoError(t, err)
	assert.Equal(t, 42.10, result.Amount)
}

func TestParseAnalysis_NullFields(t *testing.T) {
	input := `{
		"direction": "inflow",
		"merchant": null,
		"matched_payee": null,
		"account_name": null,
		"amount": null,
		"currency": null,
		"date": null,
		"date_confidence": null,
		"description": null,
		"reasoning": null,
		"signals": {
			"confirmed_charge": false,
			"has_amount": false,
			"has_merchant": false,
			"explicit_date": false,
			"marketing_content": true,
			"reminder_only": false,
			"quote_or_estimate": false
		}
	}`
	result, err := parseAnalysis(input)
	require.NoError(t, err)
	assert.Equal(t, model.DirectionInflow, result.Direction)
	assert.Empty(t, result.Merchant)
	assert.Zero(t, result.Amount)
	assert.Empty(t, result.Date)
	assert.Equal(t, model.DateNone, result.DateConfidence)
	assert.Equal(t, "USD", result.Currency)
	// Base 5 minus marketing penalty.
	assert.Equal(t, 2, result.Score)
}

func TestParseAnalysis_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "I could not analyze this email."},
		{name: "unknown direction", input: `{"direction": "sideways", "signals": {}}`},
		{name: "bad date", input: `{"direction": "outflow", "date": "May 1st", "signals": {}}`},
		{name: "negative amount", input: `{"direction": "outflow", "amount": -5.0, "signals": {}}`},
		{name: "unknown date confidence", input: `{"direction": "outflow", "date_confidence": "definitely", "signals": {}}`},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAnalysis(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidResponse)
		})
	}
}

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: `{"a": 1}`, want: `{"a": 1}`},
		{name: "json fence", input: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "bare fence", input: "```\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "surrounding whitespace", input: "  {\"a\": 1}  ", want: `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownWrapper(tt.input))
		})
	}
}
