package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/receipt-flow/internal/common"
	"github.com/Veraticus/receipt-flow/internal/model"
)

// analysisResponse is the JSON schema the model is instructed to return.
// Pointer fields distinguish null from zero.
type analysisResponse struct {
	Direction      string        `json:"direction"`
	Merchant       *string       `json:"merchant"`
	MatchedPayee   *string       `json:"matched_payee"`
	AccountName    *string       `json:"account_name"`
	Amount         *float64      `json:"amount"`
	Currency       *string       `json:"currency"`
	Date           *string       `json:"date"`
	DateConfidence *string       `json:"date_confidence"`
	Description    *string       `json:"description"`
	Reasoning      *string       `json:"reasoning"`
	Signals        model.Signals `json:"signals"`
}

// parseAnalysis converts the model's raw text into a validated
// ClassificationResult. The score is computed from the signal checklist,
// never read from the response.
func parseAnalysis(content string) (*model.ClassificationResult, error) {
	content = cleanMarkdownWrapper(content)

	var resp analysisResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		// Models occasionally wrap the JSON in prose despite instructions.
		extracted, ok := extractJSONObject(content)
		if !ok {
			return nil, fmt.Errorf("%w: no JSON object in response", common.ErrInvalidResponse)
		}
		if err := json.Unmarshal([]byte(extracted), &resp); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidResponse, err)
		}
	}

	direction := model.DirectionOutflow
	switch strings.ToLower(resp.Direction) {
	case "inflow":
		direction = model.DirectionInflow
	case "outflow", "":
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", common.ErrInvalidResponse, resp.Direction)
	}

	result := &model.ClassificationResult{
		Direction:      direction,
		Merchant:       stringValue(resp.Merchant),
		MatchedPayee:   stringValue(resp.MatchedPayee),
		AccountName:    stringValue(resp.AccountName),
		Currency:       stringValue(resp.Currency),
		Description:    stringValue(resp.Description),
		Reasoning:      stringValue(resp.Reasoning),
		Signals:        resp.Signals,
		DateConfidence: model.DateNone,
	}
	if result.Currency == "" {
		result.Currency = "USD"
	}

	if resp.Amount != nil {
		if *resp.Amount < 0 {
			return nil, fmt.Errorf("%w: negative amount %v", common.ErrInvalidResponse, *resp.Amount)
		}
		result.Amount = *resp.Amount
	}

	if resp.Date != nil && *resp.Date != "" {
		if _, err := time.Parse("2006-01-02", *resp.Date); err != nil {
			return nil, fmt.Errorf("%w: bad date %q", common.ErrInvalidResponse, *resp.Date)
		}
		result.Date = *resp.Date
	}

	if resp.DateConfidence != nil {
		switch strings.ToLower(*resp.DateConfidence) {
		case "certain":
			result.DateConfidence = model.DateCertain
		case "likely":
			result.DateConfidence = model.DateLikely
		case "", "null", "none":
		default:
			return nil, fmt.Errorf("%w: unknown date confidence %q", common.ErrInvalidResponse, *resp.DateConfidence)
		}
	}

	result.Score = result.Signals.Score()
	return result, nil
}

// cleanMarkdownWrapper strips a markdown code fence from around the JSON,
// if present.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	return strings.TrimSpace(content)
}

// extractJSONObject pulls the outermost {...} span from surrounding text.
func extractJSONObject(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
