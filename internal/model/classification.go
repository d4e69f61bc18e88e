package model

// Direction indicates which way money moved.
type Direction string

// Direction constants.
const (
	// DirectionOutflow is money spent: purchases, bills, fees.
	DirectionOutflow Direction = "outflow"
	// DirectionInflow is money received: refunds, credits, deposits.
	DirectionInflow Direction = "inflow"
)

// DateConfidence indicates how certain the classifier is about an extracted
// transaction date.
type DateConfidence string

// Date confidence levels. Only DateCertain permits a future-dated
// transaction; anything weaker is capped to today by the builder.
const (
	DateCertain DateConfidence = "certain"
	DateLikely  DateConfidence = "likely"
	DateNone    DateConfidence = ""
)

// Signals is the boolean checklist the classifier reports about an email.
// The confidence score is computed locally from these, never taken from the
// classifier's own numeric opinion.
type Signals struct {
	ConfirmedCharge  bool `json:"confirmed_charge"`
	HasAmount        bool `json:"has_amount"`
	HasMerchant      bool `json:"has_merchant"`
	ExplicitDate     bool `json:"explicit_date"`
	MarketingContent bool `json:"marketing_content"`
	ReminderOnly     bool `json:"reminder_only"`
	QuoteOrEstimate  bool `json:"quote_or_estimate"`
}

// Score bounds.
const (
	MinScore = 1
	MaxScore = 10
)

// Score folds the checklist into a 1-10 confidence score. Positive signals
// build on a neutral base of 5; negative signals pull it down. The result is
// always clamped to [MinScore, MaxScore].
func (s Signals) Score() int {
	score := 5
	if s.ConfirmedCharge {
		score += 2
	}
	if s.HasAmount {
		score++
	}
	if s.HasMerchant {
		score++
	}
	if s.ExplicitDate {
		score++
	}
	if s.MarketingContent {
		score -= 3
	}
	if s.ReminderOnly {
		score -= 3
	}
	if s.QuoteOrEstimate {
		score -= 2
	}
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// ClassificationResult is the classifier's analysis of a single email.
// Amount, Merchant, Date, MatchedPayee and AccountName are empty/zero when
// the classifier could not extract them.
type ClassificationResult struct {
	Direction      Direction      `json:"direction"`
	Merchant       string         `json:"merchant"`
	MatchedPayee   string         `json:"matched_payee"`
	AccountName    string         `json:"account_name"`
	Currency       string         `json:"currency"`
	Date           string         `json:"date"` // YYYY-MM-DD, or empty
	DateConfidence DateConfidence `json:"date_confidence"`
	Description    string         `json:"description"`
	Reasoning      string         `json:"reasoning"`
	Signals        Signals        `json:"signals"`
	Amount         float64        `json:"amount"`
	Score          int            `json:"score"`
}
