package llm

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/receipt-flow/internal/model"
)

// maxBodyBytes caps the email body in the prompt to stay within token
// limits.
const maxBodyBytes = 8000

// maxPayeesInPrompt caps the payee list embedded in the prompt.
const maxPayeesInPrompt = 2000

// buildPrompt composes the analysis prompt for one email. The payee list
// and account descriptions give the model enough context to match payees
// and route accounts; the signal checklist is what scoring is computed
// from.
func buildPrompt(email model.Email, payees []string, accounts []model.Account) string {
	body := email.Body
	if len(body) > maxBodyBytes {
		cut := maxBodyBytes
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}

	sorted := make([]string, len(payees))
	copy(sorted, payees)
	sort.Strings(sorted)
	if len(sorted) > maxPayeesInPrompt {
		sorted = sorted[:maxPayeesInPrompt]
	}
	payeeList := strings.Join(sorted, "\n")
	if payeeList == "" {
		payeeList = "(none)"
	}

	var accountLines []string
	for _, acct := range accounts {
		marker := ""
		if acct.Default {
			marker = " (DEFAULT)"
		}
		accountLines = append(accountLines, fmt.Sprintf("- %s%s", acct.Name, marker))
		for _, line := range strings.Split(acct.Notes, "\n") {
			if strings.TrimSpace(line) != "" {
				accountLines = append(accountLines, "  "+line)
			}
		}
	}
	accountsText := strings.Join(accountLines, "\n")
	if accountsText == "" {
		accountsText = "(no accounts configured)"
	}

	return fmt.Sprintf(`Analyze this email and determine if it's related to a financial transaction.

FROM: %s
SUBJECT: %s

BODY:
%s

---

EXISTING PAYEES (for matching):
%s

---

ACCOUNTS (for routing):
%s

---

Determine whether money HAS MOVED or IS SCHEDULED TO MOVE, and whether it is:
- OUTFLOW: Money spent (purchases, subscriptions, bills, fees, charges)
- INFLOW: Money received (refunds, credits, rebates, cashback, deposits)

Respond with JSON in this exact format:
{
  "direction": "outflow",
  "merchant": "Store Name or Source",
  "matched_payee": "Existing Payee Name",
  "account_name": "Account Name",
  "amount": 29.99,
  "currency": "USD",
  "date": "2024-01-15",
  "date_confidence": "certain",
  "description": "Brief description of the transaction",
  "reasoning": "Why you read the email this way",
  "signals": {
    "confirmed_charge": true,
    "has_amount": true,
    "has_merchant": true,
    "explicit_date": true,
    "marketing_content": false,
    "reminder_only": false,
    "quote_or_estimate": false
  }
}

Rules:
- "direction" must be either "inflow" or "outflow"
- "amount" must be a positive number (no currency symbols), or null if not found
- "date" must be YYYY-MM-DD format. For purchase receipts, use the purchase date. For bills with autopay, use the due date. For payment confirmations, use the payment date. Use null if not found.
- "date_confidence" indicates how certain you are about the date:
  - "certain": The email explicitly states this exact date (e.g., "Due Date: Feb 19, 2026")
  - "likely": The date is implied but not explicitly stated
  - null: Date was inferred or uncertain
- "merchant" should be the business/source name as it appears in the email, or null if not found
- "matched_payee" should be the EXACT name from the EXISTING PAYEES list that best matches this merchant. Use null if no good match exists. Consider abbreviations (e.g., "HOA" = "Homeowners Association"), common variations, and ignore suffixes like "Inc", "LLC", "Co.". Only use a value from the provided list.
- "account_name" should be the EXACT name from the ACCOUNTS list that this transaction belongs to based on the account descriptions. Use null to route to the default account. Only use a value from the provided list.
- "signals" is a strict checklist. Set each field honestly:
  - "confirmed_charge": the email confirms money actually moved or is committed to move on a stated date
  - "has_amount": a specific monetary amount appears in the email
  - "has_merchant": a specific business or source is identifiable
  - "explicit_date": the email states the transaction date outright
  - "marketing_content": the email is primarily promotional or a newsletter
  - "reminder_only": the email reminds about a future action without any charge (expiration notice, renewal reminder, price change)
  - "quote_or_estimate": amounts shown are quotes, estimates, or carts, not charges

Respond ONLY with valid JSON, no other text.`, email.From, email.Subject, body, payeeList, accountsText)
}
