package ynab

// YNAB API request and response types. Amounts are milliunits: $29.99 is
// 29990, negative for outflow.

type transactionPayload struct {
	AccountID string `json:"account_id"`
	Date      string `json:"date"`
	Amount    int64  `json:"amount"`
	PayeeName string `json:"payee_name"`
	Memo      string `json:"memo,omitempty"`
	Cleared   string `json:"cleared"`
	Approved  bool   `json:"approved"`
	ImportID  string `json:"import_id"`
}

type createTransactionsRequest struct {
	Transactions []transactionPayload `json:"transactions"`
}

type createTransactionsResponse struct {
	Data struct {
		Transactions []struct {
			ID       string `json:"id"`
			ImportID string `json:"import_id"`
		} `json:"transactions"`
		DuplicateImportIDs []string `json:"duplicate_import_ids"`
	} `json:"data"`
}

type scheduledTransactionPayload struct {
	AccountID string `json:"account_id"`
	Date      string `json:"date"`
	Frequency string `json:"frequency"`
	Amount    int64  `json:"amount"`
	PayeeName string `json:"payee_name"`
	Memo      string `json:"memo,omitempty"`
}

type createScheduledTransactionRequest struct {
	ScheduledTransaction scheduledTransactionPayload `json:"scheduled_transaction"`
}

type createScheduledTransactionResponse struct {
	Data struct {
		ScheduledTransaction struct {
			ID string `json:"id"`
		} `json:"scheduled_transaction"`
	} `json:"data"`
}

type payeesResponse struct {
	Data struct {
		Payees []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Deleted bool   `json:"deleted"`
		} `json:"payees"`
		ServerKnowledge int64 `json:"server_knowledge"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Detail string `json:"detail"`
	} `json:"error"`
}
