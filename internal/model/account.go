package model

// Account is a configured destination account in the ledger service.
// Exactly one configured account carries Default=true; config validation
// enforces that at load.
type Account struct {
	Name    string
	YNABID  string
	Notes   string
	Default bool
}
