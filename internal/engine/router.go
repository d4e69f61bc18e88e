package engine

import "github.com/Veraticus/receipt-flow/internal/model"

// routeAccount resolves the classifier's suggested account name against the
// configured accounts. Only an exact name match routes away from the
// default account.
func (e *Engine) routeAccount(accountName string) model.Account {
	if accountName != "" {
		for _, account := range e.accounts {
			if account.Name == accountName {
				return account
			}
		}
	}
	for _, account := range e.accounts {
		if account.Default {
			return account
		}
	}
	// Config validation guarantees exactly one default.
	return e.accounts[0]
}
