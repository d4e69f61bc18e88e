package model

import (
	"crypto/sha256"
	"fmt"
)

// ImportIDMaxLen is the ledger service's limit on import_id length.
const ImportIDMaxLen = 36

// PendingTransaction is a transaction ready for emission to the ledger
// service. It exists only within a single run; the emitter consumes it.
type PendingTransaction struct {
	EmailID     string
	AccountID   string
	Date        string // YYYY-MM-DD effective date
	PayeeName   string
	Memo        string
	DedupKey    string
	Direction   Direction
	Amount      float64 // always positive; Direction carries the sign
	IsScheduled bool
}

// Milliunits returns the signed amount in the ledger's milliunit encoding:
// $29.99 outflow = -29990.
func (p *PendingTransaction) Milliunits() int64 {
	milliunits := int64(p.Amount*1000 + 0.5)
	if p.Direction != DirectionInflow {
		return -milliunits
	}
	return milliunits
}

// DedupKey derives the stable idempotency token for a logical transaction.
// It is a pure function of its inputs so the same email routed to the same
// account with the same amount and date always produces the same key, even
// across runs and after local tracking is lost. The format fits the ledger
// service's import_id limit.
func DedupKey(emailID, accountID string, amount float64, date string) string {
	data := fmt.Sprintf("%s|%s|%.2f|%s", emailID, accountID, amount, date)
	hash := sha256.Sum256([]byte(data))
	key := fmt.Sprintf("RFLOW:%s:%x", date, hash[:8])
	if len(key) > ImportIDMaxLen {
		key = key[:ImportIDMaxLen]
	}
	return key
}
