package model

import "time"

// PayeeRecord is a locally mirrored payee from the ledger service.
type PayeeRecord struct {
	LastSeenAt time.Time
	Name       string
	ExternalID string
	Deleted    bool
}

// SyncState tracks the delta-sync position for one mirrored resource.
// Cursor is the server-issued token (YNAB server_knowledge); it only moves
// forward, and only after a successful sync.
type SyncState struct {
	LastFullRefreshAt time.Time
	Resource          string
	Cursor            int64
}
