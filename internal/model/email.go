// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Email is a snapshot of a message fetched from the mail source. Only the
// fields needed for receipt classification are kept; the body has already
// been reduced to plain text by the mail source.
type Email struct {
	ReceivedAt time.Time
	ID         string
	Subject    string
	From       string
	Body       string
}

// Fingerprint derives a stable identity from the email's content rather than
// its transport id, so the same message re-fetched under a different id (or
// through a different source) still hits the classification cache.
func (e *Email) Fingerprint() string {
	data := fmt.Sprintf("%s\x00%s\x00%s", e.From, e.Subject, e.Body)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
