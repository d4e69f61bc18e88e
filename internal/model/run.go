package model

import "time"

// RunEntry records one transaction created during a run, with everything
// undo needs to reverse it.
type RunEntry struct {
	EmailID       string `json:"email_id"`
	DedupKey      string `json:"dedup_key"`
	TransactionID string `json:"transaction_id"`
	Scheduled     bool   `json:"scheduled,omitempty"`
}

// Run records one execution of the pipeline as an undoable unit.
type Run struct {
	StartedAt   time.Time
	CompletedAt time.Time
	ID          string
	Entries     []RunEntry
}

// Completed reports whether the run finished; only completed runs are
// eligible for undo.
func (r *Run) Completed() bool {
	return !r.CompletedAt.IsZero()
}
