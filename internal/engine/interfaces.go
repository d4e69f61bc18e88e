package engine

import (
	"context"

	"github.com/Veraticus/receipt-flow/internal/model"
)

// ReviewItem is what the reviewer shows for one pending transaction.
type ReviewItem struct {
	Transaction model.PendingTransaction
	Score       int
}

// Reviewer lets the user confirm which pending transactions to import.
type Reviewer interface {
	// Review returns the selected transactions. Cancelled is true when the
	// user aborted review entirely; nothing is emitted or marked then.
	Review(ctx context.Context, items []ReviewItem) (selected []model.PendingTransaction, cancelled bool, err error)
}

// PayeeDirectory is the engine's view of the payee mirror.
type PayeeDirectory interface {
	Refresh(ctx context.Context, force bool) error
	Names(ctx context.Context) ([]string, error)
	Resolve(ctx context.Context, merchant string) (string, error)
}

// approveAll is the Reviewer used with --yes.
type approveAll struct{}

func (approveAll) Review(_ context.Context, items []ReviewItem) ([]model.PendingTransaction, bool, error) {
	selected := make([]model.PendingTransaction, 0, len(items))
	for _, item := range items {
		selected = append(selected, item.Transaction)
	}
	return selected, false, nil
}
