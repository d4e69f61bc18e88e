package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/receipt-flow/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRun   = errors.New("invalid run")
	ErrInvalidPayee = errors.New("invalid payee")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRun validates a run before persistence.
func validateRun(run *model.Run) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidRun)
	}
	return nil
}

// validatePayees validates a slice of payee records.
func validatePayees(payees []model.PayeeRecord) error {
	for i, p := range payees {
		if strings.TrimSpace(p.ExternalID) == "" {
			return fmt.Errorf("%w: payee at index %d missing external id", ErrInvalidPayee, i)
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: payee %s missing name", ErrInvalidPayee, p.ExternalID)
		}
	}
	return nil
}
