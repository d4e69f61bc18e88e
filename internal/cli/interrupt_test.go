package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterruptHandler_NotInterruptedByDefault(t *testing.T) {
	handler := NewInterruptHandler(&bytes.Buffer{})

	ctx := handler.HandleInterrupts(context.Background())
	assert.False(t, handler.WasInterrupted(), "handler should start uninterrupted")
	select {
	case <-ctx.Done():
		t.Error("Context should not be done without a signal")
	default:
	}
}

func TestInterruptHandler_Message(t *testing.T) {
	var out bytes.Buffer
	handler := NewInterruptHandler(&out)

	handler.showInterruptMessage()
	assert.Contains(t, out.String(), "Interrupted")
	assert.Contains(t, out.String(), "next run", "message should explain retry semantics")
}
