package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonBlockingReader_ReadLine(t *testing.T) {
	reader := NewNonBlockingReader(strings.NewReader("  hello world  \n"))

	line, err := reader.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello world", line, "line should arrive trimmed")
}

func TestNonBlockingReader_ContextCancellation(t *testing.T) {
	// A pipe with no writer blocks forever; only cancellation unblocks.
	pr, pw := io.Pipe()
	defer func() {
		_ = pw.Close()
		_ = pr.Close()
	}()
	reader := NewNonBlockingReader(pr)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := reader.ReadLine(ctx)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestNonBlockingReader_EOF(t *testing.T) {
	reader := NewNonBlockingReader(strings.NewReader(""))

	_, err := reader.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}
