package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/receipt-flow/internal/engine"
	"github.com/Veraticus/receipt-flow/internal/model"
)

// Reviewer implements the interactive approval prompt shown before
// transactions are written to the ledger.
type Reviewer struct {
	writer io.Writer
	reader *NonBlockingReader
}

// NewReviewer creates a reviewer reading from reader and writing to writer.
// Nil arguments default to stdin and stdout.
func NewReviewer(reader io.Reader, writer io.Writer) *Reviewer {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Reviewer{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// Review shows the planned transactions and asks the user to approve them.
// Cancelling approves nothing and leaves every email eligible for the next
// run; excluding individual items marks their emails as handled.
func (r *Reviewer) Review(ctx context.Context, items []engine.ReviewItem) ([]model.PendingTransaction, bool, error) {
	if len(items) == 0 {
		return nil, false, nil
	}

	content := r.formatItems(items)
	if _, err := fmt.Fprintln(r.writer, RenderBox(fmt.Sprintf("Planned Transactions (%d)", len(items)), content)); err != nil {
		return nil, false, fmt.Errorf("failed to write review box: %w", err)
	}

	lines := []string{
		"  [A] Approve all",
		"  [E] Exclude some by number",
		"  [C] Cancel (nothing is written or marked)",
		"",
	}
	if _, err := fmt.Fprintln(r.writer, strings.Join(lines, "\n")); err != nil {
		return nil, false, fmt.Errorf("failed to write options: %w", err)
	}

	choice, err := r.promptChoice(ctx, "Choice [A/E/C]", []string{"a", "e", "c"})
	if err != nil {
		return nil, false, err
	}

	switch choice {
	case "a":
		return transactionsOf(items), false, nil
	case "c":
		if _, err := fmt.Fprintln(r.writer, FormatInfo("Cancelled. Nothing was written.")); err != nil {
			return nil, false, fmt.Errorf("failed to write cancellation notice: %w", err)
		}
		return nil, true, nil
	case "e":
		return r.excludeSome(ctx, items)
	}
	return nil, false, fmt.Errorf("unexpected choice: %s", choice)
}

func (r *Reviewer) excludeSome(ctx context.Context, items []engine.ReviewItem) ([]model.PendingTransaction, bool, error) {
	for {
		if _, err := fmt.Fprint(r.writer, FormatPrompt("Numbers to exclude (comma separated)")); err != nil {
			return nil, false, fmt.Errorf("failed to write exclusion prompt: %w", err)
		}
		line, err := r.reader.ReadLine(ctx)
		if err != nil {
			return nil, false, err
		}

		excluded, err := parseSelection(line, len(items))
		if err != nil {
			if _, werr := fmt.Fprintln(r.writer, FormatWarning(err.Error())); werr != nil {
				return nil, false, fmt.Errorf("failed to write warning: %w", werr)
			}
			continue
		}

		var selected []model.PendingTransaction
		for i, item := range items {
			if !excluded[i+1] {
				selected = append(selected, item.Transaction)
			}
		}
		if _, err := fmt.Fprintln(r.writer, FormatSuccess(fmt.Sprintf("Approved %d of %d transactions", len(selected), len(items)))); err != nil {
			return nil, false, fmt.Errorf("failed to write approval summary: %w", err)
		}
		return selected, false, nil
	}
}

func (r *Reviewer) promptChoice(ctx context.Context, prompt string, valid []string) (string, error) {
	for {
		if _, err := fmt.Fprint(r.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}
		line, err := r.reader.ReadLine(ctx)
		if err != nil {
			return "", err
		}
		choice := strings.ToLower(strings.TrimSpace(line))
		for _, v := range valid {
			if choice == v {
				return choice, nil
			}
		}
		if _, err := fmt.Fprintln(r.writer, FormatWarning(fmt.Sprintf("Please enter one of: %s", strings.ToUpper(strings.Join(valid, "/"))))); err != nil {
			return "", fmt.Errorf("failed to write warning: %w", err)
		}
	}
}

func (r *Reviewer) formatItems(items []engine.ReviewItem) string {
	var b strings.Builder
	for i, item := range items {
		txn := item.Transaction

		amount := fmt.Sprintf("-$%.2f", txn.Amount)
		amountStyle := ErrorStyle
		if txn.Direction == model.DirectionInflow {
			amount = fmt.Sprintf("+$%.2f", txn.Amount)
			amountStyle = SuccessStyle
		}

		fmt.Fprintf(&b, "%2d. %s  %-40s %10s  %s",
			i+1,
			txn.Date,
			truncate(txn.PayeeName, 40),
			amountStyle.Render(amount),
			SubtleStyle.Render(fmt.Sprintf("%d/10", item.Score)))

		if txn.IsScheduled {
			fmt.Fprintf(&b, "  %s %s", ClockIcon, InfoStyle.Render("scheduled"))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// parseSelection parses a comma separated list of 1-based item numbers.
func parseSelection(line string, max int) (map[int]bool, error) {
	selected := make(map[int]bool)
	line = strings.TrimSpace(line)
	if line == "" {
		return selected, nil
	}
	for _, field := range strings.Split(line, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", field)
		}
		if n < 1 || n > max {
			return nil, fmt.Errorf("number out of range: %d (valid: 1-%d)", n, max)
		}
		selected[n] = true
	}
	return selected, nil
}

func transactionsOf(items []engine.ReviewItem) []model.PendingTransaction {
	txns := make([]model.PendingTransaction, 0, len(items))
	for _, item := range items {
		txns = append(txns, item.Transaction)
	}
	return txns
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
