package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/receipt-flow/internal/cli"
	"github.com/Veraticus/receipt-flow/internal/config"
)

func undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Delete the transactions created by the most recent run",
		Long: `Delete every transaction the most recent completed run created and make
its emails eligible for processing again. Each invocation undoes one run;
repeat to walk further back.`,
		RunE: runUndo,
	}
}

func runUndo(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(os.Stdout)
	ctx := interrupts.HandleInterrupts(cmd.Context())

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	eng, err := buildEngine(ctx, cfg, store, nil, nil)
	if err != nil {
		return err
	}

	stats, err := eng.Undo(ctx)
	if err != nil {
		return fmt.Errorf("undo failed: %w", err)
	}
	if stats.RunID == "" {
		fmt.Println(cli.FormatInfo("No completed runs to undo"))
		return nil
	}

	summary := fmt.Sprintf("  Run: %s\n", stats.RunID) +
		fmt.Sprintf("  Deleted: %d\n", stats.Deleted) +
		fmt.Sprintf("  Already gone: %d\n", stats.NotFound) +
		fmt.Sprintf("  Emails unmarked: %d\n", stats.Unmarked) +
		fmt.Sprintf("  Errors: %d", stats.Errors)

	fmt.Println(cli.RenderBox(cli.ReceiptIcon+" Undo Complete", summary))
	return nil
}
