package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/receipt-flow/internal/cli"
	"github.com/Veraticus/receipt-flow/internal/config"
	"github.com/Veraticus/receipt-flow/internal/engine"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch receipts and import transactions",
		Long: `Fetch recent emails, classify them, and import the resulting
transactions into YNAB after interactive review.

Examples:
  rflow run               # Interactive review before importing
  rflow run --yes         # Import without review
  rflow run --dry-run     # Show what would be imported, write nothing
  rflow run --force       # Re-examine already processed emails
  rflow run --limit 20    # Only look at the 20 most recent emails`,
		RunE: runRun,
	}

	cmd.Flags().BoolP("yes", "y", false, "Skip the review prompt and approve everything")
	cmd.Flags().Bool("dry-run", false, "Preview without writing to YNAB or the database")
	cmd.Flags().BoolP("force", "f", false, "Re-examine emails already marked as processed")
	cmd.Flags().IntP("limit", "l", engine.DefaultFetchLimit, "Maximum number of recent emails to examine")

	_ = viper.BindPFlag("run.yes", cmd.Flags().Lookup("yes"))
	_ = viper.BindPFlag("run.dry_run", cmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("run.force", cmd.Flags().Lookup("force"))
	_ = viper.BindPFlag("run.limit", cmd.Flags().Lookup("limit"))

	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	opts := engine.Options{
		AutoApprove: viper.GetBool("run.yes"),
		DryRun:      viper.GetBool("run.dry_run"),
		Force:       viper.GetBool("run.force"),
		Limit:       viper.GetInt("run.limit"),
	}

	interrupts := cli.NewInterruptHandler(os.Stdout)
	ctx := interrupts.HandleInterrupts(cmd.Context())

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	classifier, err := buildClassifier(cfg, store)
	if err != nil {
		return err
	}
	progress := cli.NewProgressClassifier(classifier, os.Stdout)

	eng, err := buildEngine(ctx, cfg, store, cli.NewReviewer(os.Stdin, os.Stdout), progress)
	if err != nil {
		return err
	}

	stats, err := eng.Run(ctx, opts)
	progress.Finish()
	if err != nil {
		if interrupts.WasInterrupted() {
			return nil
		}
		return fmt.Errorf("run failed: %w", err)
	}

	printRunSummary(stats, opts.DryRun)
	return nil
}

func printRunSummary(stats *engine.Stats, dryRun bool) {
	title := "Run Complete"
	if dryRun {
		title = "Dry Run Complete"
	}

	summary := fmt.Sprintf("  Created: %d\n", stats.Created) +
		fmt.Sprintf("  Scheduled: %d\n", stats.Scheduled) +
		fmt.Sprintf("  Duplicates: %d\n", stats.Duplicates) +
		fmt.Sprintf("  Skipped: %d\n", stats.Skipped) +
		fmt.Sprintf("  Errors: %d", stats.Errors)

	fmt.Println(cli.RenderBox(cli.ReceiptIcon+" "+title, summary))
}
