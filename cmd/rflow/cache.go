package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/receipt-flow/internal/cli"
	"github.com/Veraticus/receipt-flow/internal/config"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the classification cache",
	}
	cmd.AddCommand(cacheClearCmd())
	return cmd
}

func cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop all cached classification results",
		Long: `Drop all cached classification results. The next run re-classifies every
email it examines; processed markers are untouched, so nothing is imported
twice.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if err := store.ClearClassificationCache(ctx); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Classification cache cleared"))
			return nil
		},
	}
}
