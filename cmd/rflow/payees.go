package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/receipt-flow/internal/cli"
	"github.com/Veraticus/receipt-flow/internal/config"
	"github.com/Veraticus/receipt-flow/internal/payee"
	"github.com/Veraticus/receipt-flow/internal/ynab"
)

func payeesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payees",
		Short: "Manage the local payee directory",
	}
	cmd.AddCommand(payeesRefreshCmd())
	cmd.AddCommand(payeesListCmd())
	return cmd
}

func payeesRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Sync the payee directory from YNAB",
		Long: `Sync the local payee mirror from YNAB. Normally a delta sync from the
stored server knowledge; --force discards the mirror and fetches everything.`,
		RunE: runPayeesRefresh,
	}

	cmd.Flags().BoolP("force", "f", false, "Discard the mirror and fetch all payees")
	_ = viper.BindPFlag("payees.force", cmd.Flags().Lookup("force"))

	return cmd
}

func runPayeesRefresh(cmd *cobra.Command, _ []string) error {
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

	ledger, err := ynab.NewClient(cfg.YNABToken, cfg.YNABBudgetID)
	if err != nil {
		return fmt.Errorf("failed to create ynab client: %w", err)
	}

	directory := payee.NewDirectory(store, ledger, slog.Default())
	if err := directory.Refresh(ctx, viper.GetBool("payees.force")); err != nil {
		return fmt.Errorf("failed to refresh payees: %w", err)
	}

	names, err := directory.Names(ctx)
	if err != nil {
		return fmt.Errorf("failed to list payees: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Payee directory synced: %d payees", len(names))))
	return nil
}

func payeesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the locally mirrored payees",
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

			payees, err := store.GetPayees(ctx)
			if err != nil {
				return fmt.Errorf("failed to list payees: %w", err)
			}

			if len(payees) == 0 {
				fmt.Println(cli.FormatInfo("No payees mirrored yet. Run: rflow payees refresh"))
				return nil
			}
			for _, p := range payees {
				fmt.Println(p.Name)
			}
			return nil
		},
	}
}
