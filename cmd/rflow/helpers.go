package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/receipt-flow/internal/config"
	"github.com/Veraticus/receipt-flow/internal/engine"
	"github.com/Veraticus/receipt-flow/internal/llm"
	"github.com/Veraticus/receipt-flow/internal/mail"
	"github.com/Veraticus/receipt-flow/internal/payee"
	"github.com/Veraticus/receipt-flow/internal/service"
	"github.com/Veraticus/receipt-flow/internal/storage"
	"github.com/Veraticus/receipt-flow/internal/ynab"
)

// initStorage opens the database and runs migrations.
func initStorage(ctx context.Context, cfg *config.Config) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		closeStorage(store)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store service.Storage) {
	if err := store.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

// buildEngine wires every pipeline collaborator from the configuration.
func buildEngine(ctx context.Context, cfg *config.Config, store service.Storage, reviewer engine.Reviewer, classifier service.Classifier) (*engine.Engine, error) {
	logger := slog.Default()

	source, err := mail.NewSource(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail source: %w", err)
	}

	ledger, err := ynab.NewClient(cfg.YNABToken, cfg.YNABBudgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to create ynab client: %w", err)
	}

	directory := payee.NewDirectory(store, ledger, logger)

	logger.Info("Configured ledger accounts",
		"count", len(cfg.Accounts),
		"default", cfg.DefaultAccount().Name)

	return engine.New(store, source, classifier, ledger, directory, reviewer,
		cfg.Accounts, cfg.MinScore, logger), nil
}

// buildClassifier creates the LLM-backed classifier.
func buildClassifier(cfg *config.Config, store service.Storage) (service.Classifier, error) {
	client, err := llm.NewClient(llm.Config{
		APIKey: cfg.AnthropicAPIKey,
		Model:  cfg.AnthropicModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	return llm.NewClassifier(client, store, slog.Default()), nil
}
