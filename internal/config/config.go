// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/receipt-flow/internal/common"
	"github.com/Veraticus/receipt-flow/internal/model"
)

// DefaultMinScore is the minimum classification score required to import a
// transaction when min_score is not configured.
const DefaultMinScore = 6

// MailSourceKind selects the mail transport.
type MailSourceKind string

// Supported mail sources.
const (
	MailSourceJMAP  MailSourceKind = "jmap"
	MailSourceGmail MailSourceKind = "gmail"
)

// Config is the immutable application configuration, constructed once at
// startup and passed into every component constructor.
type Config struct {
	MailSource      MailSourceKind
	JMAPToken       string
	GmailToken      string
	AnthropicAPIKey string
	AnthropicModel  string
	YNABToken       string
	YNABBudgetID    string
	DatabasePath    string
	Accounts        []model.Account
	MinScore        int
}

// accountEntry mirrors one element of the accounts list in the config file.
type accountEntry struct {
	Name    string `mapstructure:"name"`
	YNABID  string `mapstructure:"ynab_id"`
	Notes   string `mapstructure:"notes"`
	Default bool   `mapstructure:"default"`
}

// Load reads configuration from viper into a validated Config.
func Load() (*Config, error) {
	source := viper.GetString("mail.source")
	if source == "" {
		source = string(MailSourceJMAP)
	}

	minScore := viper.GetInt("min_score")
	if minScore == 0 {
		minScore = DefaultMinScore
	}

	var entries []accountEntry
	if err := viper.UnmarshalKey("accounts", &entries); err != nil {
		return nil, fmt.Errorf("%w: accounts: %v", common.ErrInvalidConfig, err)
	}

	accounts := make([]model.Account, 0, len(entries))
	for _, e := range entries {
		accounts = append(accounts, model.Account{
			Name:    e.Name,
			YNABID:  e.YNABID,
			Notes:   e.Notes,
			Default: e.Default,
		})
	}

	cfg := &Config{
		MailSource:      MailSourceKind(source),
		JMAPToken:       viper.GetString("mail.jmap_token"),
		GmailToken:      viper.GetString("mail.gmail_token"),
		AnthropicAPIKey: viper.GetString("anthropic.api_key"),
		AnthropicModel:  viper.GetString("anthropic.model"),
		YNABToken:       viper.GetString("ynab.token"),
		YNABBudgetID:    viper.GetString("ynab.budget_id"),
		DatabasePath:    ExpandPath(viper.GetString("database.path")),
		Accounts:        accounts,
		MinScore:        minScore,
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = ExpandPath("~/.local/share/rflow/rflow.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required settings are present and coherent.
// Called before any side effect; a failure here aborts the run.
func (c *Config) Validate() error {
	switch c.MailSource {
	case MailSourceJMAP:
		if c.JMAPToken == "" {
			return fmt.Errorf("%w: mail.jmap_token", common.ErrMissingConfig)
		}
	case MailSourceGmail:
		if c.GmailToken == "" {
			return fmt.Errorf("%w: mail.gmail_token", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown mail source %q", common.ErrInvalidConfig, c.MailSource)
	}

	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("%w: anthropic.api_key", common.ErrMissingConfig)
	}
	if c.YNABToken == "" {
		return fmt.Errorf("%w: ynab.token", common.ErrMissingConfig)
	}
	if c.YNABBudgetID == "" {
		return fmt.Errorf("%w: ynab.budget_id", common.ErrMissingConfig)
	}

	return c.validateAccounts()
}

func (c *Config) validateAccounts() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("%w: accounts", common.ErrMissingConfig)
	}

	seen := make(map[string]bool, len(c.Accounts))
	defaults := 0
	for i, acct := range c.Accounts {
		if strings.TrimSpace(acct.Name) == "" {
			return fmt.Errorf("%w: accounts[%d] missing name", common.ErrInvalidConfig, i)
		}
		if strings.TrimSpace(acct.YNABID) == "" {
			return fmt.Errorf("%w: account %q missing ynab_id", common.ErrInvalidConfig, acct.Name)
		}
		if seen[acct.Name] {
			return fmt.Errorf("%w: duplicate account name %q", common.ErrInvalidConfig, acct.Name)
		}
		seen[acct.Name] = true
		if acct.Default {
			defaults++
		}
	}

	if defaults == 0 {
		return fmt.Errorf("%w: no account marked default", common.ErrInvalidConfig)
	}
	if defaults > 1 {
		return fmt.Errorf("%w: multiple accounts marked default", common.ErrInvalidConfig)
	}
	return nil
}

// DefaultAccount returns the single account marked default. Validate
// guarantees it exists.
func (c *Config) DefaultAccount() model.Account {
	for _, acct := range c.Accounts {
		if acct.Default {
			return acct
		}
	}
	return model.Account{}
}
