package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propfirm/api"
	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/config"
	"github.com/rustyeddy/propfirm/internal/logging"
	"github.com/rustyeddy/propfirm/journal"
)

var rootCmd = &cobra.Command{
	Use:   "propfirm",
	Short: "Prop firm challenge risk evaluation and admin tooling",
	Long: `Propfirm evaluates simulated prop trading challenges against their plan
rules and lets admins manage challenge status.

It provides tools for:
  - Evaluating an account snapshot (profit target, daily loss, max drawdown)
  - Creating and listing challenges in a local SQLite journal
  - Recording equity readings with once-per-day daily resets
  - Overriding challenge status with an admin note, locally or via the platform API
  - Exporting status history and equity as CSV or Org-mode`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfgPath  string
	logLevel string
	dbPath   string

	cfg *config.Config
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "path to SQLite journal DB (overrides config)")
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if dbPath != "" {
		c.Store.Type = "sqlite"
		c.Store.DBPath = dbPath
	}

	l, err := logging.New(cmd.ErrOrStderr(), c.Log.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(l)
	cfg = c
	return nil
}

var errNeedsSQLite = errors.New("this command needs the sqlite store (set store.type or --db)")

func openJournal() (*journal.SQLite, error) {
	if cfg.Store.Type != "sqlite" {
		return nil, errNeedsSQLite
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	j, err := journal.NewSQLite(cfg.Store.DBPath, journal.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

// openStore returns the configured challenge store and a close func.
func openStore() (challenge.Store, func() error, error) {
	if cfg.Store.Type == "api" {
		timeout, err := cfg.API.TimeoutDuration()
		if err != nil {
			return nil, nil, err
		}
		return api.NewClient(cfg.API.BaseURL, cfg.API.Token, timeout), func() error { return nil }, nil
	}

	j, err := openJournal()
	if err != nil {
		return nil, nil, err
	}
	return j, j.Close, nil
}
