package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "cascade"
	version = "v1.0.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Daily chain and cumulative momentum engine",
		Version: version,
		Long: `cascade scores one tracked day into a same-day chain and a long-horizon
momentum score backed by a persisted contribution history.

Examples:
  cascade score --records days.yaml --date 2026-06-10
  cascade serve --store redis --redis-addr 127.0.0.1:6379
  cascade history show
  cascade policy`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts.logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Application config YAML")
	rootCmd.PersistentFlags().StringVar(&opts.policyPath, "policy", "", "Policy YAML (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.profilePath, "profile", "", "Profile YAML (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "Nutrition catalog YAML (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().AddFlagSet(opts.store.flagSet())

	rootCmd.AddCommand(newScoreCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newPolicyCmd(opts))
	return rootCmd
}

// setupLogging writes human-readable logs to a terminal and JSON otherwise.
func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return nil
}
