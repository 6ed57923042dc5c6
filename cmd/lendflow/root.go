package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/lendflow/internal/cli"
	"github.com/aretw0/lendflow/internal/config"
	"github.com/aretw0/lendflow/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "lendflow",
	Short: "Lendflow is a conversational personal loan assistant",
	Long: `Lendflow walks an applicant through a personal loan: requirements,
eligibility, negotiation, PAN verification and a PDF sanction letter.

Settings come from lendflow.yaml and LENDFLOW_* environment variables.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./lendflow.yaml if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("store", "", "Session store backend: memory, file or redis")
}

// loadApp resolves the configuration, applies flag overrides and wires the app.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store.Backend = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cfg, logging.New(level))
}
