package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/golfclub/internal/dependencies/random"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithRandom(random.New())
}

// NewRootCmdWithRandom creates the root command with rnd as the source of
// retry jitter
func NewRootCmdWithRandom(rnd random.Random) *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "golfctl",
		Short: "CLI tool for the golf club API",
		Long: `golfctl is a CLI tool for interacting with the golf club JSON API.

It covers member and tournament management, registrations, searches and
revenue reports. Writes that lose a concurrent update are retried.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.ServerURL, rnd, cfg.Retries)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: GOLFCTL_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json (env: GOLFCTL_OUTPUT)")
	rootCmd.PersistentFlags().IntVar(&cfg.Retries, "retries", cfg.Retries, "Retries for concurrent-update conflicts (env: GOLFCTL_RETRIES)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newMemberCmd())
	rootCmd.AddCommand(newTournamentCmd())
	rootCmd.AddCommand(newRegistrationCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
