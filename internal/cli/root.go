// Package cli holds the signal-core command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X signal-core/internal/cli.Version=...".
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "signal-core",
	Short: "Real-time market signal engine for Binance spot",
	Long: `signal-core streams Binance trades, keeps rolling statistics per symbol,
evaluates configured strategies on every tick and routes approved orders
through a drawdown-aware risk gate to a paper ledger or the exchange.

Settings come from the environment (or a .env file); strategies come from
the YAML file named by STRATEGIES_FILE.`,
	SilenceUsage: true,
}

// Execute runs the root command. With no subcommand it starts the engine.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.RunE = runEngine
}
