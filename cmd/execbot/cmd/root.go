package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "execbot",
	Short: "Regime-following execution bot for a single terminal symbol",
	Long: `Execbot trades one symbol on one timeframe through a terminal gateway.

Each cycle it:
  - reads equity, the current tick and recent bars
  - classifies the regime from ATR, ADX, EMA and a Donchian channel
  - applies the spread, daily loss/target and trade count gates
  - manages open positions (breakeven, trail, cut or hedge)
  - or sizes and places a new entry when flat

Run against the built-in simulator with --sim, or a terminal bridge
configured in the bridge section of the config file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
