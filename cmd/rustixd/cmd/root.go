package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rustixd",
	Short: "A market analytics service for stock movement, correlation and portfolio profit",
	Long: `Rustixd serves financial market analytics over a JSON HTTP API.

It provides:
  - Performance and volatility statistics over calendar periods
  - Bulk movement ranking (winners, losers, volume, volatility)
  - Pearson correlation between securities and correlating-pair search
  - Split-adjusted price series and split lookups
  - Portfolio bookkeeping and profit valuation`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
