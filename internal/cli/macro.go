package cli

import (
	"github.com/spf13/cobra"

	"finance-metrics/internal/app"
)

var (
	macroIndicator string
	macroSince     string
	macroGrowth    bool
	macroInverted  bool
)

var macroCmd = &cobra.Command{
	Use:   "macro",
	Short: "Print the current reading of an economic indicator",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.MacroOptions{
			Indicator: macroIndicator,
			Since:     macroSince,
			Growth:    macroGrowth,
			Inverted:  macroInverted,
		}

		return getApp().Macro(cmd.Context(), opts)
	},
}

func init() {
	macroCmd.Flags().StringVar(&macroIndicator, "indicator", "consumer_sentiment", "Indicator name (e.g. unemployment, cpi, consumer_sentiment)")
	macroCmd.Flags().StringVar(&macroSince, "since", "", "Calibration start date (YYYY-MM-DD, default 2015-01-01)")
	macroCmd.Flags().BoolVar(&macroGrowth, "growth", false, "Use the year-over-year growth rate of the series")
	macroCmd.Flags().BoolVar(&macroInverted, "inverted", false, "Read high values as bearish (unemployment, inflation)")
}
