package cli

import (
	"github.com/spf13/cobra"

	"finance-metrics/internal/app"
)

var (
	putCallSymbol string
	putCallDate   string
	putCallSource string
)

var putCallCmd = &cobra.Command{
	Use:   "putcall",
	Short: "Fetch and print a put/call ratio snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.PutCallOptions{
			Symbol: putCallSymbol,
			Date:   putCallDate,
			Source: putCallSource,
		}
		return getApp().PutCall(cmd.Context(), opts)
	},
}

func init() {
	putCallCmd.Flags().StringVar(&putCallSymbol, "symbol", "", "Underlying symbol (defaults to config)")
	putCallCmd.Flags().StringVar(&putCallDate, "date", "", "Trading date YYYY-MM-DD for flat-file source (defaults to yesterday)")
	putCallCmd.Flags().StringVar(&putCallSource, "source", "", "Data source: api or flatfiles (defaults to config)")
}
