package cli

import (
	"github.com/spf13/cobra"

	"finance-metrics/internal/app"
)

var oilSpreadSince string

var oilSpreadCmd = &cobra.Command{
	Use:   "oilspread",
	Short: "Print the current Brent-minus-WTI crude spread",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().OilSpread(cmd.Context(), app.OilSpreadOptions{Since: oilSpreadSince})
	},
}

func init() {
	oilSpreadCmd.Flags().StringVar(&oilSpreadSince, "since", "", "Window start date (YYYY-MM-DD, default one year back)")
}
