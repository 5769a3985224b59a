package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"finance-metrics/internal/app"
)

var (
	showMetric string
	showLimit  int
	showAlerts bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent metric samples",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Metric: showMetric,
			Limit:  showLimit,
			Alerts: showAlerts,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showMetric, "metric", "", "Metric to display (deviation, vix, putcall)")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of samples to display")
	showCmd.Flags().BoolVar(&showAlerts, "alerts", false, "Display recent alerts instead of samples")
}
