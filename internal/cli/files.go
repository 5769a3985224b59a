package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"finance-metrics/internal/app"
)

var (
	filesDataset string
	filesMonth   string
	filesMax     int
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List available flat-file objects",
	RunE: func(cmd *cobra.Command, args []string) error {
		if filesMax <= 0 {
			return fmt.Errorf("--max must be greater than zero")
		}

		opts := app.FilesOptions{
			Dataset: filesDataset,
			Month:   filesMonth,
			Max:     filesMax,
		}

		return getApp().Files(cmd.Context(), opts)
	},
}

func init() {
	filesCmd.Flags().StringVar(&filesDataset, "dataset", "day_aggs", "Dataset to list (day_aggs, trades)")
	filesCmd.Flags().StringVar(&filesMonth, "month", "", "Narrow listing to one month (YYYY-MM)")
	filesCmd.Flags().IntVar(&filesMax, "max", 50, "Maximum number of keys to list")
}
