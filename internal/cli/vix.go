package cli

import (
	"github.com/spf13/cobra"
)

var vixCmd = &cobra.Command{
	Use:   "vix",
	Short: "Print the current volatility sentiment reading",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().VIX(cmd.Context())
	},
}
