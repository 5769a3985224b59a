package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	simulateMetric string
	simulateValue  float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-signal",
	Short: "Classify a hypothetical normalized value and dispatch the alert",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateMetric == "" {
			return errors.New("--metric is required")
		}
		if simulateValue < 0 || simulateValue > 100 {
			return errors.New("--value must be within [0, 100]")
		}

		return getApp().SimulateSignal(cmd.Context(), simulateMetric, simulateValue)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateMetric, "metric", "", "Metric to simulate (deviation, vix)")
	simulateCmd.Flags().Float64Var(&simulateValue, "value", 50, "Normalized value on the 0-100 scale")
}
