package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"finance-metrics/internal/metrics"
	"finance-metrics/internal/service"
)

// VIX fetches a year of volatility index data and prints the current
// sentiment reading.
func (a *App) VIX(ctx context.Context) error {
	opts, err := service.VIXOptions(a.Config)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	closes, err := a.newBarFetcher().FetchDailyCloses(ctx, opts.Symbol, now.AddDate(-1, 0, 0), now.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("fetch %s closes: %w", opts.Symbol, err)
	}

	result, err := metrics.ComputeVIX(closes, opts)
	if err != nil {
		return err
	}

	last, err := result.Closes.Last()
	if err != nil {
		return err
	}
	n := result.Closes.Len()

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Date\t%s\n", last.Time.UTC().Format("2006-01-02"))
	fmt.Fprintf(writer, "Level\t%.2f\n", last.Value)
	fmt.Fprintf(writer, "Regime\t%s\n", result.Labels[n-1])
	fmt.Fprintf(writer, "Score\t%+.0f\n", result.Scores[n-1])
	fmt.Fprintf(writer, "Percentile (1y)\t%.1f\n", result.Percentiles.At(n-1).Value)
	fmt.Fprintf(writer, "Normalized\t%.1f / 100\n", result.Normalized.At(n-1).Value)
	fmt.Fprintf(writer, "Signal\t%s\n", result.Signals[n-1])
	writer.Flush()
	return nil
}
