package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"finance-metrics/internal/metrics"
	"finance-metrics/internal/timeseries"
)

const (
	wtiSymbol   = "CL=F"
	brentSymbol = "BZ=F"
)

// OilSpreadOptions configure the crude-spread snapshot command.
type OilSpreadOptions struct {
	Since string
}

// OilSpread fetches WTI and Brent crude closes and prints the current
// Brent-minus-WTI spread.
func (a *App) OilSpread(ctx context.Context, opts OilSpreadOptions) error {
	since := time.Now().UTC().AddDate(-1, 0, 0)
	if opts.Since != "" {
		parsed, err := time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return fmt.Errorf("parse --since: %w", err)
		}
		since = parsed
	}
	to := time.Now().UTC().AddDate(0, 0, 1)

	bars := a.newBarFetcher()
	wti, err := bars.FetchDailyCloses(ctx, wtiSymbol, since, to)
	if err != nil {
		return fmt.Errorf("fetch %s closes: %w", wtiSymbol, err)
	}
	brent, err := bars.FetchDailyCloses(ctx, brentSymbol, since, to)
	if err != nil {
		return fmt.Errorf("fetch %s closes: %w", brentSymbol, err)
	}

	spread, err := metrics.OilSpread(wti, brent)
	if err != nil {
		return err
	}

	last, err := spread.Last()
	if err != nil {
		return err
	}
	stats := metrics.Summarize(spread)

	wtiLast, _ := wti.Last()
	brentLast, _ := brent.Last()

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Date\t%s\n", last.Time.UTC().Format("2006-01-02"))
	fmt.Fprintf(writer, "WTI\t%s\n", formatClose(wtiLast.Value))
	fmt.Fprintf(writer, "Brent\t%s\n", formatClose(brentLast.Value))
	fmt.Fprintf(writer, "Spread\t%s\n", formatClose(last.Value))
	fmt.Fprintf(writer, "Mean spread\t%.2f\n", stats.Mean)
	fmt.Fprintf(writer, "Range\t%.2f - %.2f\n", stats.Min, stats.Max)
	writer.Flush()
	return nil
}

func formatClose(v float64) string {
	if timeseries.IsMissing(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
