package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"finance-metrics/internal/fetcher"
	"finance-metrics/internal/metrics"
)

// MacroOptions configure the economic-indicator snapshot command.
type MacroOptions struct {
	Indicator string
	Since     string
	Growth    bool
	Inverted  bool
}

func (a *App) newEconFetcher() (fetcher.EconomicSeriesFetcher, error) {
	if a.Config.FRED.APIKey == "" {
		return nil, nil
	}
	return fetcher.NewFRED(fetcher.FREDOptions{
		BaseURL: a.Config.FRED.BaseURL,
		APIKey:  a.Config.FRED.APIKey,
		Timeout: a.Config.FRED.RequestTimeout,
	}, a.Logger)
}

// Macro fetches one economic indicator series, rescales it against its own
// history, and prints the current reading.
func (a *App) Macro(ctx context.Context, opts MacroOptions) error {
	seriesID, err := metrics.EconomicSeriesID(opts.Indicator)
	if err != nil {
		return err
	}

	econ, err := a.newEconFetcher()
	if err != nil {
		return err
	}
	if econ == nil {
		return errors.New("fred.api_key not configured")
	}

	since := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	if opts.Since != "" {
		since, err = time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return fmt.Errorf("parse --since: %w", err)
		}
	}

	raw, err := econ.FetchSeries(ctx, seriesID, since, time.Now().UTC().AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("fetch %s: %w", seriesID, err)
	}

	if opts.Growth {
		raw, err = metrics.YoYGrowth(raw, 12)
		if err != nil {
			return err
		}
	}

	econOpts := metrics.DefaultEconomicOptions(opts.Indicator)
	econOpts.Inverted = opts.Inverted
	result, err := metrics.ComputeEconomic(raw, econOpts)
	if err != nil {
		return err
	}

	sample, err := result.Latest()
	if err != nil {
		return err
	}
	stats := metrics.Summarize(result.Raw)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Indicator\t%s (%s)\n", opts.Indicator, seriesID)
	fmt.Fprintf(writer, "Date\t%s\n", sample.Time.UTC().Format("2006-01-02"))
	fmt.Fprintf(writer, "Value\t%.2f\n", sample.Raw)
	fmt.Fprintf(writer, "Mean since %s\t%.2f\n", since.Format("2006-01-02"), stats.Mean)
	fmt.Fprintf(writer, "Range\t%.2f - %.2f\n", stats.Min, stats.Max)
	fmt.Fprintf(writer, "Normalized\t%.1f / 100\n", sample.Normalized)
	fmt.Fprintf(writer, "Signal\t%s\n", sample.Signal)
	writer.Flush()
	return nil
}
