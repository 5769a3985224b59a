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

// PutCall fetches and prints one put/call ratio snapshot. Source "api" reads
// the live chain snapshot; "flatfiles" reads the daily aggregates file for
// the given date.
func (a *App) PutCall(ctx context.Context, opts PutCallOptions) error {
	if opts.Symbol == "" {
		opts.Symbol = a.Config.Metrics.PutCall.Symbol
	}
	if opts.Symbol == "" {
		return errors.New("--symbol is required")
	}
	if opts.Source == "" {
		opts.Source = a.Config.Metrics.PutCall.Source
	}

	var (
		ratio fetcher.PutCallRatio
		err   error
	)
	switch opts.Source {
	case "flatfiles":
		ratio, err = a.putCallFromFlatFiles(ctx, opts)
	case "api":
		ratio, err = a.putCallFromAPI(ctx, opts)
	default:
		return fmt.Errorf("source must be api or flatfiles, got %q", opts.Source)
	}
	if err != nil {
		return err
	}

	printPutCall(ratio)
	return nil
}

func (a *App) putCallFromAPI(ctx context.Context, opts PutCallOptions) (fetcher.PutCallRatio, error) {
	chain, err := a.newChainFetcher()
	if err != nil {
		return fetcher.PutCallRatio{}, err
	}
	if chain == nil {
		return fetcher.PutCallRatio{}, errors.New("options_api.api_key not configured")
	}
	return chain.FetchPutCallRatio(ctx, opts.Symbol)
}

func (a *App) putCallFromFlatFiles(ctx context.Context, opts PutCallOptions) (fetcher.PutCallRatio, error) {
	flat, err := a.newFlatFetcher()
	if err != nil {
		return fetcher.PutCallRatio{}, err
	}
	if flat == nil {
		return fetcher.PutCallRatio{}, errors.New("flatfiles credentials not configured")
	}

	date := time.Now().UTC().AddDate(0, 0, -1)
	if opts.Date != "" {
		date, err = time.Parse("2006-01-02", opts.Date)
		if err != nil {
			return fetcher.PutCallRatio{}, fmt.Errorf("parse --date: %w", err)
		}
	}
	return flat.PutCallRatioForDate(ctx, date, opts.Symbol)
}

func printPutCall(ratio fetcher.PutCallRatio) {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintf(writer, "Underlying\t%s\n", ratio.Underlying)
	fmt.Fprintf(writer, "As of\t%s\n", ratio.AsOf.UTC().Format("2006-01-02"))
	fmt.Fprintf(writer, "Contracts\t%d\n", ratio.Contracts)
	fmt.Fprintf(writer, "Put volume\t%d\n", ratio.PutVolume)
	fmt.Fprintf(writer, "Call volume\t%d\n", ratio.CallVolume)
	if ratio.VolumeRatio != nil {
		fmt.Fprintf(writer, "P/C volume ratio\t%s (%s)\n",
			ratio.VolumeRatio.StringFixed(3), metrics.InterpretPutCall(ratio.VolumeRatio))
	} else {
		fmt.Fprintf(writer, "P/C volume ratio\t%s\n", metrics.PutCallIndeterminate)
	}
	if ratio.PutOpenInterest > 0 || ratio.CallOpenInterest > 0 {
		fmt.Fprintf(writer, "Put open interest\t%d\n", ratio.PutOpenInterest)
		fmt.Fprintf(writer, "Call open interest\t%d\n", ratio.CallOpenInterest)
		if ratio.OIRatio != nil {
			fmt.Fprintf(writer, "P/C OI ratio\t%s (%s)\n",
				ratio.OIRatio.StringFixed(3), metrics.InterpretPutCall(ratio.OIRatio))
		}
	}

	writer.Flush()
}
