package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"finance-metrics/internal/fetcher"
)

// FilesOptions configure the flat-file listing command.
type FilesOptions struct {
	Dataset string
	Month   string
	Max     int
}

// Files lists available flat-file objects for a dataset, optionally
// narrowed to one YYYY-MM month.
func (a *App) Files(ctx context.Context, opts FilesOptions) error {
	prefix, err := a.datasetPrefix(opts.Dataset)
	if err != nil {
		return err
	}

	flat, err := a.newFlatFetcher()
	if err != nil {
		return err
	}
	if flat == nil {
		return errors.New("flatfiles credentials not configured")
	}
	lister, ok := flat.(fetcher.FileLister)
	if !ok {
		return errors.New("flat-file fetcher does not support listing")
	}

	keys, err := lister.ListFiles(ctx, prefix, opts.Month, opts.Max)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(os.Stdout, "no files found")
		return nil
	}

	for _, key := range keys {
		fmt.Fprintln(os.Stdout, key)
	}
	return nil
}

func (a *App) datasetPrefix(dataset string) (string, error) {
	switch dataset {
	case "", "day_aggs":
		return a.Config.FlatFiles.DayAggsPrefix, nil
	case "trades":
		return a.Config.FlatFiles.TradesPrefix, nil
	default:
		return "", fmt.Errorf("dataset must be day_aggs or trades, got %q", dataset)
	}
}
