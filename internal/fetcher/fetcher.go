package fetcher

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finance-metrics/internal/timeseries"
)

// BarFetcher retrieves a daily close series for a ticker symbol.
type BarFetcher interface {
	FetchDailyCloses(ctx context.Context, symbol string, from, to time.Time) (timeseries.Series, error)
}

// OptionsChainFetcher retrieves a current put/call snapshot for an underlying.
type OptionsChainFetcher interface {
	FetchPutCallRatio(ctx context.Context, underlying string) (PutCallRatio, error)
}

// FlatFileFetcher retrieves historical put/call data from the flat-file store.
type FlatFileFetcher interface {
	PutCallRatioForDate(ctx context.Context, date time.Time, underlying string) (PutCallRatio, error)
}

// EconomicSeriesFetcher retrieves one economic indicator series by its
// provider-side identifier.
type EconomicSeriesFetcher interface {
	FetchSeries(ctx context.Context, seriesID string, from, to time.Time) (timeseries.Series, error)
}

// FileLister enumerates object keys in the flat-file store.
type FileLister interface {
	ListFiles(ctx context.Context, prefix, monthFilter string, max int) ([]string, error)
}

// PutCallRatio aggregates one day (or one snapshot) of options activity.
// Ratio pointers are nil when the denominator was zero.
type PutCallRatio struct {
	Underlying       string
	AsOf             time.Time
	PutVolume        int64
	CallVolume       int64
	VolumeRatio      *decimal.Decimal
	PutOpenInterest  int64
	CallOpenInterest int64
	OIRatio          *decimal.Decimal
	Contracts        int
}

func ratioOf(numerator, denominator int64) *decimal.Decimal {
	if denominator == 0 {
		return nil
	}
	r := decimal.NewFromInt(numerator).Div(decimal.NewFromInt(denominator))
	return &r
}
