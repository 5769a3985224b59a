package metrics

import (
	"fmt"
	"sort"

	"finance-metrics/internal/normalize"
	"finance-metrics/internal/timeseries"
)

// Provider-side identifiers for the supported economic indicators. The set
// covers the macro series that influence retail demand plus the
// consumer-facing gauges.
var economicSeriesIDs = map[string]string{
	"gdp":                    "GDP",
	"gdp_growth":             "A191RL1Q225SBEA",
	"cpi":                    "CPIAUCSL",
	"core_cpi":               "CPILFESL",
	"ppi":                    "PPIACO",
	"unemployment":           "UNRATE",
	"fed_funds":              "FEDFUNDS",
	"treasury_10y":           "DGS10",
	"housing_starts":         "HOUST",
	"retail_sales":           "RSXFS",
	"retail_sales_total":     "RSAFS",
	"consumer_sentiment":     "UMCSENT",
	"consumer_confidence":    "CSCICP03USM665S",
	"pce":                    "PCE",
	"pce_real":               "PCEC96",
	"disposable_income":      "DPI",
	"real_disposable_income": "DSPIC96",
	"personal_saving_rate":   "PSAVERT",
	"consumer_credit":        "TOTALSL",
}

// EconomicSeriesID resolves an indicator name to its provider series ID.
func EconomicSeriesID(name string) (string, error) {
	id, ok := economicSeriesIDs[name]
	if !ok {
		return "", fmt.Errorf("metrics: unknown indicator %q, available: %v", name, EconomicIndicators())
	}
	return id, nil
}

// EconomicIndicators lists the supported indicator names, sorted.
func EconomicIndicators() []string {
	names := make([]string, 0, len(economicSeriesIDs))
	for name := range economicSeriesIDs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// YoYGrowth computes the percentage change against the observation periods
// positions earlier, e.g. periods=12 on a monthly series yields the
// year-over-year rate. The first periods observations are missing, as is any
// pair with a missing or zero base.
func YoYGrowth(s timeseries.Series, periods int) (timeseries.Series, error) {
	if periods <= 0 {
		return timeseries.Series{}, fmt.Errorf("metrics: growth periods must be positive, got %d", periods)
	}

	points := s.Points()
	out := make([]timeseries.Point, len(points))
	for i, p := range points {
		value := timeseries.Missing
		if i >= periods {
			base := points[i-periods].Value
			if !timeseries.IsMissing(p.Value) && !timeseries.IsMissing(base) && base != 0 {
				value = (p.Value/base - 1) * 100
			}
		}
		out[i] = timeseries.Point{Time: p.Time, Value: value}
	}
	return timeseries.New(out)
}

// EconomicOptions tune the normalized view of one economic indicator.
type EconomicOptions struct {
	Indicator  string
	Bounds     normalize.BoundsOptions
	Thresholds normalize.Thresholds
	// Contrarian indicators (unemployment, inflation) read high as bearish.
	Inverted bool
}

// DefaultEconomicOptions calibrate against the full fetched window with the
// usual percentile bounds and midline signal cuts.
func DefaultEconomicOptions(indicator string) EconomicOptions {
	return EconomicOptions{
		Indicator:  indicator,
		Bounds:     normalize.DefaultBoundsOptions(),
		Thresholds: normalize.Thresholds{T1: 30, T2: 50, T3: 50, T4: 70},
	}
}

// EconomicResult holds the normalized view of one indicator series.
type EconomicResult struct {
	Raw        timeseries.Series
	Normalized timeseries.Series
	Bounds     normalize.Bounds
	Signals    []normalize.Signal
}

// ComputeEconomic rescales an indicator series against its own history and
// buckets the normalized values into signals.
func ComputeEconomic(raw timeseries.Series, opts EconomicOptions) (EconomicResult, error) {
	if err := opts.Thresholds.Validate(); err != nil {
		return EconomicResult{}, err
	}

	bounds, err := normalize.ComputeBounds(raw, opts.Bounds)
	if err != nil {
		return EconomicResult{}, fmt.Errorf("metrics: %s calibration: %w", opts.Indicator, err)
	}

	normalized := normalize.Series(raw, bounds)
	signals := normalize.ClassifySeries(normalized, opts.Thresholds)
	if opts.Inverted {
		for i, sig := range signals {
			signals[i] = sig.Inverted()
		}
	}

	return EconomicResult{
		Raw:        raw,
		Normalized: normalized,
		Bounds:     bounds,
		Signals:    signals,
	}, nil
}

// Latest returns the most recent observation of the indicator.
func (r EconomicResult) Latest() (Sample, error) {
	last, err := r.Normalized.Last()
	if err != nil {
		return Sample{}, err
	}
	n := r.Normalized.Len()
	return Sample{
		Time:       last.Time,
		Raw:        r.Raw.At(n - 1).Value,
		Normalized: last.Value,
		Signal:     r.Signals[n-1],
	}, nil
}

// Weekly aggregates the raw indicator to week-end buckets by mean.
func (r EconomicResult) Weekly() timeseries.Series {
	return r.Raw.ResampleWeekly(timeseries.Mean)
}

// OilSpread computes the Brent-minus-WTI crude spread over the timestamps
// the two series share. Either leg missing leaves the spread missing.
func OilSpread(wti, brent timeseries.Series) (timeseries.Series, error) {
	brentAt := make(map[int64]float64, brent.Len())
	for _, p := range brent.Points() {
		brentAt[p.Time.Unix()] = p.Value
	}

	out := make([]timeseries.Point, 0, wti.Len())
	for _, p := range wti.Points() {
		b, ok := brentAt[p.Time.Unix()]
		if !ok {
			continue
		}
		value := timeseries.Missing
		if !timeseries.IsMissing(p.Value) && !timeseries.IsMissing(b) {
			value = b - p.Value
		}
		out = append(out, timeseries.Point{Time: p.Time, Value: value})
	}
	if len(out) == 0 {
		return timeseries.Series{}, fmt.Errorf("metrics: oil series share no timestamps")
	}
	return timeseries.New(out)
}
