package metrics

import (
	"fmt"
	"sort"

	"finance-metrics/internal/normalize"
	"finance-metrics/internal/timeseries"
)

// Volatility regime labels, from calm to panicked.
const (
	VIXExtremeComplacency = "Extreme Complacency"
	VIXComplacent         = "Complacent"
	VIXNeutral            = "Neutral"
	VIXFear               = "Fear"
	VIXExtremeFear        = "Extreme Fear"
	VIXUnknown            = "Unknown"
)

// VIXOptions tune the volatility sentiment gauge. Levels are the raw index
// cut points for regime labels; NormalizedThresholds bucket the 0-100 scale.
type VIXOptions struct {
	Symbol               string
	Levels               normalize.Thresholds
	NormalizedThresholds normalize.Thresholds
	Bounds               normalize.BoundsOptions
}

// DefaultVIXOptions use the conventional 12/15/20/30 regime cuts.
func DefaultVIXOptions() VIXOptions {
	return VIXOptions{
		Symbol:               "^VIX",
		Levels:               normalize.Thresholds{T1: 12, T2: 15, T3: 20, T4: 30},
		NormalizedThresholds: normalize.Thresholds{T1: 30, T2: 50, T3: 70, T4: 85},
		Bounds:               normalize.DefaultBoundsOptions(),
	}
}

// VIXResult holds the full output of a volatility sentiment computation.
type VIXResult struct {
	Closes      timeseries.Series
	Normalized  timeseries.Series
	Percentiles timeseries.Series
	Bounds      normalize.Bounds
	Labels      []string
	Scores      []float64
	Signals     []normalize.Signal
}

// VIXLabel maps a raw index level to its regime label.
func VIXLabel(v float64, levels normalize.Thresholds) string {
	switch {
	case timeseries.IsMissing(v):
		return VIXUnknown
	case v > levels.T4:
		return VIXExtremeFear
	case v > levels.T3:
		return VIXFear
	case v > levels.T2:
		return VIXNeutral
	case v > levels.T1:
		return VIXComplacent
	default:
		return VIXExtremeComplacency
	}
}

// VIXScore maps a raw index level to a -2..+2 sentiment score. High
// volatility reads as fear, so the scale is inverted: -2 is extreme fear,
// +2 is extreme complacency. Missing values score 0.
func VIXScore(v float64, levels normalize.Thresholds) float64 {
	switch {
	case timeseries.IsMissing(v):
		return 0
	case v > levels.T4:
		return -2
	case v > levels.T3:
		return -1
	case v > levels.T2:
		return 0
	case v > levels.T1:
		return 1
	default:
		return 2
	}
}

// PercentileRank maps each observation to its percentile (0-100] within the
// series, averaging ranks over ties. Missing values stay missing.
func PercentileRank(s timeseries.Series) timeseries.Series {
	valid := s.ValidValues()
	sorted := make([]float64, len(valid))
	copy(sorted, valid)
	sort.Float64s(sorted)
	n := float64(len(sorted))

	return s.Map(func(v float64) float64 {
		if timeseries.IsMissing(v) || n == 0 {
			return timeseries.Missing
		}
		below := sort.SearchFloat64s(sorted, v)
		above := sort.Search(len(sorted), func(i int) bool { return sorted[i] > v })
		avgRank := (float64(below) + float64(above) + 1) / 2
		return avgRank / n * 100
	})
}

// ComputeVIX derives the volatility sentiment gauge from a daily close
// series of the index. The whole input acts as the calibration window.
// Signals are classified on the normalized scale and then inverted, since a
// high reading means fear rather than strength.
func ComputeVIX(closes timeseries.Series, opts VIXOptions) (VIXResult, error) {
	if err := opts.Levels.Validate(); err != nil {
		return VIXResult{}, err
	}
	if err := opts.NormalizedThresholds.Validate(); err != nil {
		return VIXResult{}, err
	}

	bounds, err := normalize.ComputeBounds(closes, opts.Bounds)
	if err != nil {
		return VIXResult{}, fmt.Errorf("metrics: vix calibration: %w", err)
	}
	normalized := normalize.Series(closes, bounds)

	labels := make([]string, closes.Len())
	scores := make([]float64, closes.Len())
	for i := 0; i < closes.Len(); i++ {
		v := closes.At(i).Value
		labels[i] = VIXLabel(v, opts.Levels)
		scores[i] = VIXScore(v, opts.Levels)
	}

	signals := normalize.ClassifySeries(normalized, opts.NormalizedThresholds)
	for i, s := range signals {
		signals[i] = s.Inverted()
	}

	return VIXResult{
		Closes:      closes,
		Normalized:  normalized,
		Percentiles: PercentileRank(closes),
		Bounds:      bounds,
		Labels:      labels,
		Scores:      scores,
		Signals:     signals,
	}, nil
}

// Latest returns the most recent observation as a storable sample.
func (r VIXResult) Latest() (Sample, error) {
	last, err := r.Normalized.Last()
	if err != nil {
		return Sample{}, err
	}
	n := r.Normalized.Len()
	return Sample{
		Metric:     MetricVIX,
		Time:       last.Time,
		Raw:        r.Closes.At(n - 1).Value,
		Normalized: last.Value,
		Signal:     r.Signals[n-1],
	}, nil
}

// Weekly aggregates the normalized gauge to week-end buckets by mean.
func (r VIXResult) Weekly() timeseries.Series {
	return r.Normalized.ResampleWeekly(timeseries.Mean)
}
