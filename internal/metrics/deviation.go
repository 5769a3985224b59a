package metrics

import (
	"fmt"
	"time"

	"finance-metrics/internal/normalize"
	"finance-metrics/internal/timeseries"
)

// DeviationOptions tune the moving-average deviation index.
type DeviationOptions struct {
	Symbol               string
	SMAPeriod            int
	CalibrationStart     time.Time
	Bounds               normalize.BoundsOptions
	RawThresholds        normalize.Thresholds
	NormalizedThresholds normalize.Thresholds
}

// DefaultDeviationOptions mirror the QQQ 200-day convention: raw signal cuts
// at -5% and +5%, normalized cuts at 30 and 70, bounds calibrated against
// everything since the start of 2015.
func DefaultDeviationOptions() DeviationOptions {
	return DeviationOptions{
		Symbol:               "QQQ",
		SMAPeriod:            200,
		CalibrationStart:     time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		Bounds:               normalize.DefaultBoundsOptions(),
		RawThresholds:        normalize.Thresholds{T1: -0.05, T2: 0, T3: 0, T4: 0.05},
		NormalizedThresholds: normalize.Thresholds{T1: 30, T2: 50, T3: 50, T4: 70},
	}
}

// DeviationResult holds the full output of a deviation computation.
type DeviationResult struct {
	Closes     timeseries.Series
	SMA        timeseries.Series
	Deviation  timeseries.Series
	Normalized timeseries.Series
	Bounds     normalize.Bounds
	Signals    []normalize.Signal
}

// SMA computes a simple moving average. The first period-1 observations are
// missing, as is any window containing a missing close.
func SMA(s timeseries.Series, period int) (timeseries.Series, error) {
	if period <= 0 {
		return timeseries.Series{}, fmt.Errorf("metrics: sma period must be positive, got %d", period)
	}

	points := s.Points()
	out := make([]timeseries.Point, len(points))
	var sum float64
	missing := 0

	for i, p := range points {
		if timeseries.IsMissing(p.Value) {
			missing++
		} else {
			sum += p.Value
		}
		if i >= period {
			old := points[i-period].Value
			if timeseries.IsMissing(old) {
				missing--
			} else {
				sum -= old
			}
		}

		value := timeseries.Missing
		if i >= period-1 && missing == 0 {
			value = sum / float64(period)
		}
		out[i] = timeseries.Point{Time: p.Time, Value: value}
	}

	return timeseries.New(out)
}

// Deviation computes (close - sma) / sma per observation. Missing inputs and
// zero averages propagate as missing.
func Deviation(closes, sma timeseries.Series) (timeseries.Series, error) {
	if closes.Len() != sma.Len() {
		return timeseries.Series{}, fmt.Errorf("metrics: %d closes but %d sma values", closes.Len(), sma.Len())
	}

	out := make([]timeseries.Point, closes.Len())
	for i := 0; i < closes.Len(); i++ {
		c, m := closes.At(i), sma.At(i)
		value := timeseries.Missing
		if !timeseries.IsMissing(c.Value) && !timeseries.IsMissing(m.Value) && m.Value != 0 {
			value = (c.Value - m.Value) / m.Value
		}
		out[i] = timeseries.Point{Time: c.Time, Value: value}
	}
	return timeseries.New(out)
}

// ComputeDeviation derives the full deviation index from a daily close
// series. Normalization bounds come from the calibration window; signals are
// bucketed on the normalized scale.
func ComputeDeviation(closes timeseries.Series, opts DeviationOptions) (DeviationResult, error) {
	if err := opts.RawThresholds.Validate(); err != nil {
		return DeviationResult{}, err
	}
	if err := opts.NormalizedThresholds.Validate(); err != nil {
		return DeviationResult{}, err
	}

	sma, err := SMA(closes, opts.SMAPeriod)
	if err != nil {
		return DeviationResult{}, err
	}
	deviation, err := Deviation(closes, sma)
	if err != nil {
		return DeviationResult{}, err
	}

	bounds, err := normalize.ComputeBounds(deviation.Since(opts.CalibrationStart), opts.Bounds)
	if err != nil {
		return DeviationResult{}, fmt.Errorf("metrics: deviation calibration: %w", err)
	}

	normalized := normalize.Series(deviation, bounds)
	return DeviationResult{
		Closes:     closes,
		SMA:        sma,
		Deviation:  deviation,
		Normalized: normalized,
		Bounds:     bounds,
		Signals:    normalize.ClassifySeries(normalized, opts.NormalizedThresholds),
	}, nil
}

// Latest returns the most recent observation as a storable sample.
func (r DeviationResult) Latest() (Sample, error) {
	last, err := r.Normalized.Last()
	if err != nil {
		return Sample{}, err
	}
	n := r.Normalized.Len()
	return Sample{
		Metric:     MetricDeviation,
		Time:       last.Time,
		Raw:        r.Deviation.At(n - 1).Value,
		Normalized: last.Value,
		Signal:     r.Signals[n-1],
	}, nil
}

// Weekly aggregates the raw deviation to week-end buckets, keeping the last
// observation of each week, and re-buckets signals on the raw thresholds.
func (r DeviationResult) Weekly(raw normalize.Thresholds) (timeseries.Series, []normalize.Signal) {
	weekly := r.Deviation.ResampleWeekly(timeseries.Last)
	return weekly, normalize.ClassifySeries(weekly, raw)
}
