package normalize

import (
	"errors"
	"fmt"
	"sort"

	"finance-metrics/internal/timeseries"
)

var (
	// ErrInsufficientData indicates the calibration window had no usable values.
	ErrInsufficientData = errors.New("normalize: calibration window has no usable values")
)

// Bounds are the normalization anchors derived from a calibration window.
// Lower <= Upper always holds for bounds produced by ComputeBounds.
type Bounds struct {
	Lower float64
	Upper float64
}

// Degenerate reports whether the calibration window had zero variance.
func (b Bounds) Degenerate() bool {
	return b.Lower == b.Upper
}

// BoundsOptions parameterise bound computation.
type BoundsOptions struct {
	// LowerPercentile and UpperPercentile are in [0,100], lower < upper.
	LowerPercentile float64
	UpperPercentile float64
	// UsePercentiles selects empirical percentiles; false uses raw min/max.
	UsePercentiles bool
}

// DefaultBoundsOptions mirror the 1st/99th percentile calibration convention.
func DefaultBoundsOptions() BoundsOptions {
	return BoundsOptions{LowerPercentile: 1, UpperPercentile: 99, UsePercentiles: true}
}

// Validate checks the percentile configuration.
func (o BoundsOptions) Validate() error {
	if !o.UsePercentiles {
		return nil
	}
	if o.LowerPercentile < 0 || o.LowerPercentile > 100 {
		return fmt.Errorf("normalize: lower percentile %.4g outside [0,100]", o.LowerPercentile)
	}
	if o.UpperPercentile < 0 || o.UpperPercentile > 100 {
		return fmt.Errorf("normalize: upper percentile %.4g outside [0,100]", o.UpperPercentile)
	}
	if o.LowerPercentile >= o.UpperPercentile {
		return fmt.Errorf("normalize: lower percentile %.4g must be below upper %.4g", o.LowerPercentile, o.UpperPercentile)
	}
	return nil
}

// ComputeBounds derives normalization bounds from a calibration series.
// Missing values are dropped first; an empty remainder is an error.
func ComputeBounds(calibration timeseries.Series, opts BoundsOptions) (Bounds, error) {
	if err := opts.Validate(); err != nil {
		return Bounds{}, err
	}

	valid := calibration.ValidValues()
	if len(valid) == 0 {
		return Bounds{}, ErrInsufficientData
	}

	sort.Float64s(valid)
	if opts.UsePercentiles {
		return Bounds{
			Lower: quantile(valid, opts.LowerPercentile/100),
			Upper: quantile(valid, opts.UpperPercentile/100),
		}, nil
	}
	return Bounds{Lower: valid[0], Upper: valid[len(valid)-1]}, nil
}

// quantile computes the empirical quantile of sorted values at p in [0,1]
// with linear interpolation between order statistics.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(h)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
