// Package normalize rescales raw indicator series onto a 0-100 scale using
// bounds calibrated against a historical window, and buckets values into a
// small ordered set of sentiment signals.
package normalize

import (
	"finance-metrics/internal/timeseries"
)

// midpoint is emitted for every value when the calibration window had zero
// variance. A flat window carries no directional information, so every
// observation sits in the middle of the scale.
const midpoint = 50.0

// Value rescales a single value against bounds, clipping to [0,100].
// Missing input yields missing output.
func Value(v float64, b Bounds) float64 {
	if timeseries.IsMissing(v) {
		return timeseries.Missing
	}
	if b.Degenerate() {
		return midpoint
	}
	scaled := (v - b.Lower) / (b.Upper - b.Lower) * 100
	if scaled < 0 {
		return 0
	}
	if scaled > 100 {
		return 100
	}
	return scaled
}

// Series rescales every observation against bounds, preserving timestamps.
func Series(s timeseries.Series, b Bounds) timeseries.Series {
	return s.Map(func(v float64) float64 {
		return Value(v, b)
	})
}
