// Package metrics derives sentiment indicators from market data series:
// a moving-average deviation index, a volatility-based fear gauge, and
// options put/call ratios. Each indicator produces raw values, a 0-100
// normalized series, and bucketed signals.
package metrics

import (
	"time"

	"finance-metrics/internal/normalize"
	"finance-metrics/internal/timeseries"
)

// Metric identifiers used for persistence and CLI selection.
const (
	MetricDeviation = "deviation"
	MetricVIX       = "vix"
	MetricPutCall   = "putcall"
)

// Sample is one persisted observation of a metric.
type Sample struct {
	Metric     string
	Time       time.Time
	Raw        float64
	Normalized float64
	Signal     normalize.Signal
}

// Stats summarises the valid values of a series.
type Stats struct {
	Count   int
	Mean    float64
	Min     float64
	Max     float64
	Current float64
	PctUp   float64
	PctDown float64
}

// Summarize computes summary statistics over the non-missing values.
// An all-missing series yields a zero Count and missing fields.
func Summarize(s timeseries.Series) Stats {
	valid := s.ValidValues()
	if len(valid) == 0 {
		return Stats{
			Mean: timeseries.Missing, Min: timeseries.Missing,
			Max: timeseries.Missing, Current: timeseries.Missing,
		}
	}

	stats := Stats{Count: len(valid), Min: valid[0], Max: valid[0], Current: valid[len(valid)-1]}
	var sum float64
	var up, down int
	for _, v := range valid {
		sum += v
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
		if v > 0 {
			up++
		}
		if v < 0 {
			down++
		}
	}
	stats.Mean = sum / float64(len(valid))
	stats.PctUp = float64(up) / float64(len(valid)) * 100
	stats.PctDown = float64(down) / float64(len(valid)) * 100
	return stats
}
