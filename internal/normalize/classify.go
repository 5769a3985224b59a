package normalize

import (
	"fmt"

	"finance-metrics/internal/timeseries"
)

// Signal is an ordered sentiment bucket.
type Signal string

const (
	SignalStrongBearish    Signal = "Strong Bearish"
	SignalBearish          Signal = "Bearish"
	SignalBullish          Signal = "Bullish"
	SignalStrongBullish    Signal = "Strong Bullish"
	SignalInsufficientData Signal = "Insufficient Data"
)

// Thresholds are the four ascending cut points for signal bucketing.
//
// Bucketing is inclusive-ascending: v <= T1 is Strong Bearish, T1 < v <= T2
// is Bearish, T2 < v <= T3 is Bullish, and anything above T3 is Strong
// Bullish. T4 marks the top of the Strong Bullish calibration band; values
// beyond it stay Strong Bullish.
type Thresholds struct {
	T1 float64
	T2 float64
	T3 float64
	T4 float64
}

// NewThresholds validates and builds a threshold tuple.
func NewThresholds(t1, t2, t3, t4 float64) (Thresholds, error) {
	t := Thresholds{T1: t1, T2: t2, T3: t3, T4: t4}
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// Validate enforces T1 <= T2 <= T3 <= T4.
func (t Thresholds) Validate() error {
	if t.T1 > t.T2 || t.T2 > t.T3 || t.T3 > t.T4 {
		return fmt.Errorf("normalize: thresholds must be ascending, got (%g, %g, %g, %g)", t.T1, t.T2, t.T3, t.T4)
	}
	return nil
}

// Classify maps a single value onto a signal. Missing values are always
// Insufficient Data.
func Classify(v float64, t Thresholds) Signal {
	switch {
	case timeseries.IsMissing(v):
		return SignalInsufficientData
	case v <= t.T1:
		return SignalStrongBearish
	case v <= t.T2:
		return SignalBearish
	case v <= t.T3:
		return SignalBullish
	default:
		return SignalStrongBullish
	}
}

// ClassifySeries classifies every observation, in order.
func ClassifySeries(s timeseries.Series, t Thresholds) []Signal {
	out := make([]Signal, s.Len())
	for i := 0; i < s.Len(); i++ {
		out[i] = Classify(s.At(i).Value, t)
	}
	return out
}

// Strong reports whether a signal is one of the two extreme buckets.
func (s Signal) Strong() bool {
	return s == SignalStrongBearish || s == SignalStrongBullish
}

// Inverted flips the bullish/bearish direction of a signal. Used for gauges
// where a high reading means fear rather than strength.
func (s Signal) Inverted() Signal {
	switch s {
	case SignalStrongBearish:
		return SignalStrongBullish
	case SignalBearish:
		return SignalBullish
	case SignalBullish:
		return SignalBearish
	case SignalStrongBullish:
		return SignalStrongBearish
	default:
		return s
	}
}
