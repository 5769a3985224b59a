package metrics

import (
	"math"
	"testing"
	"time"

	"finance-metrics/internal/normalize"
	"finance-metrics/internal/timeseries"
)

func daily(t *testing.T, start time.Time, values ...float64) timeseries.Series {
	t.Helper()
	points := make([]timeseries.Point, len(values))
	for i, v := range values {
		points[i] = timeseries.Point{Time: start.AddDate(0, 0, i), Value: v}
	}
	s, err := timeseries.New(points)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := daily(t, start, 1, 2, 3, 4, 5)

	sma, err := SMA(s, 3)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}

	if !timeseries.IsMissing(sma.At(0).Value) || !timeseries.IsMissing(sma.At(1).Value) {
		t.Error("expected missing before window fills")
	}
	if !almostEqual(sma.At(2).Value, 2) {
		t.Errorf("expected sma 2 at index 2, got %v", sma.At(2).Value)
	}
	if !almostEqual(sma.At(4).Value, 4) {
		t.Errorf("expected sma 4 at index 4, got %v", sma.At(4).Value)
	}
}

func TestSMAMissingInWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := daily(t, start, 1, timeseries.Missing, 3, 4, 5)

	sma, err := SMA(s, 3)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}

	// Windows covering the gap stay missing.
	for i := 0; i < 4; i++ {
		if !timeseries.IsMissing(sma.At(i).Value) {
			t.Errorf("index %d: expected missing, got %v", i, sma.At(i).Value)
		}
	}
	if !almostEqual(sma.At(4).Value, 4) {
		t.Errorf("expected sma 4 once window clears gap, got %v", sma.At(4).Value)
	}
}

func TestSMAInvalidPeriod(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := SMA(daily(t, start, 1, 2), 0); err == nil {
		t.Fatal("expected error for zero period")
	}
}

func TestDeviation(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := daily(t, start, 100, 110, 90)
	sma := daily(t, start, 100, 100, 100)

	dev, err := Deviation(closes, sma)
	if err != nil {
		t.Fatalf("Deviation: %v", err)
	}
	if !almostEqual(dev.At(0).Value, 0) {
		t.Errorf("expected 0, got %v", dev.At(0).Value)
	}
	if !almostEqual(dev.At(1).Value, 0.1) {
		t.Errorf("expected 0.1, got %v", dev.At(1).Value)
	}
	if !almostEqual(dev.At(2).Value, -0.1) {
		t.Errorf("expected -0.1, got %v", dev.At(2).Value)
	}
}

func TestDeviationZeroAverage(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := daily(t, start, 100)
	sma := daily(t, start, 0)

	dev, err := Deviation(closes, sma)
	if err != nil {
		t.Fatalf("Deviation: %v", err)
	}
	if !timeseries.IsMissing(dev.At(0).Value) {
		t.Errorf("expected missing for zero average, got %v", dev.At(0).Value)
	}
}

func TestComputeDeviation(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Ramp with a spike at the end so deviations span a real calibration
	// range and finish at its top.
	values := make([]float64, 30)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	values[29] = 160
	closes := daily(t, start, values...)

	opts := DefaultDeviationOptions()
	opts.SMAPeriod = 5
	opts.CalibrationStart = start

	result, err := ComputeDeviation(closes, opts)
	if err != nil {
		t.Fatalf("ComputeDeviation: %v", err)
	}

	if result.Normalized.Len() != closes.Len() {
		t.Fatalf("expected %d normalized points, got %d", closes.Len(), result.Normalized.Len())
	}
	if len(result.Signals) != closes.Len() {
		t.Fatalf("expected %d signals, got %d", closes.Len(), len(result.Signals))
	}
	if result.Bounds.Lower > result.Bounds.Upper {
		t.Errorf("bounds out of order: %+v", result.Bounds)
	}

	// Warmup observations carry no signal information.
	for i := 0; i < opts.SMAPeriod-1; i++ {
		if result.Signals[i] != normalize.SignalInsufficientData {
			t.Errorf("index %d: expected Insufficient Data during warmup, got %s", i, result.Signals[i])
		}
	}
	// The spike ends at the top of the calibration range.
	last := result.Signals[len(result.Signals)-1]
	if last != normalize.SignalStrongBullish {
		t.Errorf("expected Strong Bullish tail signal, got %s", last)
	}

	sample, err := result.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if sample.Metric != MetricDeviation {
		t.Errorf("unexpected metric name %s", sample.Metric)
	}
	if sample.Signal != last {
		t.Errorf("sample signal %s does not match tail signal %s", sample.Signal, last)
	}
}

func TestDeviationWeekly(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // a Monday
	values := make([]float64, 15)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	closes := daily(t, start, values...)

	opts := DefaultDeviationOptions()
	opts.SMAPeriod = 3
	opts.CalibrationStart = start

	result, err := ComputeDeviation(closes, opts)
	if err != nil {
		t.Fatalf("ComputeDeviation: %v", err)
	}

	weekly, signals := result.Weekly(opts.RawThresholds)
	if weekly.Len() != 3 {
		t.Fatalf("expected 3 weekly buckets, got %d", weekly.Len())
	}
	if len(signals) != weekly.Len() {
		t.Fatalf("expected %d weekly signals, got %d", weekly.Len(), len(signals))
	}
	for i := 0; i < weekly.Len(); i++ {
		if weekly.At(i).Time.Weekday() != time.Sunday {
			t.Errorf("bucket %d not anchored to Sunday: %s", i, weekly.At(i).Time)
		}
	}
}
