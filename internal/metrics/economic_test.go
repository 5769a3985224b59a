package metrics

import (
	"testing"
	"time"

	"finance-metrics/internal/normalize"
	"finance-metrics/internal/timeseries"
)

func monthly(t *testing.T, start time.Time, values ...float64) timeseries.Series {
	t.Helper()
	points := make([]timeseries.Point, len(values))
	for i, v := range values {
		points[i] = timeseries.Point{Time: start.AddDate(0, i, 0), Value: v}
	}
	s, err := timeseries.New(points)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

func TestEconomicSeriesID(t *testing.T) {
	id, err := EconomicSeriesID("unemployment")
	if err != nil {
		t.Fatalf("EconomicSeriesID: %v", err)
	}
	if id != "UNRATE" {
		t.Errorf("expected UNRATE, got %s", id)
	}

	if _, err := EconomicSeriesID("consumer_sentiment"); err != nil {
		t.Errorf("consumer_sentiment should resolve: %v", err)
	}
	if _, err := EconomicSeriesID("nope"); err == nil {
		t.Error("expected error for unknown indicator")
	}
}

func TestYoYGrowth(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	values := make([]float64, 14)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	s := monthly(t, start, values...)

	growth, err := YoYGrowth(s, 12)
	if err != nil {
		t.Fatalf("YoYGrowth: %v", err)
	}

	for i := 0; i < 12; i++ {
		if !timeseries.IsMissing(growth.At(i).Value) {
			t.Errorf("index %d: expected missing before base window, got %v", i, growth.At(i).Value)
		}
	}
	// 112 vs 100 a year earlier.
	if !almostEqual(growth.At(12).Value, 12) {
		t.Errorf("expected 12%% growth at index 12, got %v", growth.At(12).Value)
	}
	if !almostEqual(growth.At(13).Value, 13.0/101*100) {
		t.Errorf("unexpected growth at index 13: %v", growth.At(13).Value)
	}
}

func TestYoYGrowthMissingBase(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	s := monthly(t, start, timeseries.Missing, 100, 110)

	growth, err := YoYGrowth(s, 1)
	if err != nil {
		t.Fatalf("YoYGrowth: %v", err)
	}
	if !timeseries.IsMissing(growth.At(1).Value) {
		t.Errorf("expected missing growth over missing base, got %v", growth.At(1).Value)
	}
	if !almostEqual(growth.At(2).Value, 10) {
		t.Errorf("expected 10%% growth, got %v", growth.At(2).Value)
	}

	if _, err := YoYGrowth(s, 0); err == nil {
		t.Error("expected error for non-positive periods")
	}
}

func TestComputeEconomic(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := monthly(t, start, 60, 70, 80, 90, 100)

	result, err := ComputeEconomic(s, DefaultEconomicOptions("consumer_sentiment"))
	if err != nil {
		t.Fatalf("ComputeEconomic: %v", err)
	}

	if result.Normalized.At(0).Value != 0 {
		t.Errorf("expected lowest reading at 0, got %v", result.Normalized.At(0).Value)
	}
	if result.Normalized.At(4).Value != 100 {
		t.Errorf("expected highest reading at 100, got %v", result.Normalized.At(4).Value)
	}
	if result.Signals[4] != normalize.SignalStrongBullish {
		t.Errorf("expected Strong Bullish at the top, got %s", result.Signals[4])
	}

	sample, err := result.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if sample.Raw != 100 || sample.Signal != normalize.SignalStrongBullish {
		t.Errorf("unexpected latest sample %+v", sample)
	}
}

func TestComputeEconomicInverted(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := monthly(t, start, 3.5, 3.7, 4.0, 5.5, 8.0)

	opts := DefaultEconomicOptions("unemployment")
	opts.Inverted = true

	result, err := ComputeEconomic(s, opts)
	if err != nil {
		t.Fatalf("ComputeEconomic: %v", err)
	}
	// Peak unemployment reads bearish on the inverted scale.
	if result.Signals[4] != normalize.SignalStrongBearish {
		t.Errorf("expected Strong Bearish at peak, got %s", result.Signals[4])
	}
	if result.Signals[0] != normalize.SignalStrongBullish {
		t.Errorf("expected Strong Bullish at trough, got %s", result.Signals[0])
	}
}

func TestEconomicWeekly(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	s := daily(t, start, 10, 12, 14, 16, 18, 20, 22)

	result, err := ComputeEconomic(s, DefaultEconomicOptions("treasury_10y"))
	if err != nil {
		t.Fatalf("ComputeEconomic: %v", err)
	}

	weekly := result.Weekly()
	if weekly.Len() != 1 {
		t.Fatalf("expected 1 weekly bucket, got %d", weekly.Len())
	}
	if !almostEqual(weekly.At(0).Value, 16) {
		t.Errorf("expected weekly mean 16, got %v", weekly.At(0).Value)
	}
}

func TestOilSpread(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wti := daily(t, start, 70, 71, timeseries.Missing, 73)
	brent := daily(t, start, 74, 76, 77, 78)

	spread, err := OilSpread(wti, brent)
	if err != nil {
		t.Fatalf("OilSpread: %v", err)
	}

	if spread.Len() != 4 {
		t.Fatalf("expected 4 spread points, got %d", spread.Len())
	}
	if !almostEqual(spread.At(0).Value, 4) {
		t.Errorf("expected spread 4, got %v", spread.At(0).Value)
	}
	if !almostEqual(spread.At(1).Value, 5) {
		t.Errorf("expected spread 5, got %v", spread.At(1).Value)
	}
	if !timeseries.IsMissing(spread.At(2).Value) {
		t.Errorf("expected missing spread over missing leg, got %v", spread.At(2).Value)
	}
}

func TestOilSpreadDisjoint(t *testing.T) {
	wti := daily(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 70, 71)
	brent := daily(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 74, 76)

	if _, err := OilSpread(wti, brent); err == nil {
		t.Error("expected error for disjoint series")
	}
}
