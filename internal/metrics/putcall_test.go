package metrics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finance-metrics/internal/timeseries"
)

func ratioPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func TestInterpretPutCall(t *testing.T) {
	cases := []struct {
		ratio *decimal.Decimal
		want  string
	}{
		{ratioPtr(1.5), PutCallVeryBearish},
		{ratioPtr(1.3), PutCallBearish},
		{ratioPtr(1.1), PutCallBearish},
		{ratioPtr(1.0), PutCallNeutral},
		{ratioPtr(0.8), PutCallNeutral},
		{ratioPtr(0.7), PutCallBullish},
		{ratioPtr(0.6), PutCallBullish},
		{ratioPtr(0.5), PutCallVeryBullish},
		{ratioPtr(0.3), PutCallVeryBullish},
		{nil, PutCallIndeterminate},
	}
	for _, tc := range cases {
		if got := InterpretPutCall(tc.ratio); got != tc.want {
			t.Errorf("InterpretPutCall(%v) = %s, want %s", tc.ratio, got, tc.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := daily(t, start, -1, timeseries.Missing, 0, 2, 3)

	stats := Summarize(s)
	if stats.Count != 4 {
		t.Fatalf("expected count 4, got %d", stats.Count)
	}
	if !almostEqual(stats.Mean, 1) {
		t.Errorf("expected mean 1, got %v", stats.Mean)
	}
	if stats.Min != -1 || stats.Max != 3 {
		t.Errorf("unexpected min/max %v/%v", stats.Min, stats.Max)
	}
	if stats.Current != 3 {
		t.Errorf("expected current 3, got %v", stats.Current)
	}
	if !almostEqual(stats.PctUp, 50) || !almostEqual(stats.PctDown, 25) {
		t.Errorf("unexpected up/down pct %v/%v", stats.PctUp, stats.PctDown)
	}
}

func TestSummarizeAllMissing(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := daily(t, start, timeseries.Missing, timeseries.Missing)

	stats := Summarize(s)
	if stats.Count != 0 {
		t.Fatalf("expected count 0, got %d", stats.Count)
	}
	if !timeseries.IsMissing(stats.Mean) || !timeseries.IsMissing(stats.Current) {
		t.Error("expected missing summary fields for all-missing series")
	}
}
