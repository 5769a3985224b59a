package normalize

import (
	"errors"
	"testing"
	"time"

	"finance-metrics/internal/timeseries"
)

func seriesOf(t *testing.T, values ...float64) timeseries.Series {
	t.Helper()
	points := make([]timeseries.Point, len(values))
	for i, v := range values {
		points[i] = timeseries.Point{
			Time:  time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Value: v,
		}
	}
	s, err := timeseries.New(points)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

func TestComputeBoundsFullRange(t *testing.T) {
	cal := seriesOf(t, 10, 20, 30, 40, 50)
	b, err := ComputeBounds(cal, BoundsOptions{LowerPercentile: 0, UpperPercentile: 100, UsePercentiles: true})
	if err != nil {
		t.Fatalf("compute bounds: %v", err)
	}
	if b.Lower != 10 || b.Upper != 50 {
		t.Fatalf("expected bounds (10, 50), got (%v, %v)", b.Lower, b.Upper)
	}

	if got := Value(30, b); got != 50 {
		t.Fatalf("normalize 30 should be 50, got %v", got)
	}
	if got := Value(60, b); got != 100 {
		t.Fatalf("normalize 60 should clip to 100, got %v", got)
	}
	if got := Value(0, b); got != 0 {
		t.Fatalf("normalize 0 should clip to 0, got %v", got)
	}
}

func TestComputeBoundsMinMax(t *testing.T) {
	cal := seriesOf(t, 5, timeseries.Missing, 1, 9)
	b, err := ComputeBounds(cal, BoundsOptions{UsePercentiles: false})
	if err != nil {
		t.Fatalf("compute bounds: %v", err)
	}
	if b.Lower != 1 || b.Upper != 9 {
		t.Fatalf("expected min/max bounds (1, 9), got (%v, %v)", b.Lower, b.Upper)
	}
}

func TestComputeBoundsInterpolates(t *testing.T) {
	cal := seriesOf(t, 0, 10, 20, 30, 40)
	b, err := ComputeBounds(cal, BoundsOptions{LowerPercentile: 25, UpperPercentile: 75, UsePercentiles: true})
	if err != nil {
		t.Fatalf("compute bounds: %v", err)
	}
	if b.Lower != 10 || b.Upper != 30 {
		t.Fatalf("expected quartile bounds (10, 30), got (%v, %v)", b.Lower, b.Upper)
	}

	b, err = ComputeBounds(seriesOf(t, 0, 10), BoundsOptions{LowerPercentile: 25, UpperPercentile: 75, UsePercentiles: true})
	if err != nil {
		t.Fatalf("compute bounds: %v", err)
	}
	if b.Lower != 2.5 || b.Upper != 7.5 {
		t.Fatalf("expected interpolated bounds (2.5, 7.5), got (%v, %v)", b.Lower, b.Upper)
	}
}

func TestComputeBoundsOrderInvariant(t *testing.T) {
	cal := seriesOf(t, 7, -3, 12, 0, 5, -8, 2)
	for _, opts := range []BoundsOptions{
		DefaultBoundsOptions(),
		{LowerPercentile: 10, UpperPercentile: 90, UsePercentiles: true},
		{UsePercentiles: false},
	} {
		b, err := ComputeBounds(cal, opts)
		if err != nil {
			t.Fatalf("compute bounds: %v", err)
		}
		if b.Lower > b.Upper {
			t.Fatalf("lower bound %v exceeds upper %v for opts %+v", b.Lower, b.Upper, opts)
		}
	}
}

func TestComputeBoundsInsufficientData(t *testing.T) {
	cal := seriesOf(t, timeseries.Missing, timeseries.Missing)
	if _, err := ComputeBounds(cal, DefaultBoundsOptions()); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	var empty timeseries.Series
	if _, err := ComputeBounds(empty, DefaultBoundsOptions()); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for empty series, got %v", err)
	}
}

func TestComputeBoundsInvalidPercentiles(t *testing.T) {
	cal := seriesOf(t, 1, 2, 3)
	cases := []BoundsOptions{
		{LowerPercentile: -1, UpperPercentile: 99, UsePercentiles: true},
		{LowerPercentile: 1, UpperPercentile: 101, UsePercentiles: true},
		{LowerPercentile: 50, UpperPercentile: 50, UsePercentiles: true},
		{LowerPercentile: 90, UpperPercentile: 10, UsePercentiles: true},
	}
	for _, opts := range cases {
		if _, err := ComputeBounds(cal, opts); err == nil {
			t.Fatalf("opts %+v should be rejected", opts)
		}
	}
}

func TestNormalizeDegenerateBounds(t *testing.T) {
	b := Bounds{Lower: 4, Upper: 4}
	if !b.Degenerate() {
		t.Fatal("bounds should report degenerate")
	}
	if got := Value(4, b); got != 50 {
		t.Fatalf("degenerate bounds should emit midpoint 50, got %v", got)
	}
	if got := Value(-100, b); got != 50 {
		t.Fatalf("degenerate bounds should emit 50 for every value, got %v", got)
	}
	if got := Value(timeseries.Missing, b); !timeseries.IsMissing(got) {
		t.Fatalf("missing stays missing, got %v", got)
	}
}

func TestNormalizeRangeAndMissing(t *testing.T) {
	b := Bounds{Lower: -1, Upper: 1}
	s := seriesOf(t, -5, -1, 0, 1, 5, timeseries.Missing)
	out := Series(s, b)
	want := []float64{0, 0, 50, 100, 100, timeseries.Missing}
	for i, w := range want {
		got := out.At(i).Value
		if timeseries.IsMissing(w) {
			if !timeseries.IsMissing(got) {
				t.Fatalf("index %d: expected missing, got %v", i, got)
			}
			continue
		}
		if got != w {
			t.Fatalf("index %d: expected %v, got %v", i, w, got)
		}
		if got < 0 || got > 100 {
			t.Fatalf("index %d: %v outside [0,100]", i, got)
		}
	}
}

func TestNormalizeIdentityOnOwnScale(t *testing.T) {
	// Bounds (0,100) leave already-normalized values untouched.
	b := Bounds{Lower: 0, Upper: 100}
	for _, v := range []float64{0, 12.5, 50, 99.9, 100} {
		if got := Value(v, b); got != v {
			t.Fatalf("normalize(%v) against (0,100) should be identity, got %v", v, got)
		}
	}
}

func TestNormalizeMonotonic(t *testing.T) {
	b := Bounds{Lower: 3, Upper: 17}
	values := []float64{-10, 2, 3, 8, 16.99, 17, 40}
	prev := Value(values[0], b)
	for _, v := range values[1:] {
		cur := Value(v, b)
		if cur < prev {
			t.Fatalf("normalize not monotonic: f(%v)=%v < previous %v", v, cur, prev)
		}
		prev = cur
	}
}
