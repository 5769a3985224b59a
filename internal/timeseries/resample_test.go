package timeseries

import (
	"testing"
	"time"
)

func TestResampleWeeklyLast(t *testing.T) {
	// Wed 2024-01-03 .. Tue 2024-01-09 spans two calendar weeks anchored to
	// Sunday: {3,4,5,6,7} and {8,9}.
	points := []Point{
		{Time: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Value: 1},
		{Time: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), Value: 2},
		{Time: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Value: 3},
		{Time: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Value: 4},
		{Time: time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), Value: 5},
	}
	s, err := New(points)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}

	weekly := s.ResampleWeekly(Last)
	if weekly.Len() != 2 {
		t.Fatalf("expected 2 weeks, got %d: %v", weekly.Len(), weekly.Points())
	}

	first := weekly.At(0)
	if !first.Time.Equal(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("first bucket should end Sunday 2024-01-07, got %s", first.Time)
	}
	if first.Value != 3 {
		t.Fatalf("partial leading week must keep only its own points, got %v", first.Value)
	}

	second := weekly.At(1)
	if !second.Time.Equal(time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("second bucket should end Sunday 2024-01-14, got %s", second.Time)
	}
	if second.Value != 5 {
		t.Fatalf("partial trailing week must be retained, got %v", second.Value)
	}
}

func TestResampleWeeklyMean(t *testing.T) {
	points := []Point{
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 10},
		{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 20},
		{Time: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Value: Missing},
	}
	s, err := New(points)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}

	weekly := s.ResampleWeekly(Mean)
	if weekly.Len() != 1 {
		t.Fatalf("expected 1 week, got %d", weekly.Len())
	}
	if got := weekly.At(0).Value; got != 15 {
		t.Fatalf("mean should skip missing values, got %v", got)
	}
}

func TestResampleWeeklyAllMissingBucket(t *testing.T) {
	points := []Point{
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: Missing},
	}
	s, err := New(points)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	weekly := s.ResampleWeekly(Mean)
	if weekly.Len() != 1 || !IsMissing(weekly.At(0).Value) {
		t.Fatalf("all-missing bucket should stay missing: %v", weekly.Points())
	}
}

func TestResampleWeeklyIntraDaySunday(t *testing.T) {
	// Daily bars stamped mid-day (crypto style): a Sunday observation still
	// belongs to that Sunday's bucket, with no empty leading week.
	points := []Point{
		{Time: time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC), Value: 5}, // Sunday
		{Time: time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC), Value: 7}, // Monday
	}
	s, err := New(points)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}

	weekly := s.ResampleWeekly(Last)
	if weekly.Len() != 2 {
		t.Fatalf("expected 2 weeks, got %d: %v", weekly.Len(), weekly.Points())
	}

	first := weekly.At(0)
	if !first.Time.Equal(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("first bucket should end Sunday 2024-01-07, got %s", first.Time)
	}
	if first.Value != 5 {
		t.Fatalf("intra-day Sunday point must land in its own week, got %v", first.Value)
	}

	second := weekly.At(1)
	if !second.Time.Equal(time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("second bucket should end Sunday 2024-01-14, got %s", second.Time)
	}
	if second.Value != 7 {
		t.Fatalf("Monday point belongs to the following week, got %v", second.Value)
	}
}

func TestAggregators(t *testing.T) {
	values := []float64{3, 1, 2}
	if got := Sum(values); got != 6 {
		t.Fatalf("sum: %v", got)
	}
	if got := Min(values); got != 1 {
		t.Fatalf("min: %v", got)
	}
	if got := Max(values); got != 3 {
		t.Fatalf("max: %v", got)
	}
	if got := Last(values); got != 2 {
		t.Fatalf("last: %v", got)
	}
}
