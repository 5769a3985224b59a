package timeseries

import (
	"errors"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func mustSeries(t *testing.T, values ...float64) Series {
	t.Helper()
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Time: day(i + 1), Value: v}
	}
	s, err := New(points)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

func TestNewRejectsUnorderedTimestamps(t *testing.T) {
	_, err := New([]Point{
		{Time: day(2), Value: 1},
		{Time: day(1), Value: 2},
	})
	if !errors.Is(err, ErrUnordered) {
		t.Fatalf("expected ErrUnordered, got %v", err)
	}

	_, err = New([]Point{
		{Time: day(1), Value: 1},
		{Time: day(1), Value: 2},
	})
	if !errors.Is(err, ErrUnordered) {
		t.Fatalf("duplicate timestamps should be rejected, got %v", err)
	}
}

func TestValidValuesDropsMissing(t *testing.T) {
	s := mustSeries(t, 1, Missing, 3, Missing)
	got := s.ValidValues()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("unexpected valid values: %v", got)
	}
}

func TestWindowHalfOpen(t *testing.T) {
	s := mustSeries(t, 1, 2, 3, 4, 5)
	w := s.Window(day(2), day(4))
	if w.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", w.Len())
	}
	if w.At(0).Value != 2 || w.At(1).Value != 3 {
		t.Fatalf("unexpected window values: %v", w.Values())
	}
}

func TestLastEmpty(t *testing.T) {
	var s Series
	if _, err := s.Last(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestFromValuesLengthMismatch(t *testing.T) {
	if _, err := FromValues([]time.Time{day(1)}, nil); err == nil {
		t.Fatal("length mismatch should be rejected")
	}
}
