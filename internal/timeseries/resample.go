package timeseries

import (
	"math"
	"time"
)

// AggFunc reduces the non-missing values of one calendar bucket.
type AggFunc func(values []float64) float64

// Mean averages the bucket.
func Mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Last takes the most recent value in the bucket.
func Last(values []float64) float64 {
	return values[len(values)-1]
}

// Sum totals the bucket.
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// Min returns the smallest value in the bucket.
func Min(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = math.Min(m, v)
	}
	return m
}

// Max returns the largest value in the bucket.
func Max(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = math.Max(m, v)
	}
	return m
}

// ResampleWeekly groups observations into calendar weeks anchored to the
// week-end (the following Sunday, UTC) and reduces each week with agg.
// Partial weeks at either edge keep whatever points fall inside them; weeks
// whose points are all missing yield a missing observation.
func (s Series) ResampleWeekly(agg AggFunc) Series {
	if len(s.points) == 0 {
		return Series{}
	}

	out := make([]Point, 0, len(s.points)/5+1)
	bucketEnd := weekEnd(s.points[0].Time)
	bucket := make([]float64, 0, 7)

	flush := func() {
		value := Missing
		if len(bucket) > 0 {
			value = agg(bucket)
		}
		out = append(out, Point{Time: bucketEnd, Value: value})
		bucket = bucket[:0]
	}

	for _, p := range s.points {
		for dateOf(p.Time).After(bucketEnd) {
			flush()
			bucketEnd = bucketEnd.AddDate(0, 0, 7)
		}
		if !IsMissing(p.Value) {
			bucket = append(bucket, p.Value)
		}
	}
	flush()

	return Series{points: out}
}

// dateOf truncates t to its UTC calendar date. Week membership is decided
// by date, so an intra-day Sunday observation still belongs to that Sunday's
// bucket.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekEnd returns the Sunday (UTC, midnight) on or after t's date.
func weekEnd(t time.Time) time.Time {
	day := dateOf(t)
	offset := (7 - int(day.Weekday())) % 7
	return day.AddDate(0, 0, offset)
}
