package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrEmpty indicates an operation required at least one observation.
	ErrEmpty = errors.New("timeseries: series is empty")
	// ErrUnordered indicates timestamps were not strictly increasing.
	ErrUnordered = errors.New("timeseries: timestamps must be strictly increasing")
)

// Missing is the sentinel for absent observations.
var Missing = math.NaN()

// IsMissing reports whether v is the missing sentinel.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Point is a single timestamped observation. A NaN value means missing.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is an ordered sequence of observations with strictly increasing
// timestamps. Once built it is treated as immutable; transforms return new
// series.
type Series struct {
	points []Point
}

// New builds a series from points, validating timestamp order.
func New(points []Point) (Series, error) {
	for i := 1; i < len(points); i++ {
		if !points[i].Time.After(points[i-1].Time) {
			return Series{}, fmt.Errorf("%w: index %d (%s) not after %s",
				ErrUnordered, i, points[i].Time.Format(time.RFC3339), points[i-1].Time.Format(time.RFC3339))
		}
	}
	copied := make([]Point, len(points))
	copy(copied, points)
	return Series{points: copied}, nil
}

// FromValues builds a series from parallel timestamp/value slices.
func FromValues(times []time.Time, values []float64) (Series, error) {
	if len(times) != len(values) {
		return Series{}, fmt.Errorf("timeseries: %d timestamps but %d values", len(times), len(values))
	}
	points := make([]Point, len(times))
	for i := range times {
		points[i] = Point{Time: times[i], Value: values[i]}
	}
	return New(points)
}

// Len returns the number of observations, missing included.
func (s Series) Len() int { return len(s.points) }

// At returns the i-th observation.
func (s Series) At(i int) Point { return s.points[i] }

// Points returns a copy of the underlying observations.
func (s Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Values returns the observation values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Value
	}
	return out
}

// Last returns the most recent observation.
func (s Series) Last() (Point, error) {
	if len(s.points) == 0 {
		return Point{}, ErrEmpty
	}
	return s.points[len(s.points)-1], nil
}

// ValidValues returns all non-missing values in order.
func (s Series) ValidValues() []float64 {
	out := make([]float64, 0, len(s.points))
	for _, p := range s.points {
		if !IsMissing(p.Value) {
			out = append(out, p.Value)
		}
	}
	return out
}

// Window returns the sub-series with from <= t < to.
func (s Series) Window(from, to time.Time) Series {
	out := make([]Point, 0, len(s.points))
	for _, p := range s.points {
		if p.Time.Before(from) || !p.Time.Before(to) {
			continue
		}
		out = append(out, p)
	}
	return Series{points: out}
}

// Since returns the sub-series with t >= from.
func (s Series) Since(from time.Time) Series {
	out := make([]Point, 0, len(s.points))
	for _, p := range s.points {
		if p.Time.Before(from) {
			continue
		}
		out = append(out, p)
	}
	return Series{points: out}
}

// Map applies fn to every value, missing included, preserving timestamps.
func (s Series) Map(fn func(float64) float64) Series {
	out := make([]Point, len(s.points))
	for i, p := range s.points {
		out[i] = Point{Time: p.Time, Value: fn(p.Value)}
	}
	return Series{points: out}
}
