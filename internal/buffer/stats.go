package buffer

import (
	"math"
)

// Stats is a set of statistical properties of a stream of numbers.
type Stats struct {
	count          int
	min, max       float64
	argMin, argMax int
	mean           float64
}

// NewStats creates a new Stats.
func NewStats() *Stats {
	return &Stats{
		min:    math.MaxFloat64,
		max:    -math.MaxFloat64,
		argMin: -1,
		argMax: -1,
	}
}

// Push adds another element to the set.
// The first occurrence wins when tracking the position of the min and max.
func (s *Stats) Push(v float64) {
	index := s.count
	s.count++
	s.mean += (v - s.mean) / float64(s.count)

	if v < s.min {
		s.min = v
		s.argMin = index
	}

	if v > s.max {
		s.max = v
		s.argMax = index
	}
}

// Avg returns the average value of the set.
func (s Stats) Avg() float64 {
	return s.mean
}

// Min returns the smallest element.
func (s Stats) Min() float64 {
	return s.min
}

// Max returns the largest element.
func (s Stats) Max() float64 {
	return s.max
}

// ArgMin returns the 0-based position of the smallest element, -1 for an empty set.
func (s Stats) ArgMin() int {
	return s.argMin
}

// ArgMax returns the 0-based position of the largest element, -1 for an empty set.
func (s Stats) ArgMax() int {
	return s.argMax
}
