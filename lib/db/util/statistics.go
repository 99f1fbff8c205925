// Package util
//
// This file provides small statistics helpers used to report how evenly the
// records are spread across sessions.
package util

import (
	"math"
	"slices"
)

// ----------------------------------------------------------------------------
// Statistics
// ----------------------------------------------------------------------------

type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes mean, population standard deviation, minimum and maximum
// of values. An empty input yields the zero Stats.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var squared float64
	for _, v := range values {
		squared += (v - mean) * (v - mean)
	}

	s := Stats{
		StdDeviation: math.Sqrt(squared / float64(len(values))),
		Min:          slices.Min(values),
		Max:          slices.Max(values),
		Mean:         mean,
		MinMaxRatio:  1.0,
	}
	if s.Max > 0 {
		s.MinMaxRatio = s.Min / s.Max
	}
	return s
}

type DistributionStats struct {
	Stats
	DistributionQuality float64 `json:"distribution_quality"`
}

// NewDistributionStats computes quality metrics for a value distribution,
// e.g. the number of records held by each session. The quality is 1 for a
// perfectly even distribution and approaches 0 the more skewed it gets.
func NewDistributionStats(sizes []float64) DistributionStats {
	stats := NewStats(sizes)

	// coefficient of variation
	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	return DistributionStats{
		Stats:               stats,
		DistributionQuality: (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5,
	}
}
