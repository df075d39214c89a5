// internal/service/report/bands.go

package report

import (
	"math"
	"sort"
)

// Marker flags a value far above or below the median of its dataset
type Marker int

const (
	MarkerNone Marker = iota
	MarkerHigh
	MarkerLow
)

// Severity is the colour band of a chart bar
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

const (
	highRatio = 1.33
	lowRatio  = 0.66
)

// Bands holds the thresholds derived from one dataset
type Bands struct {
	Mean       float64
	Median     float64
	Thresholds [3]int
}

// ComputeBands derives mean, median and the mean, 2x mean and 3x mean thresholds
func ComputeBands(data map[string]int) Bands {
	if len(data) == 0 {
		return Bands{}
	}

	values := make([]int, 0, len(data))
	sum := 0
	for _, v := range data {
		values = append(values, v)
		sum += v
	}
	sort.Ints(values)

	mean := float64(sum) / float64(len(values))

	var median float64
	mid := len(values) / 2
	if len(values)%2 == 1 {
		median = float64(values[mid])
	} else {
		median = float64(values[mid-1]+values[mid]) / 2
	}

	return Bands{
		Mean:   mean,
		Median: median,
		Thresholds: [3]int{
			int(math.Floor(mean)),
			int(math.Floor(mean * 2)),
			int(math.Floor(mean * 3)),
		},
	}
}

// Marker returns the median marker of v; both bounds are inclusive and high is checked first
func (b Bands) Marker(v int) Marker {
	f := float64(v)
	switch {
	case f >= b.Median*highRatio:
		return MarkerHigh
	case f <= b.Median*lowRatio:
		return MarkerLow
	default:
		return MarkerNone
	}
}

// Severity returns the highest threshold band v reaches
func (b Bands) Severity(v int) Severity {
	switch {
	case v >= b.Thresholds[2]:
		return SeverityHigh
	case v >= b.Thresholds[1]:
		return SeverityMedium
	case v >= b.Thresholds[0]:
		return SeverityLow
	default:
		return SeverityNone
	}
}
