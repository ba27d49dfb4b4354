// sim/metrics_utils.go
package sim

import (
	"math"
	"time"
)

type IntOrFloat64 interface {
	int | int64 | float64 | time.Duration
}

// CalculatePercentile linearly interpolates the p-th percentile of sorted data.
// data must be sorted ascending and non-empty.
func CalculatePercentile[T IntOrFloat64](data []T, p float64) float64 {
	n := len(data)
	if n == 0 {
		panic("CalculatePercentile: empty data")
	}
	if p <= 0 {
		return float64(data[0])
	}
	if p >= 100 {
		return float64(data[n-1])
	}

	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))
	if lowerIdx == upperIdx {
		return float64(data[lowerIdx])
	}
	lowerVal := float64(data[lowerIdx])
	upperVal := float64(data[upperIdx])
	return lowerVal + (upperVal-lowerVal)*(rank-float64(lowerIdx))
}
