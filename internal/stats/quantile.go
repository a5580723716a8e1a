package stats

import "math"

// NearestRank returns the percentile of a sorted sample using the
// nearest-rank method: the element whose index is round(p/100 * (n-1)),
// clamped to the valid range. The sample must be non-empty and sorted
// ascending.
func NearestRank(sorted []float64, percentile float64) float64 {
	n := len(sorted)
	idx := int(math.Round(percentile / 100 * float64(n-1)))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}
