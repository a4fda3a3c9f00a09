package utils

import "math"

// Point budgets for chart series
const (
	CapitalizationMaxPoints = 50
	CandlesMaxPoints        = 200
)

// Downsample reduces an ordered-by-date series to at most maxPoints
// entries. The first and last records are always kept; interior slots pick
// the record at round(i*(N-1)/(M-1)), skipping a candidate equal to the
// previous pick so the output never carries adjacent duplicates.
func Downsample[T comparable](records []T, maxPoints int) []T {
	n := len(records)
	if maxPoints < 2 || n <= maxPoints {
		return records
	}

	result := make([]T, 0, maxPoints)
	result = append(result, records[0])
	step := float64(n-1) / float64(maxPoints-1)

	for i := 1; i < maxPoints-1; i++ {
		idx := int(math.Round(float64(i) * step))
		if idx < n && records[idx] != result[len(result)-1] {
			result = append(result, records[idx])
		}
	}

	if result[len(result)-1] != records[n-1] {
		result = append(result, records[n-1])
	}

	return result
}
