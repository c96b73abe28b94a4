package utils

import (
	"math"
)

// roundFloat rounds a float64 to a specified number of decimal places.
func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// CountStats returns the mean and sample standard deviation of counts,
// rounded to four decimals. A single value has a deviation of zero.
func CountStats(counts []int64) (float64, float64) {
	n := len(counts)
	if n == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, c := range counts {
		sum += float64(c)
	}
	average := sum / float64(n)

	if n < 2 {
		return roundFloat(average, 4), 0
	}

	varianceSum := 0.0
	for _, c := range counts {
		varianceSum += math.Pow(float64(c)-average, 2)
	}
	stdDev := math.Sqrt(varianceSum / float64(n-1))

	return roundFloat(average, 4), roundFloat(stdDev, 4)
}
