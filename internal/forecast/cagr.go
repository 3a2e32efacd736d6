package forecast

import (
	"fmt"
	"math"
)

// CAGR computes the compound annual growth rate of values ordered oldest to
// newest, using len(values)-1 periods.
func CAGR(values []float64) (float64, error) {
	if len(values) < 2 {
		return 0, fmt.Errorf("need at least two values to compute CAGR, got %d", len(values))
	}
	start := values[0]
	end := values[len(values)-1]
	if start <= 0 {
		return 0, fmt.Errorf("start value must be positive for CAGR, got %.4f", start)
	}
	if end < 0 {
		return 0, fmt.Errorf("end value must be non-negative for CAGR, got %.4f", end)
	}
	periods := float64(len(values) - 1)
	return math.Pow(end/start, 1/periods) - 1, nil
}
