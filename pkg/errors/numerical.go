package errors

import (
	"math"
)

// CheckNumericalStability checks if values contain NaN or Inf
// and returns an error naming the first offending position.
func CheckNumericalStability(operation string, values []float64) error {
	var unstable []float64
	first := -1
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if first < 0 {
				first = i
			}
			unstable = append(unstable, v)
			if len(unstable) >= 10 {
				break
			}
		}
	}
	if first >= 0 {
		return NewNumericalInstabilityError(operation, unstable, first)
	}
	return nil
}

// CheckScalar checks a single scalar value for numerical instability.
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}
