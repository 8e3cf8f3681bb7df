// Package stats computes cohort statistics used to normalize raw features.
package stats

import "math"

// Summary holds the population mean and standard deviation for one feature.
type Summary struct {
	Mean float64
	Std  float64
}

// Describe computes the mean and sample standard deviation (Bessel's
// correction, n-1) of the samples. A zero or undefined deviation is floored
// to 1.0 so z-score computation never divides by zero. An empty sample
// yields {Mean: 0, Std: 1}.
func Describe(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{Mean: 0, Std: 1}
	}

	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := sum / float64(len(samples))

	std := 1.0
	if len(samples) >= 2 {
		var ss float64
		for _, v := range samples {
			d := v - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(len(samples)-1))
		if std == 0 || math.IsNaN(std) {
			std = 1.0
		}
	}

	return Summary{Mean: mean, Std: std}
}

// ZScore converts a raw value to units of standard deviation from the
// cohort mean. A nil value scores 0.
func ZScore(value *float64, s Summary) float64 {
	if value == nil {
		return 0
	}
	return (*value - s.Mean) / s.Std
}
