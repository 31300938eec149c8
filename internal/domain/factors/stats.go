package factors

import (
	"math"
	"sort"
)

// Median of xs; 0 for an empty slice.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// Mean of xs; 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Stdev is the population standard deviation.
func Stdev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// Slope is the least-squares slope of ys over xs.
func Slope(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0
	}
	mx, my := Mean(xs), Mean(ys)
	var num, den float64
	for i := range xs {
		num += (xs[i] - mx) * (ys[i] - my)
		den += (xs[i] - mx) * (xs[i] - mx)
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Baseline returns the median of samples when there are enough of them,
// else fallback.
func (c Config) Baseline(samples []float64, fallback float64) float64 {
	if len(samples) < c.MinBaselineSamples {
		return fallback
	}
	return Median(samples)
}

// ConfidenceFor maps the number of days with data to a damping factor.
func (c Config) ConfidenceFor(daysWithData int) float64 {
	for _, tier := range c.Confidence.Tiers {
		if daysWithData >= tier.MinDays {
			return tier.Value
		}
	}
	return c.Confidence.Floor
}
