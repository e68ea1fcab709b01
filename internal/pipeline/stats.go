package pipeline

import (
	"math"
	"slices"
)

// sortedCopy returns the samples in ascending order without touching src.
func sortedCopy(src []float32) []float32 {
	s := make([]float32, len(src))
	copy(s, src)
	slices.Sort(s)
	return s
}

// percentileSorted interpolates linearly between order statistics, matching
// the common "linear" definition: rank = p/100·(n-1).
func percentileSorted(s []float32, p float64) float64 {
	n := len(s)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return float64(s[0])
	}
	if p >= 100 {
		return float64(s[n-1])
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return float64(s[lo]) + (float64(s[hi])-float64(s[lo]))*frac
}

// Percentile returns the p-th percentile (0-100) of samples.
func Percentile(samples []float32, p float64) float64 {
	return percentileSorted(sortedCopy(samples), p)
}

// Median returns the 50th percentile of samples.
func Median(samples []float32) float64 {
	return Percentile(samples, 50)
}

// Mean returns the arithmetic mean of samples, accumulated in float64.
func Mean(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += float64(v)
	}
	return sum / float64(len(samples))
}

func clip01(v float32) float32 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
