package analyzer

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// byteValues holds 0..255 as floats, used as the sample axis for weighted statistics
var byteValues = func() []float64 {
	v := make([]float64, 256)
	for i := range v {
		v[i] = float64(i)
	}
	return v
}()

// adaptiveThresholder implements Thresholder
type adaptiveThresholder struct {
	multiplier float64
}

// NewThresholder creates a thresholder computing mean + multiplier*std
func NewThresholder(multiplier float64) Thresholder {
	return &adaptiveThresholder{multiplier: multiplier}
}

// Compute derives the global error statistics and the suspicious-pixel cut-off.
// Every statistic is computed from the 256-bin value histogram, so the cost does
// not depend on image size beyond building the histogram.
func (t *adaptiveThresholder) Compute(m *ErrorMap) ErrorStats {
	total := m.Len()
	if total == 0 {
		return ErrorStats{}
	}

	hist := m.Histogram256()
	weights := histogramWeights(hist)
	mean, std := stat.PopMeanStdDev(byteValues, weights)
	threshold := mean + t.multiplier*std

	suspicious := countAbove(hist, threshold)
	return ErrorStats{
		Mean:                 mean,
		Max:                  float64(m.Max()),
		Std:                  std,
		Median:               percentileFromHistogram(hist, total, 50),
		Threshold:            threshold,
		SuspiciousPixels:     suspicious,
		SuspiciousPercentage: float64(suspicious) / float64(total) * 100,
	}
}

func histogramWeights(hist [256]int) []float64 {
	w := make([]float64, 256)
	for i, c := range hist {
		w[i] = float64(c)
	}
	return w
}

// countAbove counts pixels strictly greater than threshold
func countAbove(hist [256]int, threshold float64) int {
	n := 0
	for v, c := range hist {
		if float64(v) > threshold {
			n += c
		}
	}
	return n
}

// percentileFromHistogram returns the p-th percentile with linear interpolation
// between the two nearest order statistics.
func percentileFromHistogram(hist [256]int, total int, p float64) float64 {
	if total == 0 {
		return 0
	}
	rank := p / 100 * float64(total-1)
	lo := int(math.Floor(rank))
	frac := rank - float64(lo)

	vlo := valueAtRank(hist, lo)
	if frac == 0 || lo+1 >= total {
		return float64(vlo)
	}
	vhi := valueAtRank(hist, lo+1)
	return float64(vlo) + (float64(vhi)-float64(vlo))*frac
}

// valueAtRank returns the k-th smallest value (0-based)
func valueAtRank(hist [256]int, k int) int {
	seen := 0
	for v, c := range hist {
		seen += c
		if seen > k {
			return v
		}
	}
	return 255
}
