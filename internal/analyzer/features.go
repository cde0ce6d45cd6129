package analyzer

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// histogramDividers splits [0, 255] into 10 equal bins. The final divider sits
// just above 255 so the last bin is closed.
var histogramDividers = func() []float64 {
	d := make([]float64, 11)
	for i := range d {
		d[i] = float64(i) * 25.5
	}
	d[10] = math.Nextafter(255, math.Inf(1))
	return d
}()

var featurePercentiles = [...]float64{25, 50, 75, 90, 95}

// featureAssembler implements FeatureAssembler
type featureAssembler struct{}

// NewFeatureAssembler creates the feature vector builder
func NewFeatureAssembler() FeatureAssembler {
	return featureAssembler{}
}

// Assemble builds the feature vector from the map, its statistics and the
// filtered regions. It is pure: identical inputs yield identical vectors.
func (featureAssembler) Assemble(m *ErrorMap, stats ErrorStats, regions []SuspiciousRegion) FeatureVector {
	var v FeatureVector

	v[featGlobal+0] = stats.Mean
	v[featGlobal+1] = stats.Max
	v[featGlobal+2] = stats.Std
	v[featGlobal+3] = stats.Median
	v[featGlobal+4] = stats.Threshold
	v[featGlobal+5] = float64(stats.SuspiciousPixels)
	v[featGlobal+6] = stats.SuspiciousPercentage

	agg := regionAggregates(regions)
	copy(v[featRegions:featHistogram], agg[:])

	total := m.Len()
	if total == 0 {
		return v
	}

	hist := m.Histogram256()
	bins := stat.Histogram(nil, histogramDividers, byteValues, histogramWeights(hist))
	floats.Scale(1/float64(total), bins)
	copy(v[featHistogram:featPercentile], bins)

	for i, p := range featurePercentiles {
		v[featPercentile+i] = percentileFromHistogram(hist, total, p)
	}

	h, w := edgeEnergy(m)
	v[featEdges+0] = h
	v[featEdges+1] = w
	return v
}

// regionAggregates returns count, mean size, max size, mean intensity and
// population std of sizes. All zero when there are no regions.
func regionAggregates(regions []SuspiciousRegion) [5]float64 {
	var out [5]float64
	if len(regions) == 0 {
		return out
	}
	sizes := make([]float64, len(regions))
	intensities := make([]float64, len(regions))
	for i, r := range regions {
		sizes[i] = float64(r.PixelCount)
		intensities[i] = r.MeanIntensity
	}
	out[0] = float64(len(regions))
	out[1], out[4] = stat.PopMeanStdDev(sizes, nil)
	out[2] = floats.Max(sizes)
	out[3] = stat.Mean(intensities, nil)
	return out
}

// edgeEnergy sums absolute differences between vertically adjacent pixels
// (first result) and horizontally adjacent pixels (second result).
func edgeEnergy(m *ErrorMap) (float64, float64) {
	var vertical, horizontal int64
	for y := 0; y < m.Height(); y++ {
		row := m.Row(y)
		for x := 1; x < len(row); x++ {
			horizontal += absDiff(row[x], row[x-1])
		}
		if y == 0 {
			continue
		}
		prev := m.Row(y - 1)
		for x := range row {
			vertical += absDiff(row[x], prev[x])
		}
	}
	return float64(vertical), float64(horizontal)
}

func absDiff(a, b uint8) int64 {
	if a > b {
		return int64(a - b)
	}
	return int64(b - a)
}
