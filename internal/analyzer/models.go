package analyzer

import "image"

// ErrorStats holds the global statistics of an error map
type ErrorStats struct {
	Mean                 float64
	Max                  float64
	Std                  float64
	Median               float64
	Threshold            float64
	SuspiciousPixels     int
	SuspiciousPercentage float64
}

// SuspiciousRegion is one connected component that survived filtering.
// Width and Height are pixel extents, so a single pixel is 1x1.
type SuspiciousRegion struct {
	X, Y          int
	Width, Height int
	PixelCount    int
	MeanIntensity float64
}

// Area returns the bounding box area
func (r SuspiciousRegion) Area() int {
	return r.Width * r.Height
}

// Bounds returns the bounding box as a rectangle
func (r SuspiciousRegion) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// FeatureCount is the length of a FeatureVector
const FeatureCount = 29

// FeatureNames lists the canonical feature order the classifier was trained on
var FeatureNames = [FeatureCount]string{
	"mean_error", "max_error", "std_error", "median_error", "threshold",
	"suspicious_pixels", "suspicious_percentage",
	"num_regions", "avg_region_size", "max_region_size", "avg_region_intensity", "region_size_std",
	"hist_0", "hist_1", "hist_2", "hist_3", "hist_4", "hist_5", "hist_6", "hist_7", "hist_8", "hist_9",
	"p25", "p50", "p75", "p90", "p95",
	"edges_h", "edges_v",
}

// Offsets of the feature groups within a FeatureVector
const (
	featGlobal     = 0
	featRegions    = 7
	featHistogram  = 12
	featPercentile = 22
	featEdges      = 27
)

// FeatureVector is the fixed-order numeric summary fed to the classifier
type FeatureVector [FeatureCount]float64

// Slice returns a copy of the vector as a slice
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// Named returns the vector keyed by canonical feature name
func (v FeatureVector) Named() map[string]float64 {
	out := make(map[string]float64, FeatureCount)
	for i, name := range FeatureNames {
		out[name] = v[i]
	}
	return out
}

// FeatureSummary is the human-readable subset of the analysis
type FeatureSummary struct {
	MeanError            float64
	MaxError             float64
	StdError             float64
	MedianError          float64
	Threshold            float64
	SuspiciousPixels     int
	SuspiciousPercentage float64
	NumRegions           int
}

// Analysis is the complete output of one pipeline run
type Analysis struct {
	ErrorMap *ErrorMap
	Stats    ErrorStats
	Regions  []SuspiciousRegion
	Features FeatureVector
}

// Summary returns the 8-field feature summary
func (a *Analysis) Summary() FeatureSummary {
	return FeatureSummary{
		MeanError:            a.Stats.Mean,
		MaxError:             a.Stats.Max,
		StdError:             a.Stats.Std,
		MedianError:          a.Stats.Median,
		Threshold:            a.Stats.Threshold,
		SuspiciousPixels:     a.Stats.SuspiciousPixels,
		SuspiciousPercentage: a.Stats.SuspiciousPercentage,
		NumRegions:           len(a.Regions),
	}
}
