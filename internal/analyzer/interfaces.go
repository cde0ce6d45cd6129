package analyzer

import "image"

// Analyzer runs the full error level analysis of one image
type Analyzer interface {
	Analyze(img image.Image) (*Analysis, error)
	Options() AnalysisOptions
}

// DifferenceGenerator produces the enhanced recompression error map
type DifferenceGenerator interface {
	Generate(img image.Image) (*ErrorMap, error)
}

// Thresholder derives global statistics and the suspicious-pixel cut-off
type Thresholder interface {
	Compute(m *ErrorMap) ErrorStats
}

// RegionExtractor segments an error map into suspicious regions
type RegionExtractor interface {
	Extract(m *ErrorMap, threshold float64) []SuspiciousRegion
}

// RegionLabeler turns labeled components into filtered regions.
// Implementations must return identical regions for the same grid.
type RegionLabeler interface {
	Name() string
	Extract(grid *LabelGrid, m *ErrorMap, opts RegionOptions) []SuspiciousRegion
}

// FeatureAssembler builds the fixed-order feature vector
type FeatureAssembler interface {
	Assemble(m *ErrorMap, stats ErrorStats, regions []SuspiciousRegion) FeatureVector
}
