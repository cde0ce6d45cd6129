package analyzer

import (
	"fmt"
	"image"
)

// coreAnalyzer implements Analyzer and orchestrates the pipeline stages
type coreAnalyzer struct {
	options    AnalysisOptions
	difference DifferenceGenerator
	thresholds Thresholder
	regions    RegionExtractor
	features   FeatureAssembler
}

// NewAnalyzer creates an analyzer with all stages configured from options
func NewAnalyzer(options AnalysisOptions) (Analyzer, error) {
	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis options: %w", err)
	}
	return &coreAnalyzer{
		options:    options,
		difference: NewDifferenceGenerator(options.ELAQuality, options.EnhancementStrength),
		thresholds: NewThresholder(options.ThresholdMultiplier),
		regions:    NewRegionExtractor(options.Regions),
		features:   NewFeatureAssembler(),
	}, nil
}

// Options returns the parameters the analyzer was built with
func (ca *coreAnalyzer) Options() AnalysisOptions {
	return ca.options
}

// Analyze runs difference, threshold, region and feature stages in order.
// Degenerate inputs such as flat images produce zero-valued results, not errors.
func (ca *coreAnalyzer) Analyze(img image.Image) (*Analysis, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("image has no pixels (%dx%d)", b.Dx(), b.Dy())
	}

	errorMap, err := ca.difference.Generate(img)
	if err != nil {
		return nil, fmt.Errorf("generate difference image: %w", err)
	}

	stats := ca.thresholds.Compute(errorMap)
	regions := ca.regions.Extract(errorMap, stats.Threshold)
	features := ca.features.Assemble(errorMap, stats, regions)

	return &Analysis{
		ErrorMap: errorMap,
		Stats:    stats,
		Regions:  regions,
		Features: features,
	}, nil
}
