package analyzer

import "fmt"

// AnalysisOptions provides the tunable parameters of the ELA pipeline
type AnalysisOptions struct {
	// Difference image
	ELAQuality          int
	EnhancementStrength float64

	// Thresholding
	ThresholdMultiplier float64

	// Region extraction
	Regions RegionOptions
}

// RegionOptions controls noise suppression, labeling and region filtering
type RegionOptions struct {
	// Components smaller than MinArea pixels are discarded
	MinArea int
	// Components whose width or height is <= MinDimension are discarded
	MinDimension int
	// Opening is applied when the suspicious share of the image exceeds this percentage
	NoisePercent float64
	// Above this many labeled components the bounding-slice labeler is used
	StrategySwitch int
}

// DefaultRegionOptions returns the region heuristics used by the trained model
func DefaultRegionOptions() RegionOptions {
	return RegionOptions{
		MinArea:        50,
		MinDimension:   10,
		NoisePercent:   15,
		StrategySwitch: 1000,
	}
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		ELAQuality:          90,
		EnhancementStrength: 1.0,
		ThresholdMultiplier: 2.0,
		Regions:             DefaultRegionOptions(),
	}
}

// WithELA returns options with the recompression parameters replaced
func (opts AnalysisOptions) WithELA(quality int, enhancement float64) AnalysisOptions {
	opts.ELAQuality = quality
	opts.EnhancementStrength = enhancement
	return opts
}

// WithThreshold returns options with a different threshold multiplier
func (opts AnalysisOptions) WithThreshold(multiplier float64) AnalysisOptions {
	opts.ThresholdMultiplier = multiplier
	return opts
}

// WithMinRegionSize returns options with a different minimum region area
func (opts AnalysisOptions) WithMinRegionSize(minArea int) AnalysisOptions {
	opts.Regions.MinArea = minArea
	return opts
}

// WithRegionHeuristics overrides the noise, strategy and dimension cut-offs.
// Non-positive values keep the current setting.
func (opts AnalysisOptions) WithRegionHeuristics(noisePercent float64, strategySwitch, minDimension int) AnalysisOptions {
	if noisePercent > 0 {
		opts.Regions.NoisePercent = noisePercent
	}
	if strategySwitch > 0 {
		opts.Regions.StrategySwitch = strategySwitch
	}
	if minDimension > 0 {
		opts.Regions.MinDimension = minDimension
	}
	return opts
}

// Validate reports parameter combinations the pipeline cannot run with
func (opts AnalysisOptions) Validate() error {
	if opts.ELAQuality < 1 || opts.ELAQuality > 100 {
		return fmt.Errorf("ela quality must be within 1..100 (got %d)", opts.ELAQuality)
	}
	if opts.EnhancementStrength < 0 {
		return fmt.Errorf("enhancement strength must be >= 0 (got %g)", opts.EnhancementStrength)
	}
	if opts.Regions.MinArea < 0 {
		return fmt.Errorf("min region size must be >= 0 (got %d)", opts.Regions.MinArea)
	}
	if opts.Regions.MinDimension < 0 || opts.Regions.StrategySwitch < 0 {
		return fmt.Errorf("region heuristics must be non-negative")
	}
	return nil
}
