package scoring

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arbovm/levenshtein"

	"go-ela-inspector/internal/analyzer"
)

// ELAConfig is the analysis configuration stored alongside the model
type ELAConfig struct {
	ELAQuality          int      `json:"ela_quality"`
	ThresholdMultiplier float64  `json:"threshold_multiplier"`
	MinRegionSize       int      `json:"min_region_size"`
	EnhancementStrength float64  `json:"enhancement_strength"`
	FeatureNames        []string `json:"feature_names,omitempty"`
}

// configExport uses pointers so absent keys can be told apart from zeros
type configExport struct {
	ELAQuality          *int     `json:"ela_quality"`
	ThresholdMultiplier *float64 `json:"threshold_multiplier"`
	MinRegionSize       *int     `json:"min_region_size"`
	EnhancementStrength *float64 `json:"enhancement_strength"`
	FeatureNames        []string `json:"feature_names"`
}

// ParseELAConfig decodes the feature configuration. All four analysis
// parameters are required; feature_names, when present, must list the
// canonical feature order.
func ParseELAConfig(data []byte) (ELAConfig, error) {
	var export configExport
	if err := json.Unmarshal(data, &export); err != nil {
		return ELAConfig{}, fmt.Errorf("decode feature config: %w", err)
	}

	var missing []string
	if export.ELAQuality == nil {
		missing = append(missing, "ela_quality")
	}
	if export.ThresholdMultiplier == nil {
		missing = append(missing, "threshold_multiplier")
	}
	if export.MinRegionSize == nil {
		missing = append(missing, "min_region_size")
	}
	if export.EnhancementStrength == nil {
		missing = append(missing, "enhancement_strength")
	}
	if len(missing) > 0 {
		return ELAConfig{}, fmt.Errorf("feature config is missing %s", strings.Join(missing, ", "))
	}

	cfg := ELAConfig{
		ELAQuality:          *export.ELAQuality,
		ThresholdMultiplier: *export.ThresholdMultiplier,
		MinRegionSize:       *export.MinRegionSize,
		EnhancementStrength: *export.EnhancementStrength,
		FeatureNames:        export.FeatureNames,
	}
	if export.FeatureNames != nil {
		if err := VerifyFeatureNames(export.FeatureNames); err != nil {
			return ELAConfig{}, err
		}
	}
	if err := cfg.Apply(analyzer.DefaultOptions()).Validate(); err != nil {
		return ELAConfig{}, fmt.Errorf("feature config: %w", err)
	}
	return cfg, nil
}

// Apply overlays the trained parameters on base
func (c ELAConfig) Apply(base analyzer.AnalysisOptions) analyzer.AnalysisOptions {
	return base.
		WithELA(c.ELAQuality, c.EnhancementStrength).
		WithThreshold(c.ThresholdMultiplier).
		WithMinRegionSize(c.MinRegionSize)
}

// VerifyFeatureNames checks names against the canonical feature order
func VerifyFeatureNames(names []string) error {
	if len(names) != analyzer.FeatureCount {
		return fmt.Errorf("feature config lists %d features, expected %d", len(names), analyzer.FeatureCount)
	}
	for i, name := range names {
		if name == analyzer.FeatureNames[i] {
			continue
		}
		if suggestion := closestFeatureName(name); suggestion != "" && suggestion != name {
			return fmt.Errorf("feature %d is %q, expected %q (did you mean %q?)", i, name, analyzer.FeatureNames[i], suggestion)
		}
		return fmt.Errorf("feature %d is %q, expected %q", i, name, analyzer.FeatureNames[i])
	}
	return nil
}

// closestFeatureName returns the canonical name nearest to name by edit
// distance, or "" when nothing is reasonably close.
func closestFeatureName(name string) string {
	best, bestDist := "", len(name)/2+1
	for _, candidate := range analyzer.FeatureNames {
		if d := levenshtein.Distance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}
