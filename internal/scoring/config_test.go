package scoring

import (
	"strings"
	"testing"

	"go-ela-inspector/internal/analyzer"
)

func TestParseELAConfig(t *testing.T) {
	cfg, err := ParseELAConfig(featureConfigJSON(t, true))
	if err != nil {
		t.Fatalf("ParseELAConfig failed: %v", err)
	}
	if cfg.ELAQuality != 90 || cfg.ThresholdMultiplier != 2 || cfg.MinRegionSize != 50 || cfg.EnhancementStrength != 1 {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if len(cfg.FeatureNames) != analyzer.FeatureCount {
		t.Errorf("Expected %d feature names, got %d", analyzer.FeatureCount, len(cfg.FeatureNames))
	}
}

func TestParseELAConfig_NamesOptional(t *testing.T) {
	if _, err := ParseELAConfig(featureConfigJSON(t, false)); err != nil {
		t.Errorf("Expected config without feature_names to load: %v", err)
	}
}

func TestParseELAConfig_MissingKeys(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		missing string
	}{
		{"no quality", `{"threshold_multiplier":2,"min_region_size":50,"enhancement_strength":1}`, "ela_quality"},
		{"no multiplier", `{"ela_quality":90,"min_region_size":50,"enhancement_strength":1}`, "threshold_multiplier"},
		{"no min size", `{"ela_quality":90,"threshold_multiplier":2,"enhancement_strength":1}`, "min_region_size"},
		{"no enhancement", `{"ela_quality":90,"threshold_multiplier":2,"min_region_size":50}`, "enhancement_strength"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseELAConfig([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("Expected error naming %s, got %v", tt.missing, err)
			}
		})
	}
}

func TestParseELAConfig_InvalidValues(t *testing.T) {
	data := `{"ela_quality":0,"threshold_multiplier":2,"min_region_size":50,"enhancement_strength":1}`
	if _, err := ParseELAConfig([]byte(data)); err == nil {
		t.Error("Expected error for quality 0")
	}
	data = `{"ela_quality":"high","threshold_multiplier":2,"min_region_size":50,"enhancement_strength":1}`
	if _, err := ParseELAConfig([]byte(data)); err == nil {
		t.Error("Expected error for non-integer quality")
	}
}

func TestVerifyFeatureNames(t *testing.T) {
	names := analyzer.FeatureNames[:]

	if err := VerifyFeatureNames(names); err != nil {
		t.Errorf("Expected canonical names to verify: %v", err)
	}

	if err := VerifyFeatureNames(names[:28]); err == nil {
		t.Error("Expected error for short list")
	}

	typo := append([]string(nil), names...)
	typo[1] = "max_eror"
	err := VerifyFeatureNames(typo)
	if err == nil || !strings.Contains(err.Error(), `did you mean "max_error"`) {
		t.Errorf("Expected suggestion for typo, got %v", err)
	}

	swapped := append([]string(nil), names...)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	err = VerifyFeatureNames(swapped)
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("Expected plain order error for swapped names, got %v", err)
	}
}

func TestELAConfig_Apply(t *testing.T) {
	cfg := ELAConfig{ELAQuality: 85, ThresholdMultiplier: 1.5, MinRegionSize: 80, EnhancementStrength: 1.2}
	opts := cfg.Apply(analyzer.DefaultOptions())
	if opts.ELAQuality != 85 || opts.ThresholdMultiplier != 1.5 || opts.Regions.MinArea != 80 || opts.EnhancementStrength != 1.2 {
		t.Errorf("Config not applied: %+v", opts)
	}
	if opts.Regions.NoisePercent != 15 {
		t.Errorf("Expected unrelated defaults to survive, got %+v", opts.Regions)
	}
}
