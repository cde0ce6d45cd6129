package scoring

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go-ela-inspector/internal/analyzer"
	"go-ela-inspector/internal/logger"
)

// Source provides raw artifact bytes by name
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// ArtifactNames names the three artifacts at the source
type ArtifactNames struct {
	Model  string
	Scaler string
	Config string
}

// DefaultArtifactNames returns the file names the training pipeline writes
func DefaultArtifactNames() ArtifactNames {
	return ArtifactNames{
		Model:  "random_forest_model.json",
		Scaler: "feature_scaler.json",
		Config: "feature_config.json",
	}
}

// LoadBundle fetches and parses all three artifacts. Any missing or invalid
// artifact fails the whole load.
func LoadBundle(ctx context.Context, src Source, names ArtifactNames) (*Bundle, error) {
	var (
		forest *RandomForest
		scaler *StandardScaler
		config ELAConfig
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := src.Fetch(gctx, names.Model)
		if err != nil {
			return fmt.Errorf("load classifier: %w", err)
		}
		if forest, err = ParseRandomForest(data); err != nil {
			return fmt.Errorf("load classifier %s: %w", names.Model, err)
		}
		return nil
	})
	g.Go(func() error {
		data, err := src.Fetch(gctx, names.Scaler)
		if err != nil {
			return fmt.Errorf("load scaler: %w", err)
		}
		if scaler, err = ParseStandardScaler(data); err != nil {
			return fmt.Errorf("load scaler %s: %w", names.Scaler, err)
		}
		return nil
	})
	g.Go(func() error {
		data, err := src.Fetch(gctx, names.Config)
		if err != nil {
			return fmt.Errorf("load feature config: %w", err)
		}
		if config, err = ParseELAConfig(data); err != nil {
			return fmt.Errorf("load feature config %s: %w", names.Config, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if forest.NumFeatures() != analyzer.FeatureCount {
		return nil, fmt.Errorf("classifier expects %d features, pipeline produces %d", forest.NumFeatures(), analyzer.FeatureCount)
	}
	if scaler.NumFeatures() != analyzer.FeatureCount {
		return nil, fmt.Errorf("scaler expects %d features, pipeline produces %d", scaler.NumFeatures(), analyzer.FeatureCount)
	}

	logger.WithFields(logrus.Fields{
		"trees":                forest.NumTrees(),
		"features":             forest.NumFeatures(),
		"ela_quality":          config.ELAQuality,
		"threshold_multiplier": config.ThresholdMultiplier,
		"min_region_size":      config.MinRegionSize,
		"enhancement_strength": config.EnhancementStrength,
	}).Info("Model artifacts loaded")

	return NewBundle(forest, scaler, config), nil
}
