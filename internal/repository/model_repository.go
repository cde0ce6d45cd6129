package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"go-ela-inspector/internal/analyzer"
	"go-ela-inspector/internal/factory"
	"go-ela-inspector/internal/logger"
	"go-ela-inspector/internal/scoring"
	"go-ela-inspector/internal/storage"
)

// artifactModelRepository implements ModelRepository over an artifact source
type artifactModelRepository struct {
	source    storage.ArtifactSource
	names     scoring.ArtifactNames
	base      analyzer.AnalysisOptions
	analyzers factory.AnalyzerFactory
	current   atomic.Pointer[Model]
}

// NewModelRepository creates a repository reading names from source. The
// trained config is overlaid on base when building the analyzer.
func NewModelRepository(
	source storage.ArtifactSource,
	names scoring.ArtifactNames,
	base analyzer.AnalysisOptions,
	analyzers factory.AnalyzerFactory,
) ModelRepository {
	return &artifactModelRepository{
		source:    source,
		names:     names,
		base:      base,
		analyzers: analyzers,
	}
}

// Load implements ModelRepository
func (r *artifactModelRepository) Load(ctx context.Context) (*Model, error) {
	bundle, err := scoring.LoadBundle(ctx, r.source, r.names)
	if err != nil {
		return nil, fmt.Errorf("load artifacts from %s: %w", r.source.Location(), err)
	}

	options := bundle.Config().Apply(r.base)
	a, err := r.analyzers.CreateAnalyzer(options)
	if err != nil {
		return nil, fmt.Errorf("build analyzer: %w", err)
	}

	model := &Model{
		Bundle:   bundle,
		Analyzer: a,
		Source:   r.source.Location(),
		LoadedAt: time.Now(),
	}
	r.current.Store(model)

	logger.WithFields(logrus.Fields{
		"source":               model.Source,
		"ela_quality":          options.ELAQuality,
		"threshold_multiplier": options.ThresholdMultiplier,
		"min_region_size":      options.Regions.MinArea,
		"enhancement_strength": options.EnhancementStrength,
	}).Info("Model loaded")
	return model, nil
}

// Current implements ModelRepository
func (r *artifactModelRepository) Current() (*Model, error) {
	if m := r.current.Load(); m != nil {
		return m, nil
	}
	return nil, ErrModelNotLoaded
}
