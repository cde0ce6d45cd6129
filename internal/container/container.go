package container

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"go-ela-inspector/internal/analyzer"
	"go-ela-inspector/internal/config"
	apperrors "go-ela-inspector/internal/errors"
	"go-ela-inspector/internal/factory"
	"go-ela-inspector/internal/logger"
	"go-ela-inspector/internal/observer"
	"go-ela-inspector/internal/repository"
	"go-ela-inspector/internal/scoring"
	"go-ela-inspector/internal/service"
	"go-ela-inspector/internal/transport"
	"go-ela-inspector/internal/visualize"
	"go-ela-inspector/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	modelRepository repository.ModelRepository
	pool            *analyzer.WorkerPool
	events          *observer.EventPublisher
	metrics         *observer.MetricsObserver
	analysisService service.AnalysisService
	handler         http.Handler
}

// NewContainer builds the dependency graph and loads the model artifacts.
// A model that cannot be loaded is a configuration error.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory()

	sourceType, err := factory.ParseSourceType(cfg.ArtifactSource)
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid artifact source", err)
	}
	source, err := components.StorageFactory.CreateSource(factory.SourceSettings{
		Type:         sourceType,
		Location:     cfg.ArtifactLocation,
		AzureAccount: cfg.AzureAccount,
		AzureKey:     cfg.AzureKey,
	})
	if err != nil {
		return nil, apperrors.NewConfigurationError("failed to open artifact source", err)
	}

	base := analyzer.DefaultOptions().WithRegionHeuristics(
		cfg.NoiseSuppressionPercent,
		cfg.StrategySwitchComponents,
		cfg.MinRegionDimension,
	)
	names := scoring.ArtifactNames{
		Model:  cfg.ModelFile,
		Scaler: cfg.ScalerFile,
		Config: cfg.FeatureConfigFile,
	}
	modelRepository := repository.NewModelRepository(source, names, base, components.AnalyzerFactory)

	loadCtx, cancel := context.WithTimeout(ctx, cfg.ArtifactTimeout)
	defer cancel()
	if _, err := modelRepository.Load(loadCtx); err != nil {
		return nil, apperrors.NewConfigurationError("failed to load model artifacts", err)
	}

	pool := analyzer.NewWorkerPool(cfg.Workers)
	pool.Start()

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	validator := validation.NewUploadValidator(validation.UploadLimits{
		MaxBytes:  cfg.MaxUploadBytes,
		MaxPixels: cfg.MaxImagePixels,
	})

	analysisService := service.NewAnalysisService(
		modelRepository,
		validator,
		pool,
		visualize.NewRenderer(cfg.TopBoxes),
		events,
		service.Options{AnalysisTimeout: cfg.AnalysisTimeout},
	)

	handler := transport.NewHandler(analysisService, metrics, transport.HandlerOptions{
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		RequestTimeout:     cfg.RequestTimeout,
	})

	logger.WithFields(logrus.Fields{
		"workers": pool.Workers(),
		"source":  source.Location(),
	}).Info("Container ready")

	return &Container{
		config:          cfg,
		modelRepository: modelRepository,
		pool:            pool,
		events:          events,
		metrics:         metrics,
		analysisService: analysisService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close stops the worker pool after in-flight analyses finish and flushes events
func (c *Container) Close() {
	c.pool.Close()
	c.pool.Wait()
	c.events.Drain()
}
