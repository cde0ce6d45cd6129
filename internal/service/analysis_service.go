package service

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"go-ela-inspector/internal/analyzer"
	apperrors "go-ela-inspector/internal/errors"
	"go-ela-inspector/internal/logger"
	"go-ela-inspector/internal/observer"
	"go-ela-inspector/internal/repository"
	"go-ela-inspector/internal/scoring"
	"go-ela-inspector/internal/visualize"
	"go-ela-inspector/pkg/models"
	"go-ela-inspector/pkg/validation"
)

// UploadRequest is one image submitted for analysis
type UploadRequest struct {
	RequestID string
	Filename  string
	Data      []byte
}

// AnalysisService defines the upload analysis use case
type AnalysisService interface {
	// AnalyzeUpload validates, analyzes, scores and renders one upload
	AnalyzeUpload(ctx context.Context, req UploadRequest) (*models.AnalysisResponse, error)

	// RejectUpload records an upload refused before it reached AnalyzeUpload
	RejectUpload(ctx context.Context, req UploadRequest, err error)

	// ModelSummary describes the model currently in use
	ModelSummary() (models.ModelSummary, error)
}

// Options configures the analysis service
type Options struct {
	// AnalysisTimeout bounds queueing plus pipeline time per request
	AnalysisTimeout time.Duration
}

// analysisService implements AnalysisService
type analysisService struct {
	models    repository.ModelRepository
	validator *validation.UploadValidator
	pool      *analyzer.WorkerPool
	renderer  visualize.Renderer
	events    observer.Subject
	opts      Options
}

// NewAnalysisService creates a new analysis service. The pool must already be started.
func NewAnalysisService(
	modelRepository repository.ModelRepository,
	validator *validation.UploadValidator,
	pool *analyzer.WorkerPool,
	renderer visualize.Renderer,
	events observer.Subject,
	opts Options,
) AnalysisService {
	return &analysisService{
		models:    modelRepository,
		validator: validator,
		pool:      pool,
		renderer:  renderer,
		events:    events,
		opts:      opts,
	}
}

// outcome is everything a pool job produces for one request
type outcome struct {
	analysis *analyzer.Analysis
	result   scoring.ClassificationResult
	overlays *visualize.Overlays
	err      error
}

// AnalyzeUpload implements AnalysisService
func (s *analysisService) AnalyzeUpload(ctx context.Context, req UploadRequest) (*models.AnalysisResponse, error) {
	start := time.Now()
	event := observer.AnalysisEvent{RequestID: req.RequestID, Filename: req.Filename}

	img, format, err := s.validator.Decode(req.Data)
	if err != nil {
		s.RejectUpload(ctx, req, err)
		return nil, err
	}

	model, err := s.models.Current()
	if err != nil {
		return nil, apperrors.NewUnavailableError("Model is not loaded", err)
	}

	event.EventType = observer.AnalysisStarted
	event.Metadata = map[string]interface{}{
		"format": format,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	}
	s.events.NotifyObservers(ctx, event)
	// Observers run asynchronously and may still hold the map above
	event.Metadata = nil

	out, err := s.run(ctx, model, img)
	if err == nil {
		err = out.err
	}
	elapsed := time.Since(start)
	event.ProcessingTime = elapsed
	if err != nil {
		event.EventType = observer.AnalysisFailed
		event.ErrorMessage = err.Error()
		s.events.NotifyObservers(ctx, event)
		return nil, err
	}

	event.EventType = observer.AnalysisCompleted
	event.Success = true
	event.Label = out.result.Label
	event.Metadata = map[string]interface{}{
		"num_regions":      len(out.analysis.Regions),
		"fake_probability": out.result.FakeProbability,
	}
	s.events.NotifyObservers(ctx, event)

	fields := logrus.Fields{"label": out.result.Label}
	for name, v := range out.analysis.Features.Named() {
		fields[name] = v
	}
	logger.ForRequest(req.RequestID).WithFields(fields).Debug("Feature vector")

	return buildResponse(req, out, elapsed), nil
}

// RejectUpload implements AnalysisService
func (s *analysisService) RejectUpload(ctx context.Context, req UploadRequest, err error) {
	s.events.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:    observer.UploadRejected,
		RequestID:    req.RequestID,
		Filename:     req.Filename,
		ErrorMessage: err.Error(),
	})
}

// run executes the pipeline on the pool. On timeout the job keeps its worker
// until it finishes and its result is dropped.
func (s *analysisService) run(ctx context.Context, model *repository.Model, img image.Image) (outcome, error) {
	if s.opts.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.AnalysisTimeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	job := func() {
		done <- s.process(model, img)
	}

	if err := s.pool.Submit(ctx, job); err != nil {
		return outcome{}, contextError(err)
	}

	select {
	case out := <-done:
		return out, nil
	case <-ctx.Done():
		return outcome{}, contextError(ctx.Err())
	}
}

// process is the CPU-bound part of a request
func (s *analysisService) process(model *repository.Model, img image.Image) outcome {
	analysis, err := model.Analyzer.Analyze(img)
	if err != nil {
		return outcome{err: apperrors.NewInternalError("Analysis failed", err)}
	}

	result, err := scoring.Classify(model.Bundle, analysis.Features)
	if err != nil {
		return outcome{err: apperrors.NewInternalError("Scoring failed", err)}
	}

	overlays, err := s.renderer.Render(img, analysis)
	if err != nil {
		return outcome{err: apperrors.NewInternalError("Rendering failed", err)}
	}

	return outcome{analysis: analysis, result: result, overlays: overlays}
}

func contextError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("Analysis timed out", err)
	case errors.Is(err, analyzer.ErrPoolClosed):
		return apperrors.NewUnavailableError("Service is shutting down", err)
	case errors.Is(err, context.Canceled):
		return apperrors.NewUnavailableError("Request cancelled", err)
	default:
		return apperrors.NewInternalError("Analysis could not be scheduled", err)
	}
}

// ModelSummary implements AnalysisService
func (s *analysisService) ModelSummary() (models.ModelSummary, error) {
	model, err := s.models.Current()
	if err != nil {
		return models.ModelSummary{}, apperrors.NewUnavailableError("Model is not loaded", err)
	}
	cfg := model.Bundle.Config()
	opts := model.Analyzer.Options()
	return models.ModelSummary{
		Source:              model.Source,
		Features:            analyzer.FeatureCount,
		ELAQuality:          opts.ELAQuality,
		ThresholdMultiplier: opts.ThresholdMultiplier,
		MinRegionSize:       opts.Regions.MinArea,
		EnhancementStrength: opts.EnhancementStrength,
		FeatureNames:        cfg.FeatureNames,
	}, nil
}

func buildResponse(req UploadRequest, out outcome, elapsed time.Duration) *models.AnalysisResponse {
	boxes := make([]models.Box, 0, len(out.overlays.TopRegions))
	for _, r := range out.overlays.TopRegions {
		boxes = append(boxes, models.Box{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height})
	}

	summary := out.analysis.Summary()
	return &models.AnalysisResponse{
		RequestID: req.RequestID,
		ImagePanel: models.ImagePanel{
			Filename:       req.Filename,
			PreviewDataURL: out.overlays.Preview,
		},
		AnalysisPanel: models.AnalysisPanel{
			Label: out.result.Label,
			Probabilities: models.Probabilities{
				Real: out.result.RealProbability,
				Fake: out.result.FakeProbability,
			},
			FakeProbability: out.result.FakeProbability,
			IsFake:          out.result.IsFake(),
		},
		Explainability: models.Explainability{
			OriginalWithBoxes: out.overlays.OriginalWithBoxes,
			ELAHeatmap:        out.overlays.Heatmap,
			ELAWithBoxes:      out.overlays.HeatmapWithBoxes,
			TopBoxes:          boxes,
			Threshold:         summary.Threshold,
			FeatureSummary: models.FeatureSummary{
				MeanError:            summary.MeanError,
				MaxError:             summary.MaxError,
				StdError:             summary.StdError,
				MedianError:          summary.MedianError,
				Threshold:            summary.Threshold,
				SuspiciousPixels:     summary.SuspiciousPixels,
				SuspiciousPercentage: summary.SuspiciousPercentage,
				NumRegions:           summary.NumRegions,
			},
		},
		ProcessingTime: elapsed.Seconds(),
	}
}
