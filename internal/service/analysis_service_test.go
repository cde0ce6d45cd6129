package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"net/http"
	"strings"
	"testing"
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

// Test doubles

type stubRepository struct {
	model *repository.Model
}

func (r *stubRepository) Load(ctx context.Context) (*repository.Model, error) {
	return r.Current()
}

func (r *stubRepository) Current() (*repository.Model, error) {
	if r.model == nil {
		return nil, repository.ErrModelNotLoaded
	}
	return r.model, nil
}

type stubClassifier struct {
	class int
	proba [2]float64
}

func (c stubClassifier) Predict(x []float64) (int, error)             { return c.class, nil }
func (c stubClassifier) PredictProba(x []float64) ([2]float64, error) { return c.proba, nil }
func (c stubClassifier) NumFeatures() int                             { return analyzer.FeatureCount }

type identityScaler struct{}

func (identityScaler) Transform(x []float64) ([]float64, error) { return x, nil }
func (identityScaler) NumFeatures() int                         { return analyzer.FeatureCount }

// blockingAnalyzer waits for release before returning an empty analysis
type blockingAnalyzer struct {
	release chan struct{}
}

func (a *blockingAnalyzer) Analyze(img image.Image) (*analyzer.Analysis, error) {
	<-a.release
	return &analyzer.Analysis{
		ErrorMap: analyzer.NewErrorMap(image.NewGray(img.Bounds())),
		Regions:  []analyzer.SuspiciousRegion{},
	}, nil
}

func (a *blockingAnalyzer) Options() analyzer.AnalysisOptions { return analyzer.DefaultOptions() }

// Fixtures

func newModel(t *testing.T, a analyzer.Analyzer, c scoring.Classifier) *repository.Model {
	t.Helper()
	if a == nil {
		var err error
		if a, err = analyzer.NewAnalyzer(analyzer.DefaultOptions()); err != nil {
			t.Fatal(err)
		}
	}
	cfg := scoring.ELAConfig{ELAQuality: 90, ThresholdMultiplier: 2, MinRegionSize: 50, EnhancementStrength: 1}
	return &repository.Model{
		Bundle:   scoring.NewBundle(c, identityScaler{}, cfg),
		Analyzer: a,
		Source:   "memory",
		LoadedAt: time.Now(),
	}
}

type fixture struct {
	service AnalysisService
	metrics *observer.MetricsObserver
	events  *observer.EventPublisher
	pool    *analyzer.WorkerPool
}

func newFixture(t *testing.T, model *repository.Model, timeout time.Duration) *fixture {
	t.Helper()
	pool := analyzer.NewWorkerPool(2)
	pool.Start()
	t.Cleanup(pool.Close)

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(metrics)

	validator := validation.NewUploadValidator(validation.UploadLimits{MaxBytes: 1 << 20, MaxPixels: 1 << 20})
	svc := NewAnalysisService(&stubRepository{model: model}, validator, pool, visualize.NewRenderer(visualize.DefaultTopBoxes), events, Options{AnalysisTimeout: timeout})
	return &fixture{service: svc, metrics: metrics, events: events, pool: pool}
}

// redBlockPNG stores a mid-gray image with an opaque red square pasted at
// (32,32)-(80,80). Gray survives a JPEG round trip exactly while the saturated
// red does not, so the square is the only source of recompression error. The
// square sits on 16 pixel boundaries to keep every chroma block uniform.
func redBlockPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 128, 128))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	draw.Draw(img, image.Rect(32, 32, 80, 80), image.NewUniform(color.NRGBA{R: 255, A: 255}), image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAnalyzeUpload_EndToEnd(t *testing.T) {
	model := newModel(t, nil, stubClassifier{class: 1, proba: [2]float64{0.1, 0.9}})
	f := newFixture(t, model, 30*time.Second)
	data := redBlockPNG(t)

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	analysis, err := model.Analyzer.Analyze(img)
	if err != nil {
		t.Fatal(err)
	}
	if len(analysis.Regions) == 0 {
		t.Fatalf("Fixture produced no suspicious regions: %+v", analysis.Stats)
	}

	resp, err := f.service.AnalyzeUpload(context.Background(), UploadRequest{
		RequestID: "req-1",
		Filename:  "spliced.png",
		Data:      data,
	})
	if err != nil {
		t.Fatalf("AnalyzeUpload failed: %v", err)
	}

	panel := resp.AnalysisPanel
	if panel.Label != scoring.LabelFake || !panel.IsFake {
		t.Errorf("Expected FAKE verdict, got %+v", panel)
	}
	if panel.FakeProbability != 0.9 {
		t.Errorf("Expected fake_probability 0.9, got %g", panel.FakeProbability)
	}
	if math.Abs(panel.Probabilities.Real+panel.Probabilities.Fake-1) > 1e-9 {
		t.Errorf("Probabilities do not sum to 1: %+v", panel.Probabilities)
	}
	if panel.FakeProbability != panel.Probabilities.Fake {
		t.Errorf("fake_probability %g differs from probabilities.fake %g", panel.FakeProbability, panel.Probabilities.Fake)
	}

	ex := resp.Explainability
	if len(ex.TopBoxes) < 1 {
		t.Fatalf("Expected at least one top box, got none (num_regions %d)", ex.FeatureSummary.NumRegions)
	}
	if want := min(visualize.DefaultTopBoxes, ex.FeatureSummary.NumRegions); len(ex.TopBoxes) != want {
		t.Errorf("Expected %d top boxes, got %d", want, len(ex.TopBoxes))
	}
	if got, want := ex.TopBoxes[0], (models.Box{X: 32, Y: 32, Width: 48, Height: 48}); got != want {
		t.Errorf("Expected box around the red square %+v, got %+v", want, got)
	}
	for i := 1; i < len(ex.TopBoxes); i++ {
		prev, cur := ex.TopBoxes[i-1], ex.TopBoxes[i]
		if cur.Width*cur.Height > prev.Width*prev.Height {
			t.Errorf("Boxes not ordered by area at %d", i)
		}
	}
	if ex.Threshold != ex.FeatureSummary.Threshold {
		t.Errorf("Threshold mismatch %g vs %g", ex.Threshold, ex.FeatureSummary.Threshold)
	}
	if ex.FeatureSummary.MaxError < ex.FeatureSummary.MeanError {
		t.Errorf("max_error below mean_error: %+v", ex.FeatureSummary)
	}

	for name, url := range map[string]string{
		"preview":             resp.ImagePanel.PreviewDataURL,
		"original_with_boxes": ex.OriginalWithBoxes,
		"ela_heatmap":         ex.ELAHeatmap,
		"ela_with_boxes":      ex.ELAWithBoxes,
	} {
		if !strings.HasPrefix(url, "data:image/png;base64,") {
			t.Errorf("%s is not a PNG data URL", name)
		}
	}
	if resp.ImagePanel.Filename != "spliced.png" || resp.RequestID != "req-1" {
		t.Errorf("Request metadata not echoed: %+v", resp.ImagePanel)
	}

	f.events.Drain()
	metrics := f.metrics.GetMetrics()
	if metrics["successful_analyses"] != int64(1) {
		t.Errorf("Expected one successful analysis, got %v", metrics["successful_analyses"])
	}
	if labels := metrics["labels"].(map[string]int64); labels["FAKE"] != 1 {
		t.Errorf("Expected FAKE counted, got %v", labels)
	}
}

func TestAnalyzeUpload_FlatImageIsReal(t *testing.T) {
	model := newModel(t, nil, stubClassifier{class: 0, proba: [2]float64{0.9, 0.1}})
	f := newFixture(t, model, 30*time.Second)

	resp, err := f.service.AnalyzeUpload(context.Background(), UploadRequest{Filename: "flat.png", Data: solidPNG(t, 64, 64)})
	if err != nil {
		t.Fatalf("AnalyzeUpload failed: %v", err)
	}
	if resp.AnalysisPanel.Label != scoring.LabelReal || resp.AnalysisPanel.IsFake {
		t.Errorf("Expected REAL, got %+v", resp.AnalysisPanel)
	}
	if len(resp.Explainability.TopBoxes) != 0 || resp.Explainability.FeatureSummary.NumRegions != 0 {
		t.Errorf("Flat image produced regions: %+v", resp.Explainability.TopBoxes)
	}
	if resp.Explainability.TopBoxes == nil {
		t.Error("top_boxes must be an empty list, not null")
	}
}

func TestAnalyzeUpload_Errors(t *testing.T) {
	good := stubClassifier{class: 0, proba: [2]float64{0.6, 0.4}}

	tests := []struct {
		name       string
		model      *repository.Model
		data       []byte
		wantStatus int
		rejected   bool
	}{
		{"empty payload", newModel(t, nil, good), nil, http.StatusBadRequest, true},
		{"not an image", newModel(t, nil, good), []byte("plain text"), http.StatusBadRequest, true},
		{"too many pixels", newModel(t, nil, good), solidPNG(t, 2048, 1024), http.StatusRequestEntityTooLarge, true},
		{"model not loaded", nil, solidPNG(t, 16, 16), http.StatusServiceUnavailable, false},
		{"unexpected class", newModel(t, nil, stubClassifier{class: 2, proba: [2]float64{0.5, 0.5}}), solidPNG(t, 16, 16), http.StatusInternalServerError, false},
		{"probabilities off", newModel(t, nil, stubClassifier{class: 1, proba: [2]float64{0.5, 0.6}}), solidPNG(t, 16, 16), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.model, 30*time.Second)
			_, err := f.service.AnalyzeUpload(context.Background(), UploadRequest{Filename: "x", Data: tt.data})
			if err == nil {
				t.Fatal("Expected error")
			}
			if got := apperrors.GetStatusCode(err); got != tt.wantStatus {
				t.Errorf("Expected status %d, got %d (%v)", tt.wantStatus, got, err)
			}

			f.events.Drain()
			rejected := f.metrics.GetMetrics()["rejected_uploads"].(int64)
			if tt.rejected && rejected != 1 {
				t.Errorf("Expected rejected upload counted, got %d", rejected)
			}
			if !tt.rejected && rejected != 0 {
				t.Errorf("Unexpected rejected upload count %d", rejected)
			}
		})
	}
}

func TestRejectUpload_CountsRejection(t *testing.T) {
	f := newFixture(t, newModel(t, nil, stubClassifier{}), time.Second)
	f.service.RejectUpload(context.Background(), UploadRequest{RequestID: "req-9"}, apperrors.NewValidationError("No image provided", nil))

	f.events.Drain()
	metrics := f.metrics.GetMetrics()
	if metrics["rejected_uploads"] != int64(1) {
		t.Errorf("Expected one rejected upload, got %v", metrics["rejected_uploads"])
	}
	if metrics["total_analyses"] != int64(0) {
		t.Errorf("A rejection must not count as an analysis, got %v", metrics["total_analyses"])
	}
}

func TestAnalyzeUpload_LogsNamedFeatures(t *testing.T) {
	var buf bytes.Buffer
	out, level := logger.Logger.Out, logger.Logger.GetLevel()
	logger.Logger.SetOutput(&buf)
	logger.Logger.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		logger.Logger.SetOutput(out)
		logger.Logger.SetLevel(level)
	})

	f := newFixture(t, newModel(t, nil, stubClassifier{class: 0, proba: [2]float64{0.8, 0.2}}), 30*time.Second)
	if _, err := f.service.AnalyzeUpload(context.Background(), UploadRequest{RequestID: "req-log", Filename: "a.png", Data: redBlockPNG(t)}); err != nil {
		t.Fatalf("AnalyzeUpload failed: %v", err)
	}

	logged := buf.String()
	for _, name := range []string{"median_error", "hist_9", "edges_h"} {
		if !strings.Contains(logged, `"`+name+`"`) {
			t.Errorf("Feature %s missing from debug log", name)
		}
	}
	if !strings.Contains(logged, `"request_id":"req-log"`) {
		t.Error("Feature log not tagged with the request id")
	}
}

func TestAnalyzeUpload_Timeout(t *testing.T) {
	blocking := &blockingAnalyzer{release: make(chan struct{})}
	model := newModel(t, blocking, stubClassifier{class: 0, proba: [2]float64{1, 0}})
	f := newFixture(t, model, 50*time.Millisecond)
	t.Cleanup(func() { close(blocking.release) })

	_, err := f.service.AnalyzeUpload(context.Background(), UploadRequest{Filename: "slow.png", Data: solidPNG(t, 16, 16)})
	if !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
		t.Fatalf("Expected timeout error, got %v", err)
	}
	if apperrors.GetStatusCode(err) != http.StatusGatewayTimeout {
		t.Errorf("Expected 504, got %d", apperrors.GetStatusCode(err))
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline cause, got %v", err)
	}

	f.events.Drain()
	if failed := f.metrics.GetMetrics()["failed_analyses"]; failed != int64(1) {
		t.Errorf("Expected one failed analysis, got %v", failed)
	}
}

func TestAnalyzeUpload_PoolClosed(t *testing.T) {
	f := newFixture(t, newModel(t, nil, stubClassifier{class: 0, proba: [2]float64{1, 0}}), time.Second)
	f.pool.Close()

	_, err := f.service.AnalyzeUpload(context.Background(), UploadRequest{Filename: "x.png", Data: solidPNG(t, 16, 16)})
	if apperrors.GetStatusCode(err) != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 after pool close, got %v", err)
	}
}

func TestModelSummary(t *testing.T) {
	f := newFixture(t, newModel(t, nil, stubClassifier{}), time.Second)
	summary, err := f.service.ModelSummary()
	if err != nil {
		t.Fatalf("ModelSummary failed: %v", err)
	}
	if summary.Features != analyzer.FeatureCount || summary.ELAQuality != 90 || summary.Source != "memory" {
		t.Errorf("Unexpected summary %+v", summary)
	}

	empty := newFixture(t, nil, time.Second)
	if _, err := empty.service.ModelSummary(); apperrors.GetStatusCode(err) != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without a model, got %v", err)
	}
}
