package observer

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type countingObserver struct {
	name  string
	count atomic.Int64
}

func (o *countingObserver) OnEvent(ctx context.Context, event AnalysisEvent) { o.count.Add(1) }
func (o *countingObserver) GetObserverName() string                          { return o.name }

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event AnalysisEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                          { return "panicking" }

func TestMetricsObserver_Counts(t *testing.T) {
	m := NewMetricsObserver()
	ctx := context.Background()

	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisCompleted, Label: "FAKE", ProcessingTime: 100 * time.Millisecond})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisCompleted, Label: "REAL", ProcessingTime: 300 * time.Millisecond})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisFailed})
	m.OnEvent(ctx, AnalysisEvent{EventType: UploadRejected})

	got := m.GetMetrics()
	checks := map[string]int64{
		"total_analyses":         3,
		"successful_analyses":    2,
		"failed_analyses":        1,
		"rejected_uploads":       1,
		"total_processing_ms":    400,
		"avg_processing_time_ms": 200,
	}
	for key, want := range checks {
		if got[key] != want {
			t.Errorf("%s = %v, want %d", key, got[key], want)
		}
	}

	labels := got["labels"].(map[string]int64)
	if labels["FAKE"] != 1 || labels["REAL"] != 1 {
		t.Errorf("Unexpected label counts %v", labels)
	}
}

func TestEventPublisher_NotifiesAndRecovers(t *testing.T) {
	p := NewEventPublisher()
	a := &countingObserver{name: "a"}
	b := &countingObserver{name: "b"}
	p.Subscribe(a)
	p.Subscribe(panickingObserver{})
	p.Subscribe(b)

	p.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted})
	p.Drain()

	if a.count.Load() != 1 || b.count.Load() != 1 {
		t.Fatalf("Expected both observers notified once, got a=%d b=%d", a.count.Load(), b.count.Load())
	}

	p.Unsubscribe(b)
	p.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisCompleted})
	p.Drain()

	if a.count.Load() != 2 || b.count.Load() != 1 {
		t.Errorf("Unsubscribe not honored, got a=%d b=%d", a.count.Load(), b.count.Load())
	}
}

func TestEventPublisher_CancelledContext(t *testing.T) {
	p := NewEventPublisher()
	var seen atomic.Value
	p.Subscribe(&ctxObserver{seen: &seen})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.NotifyObservers(ctx, AnalysisEvent{EventType: AnalysisFailed})
	p.Drain()

	if err, _ := seen.Load().(error); err != nil {
		t.Errorf("Observer saw cancelled context: %v", err)
	}
}

type ctxObserver struct{ seen *atomic.Value }

func (o *ctxObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	if err := ctx.Err(); err != nil {
		o.seen.Store(err)
	}
}
func (o *ctxObserver) GetObserverName() string { return "ctx" }

func TestLoggingObserver_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	o := NewLoggingObserver(l)
	o.OnEvent(context.Background(), AnalysisEvent{
		EventType: AnalysisCompleted,
		RequestID: "req-1",
		Filename:  "cat.jpg",
		Label:     "FAKE",
		Success:   true,
	})

	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"filename":"cat.jpg"`, `"label":"FAKE"`, "Image analysis completed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Log line missing %s: %s", want, out)
		}
	}
}
