package repository

import (
	"context"
	"time"

	"go-ela-inspector/internal/analyzer"
	"go-ela-inspector/internal/scoring"
)

// ModelRepository provides the loaded model and the analyzer configured for it
type ModelRepository interface {
	// Load fetches the artifacts and makes them current. Any failure leaves
	// the previously loaded model in place.
	Load(ctx context.Context) (*Model, error)

	// Current returns the model in use, or ErrModelNotLoaded
	Current() (*Model, error)
}

// Model pairs an artifact bundle with the analyzer built from its config.
// Both are read-only and shared by all requests.
type Model struct {
	Bundle   *scoring.Bundle
	Analyzer analyzer.Analyzer
	Source   string
	LoadedAt time.Time
}
