package factory

import (
	"fmt"
	"strings"

	"go-ela-inspector/internal/analyzer"
	"go-ela-inspector/internal/storage"
)

// SourceType represents the backend holding the model artifacts
type SourceType string

const (
	// FileSource reads artifacts from a local directory
	FileSource SourceType = "file"
	// HTTPSource downloads artifacts relative to a base URL
	HTTPSource SourceType = "http"
	// AzureSource downloads artifacts from a blob container
	AzureSource SourceType = "azure"
)

// ParseSourceType normalizes a configured source name
func ParseSourceType(s string) (SourceType, error) {
	switch t := SourceType(strings.ToLower(strings.TrimSpace(s))); t {
	case FileSource, HTTPSource, AzureSource:
		return t, nil
	case "local":
		return FileSource, nil
	default:
		return "", fmt.Errorf("unsupported artifact source type: %q", s)
	}
}

// SourceSettings carries everything any source type may need
type SourceSettings struct {
	Type         SourceType
	Location     string
	AzureAccount string
	AzureKey     string
}

// StorageFactory creates artifact sources
type StorageFactory interface {
	CreateSource(settings SourceSettings) (storage.ArtifactSource, error)
}

// storageFactory implements StorageFactory
type storageFactory struct{}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() StorageFactory {
	return &storageFactory{}
}

// CreateSource creates an artifact source based on the specified type
func (f *storageFactory) CreateSource(settings SourceSettings) (storage.ArtifactSource, error) {
	if settings.Location == "" {
		return nil, fmt.Errorf("artifact location is required for %s source", settings.Type)
	}
	switch settings.Type {
	case FileSource:
		return storage.NewFileSource(settings.Location)
	case HTTPSource:
		return storage.NewHTTPSource(settings.Location)
	case AzureSource:
		return storage.NewAzureSource(storage.AzureConfig{
			AccountName: settings.AzureAccount,
			AccountKey:  settings.AzureKey,
			Container:   settings.Location,
		})
	default:
		return nil, fmt.Errorf("unsupported artifact source type: %s", settings.Type)
	}
}

// AnalyzerFactory creates analyzers
type AnalyzerFactory interface {
	CreateAnalyzer(options analyzer.AnalysisOptions) (analyzer.Analyzer, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct{}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory() AnalyzerFactory {
	return &analyzerFactory{}
}

// CreateAnalyzer creates an analyzer for the given options
func (f *analyzerFactory) CreateAnalyzer(options analyzer.AnalysisOptions) (analyzer.Analyzer, error) {
	return analyzer.NewAnalyzer(options)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(),
		StorageFactory:  NewStorageFactory(),
	}
}
