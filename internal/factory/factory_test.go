package factory

import (
	"testing"

	"go-ela-inspector/internal/analyzer"
)

func TestParseSourceType(t *testing.T) {
	tests := []struct {
		in      string
		want    SourceType
		wantErr bool
	}{
		{"file", FileSource, false},
		{"local", FileSource, false},
		{" HTTP ", HTTPSource, false},
		{"azure", AzureSource, false},
		{"s3", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSourceType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: expected error=%v, got %v", tt.in, tt.wantErr, err)
		}
		if got != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestCreateSource(t *testing.T) {
	f := NewStorageFactory()
	dir := t.TempDir()

	tests := []struct {
		name     string
		settings SourceSettings
		wantErr  bool
	}{
		{"file", SourceSettings{Type: FileSource, Location: dir}, false},
		{"http", SourceSettings{Type: HTTPSource, Location: "https://models.example.com/ela/"}, false},
		{"azure", SourceSettings{Type: AzureSource, Location: "models", AzureAccount: "acct"}, false},
		{"missing location", SourceSettings{Type: FileSource}, true},
		{"unknown type", SourceSettings{Type: "ftp", Location: dir}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := f.CreateSource(tt.settings)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && src == nil {
				t.Error("Expected non-nil source")
			}
		})
	}
}

func TestCreateAnalyzer(t *testing.T) {
	f := NewComponentFactory()
	if _, err := f.AnalyzerFactory.CreateAnalyzer(analyzer.DefaultOptions()); err != nil {
		t.Errorf("Expected default options to build an analyzer: %v", err)
	}
	if _, err := f.AnalyzerFactory.CreateAnalyzer(analyzer.DefaultOptions().WithELA(0, 1)); err == nil {
		t.Error("Expected invalid options to fail")
	}
}
