package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type fileSource struct {
	dir string
}

// NewFileSource reads artifacts from a local directory
func NewFileSource(dir string) (ArtifactSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("artifact directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("artifact location %q is not a directory", dir)
	}
	return &fileSource{dir: dir}, nil
}

func (s *fileSource) Location() string {
	return s.dir
}

func (s *fileSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("artifact name %q escapes the artifact directory", name)
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrArtifactNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > maxArtifactBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", name, maxArtifactBytes)
	}
	return data, nil
}
