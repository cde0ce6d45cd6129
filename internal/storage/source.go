package storage

import (
	"context"
	"errors"
)

// ErrArtifactNotFound reports that the named artifact does not exist at the source
var ErrArtifactNotFound = errors.New("artifact not found")

// maxArtifactBytes caps a single artifact download
const maxArtifactBytes = 512 << 20

// ArtifactSource fetches model artifacts by name
type ArtifactSource interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
	Location() string
}
