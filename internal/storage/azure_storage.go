package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureConfig locates a blob container holding the artifacts
type AzureConfig struct {
	AccountName string
	AccountKey  string
	Container   string
	// ServiceURL overrides https://<account>.blob.core.windows.net, e.g. for Azurite
	ServiceURL string
}

type azureSource struct {
	client    *azblob.Client
	container string
	location  string
}

// NewAzureSource creates an artifact source backed by Azure Blob Storage.
// Without an account key the container must allow anonymous reads.
func NewAzureSource(cfg AzureConfig) (ArtifactSource, error) {
	if cfg.Container == "" {
		return nil, fmt.Errorf("azure container name is required")
	}
	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		if cfg.AccountName == "" {
			return nil, fmt.Errorf("azure storage account name is required")
		}
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AccountName)
	}

	var (
		client *azblob.Client
		err    error
	)
	if cfg.AccountKey != "" {
		credential, cerr := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if cerr != nil {
			return nil, fmt.Errorf("azure credential: %w", cerr)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	} else {
		client, err = azblob.NewClientWithNoCredential(serviceURL, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &azureSource{
		client:    client,
		container: cfg.Container,
		location:  serviceURL + "/" + cfg.Container,
	}, nil
}

func (s *azureSource) Location() string {
	return s.location
}

func (s *azureSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%s: %w", name, ErrArtifactNotFound)
		}
		return nil, fmt.Errorf("download %s: %w", name, err)
	}

	body := resp.Body
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > maxArtifactBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", name, maxArtifactBytes)
	}
	return data, nil
}
