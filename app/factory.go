package app

import (
	"context"
	"fmt"

	"github.com/opsml/opsml/adapters/gcsstore"
	"github.com/opsml/opsml/adapters/localfs"
	"github.com/opsml/opsml/adapters/remote"
	"github.com/opsml/opsml/adapters/s3store"
	"github.com/opsml/opsml/config"
	"github.com/opsml/opsml/ports"
)

// NewStorageClient builds the storage client for the configured
// backend. Each client confirms the backend it serves through
// Validate, so a constructor wired to the wrong backend fails loudly
// instead of writing artifacts somewhere unexpected.
func NewStorageClient(ctx context.Context, cfg config.StorageConfig) (ports.StorageClient, error) {
	var (
		client ports.StorageClient
		err    error
	)
	switch cfg.Backend {
	case config.BackendLocal:
		client, err = localfs.New(cfg.URI)
	case config.BackendGCS:
		client, err = gcsstore.New(ctx, cfg.URI)
	case config.BackendS3:
		client, err = s3store.New(ctx, cfg.URI, cfg.AWSRegion)
	case config.BackendAPI:
		client, err = remote.NewStorage(ctx, remote.NewClient(remote.ClientConfig{
			BaseURL: cfg.URI,
			Token:   cfg.Token,
		}))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s storage client: %w", cfg.Backend, err)
	}

	if !client.Validate(cfg.Backend) {
		return nil, fmt.Errorf("storage client does not serve backend %q", cfg.Backend)
	}
	return client, nil
}
