package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/opsml/opsml/adapters/chunk"
	"github.com/opsml/opsml/config"
	"github.com/opsml/opsml/ports"
)

// Storage forwards artifact operations to the server, which holds the
// real storage credentials. Clients in proxy mode see the same port as
// a direct backend.
//
// API contract:
//
//	GET  /settings                  → {storage_type, storage_uri, proxy}
//	POST /upload (Filename, WritePath headers, multipart body) → {storage_uri}
//	POST /download_file {read_path} → binary stream
//	POST /list_files    {read_path} → {files}
type Storage struct {
	client *Client
	base   string
}

// NewStorage creates a proxy storage client. The server's settings
// endpoint supplies the base path artifacts are addressed under.
func NewStorage(ctx context.Context, client *Client) (*Storage, error) {
	var settings struct {
		StorageType string `json:"storage_type"`
		StorageURI  string `json:"storage_uri"`
		Proxy       bool   `json:"proxy"`
	}
	if err := client.Request(ctx, http.MethodGet, "/settings", nil, &settings); err != nil {
		return nil, fmt.Errorf("fetch server settings: %w", err)
	}
	return &Storage{client: client, base: settings.StorageURI}, nil
}

var _ ports.StorageClient = (*Storage)(nil)

func (s *Storage) Validate(backend string) bool {
	return backend == config.BackendAPI
}

func (s *Storage) BasePath() string {
	return s.base
}

func (s *Storage) Put(ctx context.Context, p string, r io.Reader) (string, error) {
	var resp struct {
		StorageURI string `json:"storage_uri"`
	}
	// The server joins WritePath and Filename, so the header carries
	// the directory, not the full path.
	if err := s.client.Upload(ctx, path.Base(p), path.Dir(p), r, &resp); err != nil {
		return "", fmt.Errorf("upload %s: %w", p, err)
	}
	return resp.StorageURI, nil
}

func (s *Storage) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	rc, err := s.client.Stream(ctx, http.MethodPost, "/download_file", map[string]string{"read_path": p})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", p, err)
	}
	return rc, nil
}

func (s *Storage) Iterfile(ctx context.Context, p string, chunkSize int) (ports.ChunkIterator, error) {
	rc, err := s.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	it, err := chunk.NewIterator(rc, chunkSize)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return it, nil
}

func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	var resp struct {
		Files []string `json:"files"`
	}
	err := s.client.Request(ctx, http.MethodPost, "/list_files", map[string]string{"read_path": prefix}, &resp)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return resp.Files, nil
}
