// Package gcsstore stores artifact bytes in a Google Cloud Storage
// bucket.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/opsml/opsml/adapters/chunk"
	"github.com/opsml/opsml/config"
	"github.com/opsml/opsml/ports"
)

// Client implements ports.StorageClient against GCS. Artifacts live
// under root inside the bucket.
type Client struct {
	bucket string
	root   string
	api    *storage.Client
}

// New creates a client for a gs://bucket/root URI. Credentials come
// from application default credentials.
func New(ctx context.Context, uri string) (*Client, error) {
	bucket, root, err := parseURI(uri)
	if err != nil {
		return nil, err
	}

	api, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Client{bucket: bucket, root: root, api: api}, nil
}

var _ ports.StorageClient = (*Client)(nil)

func parseURI(uri string) (bucket, root string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok || rest == "" {
		return "", "", fmt.Errorf("storage uri %q is not of the form gs://bucket/root", uri)
	}
	bucket, root, _ = strings.Cut(rest, "/")
	return bucket, strings.Trim(root, "/"), nil
}

func (c *Client) Validate(backend string) bool {
	return backend == config.BackendGCS
}

func (c *Client) BasePath() string {
	return "gs://" + path.Join(c.bucket, c.root)
}

func (c *Client) object(p string) string {
	return path.Join(c.root, strings.TrimLeft(p, "/"))
}

func (c *Client) Put(ctx context.Context, p string, r io.Reader) (string, error) {
	name := c.object(p)
	w := c.api.Bucket(c.bucket).Object(name).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("upload gs://%s/%s: %w", c.bucket, name, err)
	}
	// The object only becomes visible on a successful Close.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload gs://%s/%s: %w", c.bucket, name, err)
	}
	return "gs://" + path.Join(c.bucket, name), nil
}

func (c *Client) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	name := c.object(p)
	r, err := c.api.Bucket(c.bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gs://%s/%s: %w", c.bucket, name, err)
	}
	return r, nil
}

func (c *Client) Iterfile(ctx context.Context, p string, chunkSize int) (ports.ChunkIterator, error) {
	rc, err := c.Get(ctx, p)
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

func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	objPrefix := c.object(prefix)
	it := c.api.Bucket(c.bucket).Objects(ctx, &storage.Query{Prefix: objPrefix})

	var paths []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", c.bucket, objPrefix, err)
		}
		name := attrs.Name
		if c.root != "" {
			name = strings.TrimPrefix(name, c.root+"/")
		}
		paths = append(paths, name)
	}
	return paths, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.api.Close()
}
