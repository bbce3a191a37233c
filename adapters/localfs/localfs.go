// Package localfs stores artifact bytes on the local filesystem.
package localfs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/opsml/opsml/adapters/chunk"
	"github.com/opsml/opsml/config"
	"github.com/opsml/opsml/ports"
)

// Client implements ports.StorageClient against a directory tree.
type Client struct {
	base string
}

// New creates a client rooted at base. The directory is created if it
// does not exist.
func New(base string) (*Client, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Client{base: abs}, nil
}

var _ ports.StorageClient = (*Client)(nil)

func (c *Client) Validate(backend string) bool {
	return backend == config.BackendLocal
}

func (c *Client) BasePath() string {
	return c.base
}

// resolve joins path under the root and rejects traversal outside it.
func (c *Client) resolve(path string) (string, error) {
	full := filepath.Join(c.base, filepath.FromSlash(path))
	if full != c.base && !strings.HasPrefix(full, c.base+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", path)
	}
	return full, nil
}

func (c *Client) Put(ctx context.Context, path string, r io.Reader) (string, error) {
	full, err := c.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create parent dir: %w", err)
	}

	// Write to a sibling temp file and rename so readers never see a
	// partially written artifact.
	tmp, err := os.CreateTemp(filepath.Dir(full), "."+filepath.Base(full)+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("rename %s: %w", path, err)
	}
	return full, nil
}

func (c *Client) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func (c *Client) Iterfile(ctx context.Context, path string, chunkSize int) (ports.ChunkIterator, error) {
	rc, err := c.Get(ctx, path)
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
	root, err := c.resolve(prefix)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	if !info.IsDir() {
		rel, _ := filepath.Rel(c.base, root)
		return []string{filepath.ToSlash(rel)}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(c.base, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return paths, nil
}
