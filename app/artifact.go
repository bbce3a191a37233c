package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/rs/zerolog"

	"github.com/opsml/opsml/domain/data"
	"github.com/opsml/opsml/ports"
)

// ArtifactService converts in-memory values to canonical artifacts and
// moves their bytes through the storage client.
type ArtifactService struct {
	storage   ports.StorageClient
	chunkSize int
	logger    zerolog.Logger
}

// NewArtifactService creates a new artifact service.
func NewArtifactService(storage ports.StorageClient, chunkSize int, logger zerolog.Logger) *ArtifactService {
	return &ArtifactService{
		storage:   storage,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// WritePath builds the storage path for a card's artifact file.
func WritePath(team, name, version, filename string) string {
	return path.Join(team, name, "v"+version, filename)
}

// Save converts v to its canonical form and persists it at p.
// Returns the storage URI and the derived artifact, whose feature map
// is recorded on the card.
func (s *ArtifactService) Save(ctx context.Context, p string, v any) (string, *data.Artifact, error) {
	art, err := data.Convert(v)
	if err != nil {
		return "", nil, fmt.Errorf("convert artifact: %w", err)
	}
	raw, err := data.Encode(art)
	if err != nil {
		return "", nil, fmt.Errorf("encode artifact: %w", err)
	}

	uri, err := s.storage.Put(ctx, p, bytes.NewReader(raw))
	if err != nil {
		return "", nil, fmt.Errorf("store artifact: %w", err)
	}

	s.logger.Debug().
		Str("path", p).
		Str("type", string(art.Tag)).
		Int("bytes", len(raw)).
		Msg("artifact saved")
	return uri, art, nil
}

// Load reads the artifact at p and reconstructs the original value.
func (s *ArtifactService) Load(ctx context.Context, p string) (any, *data.Artifact, error) {
	rc, err := s.storage.Get(ctx, p)
	if err != nil {
		return nil, nil, fmt.Errorf("read artifact: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("read artifact: %w", err)
	}

	art, err := data.Decode(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("decode artifact: %w", err)
	}
	v, err := data.Reconstruct(art)
	if err != nil {
		return nil, nil, fmt.Errorf("reconstruct artifact: %w", err)
	}
	return v, art, nil
}

// PutFile streams raw bytes to p, bypassing the canonical codec.
// Model binaries and arbitrary files travel this way.
func (s *ArtifactService) PutFile(ctx context.Context, p string, r io.Reader) (string, error) {
	uri, err := s.storage.Put(ctx, p, r)
	if err != nil {
		return "", fmt.Errorf("store file: %w", err)
	}
	return uri, nil
}

// OpenFile streams the file at p in bounded chunks.
func (s *ArtifactService) OpenFile(ctx context.Context, p string) (ports.ChunkIterator, error) {
	return s.storage.Iterfile(ctx, p, s.chunkSize)
}

// ListFiles returns the storage paths under prefix.
func (s *ArtifactService) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	return s.storage.List(ctx, prefix)
}

// BasePath returns the storage root artifacts are addressed under.
func (s *ArtifactService) BasePath() string {
	return s.storage.BasePath()
}
