// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"io"
	"time"

	"github.com/opsml/opsml/domain/card"
	"github.com/opsml/opsml/domain/semver"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers for card uids.
type IDGenerator interface {
	New() string
}

// Hasher hashes and verifies API tokens.
type Hasher interface {
	// Hash creates a hash of the given secret.
	Hash(secret string) ([]byte, error)

	// Compare checks if a secret matches a hash.
	Compare(hash []byte, secret string) bool
}

// -----------------------------------------------------------------------------
// Card Store Port
// -----------------------------------------------------------------------------

// CardStore persists card records for all registries. One implementation
// serves every registry type; the registry selects its table.
type CardStore interface {
	// Register assigns the next version for the record's (name, team)
	// pair under the given bump type and commits the record, atomically
	// with respect to concurrent registrations for the same pair.
	// Returns the assigned version.
	Register(ctx context.Context, rt card.RegistryType, rec card.Record, bump semver.BumpType) (string, error)

	// NextVersion reports the version a registration would receive.
	// Advisory only: it does not reserve the version.
	NextVersion(ctx context.Context, rt card.RegistryType, name, team string, bump semver.BumpType) (string, error)

	// CheckUID reports whether a uid is already registered.
	CheckUID(ctx context.Context, rt card.RegistryType, uid string) (bool, error)

	// List returns records matching the filter, ordered by version
	// descending.
	List(ctx context.Context, rt card.RegistryType, f card.Filter) ([]card.Record, error)

	// Update rewrites the mutable fields (tags, contents) of an
	// existing record, addressed by uid.
	Update(ctx context.Context, rt card.RegistryType, rec card.Record) error
}

// -----------------------------------------------------------------------------
// Storage Client Port
// -----------------------------------------------------------------------------

// ChunkIterator yields a file's bytes in bounded chunks. Next returns
// io.EOF after the final chunk. Iteration is lazy, finite and
// non-restartable; the whole file is never buffered.
type ChunkIterator interface {
	Next() ([]byte, error)
	Close() error
}

// StorageClient is a pluggable backend for artifact bytes. Variants:
// local filesystem, S3, GCS, and a remote API proxy for clients without
// direct storage credentials.
type StorageClient interface {
	// Validate reports whether this client serves the named backend.
	Validate(backend string) bool

	// BasePath returns the root all artifact paths are joined under.
	BasePath() string

	// Put streams r to path and returns the resulting storage URI.
	Put(ctx context.Context, path string, r io.Reader) (string, error)

	// Get opens path for reading.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Iterfile streams path in chunks of at most chunkSize bytes.
	Iterfile(ctx context.Context, path string, chunkSize int) (ChunkIterator, error)

	// List returns the paths of all files under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
