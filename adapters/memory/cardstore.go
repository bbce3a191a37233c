// Package memory provides in-memory adapter implementations for
// testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/opsml/opsml/domain/card"
	"github.com/opsml/opsml/domain/semver"
	"github.com/opsml/opsml/ports"
)

// CardStore is an in-memory implementation of ports.CardStore.
type CardStore struct {
	mu      sync.Mutex
	records map[card.RegistryType][]card.Record
	clock   ports.Clock
}

// NewCardStore creates an empty in-memory card store.
func NewCardStore(clock ports.Clock) *CardStore {
	return &CardStore{
		records: make(map[card.RegistryType][]card.Record),
		clock:   clock,
	}
}

var _ ports.CardStore = (*CardStore)(nil)

func (s *CardStore) Register(ctx context.Context, rt card.RegistryType, rec card.Record, bump semver.BumpType) (string, error) {
	if rec.UID == "" {
		return "", fmt.Errorf("register card: uid is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records[rt] {
		if existing.UID == rec.UID {
			return "", fmt.Errorf("register card: %w", card.ErrDuplicateUID)
		}
	}

	version := rec.Version
	if version == "" {
		var err error
		version, err = semver.Next(s.latestLocked(rt, rec.Name, rec.Team), bump)
		if err != nil {
			return "", fmt.Errorf("register card: %w", err)
		}
	} else if _, err := semver.Parse(version); err != nil {
		return "", fmt.Errorf("register card: %w", err)
	}

	for _, existing := range s.records[rt] {
		if existing.Name == rec.Name && existing.Team == rec.Team && existing.Version == version {
			return "", fmt.Errorf("register card: %w", card.ErrDuplicateVersion)
		}
	}

	rec.Version = version
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock.Now()
	}
	s.records[rt] = append(s.records[rt], rec)
	return version, nil
}

func (s *CardStore) NextVersion(ctx context.Context, rt card.RegistryType, name, team string, bump semver.BumpType) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return semver.Next(s.latestLocked(rt, name, team), bump)
}

func (s *CardStore) CheckUID(ctx context.Context, rt card.RegistryType, uid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records[rt] {
		if rec.UID == uid {
			return true, nil
		}
	}
	return false, nil
}

func (s *CardStore) List(ctx context.Context, rt card.RegistryType, f card.Filter) ([]card.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []card.Record
	for _, rec := range s.records[rt] {
		if f.UID != "" && rec.UID != f.UID {
			continue
		}
		if f.Name != "" && rec.Name != f.Name {
			continue
		}
		if f.Team != "" && rec.Team != f.Team {
			continue
		}
		if f.Version != "" && rec.Version != f.Version {
			continue
		}
		matches = append(matches, rec)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		less, err := semver.LessThan(matches[j].Version, matches[i].Version)
		if err != nil {
			return false
		}
		return less
	})

	if f.Limit > 0 && len(matches) > f.Limit {
		matches = matches[:f.Limit]
	}
	return matches, nil
}

func (s *CardStore) Update(ctx context.Context, rt card.RegistryType, rec card.Record) error {
	if rec.UID == "" {
		return fmt.Errorf("update card: uid is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.records[rt] {
		if existing.UID == rec.UID {
			existing.UserEmail = rec.UserEmail
			existing.Tags = rec.Tags
			existing.Contents = rec.Contents
			s.records[rt][i] = existing
			return nil
		}
	}
	return fmt.Errorf("update card %s: %w", rec.UID, card.ErrNotFound)
}

// latestLocked returns the highest registered version for the pair, or
// "" when none exists. Callers must hold mu.
func (s *CardStore) latestLocked(rt card.RegistryType, name, team string) string {
	var latest string
	for _, rec := range s.records[rt] {
		if rec.Name != name || rec.Team != team {
			continue
		}
		if latest == "" {
			latest = rec.Version
			continue
		}
		if less, err := semver.LessThan(latest, rec.Version); err == nil && less {
			latest = rec.Version
		}
	}
	return latest
}
