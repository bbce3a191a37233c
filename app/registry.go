// Package app contains the services that implement registry and
// artifact operations on top of the ports.
package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/opsml/opsml/adapters/metrics"
	"github.com/opsml/opsml/domain/card"
	"github.com/opsml/opsml/domain/semver"
	"github.com/opsml/opsml/domain/split"
	"github.com/opsml/opsml/ports"
)

// RegistryService implements card registration, lookup and update for
// every registry type against a single card store.
type RegistryService struct {
	store   ports.CardStore
	idgen   ports.IDGenerator
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewRegistryService creates a new registry service.
func NewRegistryService(store ports.CardStore, idgen ports.IDGenerator, m *metrics.Collector, logger zerolog.Logger) *RegistryService {
	return &RegistryService{
		store:   store,
		idgen:   idgen,
		metrics: m,
		logger:  logger,
	}
}

// Register validates the record, assigns a uid if the caller did not,
// and commits it under the next version for its (name, team) pair.
// Returns the record with uid and version filled in.
func (s *RegistryService) Register(ctx context.Context, rt card.RegistryType, rec card.Record, bump semver.BumpType) (card.Record, error) {
	base := card.Base{Name: rec.Name, Team: rec.Team, UserEmail: rec.UserEmail}
	if err := base.Validate(); err != nil {
		return card.Record{}, err
	}
	if rt == card.RegistryData {
		if err := validateDataSplits(rec.Contents); err != nil {
			return card.Record{}, err
		}
	}

	if rec.UID == "" {
		rec.UID = s.idgen.New()
	} else {
		// A caller retrying an interrupted registration checks its uid
		// first; a duplicate here means the earlier attempt committed.
		exists, err := s.store.CheckUID(ctx, rt, rec.UID)
		if err != nil {
			return card.Record{}, err
		}
		if exists {
			return card.Record{}, fmt.Errorf("register %s card %s: %w", rt, rec.UID, card.ErrDuplicateUID)
		}
	}

	version, err := s.store.Register(ctx, rt, rec, bump)
	if err != nil {
		s.metrics.RegistryErrors.WithLabelValues(string(rt), "register").Inc()
		return card.Record{}, err
	}
	rec.Version = version

	s.metrics.CardsRegistered.WithLabelValues(string(rt)).Inc()
	s.logger.Info().
		Str("registry", string(rt)).
		Str("uid", rec.UID).
		Str("name", rec.Name).
		Str("team", rec.Team).
		Str("version", version).
		Msg("card registered")
	return rec, nil
}

// validateDataSplits rejects malformed split specs carried in a data
// card's contents. Splits recorded here are replayed later to rebuild
// subsets, so a bad spec must fail at registration, not at use.
func validateDataSplits(contents map[string]any) error {
	raw, ok := contents["data_splits"]
	if !ok {
		return nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("data_splits: %w", err)
	}
	var specs []split.Spec
	if err := json.Unmarshal(encoded, &specs); err != nil {
		return fmt.Errorf("%w: data_splits must be a list of split specs", split.ErrInvalidSpec)
	}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// List returns records matching the filter, newest version first.
func (s *RegistryService) List(ctx context.Context, rt card.RegistryType, f card.Filter) ([]card.Record, error) {
	return s.store.List(ctx, rt, f)
}

// Load resolves exactly one card. A uid is unambiguous on its own;
// name and team resolve to the latest version unless the filter pins
// one.
func (s *RegistryService) Load(ctx context.Context, rt card.RegistryType, f card.Filter) (card.Record, error) {
	if f.UID == "" && (f.Name == "" || f.Team == "") {
		return card.Record{}, fmt.Errorf("load card: need a uid or a name and team")
	}

	f.Limit = 1
	records, err := s.store.List(ctx, rt, f)
	if err != nil {
		return card.Record{}, err
	}
	if len(records) == 0 {
		return card.Record{}, fmt.Errorf("load %s card: %w", rt, card.ErrNotFound)
	}
	return records[0], nil
}

// LoadOne resolves the filter and fails if it matches anything other
// than exactly one card. Model downloads use this: serving bytes for
// an ambiguous query would hand the caller an arbitrary model.
func (s *RegistryService) LoadOne(ctx context.Context, rt card.RegistryType, f card.Filter) (card.Record, error) {
	if f.Empty() {
		return card.Record{}, fmt.Errorf("load card: empty filter")
	}

	records, err := s.store.List(ctx, rt, f)
	if err != nil {
		return card.Record{}, err
	}
	switch len(records) {
	case 0:
		return card.Record{}, fmt.Errorf("load %s card: %w", rt, card.ErrNotFound)
	case 1:
		return records[0], nil
	default:
		return card.Record{}, fmt.Errorf("load %s card: %d cards match: %w", rt, len(records), card.ErrAmbiguous)
	}
}

// Update rewrites the mutable fields of an existing card.
func (s *RegistryService) Update(ctx context.Context, rt card.RegistryType, rec card.Record) error {
	if err := s.store.Update(ctx, rt, rec); err != nil {
		s.metrics.RegistryErrors.WithLabelValues(string(rt), "update").Inc()
		return err
	}

	s.metrics.CardsUpdated.WithLabelValues(string(rt)).Inc()
	s.logger.Info().
		Str("registry", string(rt)).
		Str("uid", rec.UID).
		Msg("card updated")
	return nil
}

// CheckUID reports whether a uid is already registered.
func (s *RegistryService) CheckUID(ctx context.Context, rt card.RegistryType, uid string) (bool, error) {
	return s.store.CheckUID(ctx, rt, uid)
}

// NextVersion reports the version a registration would receive.
func (s *RegistryService) NextVersion(ctx context.Context, rt card.RegistryType, name, team string, bump semver.BumpType) (string, error) {
	return s.store.NextVersion(ctx, rt, name, team, bump)
}
