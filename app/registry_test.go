package app

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/opsml/opsml/adapters/clock"
	"github.com/opsml/opsml/adapters/idgen"
	"github.com/opsml/opsml/adapters/memory"
	"github.com/opsml/opsml/adapters/metrics"
	"github.com/opsml/opsml/domain/card"
	"github.com/opsml/opsml/domain/semver"
	"github.com/opsml/opsml/domain/split"
)

func newRegistryService() *RegistryService {
	return NewRegistryService(
		memory.NewCardStore(clock.Real{}),
		idgen.NewSequential("uid"),
		metrics.New(prometheus.NewRegistry()),
		zerolog.Nop(),
	)
}

func TestRegisterAssignsUIDAndVersion(t *testing.T) {
	svc := newRegistryService()
	ctx := context.Background()

	rec, err := svc.Register(ctx, card.RegistryData, card.Record{Name: "cats", Team: "ml"}, semver.BumpMinor)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.UID == "" {
		t.Error("uid not assigned")
	}
	if rec.Version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", rec.Version)
	}

	exists, err := svc.CheckUID(ctx, card.RegistryData, rec.UID)
	if err != nil {
		t.Fatalf("check uid: %v", err)
	}
	if !exists {
		t.Error("uid not registered")
	}
}

func TestRegisterValidatesDataSplits(t *testing.T) {
	svc := newRegistryService()
	ctx := context.Background()

	good := card.Record{Name: "cats", Team: "ml", Contents: map[string]any{
		"data_splits": []any{
			map[string]any{"label": "train", "start": 0, "stop": 80},
			map[string]any{"label": "test", "indices": []any{80, 81}},
		},
	}}
	if _, err := svc.Register(ctx, card.RegistryData, good, semver.BumpMinor); err != nil {
		t.Fatalf("valid splits rejected: %v", err)
	}

	mixed := card.Record{Name: "dogs", Team: "ml", Contents: map[string]any{
		"data_splits": []any{
			map[string]any{"label": "train", "column": "group", "indices": []any{1}},
		},
	}}
	if _, err := svc.Register(ctx, card.RegistryData, mixed, semver.BumpMinor); !errors.Is(err, split.ErrInvalidSpec) {
		t.Errorf("mixed-variant split: err = %v, want ErrInvalidSpec", err)
	}

	// Other registries carry no split specs; the key is ignored there.
	model := card.Record{Name: "dogs", Team: "ml", Contents: map[string]any{
		"data_splits": "not a list",
	}}
	if _, err := svc.Register(ctx, card.RegistryModel, model, semver.BumpMinor); err != nil {
		t.Errorf("model card rejected: %v", err)
	}
}

func TestRegisterValidatesIdentity(t *testing.T) {
	svc := newRegistryService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, card.RegistryData, card.Record{Team: "ml"}, semver.BumpMinor); err == nil {
		t.Error("missing name accepted")
	}
	if _, err := svc.Register(ctx, card.RegistryData, card.Record{Name: "has space", Team: "ml"}, semver.BumpMinor); err == nil {
		t.Error("name with space accepted")
	}
}

func TestRegisterStoreErrorSurfaces(t *testing.T) {
	svc := newRegistryService()
	ctx := context.Background()

	rec := card.Record{Name: "cats", Team: "ml", Version: "1.0.0"}
	if _, err := svc.Register(ctx, card.RegistryData, rec, semver.BumpMinor); err != nil {
		t.Fatalf("register: %v", err)
	}

	// A store-level failure must come back as an error, counted, not
	// as a panic out of the metrics path.
	_, err := svc.Register(ctx, card.RegistryData, rec, semver.BumpMinor)
	if !errors.Is(err, card.ErrDuplicateVersion) {
		t.Errorf("error = %v, want ErrDuplicateVersion", err)
	}
}

func TestRegisterRejectsKnownUID(t *testing.T) {
	svc := newRegistryService()
	ctx := context.Background()

	rec, err := svc.Register(ctx, card.RegistryModel, card.Record{Name: "cats", Team: "ml"}, semver.BumpMinor)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	retry := card.Record{UID: rec.UID, Name: "cats", Team: "ml"}
	_, err = svc.Register(ctx, card.RegistryModel, retry, semver.BumpMinor)
	if !errors.Is(err, card.ErrDuplicateUID) {
		t.Errorf("error = %v, want ErrDuplicateUID", err)
	}
}

func TestLoadLatestAndByUID(t *testing.T) {
	svc := newRegistryService()
	ctx := context.Background()

	first, err := svc.Register(ctx, card.RegistryData, card.Record{Name: "cats", Team: "ml"}, semver.BumpMinor)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	second, err := svc.Register(ctx, card.RegistryData, card.Record{Name: "cats", Team: "ml"}, semver.BumpMajor)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// Name and team alone resolve to the latest version.
	got, err := svc.Load(ctx, card.RegistryData, card.Filter{Name: "cats", Team: "ml"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.UID != second.UID {
		t.Errorf("loaded %s, want latest %s", got.UID, second.UID)
	}

	got, err = svc.Load(ctx, card.RegistryData, card.Filter{UID: first.UID})
	if err != nil {
		t.Fatalf("load by uid: %v", err)
	}
	if got.Version != "1.0.0" {
		t.Errorf("version = %q", got.Version)
	}

	if _, err := svc.Load(ctx, card.RegistryData, card.Filter{Name: "cats"}); err == nil {
		t.Error("name without team accepted")
	}
	if _, err := svc.Load(ctx, card.RegistryData, card.Filter{Name: "missing", Team: "ml"}); !errors.Is(err, card.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestLoadOneRejectsAmbiguity(t *testing.T) {
	svc := newRegistryService()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Register(ctx, card.RegistryModel, card.Record{Name: "cats", Team: "ml"}, semver.BumpMinor); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	_, err := svc.LoadOne(ctx, card.RegistryModel, card.Filter{Name: "cats", Team: "ml"})
	if !errors.Is(err, card.ErrAmbiguous) {
		t.Errorf("error = %v, want ErrAmbiguous", err)
	}

	one, err := svc.LoadOne(ctx, card.RegistryModel, card.Filter{Name: "cats", Team: "ml", Version: "1.1.0"})
	if err != nil {
		t.Fatalf("load one: %v", err)
	}
	if one.Version != "1.1.0" {
		t.Errorf("version = %q", one.Version)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	svc := newRegistryService()
	ctx := context.Background()

	rec, err := svc.Register(ctx, card.RegistryRun, card.Record{Name: "exp", Team: "ml"}, semver.BumpMinor)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	rec.Contents = map[string]any{"metrics": map[string]any{"loss": 0.04}}
	if err := svc.Update(ctx, card.RegistryRun, rec); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.Load(ctx, card.RegistryRun, card.Filter{UID: rec.UID})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Contents["metrics"] == nil {
		t.Errorf("contents = %v", got.Contents)
	}
}
