// Package card provides card value types and pure functions.
// A card is a versioned metadata record describing a dataset, model,
// run, pipeline, audit or project artifact. Cards hold URIs into a
// storage backend, never the artifact bytes themselves.
package card

import (
	"errors"
	"fmt"
	"strings"
)

// Registry lookup and registration errors.
var (
	ErrNotFound         = errors.New("card not found")
	ErrDuplicateUID     = errors.New("card uid already registered")
	ErrDuplicateVersion = errors.New("card version already registered")
	ErrAmbiguous        = errors.New("query matched more than one card")
	ErrImmutable        = errors.New("field is immutable after registration")
)

// RegistryType identifies which registry a card belongs to.
type RegistryType string

const (
	RegistryData     RegistryType = "data"
	RegistryModel    RegistryType = "model"
	RegistryRun      RegistryType = "run"
	RegistryPipeline RegistryType = "pipeline"
	RegistryAudit    RegistryType = "audit"
	RegistryProject  RegistryType = "project"
)

// RegistryTypes lists all registries in table-creation order.
var RegistryTypes = []RegistryType{
	RegistryData,
	RegistryModel,
	RegistryRun,
	RegistryPipeline,
	RegistryAudit,
	RegistryProject,
}

// ParseRegistryType validates a registry type name.
func ParseRegistryType(s string) (RegistryType, error) {
	rt := RegistryType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range RegistryTypes {
		if rt == known {
			return rt, nil
		}
	}
	return "", fmt.Errorf("unknown registry type %q", s)
}

// TableName returns the relational table backing a registry.
func (rt RegistryType) TableName() string {
	return "opsml_" + string(rt) + "_registry"
}

// RegistryTypeFromTable resolves a table name like "opsml_data_registry"
// back to its registry type.
func RegistryTypeFromTable(table string) (RegistryType, error) {
	parts := strings.Split(strings.ToLower(table), "_")
	if len(parts) != 3 || parts[0] != "opsml" || parts[2] != "registry" {
		return "", fmt.Errorf("invalid registry table name %q", table)
	}
	return ParseRegistryType(parts[1])
}

// Base holds the fields shared by every card type.
// Name, Team, UID and Version are fixed at registration; Tags and the
// type-specific metadata may be updated in place afterwards.
type Base struct {
	Name      string            `json:"name"`
	Team      string            `json:"team"`
	UserEmail string            `json:"user_email"`
	UID       string            `json:"uid,omitempty"`
	Version   string            `json:"version,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// Validate checks the fields required before registration.
func (b Base) Validate() error {
	if b.Name == "" {
		return errors.New("card name is required")
	}
	if b.Team == "" {
		return errors.New("card team is required")
	}
	if strings.ContainsAny(b.Name, "/ ") || strings.ContainsAny(b.Team, "/ ") {
		return fmt.Errorf("card name and team must not contain spaces or slashes: %q/%q", b.Team, b.Name)
	}
	return nil
}

// Metric is a single observed metric value on a run.
type Metric struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Step      int     `json:"step,omitempty"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// Param is a named hyperparameter recorded on a run.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DataCard describes a registered dataset artifact.
type DataCard struct {
	Base

	DataURI       string            `json:"data_uri,omitempty"`
	DataType      string            `json:"data_type,omitempty"`
	FeatureMap    map[string]string `json:"feature_map,omitempty"`
	DataSplits    []SplitSpec       `json:"data_splits,omitempty"`
	DependentVars []string          `json:"dependent_vars,omitempty"`
}

// SplitSpec mirrors split.Spec for persistence on a DataCard. It is kept
// as a plain JSON shape here so card records stay decoupled from the
// splitter implementation.
type SplitSpec struct {
	Label       string `json:"label"`
	Column      string `json:"column,omitempty"`
	ColumnValue any    `json:"column_value,omitempty"`
	Start       *int   `json:"start,omitempty"`
	Stop        *int   `json:"stop,omitempty"`
	Indices     []int  `json:"indices,omitempty"`
}

// ModelCard describes a registered model artifact.
type ModelCard struct {
	Base

	ModelURI      string `json:"model_uri,omitempty"`
	SampleDataURI string `json:"sample_data_uri,omitempty"`
	ModelType     string `json:"model_type,omitempty"`
	DataCardUID   string `json:"datacard_uid,omitempty"`
}

// RunCard describes a single training or evaluation run.
type RunCard struct {
	Base

	ProjectUID   string              `json:"project_uid,omitempty"`
	PipelineUID  string              `json:"pipeline_uid,omitempty"`
	Metrics      map[string][]Metric `json:"metrics,omitempty"`
	Params       map[string][]Param  `json:"params,omitempty"`
	ArtifactURIs map[string]string   `json:"artifact_uris,omitempty"`
}

// PipelineCard links the cards produced by one pipeline execution.
type PipelineCard struct {
	Base

	PipelineCodeURI string   `json:"pipeline_code_uri,omitempty"`
	DataCardUIDs    []string `json:"datacard_uids,omitempty"`
	ModelCardUIDs   []string `json:"modelcard_uids,omitempty"`
}

// AuditCard records a sign-off over a set of related cards.
type AuditCard struct {
	Base

	AuditURI string `json:"audit_uri,omitempty"`
	Approved bool   `json:"approved"`
}

// ProjectCard groups runs under a project identifier.
type ProjectCard struct {
	Base

	ProjectID string `json:"project_id,omitempty"`
}
