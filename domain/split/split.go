// Package split partitions datasets into named subsets from declarative
// split specifications. A spec is exactly one of three variants: a
// column-value predicate, a half-open row range, or an explicit index
// list.
package split

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpec marks a malformed split specification, e.g. one
	// mixing fields of two variants.
	ErrInvalidSpec = errors.New("invalid split specification")

	// ErrVariantMismatch is returned when an accessor is used on a
	// splitter whose spec variant does not define that attribute.
	ErrVariantMismatch = errors.New("attribute not defined for this split variant")

	// ErrOutOfRange marks range bounds outside the dataset.
	ErrOutOfRange = errors.New("split bounds out of range")
)

// Kind identifies a spec variant.
type Kind string

const (
	KindColumn  Kind = "column"
	KindRange   Kind = "range"
	KindIndices Kind = "indices"
)

// Spec describes one named split. Exactly one variant's fields may be
// set: Column+ColumnValue, Start+Stop, or Indices.
type Spec struct {
	Label       string `json:"label"`
	Column      string `json:"column,omitempty"`
	ColumnValue any    `json:"column_value,omitempty"`
	Start       *int   `json:"start,omitempty"`
	Stop        *int   `json:"stop,omitempty"`
	Indices     []int  `json:"indices,omitempty"`
}

// Kind returns the spec's variant, or ErrInvalidSpec when the fields do
// not describe exactly one variant.
func (s Spec) Kind() (Kind, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	switch {
	case s.Column != "":
		return KindColumn, nil
	case s.Start != nil:
		return KindRange, nil
	default:
		return KindIndices, nil
	}
}

// Validate rejects malformed specs with a descriptive error rather than
// defaulting silently.
func (s Spec) Validate() error {
	if s.Label == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidSpec)
	}

	hasColumn := s.Column != "" || s.ColumnValue != nil
	hasRange := s.Start != nil || s.Stop != nil
	hasIndices := s.Indices != nil

	set := 0
	for _, has := range []bool{hasColumn, hasRange, hasIndices} {
		if has {
			set++
		}
	}
	if set == 0 {
		return fmt.Errorf("%w: split %q sets no variant fields", ErrInvalidSpec, s.Label)
	}
	if set > 1 {
		return fmt.Errorf("%w: split %q mixes fields of more than one variant", ErrInvalidSpec, s.Label)
	}

	switch {
	case hasColumn:
		if s.Column == "" {
			return fmt.Errorf("%w: split %q sets column_value without column", ErrInvalidSpec, s.Label)
		}
		if s.ColumnValue == nil {
			return fmt.Errorf("%w: split %q sets column without column_value", ErrInvalidSpec, s.Label)
		}
	case hasRange:
		if s.Start == nil || s.Stop == nil {
			return fmt.Errorf("%w: split %q must set both start and stop", ErrInvalidSpec, s.Label)
		}
		if *s.Start < 0 || *s.Stop < *s.Start {
			return fmt.Errorf("%w: split %q has start=%d stop=%d", ErrInvalidSpec, s.Label, *s.Start, *s.Stop)
		}
	case hasIndices:
		for _, idx := range s.Indices {
			if idx < 0 {
				return fmt.Errorf("%w: split %q has negative index %d", ErrInvalidSpec, s.Label, idx)
			}
		}
	}
	return nil
}

// IntPtr is a convenience for building range specs.
func IntPtr(n int) *int { return &n }
