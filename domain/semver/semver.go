// Package semver provides version parsing and bumping for registry cards.
// Versions are three-part semantic versions scoped to a (name, team) pair.
package semver

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// BumpType selects which part of a version to increment on registration.
type BumpType string

const (
	BumpMajor BumpType = "major"
	BumpMinor BumpType = "minor"
	BumpPatch BumpType = "patch"
)

// Initial is the version assigned to the first card registered
// for a (name, team) pair.
const Initial = "1.0.0"

// ParseBumpType validates a caller-supplied bump type string.
func ParseBumpType(s string) (BumpType, error) {
	switch BumpType(s) {
	case BumpMajor, BumpMinor, BumpPatch:
		return BumpType(s), nil
	case "":
		return BumpMinor, nil
	}
	return "", fmt.Errorf("invalid version type %q: must be major, minor or patch", s)
}

// Parse parses a three-part version string.
func Parse(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", s, err)
	}
	return v, nil
}

// Parts returns the major, minor and patch components of a version string.
func Parts(s string) (major, minor, patch uint64, err error) {
	v, err := Parse(s)
	if err != nil {
		return 0, 0, 0, err
	}
	return v.Major(), v.Minor(), v.Patch(), nil
}

// Next computes the version following current under the given bump type.
// An empty current version yields Initial regardless of bump type.
func Next(current string, bump BumpType) (string, error) {
	if current == "" {
		return Initial, nil
	}

	v, err := Parse(current)
	if err != nil {
		return "", err
	}

	var next semver.Version
	switch bump {
	case BumpMajor:
		next = v.IncMajor()
	case BumpMinor:
		next = v.IncMinor()
	case BumpPatch:
		next = v.IncPatch()
	default:
		return "", fmt.Errorf("invalid bump type %q", bump)
	}

	return next.String(), nil
}

// LessThan reports whether version a orders before version b.
func LessThan(a, b string) (bool, error) {
	va, err := Parse(a)
	if err != nil {
		return false, err
	}
	vb, err := Parse(b)
	if err != nil {
		return false, err
	}
	return va.LessThan(vb), nil
}
