package component

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Version is a semantic major.minor.patch version for a component.
// Versions are totally ordered by their three-number tuple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// InitialVersion is the version assigned to newly created components.
var InitialVersion = Version{Major: 1, Minor: 0, Patch: 0}

// ParseVersion parses a "major.minor.patch" string.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor.patch", s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q: component %q is not a non-negative integer", s, p)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// ParseVersionKey parses the underscore form used for snapshot keys ("1_0_0").
func ParseVersionKey(key string) (Version, error) {
	return ParseVersion(strings.ReplaceAll(key, "_", "."))
}

// String returns the dotted form ("1.0.0").
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Key returns the underscore form used for snapshot keys ("1_0_0").
func (v Version) Key() string {
	return fmt.Sprintf("%d_%d_%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 comparing v to other.
func (v Version) Compare(other Version) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	return compareInt(v.Patch, other.Patch)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// BumpPatch returns the next patch version.
func (v Version) BumpPatch() Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
}

// BumpMinor returns the next minor version with patch reset.
func (v Version) BumpMinor() Version {
	return Version{Major: v.Major, Minor: v.Minor + 1, Patch: 0}
}

// BumpMajor returns the next major version with minor and patch reset.
func (v Version) BumpMajor() Version {
	return Version{Major: v.Major + 1, Minor: 0, Patch: 0}
}

// Bump selects which version component an update increments.
type Bump int

const (
	// BumpPatch increments the patch number (default for edits).
	BumpPatch Bump = iota

	// BumpMinor increments the minor number.
	BumpMinor

	// BumpMajor increments the major number.
	BumpMajor
)

// Apply returns the bumped version.
func (b Bump) Apply(v Version) Version {
	switch b {
	case BumpMinor:
		return v.BumpMinor()
	case BumpMajor:
		return v.BumpMajor()
	default:
		return v.BumpPatch()
	}
}

// VersionInfo describes one version of a component, current or snapshot.
type VersionInfo struct {
	// Version is the dotted version string.
	Version string `json:"version"`

	// SnapshotID identifies the snapshot record (empty for the current version).
	SnapshotID string `json:"snapshot_id,omitempty"`

	// Timestamp is when the snapshot was taken, or the component's
	// updated_at for the current version.
	Timestamp time.Time `json:"timestamp"`

	// Current marks the live version.
	Current bool `json:"current"`
}
