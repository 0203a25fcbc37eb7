// Package schemaver provides the dotted numeric version type used to tag
// the persisted state document ("1.0", "1.1", "2.0"). Ordering is
// component-wise and purely numeric; a string that does not parse is
// treated as the oldest possible version rather than an error, so corrupt
// version fields degrade to "very old" instead of failing diagnostics.
package schemaver

import (
	"encoding/json"
	"fmt"
	"strings"

	bsemver "github.com/blang/semver/v4"
	"gopkg.in/yaml.v3"
)

// Version is a schema version. The zero value is 0.0.0, the oldest
// possible version, used as the fallback for malformed input.
type Version struct {
	major uint64
	minor uint64
	patch uint64

	// raw preserves the spelling the version was parsed from ("1.1"
	// stays "1.1", not "1.1.0") so documents keep the form their
	// migrations declared.
	raw string
}

// Parse parses a dotted numeric version string. One to three components
// are accepted ("2", "1.1", "1.2.3"); a leading "v" is tolerated.
// Prerelease or build suffixes are not part of the schema version dialect
// and are rejected.
func Parse(s string) (Version, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(s, "v"))
	bv, err := bsemver.ParseTolerant(trimmed)
	if err != nil {
		return Version{}, fmt.Errorf("invalid schema version %q: %w", s, err)
	}
	if len(bv.Pre) > 0 || len(bv.Build) > 0 {
		return Version{}, fmt.Errorf("invalid schema version %q: prerelease and build suffixes are not allowed", s)
	}
	return Version{major: bv.Major, minor: bv.Minor, patch: bv.Patch, raw: trimmed}, nil
}

// ParseLenient parses s, falling back to the zero version (0.0.0) when the
// string is malformed. It never fails.
func ParseLenient(s string) Version {
	v, err := Parse(s)
	if err != nil {
		return Version{}
	}
	return v
}

// MustParse parses s and panics on failure. Intended for registering
// migrations and for tests, where the version string is a literal.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as it was originally spelled, or the
// canonical form for versions not produced by parsing.
func (v Version) String() string {
	if v.raw != "" {
		return v.raw
	}
	return v.Canonical()
}

// Canonical returns the full three-component form ("1.1" -> "1.1.0").
// Canonical strings are the identity used for graph nodes, so "1.1" and
// "1.1.0" name the same version.
func (v Version) Canonical() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

// IsZero reports whether the version is exactly 0.0.0.
func (v Version) IsZero() bool {
	return v.major == 0 && v.minor == 0 && v.patch == 0
}

// Compare reports the ordering of v relative to other: -1 if v is older,
// 0 if equal, +1 if newer.
func (v Version) Compare(other Version) int {
	a := bsemver.Version{Major: v.major, Minor: v.minor, Patch: v.patch}
	b := bsemver.Version{Major: other.major, Minor: other.minor, Patch: other.patch}
	return a.Compare(b)
}

// Less reports whether v is strictly older than other.
func (v Version) Less(other Version) bool { return v.Compare(other) < 0 }

// Equal reports whether v and other denote the same version, regardless
// of spelling ("1.1" equals "1.1.0").
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// Greater reports whether v is strictly newer than other.
func (v Version) Greater(other Version) bool { return v.Compare(other) > 0 }

// Compare orders two raw version strings leniently: either side that
// fails to parse is treated as the zero version. This is the comparison
// the compatibility checker uses, so it never fails on document input.
func Compare(a, b string) int {
	return ParseLenient(a).Compare(ParseLenient(b))
}

// MarshalJSON encodes the version as a JSON string in its original
// spelling.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON decodes a JSON string via Parse.
func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("schema version must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML encodes the version as a scalar string.
func (v Version) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}

// UnmarshalYAML decodes a scalar string via Parse.
func (v *Version) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("schema version must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
