package persistence

import (
	"fmt"
	"strconv"
	"strings"
)

// SemanticVersion identifies a schema version as major.minor.patch.
type SemanticVersion struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// ParseSemanticVersion builds a SemanticVersion from a string formatted as major.minor.patch.
func ParseSemanticVersion(input string) (SemanticVersion, error) {
	parts := strings.Split(strings.TrimSpace(input), ".")
	if len(parts) != 3 {
		return SemanticVersion{}, fmt.Errorf("invalid semantic version %q", input)
	}

	var version SemanticVersion
	for idx, part := range parts {
		value, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return SemanticVersion{}, fmt.Errorf("invalid semantic version %q: %w", input, err)
		}

		switch idx {
		case 0:
			version.Major = uint32(value)
		case 1:
			version.Minor = uint32(value)
		case 2:
			version.Patch = uint32(value)
		}
	}

	return version, nil
}

// MustParseSemanticVersion is ParseSemanticVersion for compile-time constants.
func MustParseSemanticVersion(input string) SemanticVersion {
	v, err := ParseSemanticVersion(input)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the semantic version in major.minor.patch notation.
func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsZero reports whether no version has been recorded.
func (v SemanticVersion) IsZero() bool {
	return v == SemanticVersion{}
}

// Compare returns -1, 0, or 1 depending on the ordering of the versions.
func (v SemanticVersion) Compare(other SemanticVersion) int {
	if v.Major != other.Major {
		return compareUint32(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return compareUint32(v.Minor, other.Minor)
	}
	return compareUint32(v.Patch, other.Patch)
}

func compareUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
