// Package pyver provides the Python bytecode format version value type.
package pyver

import (
	"fmt"
	"strconv"
	"strings"
)

// Version identifies a Python bytecode format version as a
// (major, minor) pair, for example 3.7.
type Version struct {
	Major int
	Minor int
}

// Parse parses a version string in "major.minor" form.
func Parse(s string) (Version, error) {
	major, minor, found := strings.Cut(s, ".")
	if !found {
		return Version{}, fmt.Errorf("invalid version string '%s'", s)
	}
	maj, err := strconv.Atoi(major)
	if err != nil {
		return Version{}, fmt.Errorf("invalid major version '%s': %w", major, err)
	}
	min, err := strconv.Atoi(minor)
	if err != nil {
		return Version{}, fmt.Errorf("invalid minor version '%s': %w", minor, err)
	}
	return Version{Major: maj, Minor: min}, nil
}

// AtLeast returns whether the version is at least major.minor.
func (v Version) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// IsZero returns whether the version is unset.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
