package update

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// UnknownVersion is the sentinel shown when a version cannot be determined.
const UnknownVersion = "Unknown"

var versionRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(?:-([a-zA-Z0-9.-]+))?$`)

// Version represents a three-component SDK version.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
}

// ParseVersion parses a version string.
// Supports formats like "1.2.3", "v1.2.3", "2.0.0-rc.1"
func ParseVersion(s string) (*Version, error) {
	matches := versionRegex.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return nil, fmt.Errorf("invalid version format: %s", s)
	}

	major, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid major component in %s: %w", s, err)
	}
	minor, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, fmt.Errorf("invalid minor component in %s: %w", s, err)
	}
	patch, err := strconv.Atoi(matches[3])
	if err != nil {
		return nil, fmt.Errorf("invalid patch component in %s: %w", s, err)
	}

	return &Version{
		Major:      major,
		Minor:      minor,
		Patch:      patch,
		Prerelease: matches[4],
	}, nil
}

// ParseOrUnknown returns the parsed version, or nil when s is empty,
// the unknown sentinel, or malformed.
func ParseOrUnknown(s string) *Version {
	if IsUnknown(s) {
		return nil
	}
	v, err := ParseVersion(s)
	if err != nil {
		return nil
	}
	return v
}

// IsUnknown reports whether s carries no usable version.
func IsUnknown(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == UnknownVersion
}

// String returns the string representation
func (v *Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// Compare compares two versions by full semantic ordering.
// Returns:
//   - 1 if v > other
//   - 0 if v == other
//   - -1 if v < other
func (v *Version) Compare(other *Version) int {
	if v.Major != other.Major {
		return cmpInt(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return cmpInt(v.Minor, other.Minor)
	}
	if v.Patch != other.Patch {
		return cmpInt(v.Patch, other.Patch)
	}

	// Stable versions are greater than prereleases
	if v.Prerelease == "" && other.Prerelease != "" {
		return 1
	}
	if v.Prerelease != "" && other.Prerelease == "" {
		return -1
	}
	if v.Prerelease != other.Prerelease {
		if v.Prerelease > other.Prerelease {
			return 1
		}
		return -1
	}

	return 0
}

func cmpInt(a, b int) int {
	if a > b {
		return 1
	}
	return -1
}

// IsGreaterThan returns true if v > other
func (v *Version) IsGreaterThan(other *Version) bool {
	return v.Compare(other) > 0
}

// IsUpgradeAvailable decides whether the upgrade action is offered.
//
// An unknown latest version never offers an upgrade; an unknown installed
// version always does. Otherwise the components are compared independently
// and any component of latest exceeding installed offers an upgrade, so
// "2.0.5" -> "1.9.9" is offered because 9 > 0 in the minor position.
func IsUpgradeAvailable(installed, latest string) bool {
	latestVer := ParseOrUnknown(latest)
	if latestVer == nil {
		return false
	}

	installedVer := ParseOrUnknown(installed)
	if installedVer == nil {
		return true
	}

	return latestVer.Major > installedVer.Major ||
		latestVer.Minor > installedVer.Minor ||
		latestVer.Patch > installedVer.Patch
}

// NormalizeVersion removes the 'v' prefix if present
func NormalizeVersion(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "v")
}

// DisplayVersion returns the normalized version or the unknown sentinel.
func DisplayVersion(s string) string {
	if IsUnknown(s) {
		return UnknownVersion
	}
	return NormalizeVersion(s)
}
