package update

import (
	"context"
	"time"
)

// TagSource returns the newest published SDK version.
// An empty string with a nil error means the source has no usable tags.
type TagSource interface {
	LatestTag(ctx context.Context) (string, error)
}

// CheckCache is the persisted result of the last remote version check.
type CheckCache struct {
	LastChecked   time.Time // Zero when never checked
	LatestVersion string    // Normalized version or UnknownVersion
}

// CacheStore persists CheckCache between runs.
type CacheStore interface {
	LoadCheckCache() (CheckCache, error)
	SaveCheckCache(CheckCache) error
}

// CheckInfo summarizes installed vs latest for display.
type CheckInfo struct {
	InstalledVersion string    `json:"installed_version" yaml:"installed_version"`
	LatestVersion    string    `json:"latest_version" yaml:"latest_version"`
	UpgradeAvailable bool      `json:"upgrade_available" yaml:"upgrade_available"`
	LastChecked      time.Time `json:"last_checked" yaml:"last_checked"`
	ReleaseNotesURL  string    `json:"release_notes_url,omitempty" yaml:"release_notes_url,omitempty"`
}
