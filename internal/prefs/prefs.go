// Package prefs persists per-project editor preferences for sdkctl.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adamancini/sdkctl/internal/update"
)

// DirName is the per-project state directory.
const DirName = ".sdkctl"

// FileName is the preference file inside DirName.
const FileName = "prefs.yaml"

// Prefs is the persisted preference document.
type Prefs struct {
	SDKPath          string    `yaml:"sdk_path,omitempty"`
	LastVersionCheck time.Time `yaml:"last_version_check,omitempty"`
	LatestSDKVersion string    `yaml:"latest_sdk_version,omitempty"`
}

// Store reads and writes Prefs on disk.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store for the project rooted at projectDir.
func NewStore(projectDir string) *Store {
	return &Store{path: filepath.Join(projectDir, DirName, FileName)}
}

// NewStoreWithPath creates a store backed by an explicit file (for testing).
func NewStoreWithPath(path string) *Store {
	return &Store{path: path}
}

// Path returns the preference file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the preferences. A missing file yields empty preferences.
func (s *Store) Load() (*Prefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*Prefs, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Prefs{}, nil
		}
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	var p Prefs
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return &p, nil
}

// Update applies fn to the stored preferences and writes the result.
func (s *Store) Update(fn func(*Prefs)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load()
	if err != nil {
		return err
	}
	fn(p)
	return s.save(p)
}

// save writes atomically through a temp file and rename.
func (s *Store) save(p *Prefs) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace preferences: %w", err)
	}
	return nil
}

// SDKPath returns the saved SDK folder, or "" when none is saved.
func (s *Store) SDKPath() (string, error) {
	p, err := s.Load()
	if err != nil {
		return "", err
	}
	return p.SDKPath, nil
}

// SetSDKPath saves the SDK folder when it differs from the stored one.
// It reports whether a write happened.
func (s *Store) SetSDKPath(path string) (bool, error) {
	changed := false
	err := s.Update(func(p *Prefs) {
		if p.SDKPath != path {
			p.SDKPath = path
			changed = true
		}
	})
	return changed, err
}

// LoadCheckCache implements update.CacheStore.
func (s *Store) LoadCheckCache() (update.CheckCache, error) {
	p, err := s.Load()
	if err != nil {
		return update.CheckCache{}, err
	}
	return update.CheckCache{
		LastChecked:   p.LastVersionCheck,
		LatestVersion: p.LatestSDKVersion,
	}, nil
}

// SaveCheckCache implements update.CacheStore.
func (s *Store) SaveCheckCache(c update.CheckCache) error {
	return s.Update(func(p *Prefs) {
		p.LastVersionCheck = c.LastChecked
		p.LatestSDKVersion = c.LatestVersion
	})
}
