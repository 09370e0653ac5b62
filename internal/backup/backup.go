// Package backup snapshots the SDK folder before destructive operations and
// restores it on request.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/adamancini/sdkctl/internal/types"
)

const (
	manifestFile = "backup.json"
	filesDir     = "files"
)

// Backup describes one snapshot of the SDK folder.
type Backup struct {
	ID            string       `json:"id" yaml:"id"`
	CreatedAt     time.Time    `json:"created_at" yaml:"created_at"`
	Note          string       `json:"note,omitempty" yaml:"note,omitempty"`
	SdkctlVersion string       `json:"sdkctl_version" yaml:"sdkctl_version"`
	Action        types.Action `json:"action,omitempty" yaml:"action,omitempty"`
	SDKPath       string       `json:"sdk_path" yaml:"sdk_path"`
	SDKVersion    string       `json:"sdk_version,omitempty" yaml:"sdk_version,omitempty"`
	Packages      []string     `json:"packages,omitempty" yaml:"packages,omitempty"`
	Files         int          `json:"files" yaml:"files"`
	Size          int64        `json:"size" yaml:"size"`
}

// Source is what to snapshot.
type Source struct {
	ProjectDir string
	SDKPath    string // slash-separated, relative to ProjectDir
	Action     types.Action
	SDKVersion string
	Packages   []string
}

// Manager handles backup operations.
type Manager struct {
	backupDir     string
	sdkctlVersion string
	now           func() time.Time
}

// NewManager creates a manager storing backups under the project's .sdkctl directory.
func NewManager(projectDir, version string) *Manager {
	return NewManagerWithDir(filepath.Join(projectDir, ".sdkctl", "backups"), version)
}

// NewManagerWithDir creates a backup manager with a custom directory (for testing).
func NewManagerWithDir(backupDir, version string) *Manager {
	return &Manager{
		backupDir:     backupDir,
		sdkctlVersion: version,
		now:           time.Now,
	}
}

// BackupDir returns the backup directory path.
func (m *Manager) BackupDir() string {
	return m.backupDir
}

// Create copies the SDK folder and its .meta sibling into a new backup.
func (m *Manager) Create(src Source, note string) (*Backup, error) {
	sdkDir := filepath.Join(src.ProjectDir, filepath.FromSlash(src.SDKPath))
	if info, err := os.Stat(sdkDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("SDK folder %s not found", src.SDKPath)
	}

	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	now := m.now()
	id, dir, err := m.reserve(now)
	if err != nil {
		return nil, err
	}

	b := &Backup{
		ID:            id,
		CreatedAt:     now,
		Note:          note,
		SdkctlVersion: m.sdkctlVersion,
		Action:        src.Action,
		SDKPath:       src.SDKPath,
		SDKVersion:    src.SDKVersion,
		Packages:      src.Packages,
	}

	dest := filepath.Join(dir, filesDir, filepath.FromSlash(src.SDKPath))
	files, size, err := copyTree(sdkDir, dest)
	if err == nil && fileExists(sdkDir+".meta") {
		var n int64
		n, err = copyFile(sdkDir+".meta", dest+".meta")
		files++
		size += n
	}
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to copy SDK folder: %w", err)
	}
	b.Files, b.Size = files, size

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to marshal backup: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0644); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to write backup manifest: %w", err)
	}

	return b, nil
}

// List returns all backups sorted by creation time (newest first).
func (m *Manager) List() ([]Backup, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Backup{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Backup{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		b, err := m.load(entry.Name())
		if err != nil {
			continue
		}
		backups = append(backups, *b)
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].ID > backups[j].ID
		}
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// Get retrieves a backup by ID. Use "latest" to get the most recent backup.
func (m *Manager) Get(id string) (*Backup, error) {
	if id == "latest" {
		backups, err := m.List()
		if err != nil {
			return nil, err
		}
		if len(backups) == 0 {
			return nil, fmt.Errorf("no backups found")
		}
		return &backups[0], nil
	}
	return m.load(id)
}

// Restore replaces the SDK folder in projectDir with the backup's copy.
func (m *Manager) Restore(id, projectDir string) (*Backup, error) {
	b, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	if rel := filepath.FromSlash(b.SDKPath); !filepath.IsLocal(rel) || filepath.Clean(rel) == "." {
		return nil, fmt.Errorf("backup %s has an invalid SDK path %q", b.ID, b.SDKPath)
	}

	src := filepath.Join(m.backupDir, b.ID, filesDir, filepath.FromSlash(b.SDKPath))
	dest := filepath.Join(projectDir, filepath.FromSlash(b.SDKPath))

	if err := os.RemoveAll(dest); err != nil {
		return nil, fmt.Errorf("failed to remove current SDK folder: %w", err)
	}
	if err := os.RemoveAll(dest + ".meta"); err != nil {
		return nil, fmt.Errorf("failed to remove current SDK folder meta file: %w", err)
	}

	if _, _, err := copyTree(src, dest); err != nil {
		return nil, fmt.Errorf("failed to restore SDK folder: %w", err)
	}
	if fileExists(src + ".meta") {
		if _, err := copyFile(src+".meta", dest+".meta"); err != nil {
			return nil, fmt.Errorf("failed to restore SDK folder meta file: %w", err)
		}
	}

	return b, nil
}

// Delete removes a backup by ID.
func (m *Manager) Delete(id string) error {
	if id == "" || filepath.Base(id) != id {
		return fmt.Errorf("invalid backup id: %q", id)
	}
	path := filepath.Join(m.backupDir, id)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("backup not found: %s", id)
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}

	return nil
}

// reserve creates the directory for a new backup. IDs are timestamps with a
// counter suffix when several backups are taken in the same second.
func (m *Manager) reserve(now time.Time) (string, string, error) {
	base := now.Format("2006-01-02-150405")
	for i := 0; i < 100; i++ {
		id := base
		if i > 0 {
			id = fmt.Sprintf("%s-%d", base, i)
		}
		dir := filepath.Join(m.backupDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", fmt.Errorf("failed to create backup: %w", err)
		}
	}
	return "", "", fmt.Errorf("too many backups at %s", base)
}

// load reads and parses a backup manifest.
func (m *Manager) load(id string) (*Backup, error) {
	if id == "" || filepath.Base(id) != id {
		return nil, fmt.Errorf("invalid backup id: %q", id)
	}
	data, err := os.ReadFile(filepath.Join(m.backupDir, id, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("backup not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read backup manifest: %w", err)
	}

	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse backup manifest: %w", err)
	}
	return &b, nil
}

// copyTree copies the directory src to dest and returns the file count and
// total bytes copied.
func copyTree(src, dest string) (int, int64, error) {
	var files int
	var size int64
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		n, err := copyFile(p, target)
		if err != nil {
			return err
		}
		files++
		size += n
		return nil
	})
	return files, size, err
}

func copyFile(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
