package state

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/adamancini/sdkctl/internal/config"
	"github.com/adamancini/sdkctl/internal/update"
)

// versionPattern finds the first x.y.z triple in a version file.
var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

var errStopWalk = errors.New("stop walk")

// Detector probes a project for the SDK settings marker, the installed
// version and the SDK root folder.
type Detector struct {
	projectDir string
	sdk        config.SDK
	logger     *zap.Logger
}

// NewDetector creates a detector for projectDir.
func NewDetector(projectDir string, sdk config.SDK, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		projectDir: projectDir,
		sdk:        sdk,
		logger:     logger,
	}
}

// Abs converts a slash-separated project path to an OS path.
func (d *Detector) Abs(rel string) string {
	return filepath.Join(d.projectDir, filepath.FromSlash(rel))
}

// FindSettingsMarker returns the first existing settings marker.
// A Sdkfile without settings markers treats the marker as present.
func (d *Detector) FindSettingsMarker() (string, bool) {
	if len(d.sdk.SettingsMarkers) == 0 {
		return "", true
	}
	for _, m := range d.sdk.SettingsMarkers {
		if _, err := os.Stat(d.Abs(m)); err == nil {
			return m, true
		}
	}
	return "", false
}

// InstalledVersion reads the version file and returns the first x.y.z it
// contains, or update.UnknownVersion.
func (d *Detector) InstalledVersion() string {
	if d.sdk.VersionFile == "" {
		return update.UnknownVersion
	}

	data, err := os.ReadFile(d.Abs(d.sdk.VersionFile))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			d.logger.Warn("failed to read version file",
				zap.String("path", d.sdk.VersionFile), zap.Error(err))
		}
		return update.UnknownVersion
	}

	match := versionPattern.Find(data)
	if match == nil {
		d.logger.Debug("no version found", zap.String("path", d.sdk.VersionFile))
		return update.UnknownVersion
	}
	return string(match)
}

// LocateSDKRoot finds the SDK folder. It tries the saved path, then the
// default location, then the first directory under the assets dir whose
// name ends with the folder suffix. The result is slash-separated and
// relative to the project.
// Saved paths that fail config.SDK.CheckFolder are ignored.
func (d *Detector) LocateSDKRoot(saved string) (string, bool) {
	if saved != "" {
		if p, ok := d.folder(saved); ok {
			return p, true
		}
	}

	if d.sdk.DefaultLocation != "" {
		if p, ok := d.folder(d.sdk.DefaultLocation); ok {
			return p, true
		}
	}

	if d.sdk.FolderSuffix == "" || d.sdk.AssetsDir == "" {
		return "", false
	}

	root := d.Abs(d.sdk.AssetsDir)
	var found string
	err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if !entry.IsDir() || p == root {
			return nil
		}
		if strings.HasSuffix(entry.Name(), d.sdk.FolderSuffix) {
			found = p
			return errStopWalk
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		d.logger.Debug("sdk folder search failed", zap.String("assets_dir", d.sdk.AssetsDir), zap.Error(err))
		return "", false
	}
	if found == "" {
		return "", false
	}

	rel, err := filepath.Rel(d.projectDir, found)
	if err != nil {
		return "", false
	}
	return d.folder(filepath.ToSlash(rel))
}

// folder returns rel cleaned when it is a safe SDK folder that exists.
func (d *Detector) folder(rel string) (string, bool) {
	clean, err := d.sdk.CheckFolder(rel)
	if err != nil {
		d.logger.Warn("ignoring SDK folder", zap.String("path", rel), zap.Error(err))
		return "", false
	}
	if !d.isDir(clean) {
		return "", false
	}
	return clean, true
}

func (d *Detector) isDir(rel string) bool {
	info, err := os.Stat(d.Abs(rel))
	return err == nil && info.IsDir()
}
