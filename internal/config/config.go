// Package config handles Sdkfile parsing and location resolution.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Defaults applied when the Sdkfile leaves a field empty.
const (
	DefaultAssetsDir           = "Assets"
	DefaultAndroidSettingsDir  = "Assets/Plugins/Android/res/values"
	DefaultAndroidSettingsGlob = "appcenter-settings.xml*"
)

// ErrUnsafeSDKPath is returned for SDK folder paths that are not safe to
// delete: absolute, outside the project, the project itself, or outside the
// assets dir.
var ErrUnsafeSDKPath = errors.New("unsafe SDK folder path")

// Sdkfile represents the parsed configuration file.
type Sdkfile struct {
	Version   int       `yaml:"version" toml:"version" json:"version"`
	SDK       SDK       `yaml:"sdk" toml:"sdk" json:"sdk"`
	Installer Installer `yaml:"installer" toml:"installer" json:"installer"`
	Packages  []Package `yaml:"packages" toml:"packages" json:"packages"`
}

// SDK describes where the SDK lives inside a project and where it is published.
// All paths are slash-separated and relative to the project root.
type SDK struct {
	Name                string   `yaml:"name" toml:"name" json:"name"`
	Repo                string   `yaml:"repo" toml:"repo" json:"repo"` // owner/repo on GitHub
	ReleaseNotesURL     string   `yaml:"release_notes_url,omitempty" toml:"release_notes_url,omitempty" json:"release_notes_url,omitempty"`
	DefaultLocation     string   `yaml:"default_location" toml:"default_location" json:"default_location"`
	AssetsDir           string   `yaml:"assets_dir,omitempty" toml:"assets_dir,omitempty" json:"assets_dir,omitempty"`
	FolderSuffix        string   `yaml:"folder_suffix,omitempty" toml:"folder_suffix,omitempty" json:"folder_suffix,omitempty"`
	VersionFile         string   `yaml:"version_file,omitempty" toml:"version_file,omitempty" json:"version_file,omitempty"`
	SettingsMarkers     []string `yaml:"settings_markers,omitempty" toml:"settings_markers,omitempty" json:"settings_markers,omitempty"`
	Preserve            []string `yaml:"preserve,omitempty" toml:"preserve,omitempty" json:"preserve,omitempty"`
	AndroidSettingsDir  string   `yaml:"android_settings_dir,omitempty" toml:"android_settings_dir,omitempty" json:"android_settings_dir,omitempty"`
	AndroidSettingsGlob string   `yaml:"android_settings_glob,omitempty" toml:"android_settings_glob,omitempty" json:"android_settings_glob,omitempty"`
}

// Owner returns the GitHub owner part of Repo.
func (s SDK) Owner() string {
	owner, _, _ := strings.Cut(s.Repo, "/")
	return owner
}

// RepoName returns the GitHub repository part of Repo.
func (s SDK) RepoName() string {
	_, name, _ := strings.Cut(s.Repo, "/")
	return name
}

// CheckFolder validates a candidate SDK folder and returns it cleaned. The
// folder must be the default location or lie below the assets dir.
func (s SDK) CheckFolder(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrUnsafeSDKPath)
	}
	slashed := filepath.ToSlash(p)
	if path.IsAbs(slashed) || filepath.IsAbs(p) || (len(slashed) > 1 && slashed[1] == ':') {
		return "", fmt.Errorf("%w: %s is absolute", ErrUnsafeSDKPath, p)
	}
	clean := path.Clean(slashed)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s is not inside the project", ErrUnsafeSDKPath, p)
	}
	if s.DefaultLocation != "" && clean == path.Clean(s.DefaultLocation) {
		return clean, nil
	}

	assets := s.AssetsDir
	if assets == "" {
		assets = DefaultAssetsDir
	}
	assets = path.Clean(assets)
	if assets != "." && !strings.HasPrefix(clean, assets+"/") {
		return "", fmt.Errorf("%w: %s is not under %s", ErrUnsafeSDKPath, p, assets)
	}
	return clean, nil
}

// Installer is the external command that imports one package into the project.
// Args may contain the placeholders {package}, {version} and {sdk_path}.
type Installer struct {
	Command string   `yaml:"command" toml:"command" json:"command"`
	Args    []string `yaml:"args,omitempty" toml:"args,omitempty" json:"args,omitempty"`
}

// Package is one supported SDK package.
// Can be specified as:
//   - Simple string: "AppCenterAnalytics" (marker defaults to <default_location>/<name>)
//   - Struct with name and explicit marker paths
type Package struct {
	Name    string   `yaml:"name" toml:"name" json:"name"`
	Markers []string `yaml:"markers,omitempty" toml:"markers,omitempty" json:"markers,omitempty"`
}

// MarkerPaths returns the configured markers or the default one.
func (p Package) MarkerPaths(defaultLocation string) []string {
	if len(p.Markers) > 0 {
		return p.Markers
	}
	return []string{path.Join(defaultLocation, p.Name)}
}

// FindSdkfile searches for a Sdkfile in the standard locations.
// Returns the path to the first Sdkfile found, or an error if none exists.
func FindSdkfile(explicitPath, projectDir string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified Sdkfile not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv("SDKFILE"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	var searchPaths []string
	if projectDir != "" {
		searchPaths = append(searchPaths, projectDir)
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		if home, err := os.UserHomeDir(); err == nil {
			xdgConfig = filepath.Join(home, ".config")
		}
	}
	if xdgConfig != "" {
		searchPaths = append(searchPaths, filepath.Join(xdgConfig, "sdkctl"))
	}

	fileNames := []string{
		"Sdkfile",
		"Sdkfile.yaml",
		"Sdkfile.yml",
		"Sdkfile.toml",
		"Sdkfile.json",
		".Sdkfile",
		".Sdkfile.yaml",
		".Sdkfile.yml",
		".Sdkfile.toml",
		".Sdkfile.json",
	}

	for _, dir := range searchPaths {
		for _, name := range fileNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}

	return "", fmt.Errorf("no Sdkfile found in standard locations")
}

// Load reads, parses and validates a Sdkfile from the given path.
func Load(path string) (*Sdkfile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Sdkfile: %w", err)
	}
	return Parse(path, content)
}

// Parse parses and validates Sdkfile content. name is only used to pick
// the format by extension; content sniffing covers the rest.
func Parse(name string, content []byte) (*Sdkfile, error) {
	format := detectFormat(name, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", name)
	}

	sdkfile, err := parse(content, format)
	if err != nil {
		return nil, err
	}

	applyDefaults(sdkfile)

	if err := Validate(sdkfile); err != nil {
		return nil, err
	}

	return sdkfile, nil
}

func applyDefaults(c *Sdkfile) {
	if c.SDK.AssetsDir == "" {
		c.SDK.AssetsDir = DefaultAssetsDir
	}
	if c.SDK.FolderSuffix == "" && c.SDK.DefaultLocation != "" {
		c.SDK.FolderSuffix = path.Base(c.SDK.DefaultLocation)
	}
	if c.SDK.AndroidSettingsDir == "" {
		c.SDK.AndroidSettingsDir = DefaultAndroidSettingsDir
	}
	if c.SDK.AndroidSettingsGlob == "" {
		c.SDK.AndroidSettingsGlob = DefaultAndroidSettingsGlob
	}
	if c.SDK.ReleaseNotesURL == "" && c.SDK.Repo != "" {
		c.SDK.ReleaseNotesURL = fmt.Sprintf("https://github.com/%s/releases", c.SDK.Repo)
	}
}
