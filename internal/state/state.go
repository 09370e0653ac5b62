// Package state detects what part of the SDK is present in a project.
package state

import (
	"os"
	"path/filepath"

	"github.com/adamancini/sdkctl/internal/config"
)

// Package is one installable unit of the SDK.
type Package interface {
	Name() string
	IsInstalled() bool
}

// FilePackage reports installed when any of its marker paths exists.
// Detection hits the filesystem on every call.
type FilePackage struct {
	name       string
	projectDir string
	markers    []string
}

// NewFilePackage creates a package probed through slash-separated marker
// paths relative to projectDir.
func NewFilePackage(projectDir, name string, markers []string) *FilePackage {
	return &FilePackage{
		name:       name,
		projectDir: projectDir,
		markers:    markers,
	}
}

// Name implements Package.
func (p *FilePackage) Name() string {
	return p.name
}

// Markers returns the marker paths.
func (p *FilePackage) Markers() []string {
	return p.markers
}

// IsInstalled implements Package.
func (p *FilePackage) IsInstalled() bool {
	for _, m := range p.markers {
		if _, err := os.Stat(filepath.Join(p.projectDir, filepath.FromSlash(m))); err == nil {
			return true
		}
	}
	return false
}

// Catalog is the ordered list of supported packages.
type Catalog []Package

// NewCatalog builds the catalog declared in the Sdkfile.
func NewCatalog(projectDir string, cfg *config.Sdkfile) Catalog {
	catalog := make(Catalog, 0, len(cfg.Packages))
	for _, p := range cfg.Packages {
		catalog = append(catalog, NewFilePackage(projectDir, p.Name, p.MarkerPaths(cfg.SDK.DefaultLocation)))
	}
	return catalog
}

// Names returns the package names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return names
}

// Find returns the package with the given name.
func (c Catalog) Find(name string) (Package, bool) {
	for _, p := range c {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}
