// Package templates provides embedded Sdkfile templates for sdkctl init.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.yaml
var templatesFS embed.FS

// Template represents a Sdkfile template with metadata.
type Template struct {
	Name        string
	Description string
	Content     []byte
}

// Available templates with their descriptions.
var templateDescriptions = map[string]string{
	"appcenter": "App Center Unity SDK (Analytics, Crashes, Distribute)",
	"minimal":   "Single-package starter",
}

// Default is the template used when none is named.
const Default = "appcenter"

// List returns all available template names sorted alphabetically.
func List() []string {
	entries, err := templatesFS.ReadDir(".")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}

	sort.Strings(names)
	return names
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	content, err := templatesFS.ReadFile(name + ".yaml")
	if err != nil {
		if pathErr, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("template '%s' not found: %w", name, pathErr)
		}
		return nil, fmt.Errorf("failed to read template '%s': %w", name, err)
	}

	return &Template{
		Name:        name,
		Description: GetDescription(name),
		Content:     content,
	}, nil
}

// GetDescription returns the description for a template.
func GetDescription(name string) string {
	if desc, ok := templateDescriptions[name]; ok {
		return desc
	}
	return "Custom template"
}
