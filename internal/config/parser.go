// Package config handles Sdkfile parsing and location resolution.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format represents the file format of a Sdkfile.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatTOML
	FormatJSON
)

// detectFormat determines the file format based on extension or content.
func detectFormat(path string, content []byte) Format {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	}

	return sniffFormat(content)
}

// sniffFormat attempts to detect format from content.
func sniffFormat(content []byte) Format {
	trimmed := strings.TrimSpace(string(content))

	if strings.HasPrefix(trimmed, "{") {
		return FormatJSON
	}

	// TOML uses key = value and [tables]; YAML uses key: value.
	// The first significant line decides.
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") || strings.Contains(line, " = ") {
			return FormatTOML
		}
		if strings.Contains(line, ":") {
			return FormatYAML
		}
	}

	return FormatUnknown
}

// rawSdkfile is an intermediate representation for parsing.
// It handles the flexible Package format (string or struct).
type rawSdkfile struct {
	Version   int           `yaml:"version" toml:"version" json:"version"`
	SDK       SDK           `yaml:"sdk" toml:"sdk" json:"sdk"`
	Installer Installer     `yaml:"installer" toml:"installer" json:"installer"`
	Packages  []interface{} `yaml:"packages" toml:"packages" json:"packages"`
}

// parsePackages converts the flexible package format to Package structs.
func parsePackages(raw []interface{}) ([]Package, error) {
	packages := make([]Package, 0, len(raw))

	for i, item := range raw {
		switch v := item.(type) {
		case string:
			packages = append(packages, Package{Name: v})

		case map[string]interface{}:
			pkg := Package{}

			name, ok := v["name"].(string)
			if !ok {
				return nil, fmt.Errorf("packages[%d]: missing or invalid 'name' field", i)
			}
			pkg.Name = name

			if rawMarkers, present := v["markers"]; present {
				markers, err := stringList(rawMarkers)
				if err != nil {
					return nil, fmt.Errorf("packages[%d].markers: %w", i, err)
				}
				pkg.Markers = markers
			}

			packages = append(packages, pkg)

		default:
			return nil, fmt.Errorf("packages[%d]: invalid format (expected string or object)", i)
		}
	}

	return packages, nil
}

func stringList(v interface{}) ([]string, error) {
	switch list := v.(type) {
	case string:
		return []string{list}, nil
	case []interface{}:
		out := make([]string, 0, len(list))
		for j, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d is not a string", j)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string or list of strings")
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns in content.
func expandEnvVars(content []byte) []byte {
	return envVarPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		parts := envVarPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := os.Getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}

		return []byte(value)
	})
}

// parse parses the content according to the specified format.
func parse(content []byte, format Format) (*Sdkfile, error) {
	content = expandEnvVars(content)

	var raw rawSdkfile

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("TOML parse error: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("JSON parse error: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown file format")
	}

	packages, err := parsePackages(raw.Packages)
	if err != nil {
		return nil, err
	}

	return &Sdkfile{
		Version:   raw.Version,
		SDK:       raw.SDK,
		Installer: raw.Installer,
		Packages:  packages,
	}, nil
}
