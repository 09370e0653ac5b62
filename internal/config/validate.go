package config

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var (
	// repoPattern validates GitHub repositories in owner/repo form.
	repoPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

	packageNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// ValidationError represents a Sdkfile validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the Sdkfile for required fields and valid values.
func Validate(c *Sdkfile) error {
	var errors []string

	for _, err := range validateSDK(c.SDK) {
		errors = append(errors, err.Error())
	}

	if err := validateInstaller(c.Installer); err != nil {
		errors = append(errors, err.Error())
	}

	if len(c.Packages) == 0 {
		errors = append(errors, ValidationError{
			Field:   "packages",
			Message: "at least one package is required",
		}.Error())
	}

	seen := make(map[string]bool)
	for i, p := range c.Packages {
		if err := validatePackage(i, p); err != nil {
			errors = append(errors, err.Error())
			continue
		}
		if seen[p.Name] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("packages[%d].name", i),
				Message: fmt.Sprintf("duplicate package '%s'", p.Name),
			}.Error())
		}
		seen[p.Name] = true
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateSDK(s SDK) []error {
	var errs []error

	if s.Repo == "" {
		errs = append(errs, ValidationError{Field: "sdk.repo", Message: "repo is required"})
	} else if !repoPattern.MatchString(s.Repo) {
		errs = append(errs, ValidationError{
			Field:   "sdk.repo",
			Message: fmt.Sprintf("invalid repo '%s' (must be owner/repo format)", s.Repo),
		})
	}

	if s.DefaultLocation == "" {
		errs = append(errs, ValidationError{Field: "sdk.default_location", Message: "default_location is required"})
	} else if path.Clean(s.DefaultLocation) == "." {
		errs = append(errs, ValidationError{Field: "sdk.default_location", Message: "must name a folder inside the project"})
	}

	paths := map[string]string{
		"sdk.default_location":     s.DefaultLocation,
		"sdk.assets_dir":           s.AssetsDir,
		"sdk.version_file":         s.VersionFile,
		"sdk.android_settings_dir": s.AndroidSettingsDir,
	}
	for i, m := range s.SettingsMarkers {
		paths[fmt.Sprintf("sdk.settings_markers[%d]", i)] = m
	}
	for field, p := range paths {
		if err := validateRelativePath(field, p); err != nil {
			errs = append(errs, err)
		}
	}

	for i, name := range s.Preserve {
		if name == "" || strings.Contains(name, "/") {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("sdk.preserve[%d]", i),
				Message: "must be a plain file name",
			})
		}
	}

	if strings.Contains(s.AndroidSettingsGlob, "/") {
		errs = append(errs, ValidationError{
			Field:   "sdk.android_settings_glob",
			Message: "must not contain a path separator",
		})
	} else if _, err := path.Match(s.AndroidSettingsGlob, ""); err != nil {
		errs = append(errs, ValidationError{
			Field:   "sdk.android_settings_glob",
			Message: fmt.Sprintf("invalid pattern: %v", err),
		})
	}

	return errs
}

func validateInstaller(i Installer) error {
	if i.Command == "" {
		return ValidationError{Field: "installer.command", Message: "command is required"}
	}
	return nil
}

func validatePackage(index int, p Package) error {
	if p.Name == "" {
		return ValidationError{
			Field:   fmt.Sprintf("packages[%d].name", index),
			Message: "name is required",
		}
	}

	if !packageNamePattern.MatchString(p.Name) {
		return ValidationError{
			Field:   fmt.Sprintf("packages[%d].name", index),
			Message: fmt.Sprintf("invalid package name '%s'", p.Name),
		}
	}

	for j, m := range p.Markers {
		if err := validateRelativePath(fmt.Sprintf("packages[%d].markers[%d]", index, j), m); err != nil {
			return err
		}
		if m == "" {
			return ValidationError{
				Field:   fmt.Sprintf("packages[%d].markers[%d]", index, j),
				Message: "marker path cannot be empty",
			}
		}
	}

	return nil
}

// validateRelativePath rejects absolute paths and paths escaping the project.
// Empty values are accepted; required fields are checked separately.
func validateRelativePath(field, p string) error {
	if p == "" {
		return nil
	}
	if path.IsAbs(p) || strings.HasPrefix(p, `\`) || (len(p) > 1 && p[1] == ':') {
		return ValidationError{Field: field, Message: fmt.Sprintf("path '%s' must be relative to the project", p)}
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return ValidationError{Field: field, Message: fmt.Sprintf("path '%s' escapes the project", p)}
	}
	return nil
}
