// Package types provides type-safe constants for the sdkctl state model.
//
// This package centralizes the enumerated types shared by the reconciler,
// the installer and the CLI, replacing magic strings with typed constants
// that carry validation and helper methods.
package types

import (
	"fmt"
	"strings"
)

// InstallState is the discrete installation state shown to the user.
// It is always derived from current facts and never persisted.
type InstallState string

const (
	// StateNotInstalled means no package of the catalog is installed.
	StateNotInstalled InstallState = "not-installed"
	// StateNotInstalledInstalling means nothing is installed yet but an install is running.
	StateNotInstalledInstalling InstallState = "not-installed-installing"
	// StatePartiallyInstalled means some, but not all, packages are installed.
	StatePartiallyInstalled InstallState = "partially-installed"
	// StatePartiallyInstalledInstalling means a partial install with an install running.
	StatePartiallyInstalledInstalling InstallState = "partially-installed-installing"
	// StateFullyInstalled means every package and the settings marker are present.
	StateFullyInstalled InstallState = "fully-installed"
)

// AllInstallStates returns all valid install states.
func AllInstallStates() []InstallState {
	return []InstallState{
		StateNotInstalled,
		StateNotInstalledInstalling,
		StatePartiallyInstalled,
		StatePartiallyInstalledInstalling,
		StateFullyInstalled,
	}
}

// Validate checks if the InstallState is a valid value.
func (s InstallState) Validate() error {
	switch s {
	case StateNotInstalled, StateNotInstalledInstalling, StatePartiallyInstalled,
		StatePartiallyInstalledInstalling, StateFullyInstalled:
		return nil
	case "":
		return fmt.Errorf("install state is required")
	default:
		return fmt.Errorf("invalid install state '%s'", s)
	}
}

// String returns the string representation of the InstallState.
func (s InstallState) String() string {
	return string(s)
}

// HasInstalledPackages returns true if at least one package is installed.
func (s InstallState) HasInstalledPackages() bool {
	switch s {
	case StatePartiallyInstalled, StatePartiallyInstalledInstalling, StateFullyInstalled:
		return true
	}
	return false
}

// IsInstalling returns true for the two states with an install running.
func (s InstallState) IsInstalling() bool {
	return s == StateNotInstalledInstalling || s == StatePartiallyInstalledInstalling
}

// OffersInstall returns true if the state shows an active install button.
func (s InstallState) OffersInstall() bool {
	return s == StateNotInstalled || s == StatePartiallyInstalled
}

// OffersUpgrade returns true if the state shows the upgrade section.
func (s InstallState) OffersUpgrade() bool {
	return s == StateFullyInstalled || s == StatePartiallyInstalled
}

// ParseInstallState parses a string into an InstallState.
func ParseInstallState(s string) (InstallState, error) {
	st := InstallState(strings.ToLower(s))
	if err := st.Validate(); err != nil {
		return "", err
	}
	return st, nil
}

// Action is a lifecycle operation on the SDK.
type Action string

const (
	// ActionInstall imports the packages that are not installed yet.
	ActionInstall Action = "install"
	// ActionUpgrade replaces the installed packages with the latest release.
	ActionUpgrade Action = "upgrade"
	// ActionRemove deletes the SDK from the project.
	ActionRemove Action = "remove"
)

// AllActions returns all valid actions.
func AllActions() []Action {
	return []Action{ActionInstall, ActionUpgrade, ActionRemove}
}

// Validate checks if the Action is a valid value.
func (a Action) Validate() error {
	switch a {
	case ActionInstall, ActionUpgrade, ActionRemove:
		return nil
	case "":
		return fmt.Errorf("action is required")
	default:
		return fmt.Errorf("invalid action '%s' (must be install, upgrade, or remove)", a)
	}
}

// String returns the string representation of the Action.
func (a Action) String() string {
	return string(a)
}

// ParseAction parses a string into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(s))
	if err := a.Validate(); err != nil {
		return "", err
	}
	return a, nil
}
