// Package reconcile derives the install state of the SDK and the actions
// currently available from a snapshot of observed facts.
//
// Every function here is pure: it reads the Context it is given, performs
// no IO beyond the package probes in the catalog, and never panics.
package reconcile

import (
	"github.com/adamancini/sdkctl/internal/state"
	"github.com/adamancini/sdkctl/internal/types"
	"github.com/adamancini/sdkctl/internal/update"
)

// Context is one snapshot of everything reconciliation depends on.
// Build a fresh one per evaluation.
type Context struct {
	Catalog        state.Catalog
	SettingsMarker bool
	IsInstalling   bool
	IsUpgrading    bool
	SDKFolderFound bool

	InstalledVersion string
	LatestVersion    string

	// Presentation only.
	SDKName         string
	SDKFolder       string
	ReleaseNotesURL string
}

// AnyInstalled reports whether at least one package is installed.
func AnyInstalled(catalog state.Catalog) bool {
	for _, p := range catalog {
		if p.IsInstalled() {
			return true
		}
	}
	return false
}

// AllInstalled reports whether every package is installed and the settings
// marker is present. A missing marker forces false.
func AllInstalled(catalog state.Catalog, settingsMarker bool) bool {
	for _, p := range catalog {
		if !p.IsInstalled() {
			return false
		}
	}
	return settingsMarker
}

// ComputeUIState derives the install state. The installing flag is ignored
// once everything is installed; a running upgrade is tracked separately
// through Context.IsUpgrading.
func ComputeUIState(ctx Context) types.InstallState {
	switch {
	case !AnyInstalled(ctx.Catalog):
		if ctx.IsInstalling {
			return types.StateNotInstalledInstalling
		}
		return types.StateNotInstalled
	case AllInstalled(ctx.Catalog, ctx.SettingsMarker):
		return types.StateFullyInstalled
	case ctx.IsInstalling:
		return types.StatePartiallyInstalledInstalling
	default:
		return types.StatePartiallyInstalled
	}
}

// NotInstalledPackages returns the packages an install should import, in
// catalog order. With nothing installed that is the whole catalog.
func NotInstalledPackages(catalog state.Catalog) []state.Package {
	if !AnyInstalled(catalog) {
		return append([]state.Package(nil), catalog...)
	}
	var out []state.Package
	for _, p := range catalog {
		if !p.IsInstalled() {
			out = append(out, p)
		}
	}
	return out
}

// InstalledPackages returns the installed packages in catalog order.
func InstalledPackages(catalog state.Catalog) []state.Package {
	var out []state.Package
	for _, p := range catalog {
		if p.IsInstalled() {
			out = append(out, p)
		}
	}
	return out
}

// ActionEnabled reports whether action may run in st.
//
//   - Install: never during an upgrade, and only where an install is offered.
//   - Remove: only with the SDK folder located and something installed.
//   - Upgrade: fully or partially installed, folder located, no upgrade
//     running, and a newer release available.
func ActionEnabled(action types.Action, st types.InstallState, ctx Context) bool {
	switch action {
	case types.ActionInstall:
		return !ctx.IsUpgrading && st.OffersInstall()
	case types.ActionRemove:
		return ctx.SDKFolderFound && st.HasInstalledPackages()
	case types.ActionUpgrade:
		return st.OffersUpgrade() &&
			ctx.SDKFolderFound &&
			!ctx.IsUpgrading &&
			update.IsUpgradeAvailable(ctx.InstalledVersion, ctx.LatestVersion)
	default:
		return false
	}
}

// EnabledActions lists the actions ActionEnabled allows, in AllActions order.
func EnabledActions(ctx Context) []types.Action {
	st := ComputeUIState(ctx)
	var out []types.Action
	for _, a := range types.AllActions() {
		if ActionEnabled(a, st, ctx) {
			out = append(out, a)
		}
	}
	return out
}
