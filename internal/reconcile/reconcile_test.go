package reconcile

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/adamancini/sdkctl/internal/state"
	"github.com/adamancini/sdkctl/internal/types"
)

type fakePackage struct {
	name      string
	installed bool
}

func (p fakePackage) Name() string      { return p.name }
func (p fakePackage) IsInstalled() bool { return p.installed }

// catalogOf builds a catalog where installed[i] is the state of package i.
func catalogOf(installed ...bool) state.Catalog {
	c := make(state.Catalog, len(installed))
	for i, in := range installed {
		c[i] = fakePackage{name: fmt.Sprintf("Pkg%d", i), installed: in}
	}
	return c
}

func names(pkgs []state.Package) []string {
	out := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, p.Name())
	}
	return out
}

func TestComputeUIState(t *testing.T) {
	tests := []struct {
		name       string
		catalog    state.Catalog
		marker     bool
		installing bool
		upgrading  bool
		want       types.InstallState
	}{
		{"nothing installed", catalogOf(false, false), true, false, false, types.StateNotInstalled},
		{"nothing installed while installing", catalogOf(false, false), true, true, false, types.StateNotInstalledInstalling},
		{"empty catalog", catalogOf(), true, false, false, types.StateNotInstalled},
		{"all installed", catalogOf(true, true), true, false, false, types.StateFullyInstalled},
		{"all installed ignores installing", catalogOf(true, true), true, true, false, types.StateFullyInstalled},
		{"all installed while upgrading", catalogOf(true, true), true, false, true, types.StateFullyInstalled},
		{"all packages without marker", catalogOf(true, true), false, false, false, types.StatePartiallyInstalled},
		{"all packages without marker installing", catalogOf(true, true), false, true, false, types.StatePartiallyInstalledInstalling},
		{"subset installed", catalogOf(true, false, true), true, false, false, types.StatePartiallyInstalled},
		{"subset installed while installing", catalogOf(true, false), true, true, false, types.StatePartiallyInstalledInstalling},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := Context{
				Catalog:        tt.catalog,
				SettingsMarker: tt.marker,
				IsInstalling:   tt.installing,
				IsUpgrading:    tt.upgrading,
			}
			if got := ComputeUIState(ctx); got != tt.want {
				t.Errorf("ComputeUIState() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllInstalled(t *testing.T) {
	tests := []struct {
		name    string
		catalog state.Catalog
		marker  bool
		want    bool
	}{
		{"all with marker", catalogOf(true, true, true), true, true},
		{"all without marker", catalogOf(true, true, true), false, false},
		{"one missing", catalogOf(true, false, true), true, false},
		{"none", catalogOf(false), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllInstalled(tt.catalog, tt.marker); got != tt.want {
				t.Errorf("AllInstalled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubsetStateDependsOnlyOnInstalling(t *testing.T) {
	// Every strict non-empty subset of a 3-package catalog
	for mask := 1; mask < 7; mask++ {
		installed := []bool{mask&1 != 0, mask&2 != 0, mask&4 != 0}
		for _, marker := range []bool{true, false} {
			ctx := Context{Catalog: catalogOf(installed...), SettingsMarker: marker}
			if got := ComputeUIState(ctx); got != types.StatePartiallyInstalled {
				t.Errorf("mask %03b marker %v: ComputeUIState() = %v, want partially-installed", mask, marker, got)
			}
			ctx.IsInstalling = true
			if got := ComputeUIState(ctx); got != types.StatePartiallyInstalledInstalling {
				t.Errorf("mask %03b marker %v installing: ComputeUIState() = %v", mask, marker, got)
			}
		}
	}
}

func TestNotInstalledPackages(t *testing.T) {
	tests := []struct {
		name    string
		catalog state.Catalog
		want    []string
	}{
		{"nothing installed returns whole catalog", catalogOf(false, false, false), []string{"Pkg0", "Pkg1", "Pkg2"}},
		{"partial returns missing in order", catalogOf(false, true, false), []string{"Pkg0", "Pkg2"}},
		{"everything installed", catalogOf(true, true), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := names(NotInstalledPackages(tt.catalog)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NotInstalledPackages() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotInstalledPackagesIgnoresInstalling(t *testing.T) {
	catalog := catalogOf(false, false)
	for _, installing := range []bool{false, true} {
		ctx := Context{Catalog: catalog, IsInstalling: installing}
		if got := NotInstalledPackages(ctx.Catalog); len(got) != len(catalog) {
			t.Errorf("installing=%v: len = %d, want %d", installing, len(got), len(catalog))
		}
	}
}

func TestInstalledPackages(t *testing.T) {
	got := names(InstalledPackages(catalogOf(true, false, true)))
	if !reflect.DeepEqual(got, []string{"Pkg0", "Pkg2"}) {
		t.Errorf("InstalledPackages() = %v", got)
	}
}

func TestActionEnabledInstall(t *testing.T) {
	tests := []struct {
		state     types.InstallState
		upgrading bool
		want      bool
	}{
		{types.StateNotInstalled, false, true},
		{types.StateNotInstalled, true, false},
		{types.StatePartiallyInstalled, false, true},
		{types.StatePartiallyInstalled, true, false},
		{types.StateNotInstalledInstalling, false, false},
		{types.StatePartiallyInstalledInstalling, false, false},
		{types.StateFullyInstalled, false, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/upgrading=%v", tt.state, tt.upgrading), func(t *testing.T) {
			ctx := Context{IsUpgrading: tt.upgrading}
			if got := ActionEnabled(types.ActionInstall, tt.state, ctx); got != tt.want {
				t.Errorf("ActionEnabled(install) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActionEnabledRemoveRequiresFolder(t *testing.T) {
	for _, st := range types.AllInstallStates() {
		for _, upgrading := range []bool{false, true} {
			ctx := Context{SDKFolderFound: false, IsUpgrading: upgrading}
			if ActionEnabled(types.ActionRemove, st, ctx) {
				t.Errorf("Remove enabled in %s without folder", st)
			}
		}
	}

	ctx := Context{SDKFolderFound: true}
	if !ActionEnabled(types.ActionRemove, types.StateFullyInstalled, ctx) {
		t.Error("Remove disabled for fully installed SDK with folder")
	}
	if !ActionEnabled(types.ActionRemove, types.StatePartiallyInstalledInstalling, ctx) {
		t.Error("Remove disabled for partially installed SDK with folder")
	}
	if ActionEnabled(types.ActionRemove, types.StateNotInstalled, ctx) {
		t.Error("Remove enabled with nothing installed")
	}
}

func TestActionEnabledUpgrade(t *testing.T) {
	tests := []struct {
		name      string
		state     types.InstallState
		folder    bool
		upgrading bool
		installed string
		latest    string
		want      bool
	}{
		{"full with newer release", types.StateFullyInstalled, true, false, "1.2.3", "2.0.0", true},
		{"partial with newer release", types.StatePartiallyInstalled, true, false, "1.2.3", "1.3.0", true},
		{"unknown installed", types.StateFullyInstalled, true, false, "Unknown", "1.2.3", true},
		{"unknown latest", types.StateFullyInstalled, true, false, "1.2.3", "Unknown", false},
		{"same version", types.StateFullyInstalled, true, false, "1.2.3", "1.2.3", false},
		{"folder missing", types.StateFullyInstalled, false, false, "1.2.3", "2.0.0", false},
		{"already upgrading", types.StateFullyInstalled, true, true, "1.2.3", "2.0.0", false},
		{"not installed", types.StateNotInstalled, true, false, "Unknown", "2.0.0", false},
		{"partial installing", types.StatePartiallyInstalledInstalling, true, false, "1.2.3", "2.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := Context{
				SDKFolderFound:   tt.folder,
				IsUpgrading:      tt.upgrading,
				InstalledVersion: tt.installed,
				LatestVersion:    tt.latest,
			}
			if got := ActionEnabled(types.ActionUpgrade, tt.state, ctx); got != tt.want {
				t.Errorf("ActionEnabled(upgrade) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActionEnabledUnknownAction(t *testing.T) {
	if ActionEnabled(types.Action("explode"), types.StateFullyInstalled, Context{SDKFolderFound: true}) {
		t.Error("unknown action should never be enabled")
	}
}

func TestEnabledActions(t *testing.T) {
	ctx := Context{
		Catalog:          catalogOf(true, false),
		SettingsMarker:   true,
		SDKFolderFound:   true,
		InstalledVersion: "1.0.0",
		LatestVersion:    "1.1.0",
	}

	got := EnabledActions(ctx)
	want := []types.Action{types.ActionInstall, types.ActionUpgrade, types.ActionRemove}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EnabledActions() = %v, want %v", got, want)
	}
}
