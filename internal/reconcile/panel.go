package reconcile

import (
	"fmt"

	"github.com/adamancini/sdkctl/internal/types"
	"github.com/adamancini/sdkctl/internal/update"
)

// Panel labels.
const (
	LabelNoSDK          = "No SDK is installed."
	LabelInstalling     = "SDK is installing"
	LabelLatest         = "You have the latest SDK!"
	LabelOutdated       = "SDK is outdated. Consider upgrading to get the most features."
	LabelFolderNotFound = "An SDK was detected, but we were unable to find the directory. Pass --sdk-path with the top-level SDK folder."
	LabelRemove         = "Remove SDK"
)

// Panel is the status view of the SDK in a project.
type Panel struct {
	State            types.InstallState `json:"state" yaml:"state"`
	Headline         string             `json:"headline" yaml:"headline"`
	InstalledVersion string             `json:"installed_version" yaml:"installed_version"`
	LatestVersion    string             `json:"latest_version" yaml:"latest_version"`
	Packages         []PackageRow       `json:"packages" yaml:"packages"`
	Folder           *FolderRow         `json:"folder,omitempty" yaml:"folder,omitempty"`
	Buttons          []Button           `json:"buttons,omitempty" yaml:"buttons,omitempty"`
	Upgrade          *UpgradeSection    `json:"upgrade,omitempty" yaml:"upgrade,omitempty"`
}

// PackageRow is one catalog entry.
type PackageRow struct {
	Name      string `json:"name" yaml:"name"`
	Installed bool   `json:"installed" yaml:"installed"`
}

// FolderRow shows where the SDK lives.
type FolderRow struct {
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Found  bool   `json:"found" yaml:"found"`
	Notice string `json:"notice,omitempty" yaml:"notice,omitempty"`
}

// Button is an action the user can trigger. Busy buttons show a running
// operation and are never enabled.
type Button struct {
	Action  types.Action `json:"action" yaml:"action"`
	Label   string       `json:"label" yaml:"label"`
	Enabled bool         `json:"enabled" yaml:"enabled"`
	Busy    bool         `json:"busy,omitempty" yaml:"busy,omitempty"`
}

// UpgradeSection is shown for fully or partially installed SDKs whose
// folder was located.
type UpgradeSection struct {
	Notice          string  `json:"notice,omitempty" yaml:"notice,omitempty"`
	Button          *Button `json:"button,omitempty" yaml:"button,omitempty"`
	Label           string  `json:"label,omitempty" yaml:"label,omitempty"`
	ReleaseNotesURL string  `json:"release_notes_url,omitempty" yaml:"release_notes_url,omitempty"`
}

// BuildPanel lays out the status view for ctx.
func BuildPanel(ctx Context) Panel {
	st := ComputeUIState(ctx)
	installed := update.DisplayVersion(ctx.InstalledVersion)

	p := Panel{
		State:            st,
		InstalledVersion: installed,
		LatestVersion:    update.DisplayVersion(ctx.LatestVersion),
	}

	for _, pkg := range ctx.Catalog {
		p.Packages = append(p.Packages, PackageRow{Name: pkg.Name(), Installed: pkg.IsInstalled()})
	}

	if st.HasInstalledPackages() {
		p.Headline = fmt.Sprintf("SDK %s is installed", installed)
		p.Folder = folderRow(ctx)
	} else {
		p.Headline = LabelNoSDK
	}

	switch st {
	case types.StateNotInstalled, types.StatePartiallyInstalled:
		p.Buttons = append(p.Buttons, installButton(st, ctx))
	case types.StateNotInstalledInstalling, types.StatePartiallyInstalledInstalling:
		p.Buttons = append(p.Buttons, Button{Action: types.ActionInstall, Label: LabelInstalling, Busy: true})
	}

	if st.HasInstalledPackages() {
		p.Buttons = append(p.Buttons, Button{
			Action:  types.ActionRemove,
			Label:   LabelRemove,
			Enabled: ActionEnabled(types.ActionRemove, st, ctx),
		})
	}

	if st.OffersUpgrade() && ctx.SDKFolderFound {
		p.Upgrade = upgradeSection(st, ctx)
	}

	return p
}

func folderRow(ctx Context) *FolderRow {
	if !ctx.SDKFolderFound {
		return &FolderRow{Found: false, Notice: LabelFolderNotFound}
	}
	return &FolderRow{Path: ctx.SDKFolder, Found: true}
}

func installButton(st types.InstallState, ctx Context) Button {
	name := ctx.SDKName
	if name == "" {
		name = "SDK"
	}
	return Button{
		Action:  types.ActionInstall,
		Label:   fmt.Sprintf("Install all %s packages", name),
		Enabled: ActionEnabled(types.ActionInstall, st, ctx),
	}
}

func upgradeSection(st types.InstallState, ctx Context) *UpgradeSection {
	sec := &UpgradeSection{ReleaseNotesURL: ctx.ReleaseNotesURL}
	latest := update.DisplayVersion(ctx.LatestVersion)
	unknownInstalled := update.ParseOrUnknown(ctx.InstalledVersion) == nil

	if unknownInstalled {
		sec.Notice = LabelOutdated
	}

	available := update.IsUpgradeAvailable(ctx.InstalledVersion, ctx.LatestVersion)
	switch {
	case available && ctx.IsUpgrading:
		sec.Button = &Button{Action: types.ActionUpgrade, Label: "Upgrading to " + latest, Busy: true}
	case available:
		sec.Button = &Button{
			Action:  types.ActionUpgrade,
			Label:   "Upgrade to " + latest,
			Enabled: ActionEnabled(types.ActionUpgrade, st, ctx),
		}
	case !unknownInstalled:
		sec.Label = LabelLatest
	}

	return sec
}
