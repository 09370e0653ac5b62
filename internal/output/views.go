package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/adamancini/sdkctl/internal/installer"
	"github.com/adamancini/sdkctl/internal/journal"
	"github.com/adamancini/sdkctl/internal/reconcile"
	"github.com/adamancini/sdkctl/internal/update"
)

// Symbols for text output
const (
	installedSymbol = "✓"
	missingSymbol   = "✗"
	enabledSymbol   = "+"
	disabledSymbol  = "-"
	busySymbol      = "…"
)

// StatusView renders the SDK panel.
type StatusView struct {
	reconcile.Panel `yaml:",inline"`
}

func (v StatusView) String() string {
	return v.Render(plain())
}

// Render draws the panel with r's styles.
func (v StatusView) Render(r *lipgloss.Renderer) string {
	var b strings.Builder
	st := newStyles(r)
	p := v.Panel

	fmt.Fprintln(&b, st.title.Render(p.Headline))
	fmt.Fprintf(&b, "State: %s\n", p.State)
	fmt.Fprintf(&b, "Installed version: %s\n", p.InstalledVersion)
	fmt.Fprintf(&b, "Latest version: %s\n", p.LatestVersion)

	if p.Folder != nil {
		if p.Folder.Found {
			fmt.Fprintf(&b, "SDK folder: %s\n", p.Folder.Path)
		} else {
			fmt.Fprintf(&b, "SDK folder: %s\n  %s\n", st.err.Render("not found"), st.warn.Render(p.Folder.Notice))
		}
	}

	if len(p.Packages) > 0 {
		fmt.Fprintln(&b, "\nPackages:")
		for _, pkg := range p.Packages {
			symbol := st.err.Render(missingSymbol)
			if pkg.Installed {
				symbol = st.ok.Render(installedSymbol)
			}
			fmt.Fprintf(&b, "  %s %s\n", symbol, pkg.Name)
		}
	}

	if p.Upgrade != nil {
		fmt.Fprintln(&b, "\nUpgrade:")
		if p.Upgrade.Notice != "" {
			fmt.Fprintf(&b, "  %s\n", st.warn.Render(p.Upgrade.Notice))
		}
		if p.Upgrade.Label != "" {
			fmt.Fprintf(&b, "  %s\n", p.Upgrade.Label)
		}
		if p.Upgrade.ReleaseNotesURL != "" {
			fmt.Fprintf(&b, "  Release notes: %s\n", st.info.Render(p.Upgrade.ReleaseNotesURL))
		}
	}

	buttons := append([]reconcile.Button(nil), p.Buttons...)
	if p.Upgrade != nil && p.Upgrade.Button != nil {
		buttons = append(buttons, *p.Upgrade.Button)
	}
	if len(buttons) > 0 {
		fmt.Fprintln(&b, "\nActions:")
		for _, btn := range buttons {
			line := fmt.Sprintf("%s %s (sdkctl %s)", buttonSymbol(btn), btn.Label, btn.Action)
			if btn.Enabled && !btn.Busy {
				line = st.ok.Render(line)
			} else {
				line = st.muted.Render(line)
			}
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func buttonSymbol(btn reconcile.Button) string {
	switch {
	case btn.Busy:
		return busySymbol
	case btn.Enabled:
		return enabledSymbol
	default:
		return disabledSymbol
	}
}

// CheckView renders the result of a version check.
type CheckView struct {
	update.CheckInfo `yaml:",inline"`
}

func (v CheckView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Installed version: %s\n", v.InstalledVersion)
	fmt.Fprintf(&b, "Latest version: %s\n", v.LatestVersion)
	if v.LastChecked.IsZero() {
		fmt.Fprintln(&b, "Last checked: never")
	} else {
		fmt.Fprintf(&b, "Last checked: %s\n", v.LastChecked.Local().Format(time.RFC1123))
	}
	if v.UpgradeAvailable {
		fmt.Fprintf(&b, "\nUpgrade available: %s -> %s\n", v.InstalledVersion, v.LatestVersion)
		fmt.Fprintln(&b, "Run 'sdkctl upgrade' to install it.")
		if v.ReleaseNotesURL != "" {
			fmt.Fprintf(&b, "Release notes: %s\n", v.ReleaseNotesURL)
		}
	} else {
		fmt.Fprintln(&b, "\nYou have the latest SDK.")
	}
	return strings.TrimRight(b.String(), "\n")
}

// HistoryView renders journal entries as a table.
type HistoryView []journal.Entry

func (v HistoryView) String() string {
	if len(v) == 0 {
		return "No operations recorded."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-5s  %-20s  %-8s  %-10s  %-7s  %s\n", "ID", "STARTED", "ACTION", "VERSION", "RESULT", "DETAILS")
	for _, e := range v {
		result := "ok"
		switch {
		case e.DryRun:
			result = "dry-run"
		case !e.Succeeded:
			result = "failed"
		}
		version := e.Version
		if version == "" {
			version = "-"
		}
		details := strings.Join(e.Packages, ", ")
		if details == "" {
			details = e.SDKPath
		}
		if e.Error != "" {
			details = firstLine(e.Error)
		}
		fmt.Fprintf(&b, "%-5d  %-20s  %-8s  %-10s  %-7s  %s\n",
			e.ID, e.StartedAt.Local().Format("2006-01-02 15:04:05"), e.Action, version, result, details)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ResultView is the serializable form of an installer result.
type ResultView struct {
	Action    string   `json:"action" yaml:"action"`
	Version   string   `json:"version,omitempty" yaml:"version,omitempty"`
	SDKPath   string   `json:"sdk_path,omitempty" yaml:"sdk_path,omitempty"`
	Packages  []string `json:"packages,omitempty" yaml:"packages,omitempty"`
	Commands  []string `json:"commands,omitempty" yaml:"commands,omitempty"`
	Deleted   []string `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	Failed    []string `json:"failed,omitempty" yaml:"failed,omitempty"`
	Errors    []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	DryRun    bool     `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Backup    string   `json:"backup,omitempty" yaml:"backup,omitempty"`
	Warnings  []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Succeeded bool     `json:"succeeded" yaml:"succeeded"`
	Duration  string   `json:"duration" yaml:"duration"`
}

// NewResultView converts res for output.
func NewResultView(res *installer.Result) ResultView {
	v := ResultView{
		Action:    res.Action.String(),
		Version:   res.Version,
		SDKPath:   res.SDKPath,
		Packages:  res.Packages,
		Commands:  res.Commands,
		Deleted:   res.Deleted,
		Failed:    res.Failed,
		DryRun:    res.DryRun,
		Backup:    res.Backup,
		Warnings:  res.Warnings,
		Succeeded: res.Succeeded(),
		Duration:  res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond).String(),
	}
	for _, err := range res.Errors {
		v.Errors = append(v.Errors, err.Error())
	}
	return v
}

func (v ResultView) String() string {
	return v.Render(plain())
}

// Render draws the result with r's styles.
func (v ResultView) Render(r *lipgloss.Renderer) string {
	var b strings.Builder
	st := newStyles(r)

	for _, w := range v.Warnings {
		fmt.Fprintf(&b, "%s %s\n", st.warn.Render("Warning:"), w)
	}
	if v.DryRun {
		fmt.Fprintln(&b, "Dry run, nothing was changed.")
		for _, c := range v.Commands {
			fmt.Fprintf(&b, "  $ %s\n", c)
		}
		for _, d := range v.Deleted {
			fmt.Fprintf(&b, "  %s delete %s\n", disabledSymbol, d)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	if len(v.Deleted) > 0 {
		fmt.Fprintf(&b, "Deleted: %d\n", len(v.Deleted))
	}
	if len(v.Packages) > 0 {
		fmt.Fprintf(&b, "Imported: %d\n", len(v.Packages))
		for _, p := range v.Packages {
			fmt.Fprintf(&b, "  %s %s\n", st.ok.Render(enabledSymbol), p)
		}
	}
	if len(v.Failed) > 0 {
		fmt.Fprintf(&b, "Failed: %d\n", len(v.Failed))
		for _, p := range v.Failed {
			fmt.Fprintf(&b, "  %s %s\n", st.err.Render(missingSymbol), p)
		}
	}
	if len(v.Errors) > 0 {
		fmt.Fprintln(&b, "\nErrors:")
		for _, e := range v.Errors {
			fmt.Fprintf(&b, "  - %s\n", firstLine(e))
		}
	}

	if v.Backup != "" {
		fmt.Fprintf(&b, "Backup: %s (restore with 'sdkctl backup restore %s')\n", v.Backup, v.Backup)
	}
	if v.Succeeded {
		fmt.Fprintln(&b, st.ok.Render(fmt.Sprintf("%s completed in %s", titleCase(v.Action), v.Duration)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
