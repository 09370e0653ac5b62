package output

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/adamancini/sdkctl/internal/backup"
)

// maxNoteWidth is the display width notes are cut to in the backup list.
const maxNoteWidth = 32

// BackupsView renders the backup list.
type BackupsView []backup.Backup

func (v BackupsView) String() string {
	if len(v) == 0 {
		return "No backups found."
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCreated\tVersion\tNote\tSize")
	for _, bak := range v {
		version := bak.SDKVersion
		if version == "" {
			version = "-"
		}
		note := runewidth.Truncate(bak.Note, maxNoteWidth, "...")
		if note == "" {
			note = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			bak.ID,
			bak.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			version,
			note,
			FormatSize(bak.Size),
		)
	}
	_ = w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// BackupView renders a single backup.
type BackupView struct {
	backup.Backup `yaml:",inline"`
	Verb          string `json:"-" yaml:"-"`
}

func (v BackupView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s backup %s\n", v.Verb, v.ID)
	fmt.Fprintf(&b, "  SDK folder: %s\n", v.SDKPath)
	if v.SDKVersion != "" {
		fmt.Fprintf(&b, "  Version: %s\n", v.SDKVersion)
	}
	if v.Note != "" {
		fmt.Fprintf(&b, "  Note: %s\n", v.Note)
	}
	fmt.Fprintf(&b, "  Files: %d (%s)", v.Files, FormatSize(v.Size))
	return b.String()
}

// PruneView renders the outcome of a prune.
type PruneView struct {
	backup.PruneResult `yaml:",inline"`
	DryRun             bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

func (v PruneView) String() string {
	if len(v.Deleted) == 0 {
		return fmt.Sprintf("Nothing to prune, %d backups kept.", v.Kept)
	}

	var b strings.Builder
	verb := "Deleted"
	if v.DryRun {
		verb = "Would delete"
	}
	fmt.Fprintf(&b, "%s %d backups, %d kept:\n", verb, len(v.Deleted), v.Kept)
	for _, d := range v.Deleted {
		fmt.Fprintf(&b, "  %s %s\n", disabledSymbol, d.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
