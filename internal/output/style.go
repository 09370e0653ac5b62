package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette for terminal output. Styles only apply when the destination is a
// terminal that supports color.
var (
	colorOK    = lipgloss.Color("#B2FF00")
	colorInfo  = lipgloss.Color("#1AAEFC")
	colorWarn  = lipgloss.Color("#FFDC65")
	colorError = lipgloss.Color("#FF007F")
	colorMuted = lipgloss.Color("#8A8783")
)

// Renderable values render themselves with the styles of a renderer bound
// to the output destination.
type Renderable interface {
	Render(r *lipgloss.Renderer) string
}

// styles is the set of text styles for one renderer.
type styles struct {
	title lipgloss.Style
	ok    lipgloss.Style
	info  lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
	muted lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().Bold(true),
		ok:    r.NewStyle().Foreground(colorOK),
		info:  r.NewStyle().Foreground(colorInfo),
		warn:  r.NewStyle().Foreground(colorWarn),
		err:   r.NewStyle().Foreground(colorError),
		muted: r.NewStyle().Foreground(colorMuted),
	}
}

// plain renders without any styling.
func plain() *lipgloss.Renderer {
	return lipgloss.NewRenderer(io.Discard)
}
