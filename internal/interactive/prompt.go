// Package interactive provides interactive prompts for user confirmation.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Response represents the user's response to a prompt.
type Response int

const (
	ResponseYes  Response = iota // Proceed with this package
	ResponseNo                   // Skip this package
	ResponseAll                  // Approve all remaining packages
	ResponseQuit                 // Abort
)

// Prompter handles interactive dialogs on a terminal.
type Prompter struct {
	in         io.Reader
	out        io.Writer
	scanner    *bufio.Scanner
	approveAll bool
}

// NewPrompter creates a prompter with stdin/stderr so stdout stays
// machine readable.
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stderr)
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:      in,
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// IsTerminal checks if stdin is a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// prompt displays a question and reads the response.
func (p *Prompter) prompt(format string, args ...interface{}) Response {
	if p.approveAll {
		return ResponseYes
	}

	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/n/a/q] ")

	if !p.scanner.Scan() {
		return ResponseQuit
	}

	input := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
	switch input {
	case "y", "yes":
		return ResponseYes
	case "n", "no":
		return ResponseNo
	case "a", "all":
		p.approveAll = true
		return ResponseYes
	case "q", "quit":
		return ResponseQuit
	default:
		// Default to no for invalid input
		_, _ = fmt.Fprintln(p.out, "Invalid response, skipping.")
		return ResponseNo
	}
}

// Confirm shows a titled dialog and returns true only for an explicit yes.
// It satisfies installer.Confirmer.
func (p *Prompter) Confirm(title, message string) bool {
	_, _ = fmt.Fprintf(p.out, "\n%s\n  %s\n", title, message)
	_, _ = fmt.Fprint(p.out, "Confirm? [y/n] ")
	if !p.scanner.Scan() {
		return false
	}
	input := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
	if input == "y" || input == "yes" {
		return true
	}
	_, _ = fmt.Fprintln(p.out, "Cancelled.")
	return false
}

// SelectPackages asks about each package in turn. It returns the approved
// names in input order and whether to proceed.
func (p *Prompter) SelectPackages(action string, names []string) ([]string, bool) {
	var selected []string
	skipped := 0

	_, _ = fmt.Fprintf(p.out, "\nPackages to %s:\n", action)
	for _, name := range names {
		_, _ = fmt.Fprintf(p.out, "  %s %s\n", addSymbol, name)
		switch p.prompt("    -> %s %s?", titleCase(action), name) {
		case ResponseYes:
			selected = append(selected, name)
		case ResponseQuit:
			_, _ = fmt.Fprintln(p.out, "\nAborted.")
			return nil, false
		default:
			_, _ = fmt.Fprintf(p.out, "    %s Skipped\n", skipSymbol)
			skipped++
		}
	}

	_, _ = fmt.Fprintln(p.out, "\nSummary:")
	_, _ = fmt.Fprintf(p.out, "  Will %s: %d package(s)\n", action, len(selected))
	if skipped > 0 {
		_, _ = fmt.Fprintf(p.out, "  Skipped: %d\n", skipped)
	}

	if len(selected) == 0 {
		_, _ = fmt.Fprintln(p.out, "No packages selected.")
		return nil, false
	}

	return selected, true
}

// Symbols for output
const (
	addSymbol  = "+"
	skipSymbol = "-"
)

// titleCase capitalizes the first letter of a string.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
