// Package git reports whether the SDK folder has changes that are not
// committed to the project's git repository.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Level represents the severity of a git status.
type Level string

const (
	LevelOK      Level = "ok"      // Clean, or not under git
	LevelWarning Level = "warning" // Uncommitted changes
	LevelError   Level = "error"   // Git operation failed
)

// Status represents the git status of a path inside a repository.
type Status struct {
	Path      string   `json:"path" yaml:"path"`
	IsGitRepo bool     `json:"is_git_repo" yaml:"is_git_repo"`
	Branch    string   `json:"branch,omitempty" yaml:"branch,omitempty"`
	Changes   []string `json:"changes,omitempty" yaml:"changes,omitempty"` // porcelain lines
	Level     Level    `json:"level" yaml:"level"`
	Message   string   `json:"message" yaml:"message"`
	Error     error    `json:"-" yaml:"-"`
}

// Dirty reports whether the path has uncommitted changes.
func (s Status) Dirty() bool {
	return len(s.Changes) > 0
}

// CommandRunner is an interface for running external commands.
// This allows for mocking in tests.
type CommandRunner interface {
	RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner uses os/exec to run commands.
type DefaultCommandRunner struct{}

// RunInDir executes a command in the specified directory.
func (r *DefaultCommandRunner) RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.Output()
}

// Checker checks git status for paths in a project.
type Checker struct {
	runner CommandRunner
}

// NewChecker creates a new Checker with the default command runner.
func NewChecker() *Checker {
	return &Checker{runner: &DefaultCommandRunner{}}
}

// NewCheckerWithRunner creates a Checker with a custom command runner (for testing).
func NewCheckerWithRunner(runner CommandRunner) *Checker {
	return &Checker{runner: runner}
}

// GitAvailable checks if git is available on the system.
func (c *Checker) GitAvailable(ctx context.Context) bool {
	_, err := c.runner.RunInDir(ctx, "", "git", "--version")
	return err == nil
}

// CheckPath reports uncommitted changes under rel, a slash-separated path
// relative to the repository working tree at dir. A project that is not
// under git is reported as OK.
func (c *Checker) CheckPath(ctx context.Context, dir, rel string) Status {
	status := Status{Path: rel}

	if !c.isGitRepo(ctx, dir) {
		status.Level = LevelOK
		status.Message = "not a git repository"
		return status
	}
	status.IsGitRepo = true

	branch, err := c.currentBranch(ctx, dir)
	if err != nil {
		status.Level = LevelError
		status.Error = err
		status.Message = fmt.Sprintf("failed to get current branch: %v", err)
		return status
	}
	status.Branch = branch

	changes, err := c.changes(ctx, dir, rel)
	if err != nil {
		status.Level = LevelError
		status.Error = err
		status.Message = fmt.Sprintf("failed to check working tree: %v", err)
		return status
	}
	status.Changes = changes

	if len(changes) > 0 {
		status.Level = LevelWarning
		status.Message = fmt.Sprintf("%d uncommitted changes in %s", len(changes), rel)
		return status
	}

	status.Level = LevelOK
	status.Message = "clean"
	return status
}

func (c *Checker) isGitRepo(ctx context.Context, dir string) bool {
	output, err := c.runner.RunInDir(ctx, dir, "git", "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(output)) == "true"
}

func (c *Checker) currentBranch(ctx context.Context, dir string) (string, error) {
	output, err := c.runner.RunInDir(ctx, dir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// changes lists porcelain status lines for rel and its .meta sibling.
func (c *Checker) changes(ctx context.Context, dir, rel string) ([]string, error) {
	output, err := c.runner.RunInDir(ctx, dir, "git", "status", "--porcelain", "--", rel, rel+".meta")
	if err != nil {
		return nil, fmt.Errorf("git status failed: %w", err)
	}

	var changes []string
	for _, line := range strings.Split(string(output), "\n") {
		if strings.TrimSpace(line) != "" {
			changes = append(changes, strings.TrimRight(line, "\r"))
		}
	}
	return changes, nil
}
