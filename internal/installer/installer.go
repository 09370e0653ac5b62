// Package installer imports, upgrades and removes SDK packages in a project.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adamancini/sdkctl/internal/config"
	"github.com/adamancini/sdkctl/internal/state"
	"github.com/adamancini/sdkctl/internal/types"
	"github.com/adamancini/sdkctl/internal/update"
)

var (
	// ErrBusy is returned while another install, upgrade or remove is running.
	ErrBusy = errors.New("another SDK operation is running")
	// ErrFolderNotFound is returned when the SDK folder cannot be located.
	ErrFolderNotFound = errors.New("SDK folder not found")
	// ErrNothingToDo is returned when every package is already installed.
	ErrNothingToDo = errors.New("nothing to do")
	// ErrUpgradeUnavailable is returned when no newer release is known.
	ErrUpgradeUnavailable = errors.New("no upgrade available")
	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.New("cancelled by user")
)

// Confirmation dialogs shown before destructive operations.
const (
	UpgradeTitle   = "Confirm SDK Upgrade"
	UpgradeMessage = "This action will remove the current SDK and install the latest version."
	RemoveTitle    = "Confirm SDK Removal"
	RemoveMessage  = "This action will remove the current SDK."
)

// CommandRunner is an interface for running external commands.
// This allows for mocking in tests.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner uses os/exec to run commands in Dir.
type DefaultCommandRunner struct {
	Dir string
}

func (r *DefaultCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	return cmd.CombinedOutput()
}

// Confirmer asks the user to approve a destructive operation.
type Confirmer interface {
	Confirm(title, message string) bool
}

// AutoConfirm approves every dialog (--yes).
type AutoConfirm struct{}

func (AutoConfirm) Confirm(string, string) bool { return true }

// Result records what an operation did.
type Result struct {
	Action     types.Action
	Version    string
	SDKPath    string
	Packages   []string // packages imported
	Commands   []string
	Deleted    []string
	Failed     []string
	Errors     []error
	DryRun     bool
	Backup     string // ID of the backup taken before the operation
	Warnings   []string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Succeeded reports whether the operation completed without errors.
func (r *Result) Succeeded() bool {
	return len(r.Errors) == 0
}

// Installer runs SDK lifecycle operations for one project.
type Installer struct {
	projectDir string
	cfg        *config.Sdkfile
	runner     CommandRunner
	confirm    Confirmer
	marker     *state.OperationMarker
	logger     *zap.Logger
	now        func() time.Time
	dryRun     bool
}

// New creates an installer that runs the Sdkfile installer command in projectDir.
func New(projectDir string, cfg *config.Sdkfile, logger *zap.Logger) *Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{
		projectDir: projectDir,
		cfg:        cfg,
		runner:     &DefaultCommandRunner{Dir: projectDir},
		confirm:    AutoConfirm{},
		marker:     state.NewOperationMarker(projectDir),
		logger:     logger,
		now:        time.Now,
	}
}

// WithRunner replaces the command runner.
func (i *Installer) WithRunner(r CommandRunner) *Installer {
	i.runner = r
	return i
}

// WithConfirmer replaces the confirmation dialog.
func (i *Installer) WithConfirmer(c Confirmer) *Installer {
	i.confirm = c
	return i
}

// WithMarker replaces the operation marker.
func (i *Installer) WithMarker(m *state.OperationMarker) *Installer {
	i.marker = m
	return i
}

// WithDryRun makes operations report what they would do without doing it.
func (i *Installer) WithDryRun(dryRun bool) *Installer {
	i.dryRun = dryRun
	return i
}

// Install imports pkgs at version into the project. sdkPath is the
// existing SDK folder, empty for a fresh install.
func (i *Installer) Install(ctx context.Context, pkgs []state.Package, version, sdkPath string) (*Result, error) {
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w: all packages are installed", ErrNothingToDo)
	}

	res := i.newResult(types.ActionInstall, version, sdkPath)
	release, err := i.begin(res, packageNames(pkgs))
	if err != nil {
		return nil, err
	}
	defer i.finish(res, release)

	i.importPackages(ctx, res, pkgs)
	return res, res.err()
}

// Upgrade removes the SDK folder contents, keeping preserved files, and
// imports the previously installed packages at version.
func (i *Installer) Upgrade(ctx context.Context, installed []state.Package, version, sdkPath string) (*Result, error) {
	if _, err := i.folder(sdkPath); err != nil {
		return nil, err
	}
	if update.ParseOrUnknown(version) == nil {
		return nil, fmt.Errorf("%w: latest version is unknown", ErrUpgradeUnavailable)
	}
	if len(installed) == 0 {
		return nil, fmt.Errorf("%w: no installed packages to upgrade", ErrNothingToDo)
	}
	if !i.confirm.Confirm(UpgradeTitle, UpgradeMessage) {
		return nil, ErrCancelled
	}

	res := i.newResult(types.ActionUpgrade, version, sdkPath)
	release, err := i.begin(res, packageNames(installed))
	if err != nil {
		return nil, err
	}
	defer i.finish(res, release)

	i.removeAndroidSettings(res)
	if err := i.clearSDKFolder(res, sdkPath); err != nil {
		res.Errors = append(res.Errors, err)
		return res, res.err()
	}

	i.importPackages(ctx, res, installed)
	return res, res.err()
}

// Remove deletes the SDK folder, its .meta sibling and the Android
// settings files.
func (i *Installer) Remove(ctx context.Context, sdkPath string) (*Result, error) {
	abs, err := i.folder(sdkPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, sdkPath)
	}
	if !i.confirm.Confirm(RemoveTitle, RemoveMessage) {
		return nil, ErrCancelled
	}

	res := i.newResult(types.ActionRemove, "", sdkPath)
	release, err := i.begin(res, nil)
	if err != nil {
		return nil, err
	}
	defer i.finish(res, release)

	i.removeAndroidSettings(res)

	if err := i.deletePath(res, abs); err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("failed to remove SDK folder: %w", err))
		return res, res.err()
	}
	if _, err := os.Stat(abs + ".meta"); err == nil {
		if err := i.deletePath(res, abs+".meta"); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("failed to remove SDK folder meta file: %w", err))
		}
	}

	return res, res.err()
}

func (i *Installer) newResult(action types.Action, version, sdkPath string) *Result {
	return &Result{
		Action:    action,
		Version:   version,
		SDKPath:   sdkPath,
		DryRun:    i.dryRun,
		StartedAt: i.now(),
	}
}

func (i *Installer) begin(res *Result, pkgs []string) (func() error, error) {
	if i.dryRun {
		return func() error { return nil }, nil
	}
	release, err := i.marker.Begin(state.Operation{
		Action:    res.Action,
		StartedAt: res.StartedAt,
		Version:   res.Version,
		Packages:  pkgs,
	})
	if err != nil {
		if errors.Is(err, state.ErrOperationInProgress) {
			return nil, fmt.Errorf("%w: %v", ErrBusy, err)
		}
		return nil, err
	}
	i.logger.Info("operation started",
		zap.Stringer("action", res.Action),
		zap.String("version", res.Version),
		zap.Strings("packages", pkgs))
	return release, nil
}

func (i *Installer) finish(res *Result, release func() error) {
	res.FinishedAt = i.now()
	if err := release(); err != nil {
		i.logger.Warn("failed to release operation marker", zap.Error(err))
	}
	i.logger.Info("operation finished",
		zap.Stringer("action", res.Action),
		zap.Bool("ok", res.Succeeded()),
		zap.Int("failed", len(res.Failed)),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)))
}

// importPackages runs the installer command once per package and keeps
// going after a failure.
func (i *Installer) importPackages(ctx context.Context, res *Result, pkgs []state.Package) {
	for _, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, err)
			res.Failed = append(res.Failed, pkg.Name())
			continue
		}

		args := i.expandArgs(pkg.Name(), res.Version, res.SDKPath)
		res.Commands = append(res.Commands, strings.TrimSpace(i.cfg.Installer.Command+" "+strings.Join(args, " ")))

		if i.dryRun {
			res.Packages = append(res.Packages, pkg.Name())
			continue
		}

		output, err := i.runner.Run(ctx, i.cfg.Installer.Command, args...)
		if err != nil {
			i.logger.Error("package import failed",
				zap.String("package", pkg.Name()),
				zap.ByteString("output", output),
				zap.Error(err))
			res.Failed = append(res.Failed, pkg.Name())
			res.Errors = append(res.Errors, fmt.Errorf("failed to import %s: %w\nOutput: %s", pkg.Name(), err, string(output)))
			continue
		}

		i.logger.Debug("package imported", zap.String("package", pkg.Name()))
		res.Packages = append(res.Packages, pkg.Name())
	}
}

// expandArgs substitutes {package}, {version}, {sdk_path} and {project}.
// An unknown version becomes "latest".
func (i *Installer) expandArgs(pkg, version, sdkPath string) []string {
	if update.ParseOrUnknown(version) == nil {
		version = "latest"
	} else {
		version = update.NormalizeVersion(version)
	}
	r := strings.NewReplacer(
		"{package}", pkg,
		"{version}", version,
		"{sdk_path}", sdkPath,
		"{project}", i.projectDir,
	)
	args := make([]string, 0, len(i.cfg.Installer.Args))
	for _, a := range i.cfg.Installer.Args {
		args = append(args, r.Replace(a))
	}
	return args
}

// clearSDKFolder deletes every entry directly under sdkPath except the
// preserved file names.
func (i *Installer) clearSDKFolder(res *Result, sdkPath string) error {
	abs, err := i.folder(sdkPath)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return fmt.Errorf("failed to read SDK folder: %w", err)
	}

	preserve := make(map[string]bool, len(i.cfg.SDK.Preserve))
	for _, name := range i.cfg.SDK.Preserve {
		preserve[name] = true
	}

	for _, e := range entries {
		if preserve[e.Name()] {
			i.logger.Debug("preserving", zap.String("file", e.Name()))
			continue
		}
		if err := i.deletePath(res, filepath.Join(abs, e.Name())); err != nil {
			return fmt.Errorf("failed to delete %s: %w", e.Name(), err)
		}
	}
	return nil
}

// removeAndroidSettings deletes files matching the Android settings glob
// anywhere under the settings directory. Failures are logged, not fatal.
func (i *Installer) removeAndroidSettings(res *Result) {
	dir := i.abs(i.cfg.SDK.AndroidSettingsDir)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return
	}

	var matches []string
	_ = filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(i.cfg.SDK.AndroidSettingsGlob, d.Name()); ok {
			matches = append(matches, p)
		}
		return nil
	})

	for _, m := range matches {
		if err := i.deletePath(res, m); err != nil {
			i.logger.Warn("failed to remove android settings", zap.String("path", m), zap.Error(err))
		}
	}
}

func (i *Installer) deletePath(res *Result, abs string) error {
	rel, err := filepath.Rel(i.projectDir, abs)
	if err != nil {
		rel = abs
	}
	res.Deleted = append(res.Deleted, filepath.ToSlash(rel))
	if i.dryRun {
		return nil
	}
	return os.RemoveAll(abs)
}

// folder resolves an SDK folder that is about to be deleted. Paths outside
// the project or the assets dir count as not found.
func (i *Installer) folder(sdkPath string) (string, error) {
	if sdkPath == "" {
		return "", ErrFolderNotFound
	}
	clean, err := i.cfg.SDK.CheckFolder(sdkPath)
	if err != nil {
		i.logger.Warn("refusing to touch SDK folder", zap.String("sdk_path", sdkPath), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrFolderNotFound, err)
	}
	return i.abs(clean), nil
}

func (i *Installer) abs(rel string) string {
	return filepath.Join(i.projectDir, filepath.FromSlash(rel))
}

func (r *Result) err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	if len(r.Failed) > 0 {
		return fmt.Errorf("%s: %d package(s) failed: %w", r.Action, len(r.Failed), errors.Join(r.Errors...))
	}
	return fmt.Errorf("%s failed: %w", r.Action, errors.Join(r.Errors...))
}

func packageNames(pkgs []state.Package) []string {
	names := make([]string, len(pkgs))
	for i, p := range pkgs {
		names[i] = p.Name()
	}
	return names
}
