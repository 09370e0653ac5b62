// Package cmd contains the CLI command implementations.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/adamancini/sdkctl/internal/backup"
	"github.com/adamancini/sdkctl/internal/config"
	"github.com/adamancini/sdkctl/internal/git"
	"github.com/adamancini/sdkctl/internal/installer"
	"github.com/adamancini/sdkctl/internal/journal"
	"github.com/adamancini/sdkctl/internal/logging"
	"github.com/adamancini/sdkctl/internal/prefs"
	"github.com/adamancini/sdkctl/internal/reconcile"
	"github.com/adamancini/sdkctl/internal/state"
	"github.com/adamancini/sdkctl/internal/types"
	"github.com/adamancini/sdkctl/internal/update"
)

// ErrHistoryUnavailable is returned when the operation journal could not be opened.
var ErrHistoryUnavailable = errors.New("operation history is unavailable")

// Options configures an SDKService.
type Options struct {
	ProjectDir  string              // Project root, defaults to the working directory
	ConfigPath  string              // Explicit Sdkfile path
	SDKPath     string              // SDK folder override, relative to the project
	Offline     bool                // Use the cached latest version only
	DryRun      bool                // Report what would change without changing it
	NoBackup    bool                // Skip the SDK folder backup before upgrade and remove
	KeepBackups int                 // Backups to retain, defaults to backup.DefaultKeepCount
	Version     string              // sdkctl version recorded in backups
	Confirmer   installer.Confirmer // Confirmation dialog for upgrade and remove
	Logger      *zap.Logger
}

// SelectFunc lets the user narrow the package list. It returns the chosen
// names and whether to proceed.
type SelectFunc func(names []string) ([]string, bool)

// SDKService ties detection, reconciliation and the installer together
// for one project.
type SDKService struct {
	projectDir string
	cfg        *config.Sdkfile
	detector   *state.Detector
	catalog    state.Catalog
	marker     *state.OperationMarker
	prefs      *prefs.Store
	oracle     *update.Oracle
	installer  *installer.Installer
	journal    *journal.Journal
	backups    *backup.Manager
	git        *git.Checker
	logger     *zap.Logger
	sdkPath    string
	offline    bool
	dryRun     bool
	noBackup   bool
	keep       int
}

// NewSDKService loads the Sdkfile and creates a service with default dependencies.
func NewSDKService(ctx context.Context, opts Options) (*SDKService, error) {
	projectDir, err := resolveProjectDir(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	cfg, cfgPath, err := LoadConfiguration(opts.ConfigPath, projectDir)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("loaded Sdkfile",
		zap.String("path", cfgPath),
		zap.String("project", projectDir),
		zap.Int("packages", len(cfg.Packages)))

	source := update.NewGitHubTagSource(cfg.SDK.Owner(), cfg.SDK.RepoName())
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		source = source.WithToken(token)
		logger.Debug("using GitHub token", logging.Token("token", token))
	}

	store := prefs.NewStore(projectDir)
	oracle := update.NewOracle(source, store, logger.Named("update"))

	inst := installer.New(projectDir, cfg, logger.Named("installer")).
		WithDryRun(opts.DryRun)
	if opts.Confirmer != nil {
		inst = inst.WithConfirmer(opts.Confirmer)
	}

	j, err := journal.Open(ctx, journal.DefaultPath(projectDir))
	if err != nil {
		logger.Warn("failed to open operation history", zap.Error(err))
		j = nil
	}

	s := NewSDKServiceWithDeps(projectDir, cfg, store, oracle, inst, j, logger)
	s.sdkPath = opts.SDKPath
	s.offline = opts.Offline
	s.dryRun = opts.DryRun
	s.noBackup = opts.NoBackup
	s.backups = backup.NewManager(projectDir, opts.Version)
	if opts.KeepBackups > 0 {
		s.keep = opts.KeepBackups
	}
	return s, nil
}

// NewSDKServiceWithDeps creates a service with custom dependencies (for testing).
// j may be nil to disable the operation history.
func NewSDKServiceWithDeps(
	projectDir string,
	cfg *config.Sdkfile,
	store *prefs.Store,
	oracle *update.Oracle,
	inst *installer.Installer,
	j *journal.Journal,
	logger *zap.Logger,
) *SDKService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SDKService{
		projectDir: projectDir,
		cfg:        cfg,
		detector:   state.NewDetector(projectDir, cfg.SDK, logger.Named("detect")),
		catalog:    state.NewCatalog(projectDir, cfg),
		marker:     state.NewOperationMarker(projectDir),
		prefs:      store,
		oracle:     oracle,
		installer:  inst,
		journal:    j,
		backups:    backup.NewManager(projectDir, "dev"),
		git:        git.NewChecker(),
		logger:     logger,
		keep:       backup.DefaultKeepCount,
	}
}

// LoadConfiguration finds and loads the Sdkfile.
func LoadConfiguration(configPath, projectDir string) (*config.Sdkfile, string, error) {
	sdkfilePath, err := config.FindSdkfile(configPath, projectDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find Sdkfile: %w", err)
	}

	sdkfile, err := config.Load(sdkfilePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load Sdkfile: %w", err)
	}

	return sdkfile, sdkfilePath, nil
}

// Config returns the loaded Sdkfile.
func (s *SDKService) Config() *config.Sdkfile {
	return s.cfg
}

// Catalog returns the package catalog.
func (s *SDKService) Catalog() state.Catalog {
	return s.catalog
}

// Close releases the operation history and flushes the logger.
func (s *SDKService) Close() error {
	_ = s.logger.Sync()
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

// Snapshot gathers the facts reconciliation depends on. It refreshes the
// saved SDK path when the located folder changed.
func (s *SDKService) Snapshot(ctx context.Context) reconcile.Context {
	saved := s.sdkPath
	if saved == "" {
		p, err := s.prefs.SDKPath()
		if err != nil {
			s.logger.Warn("failed to read saved SDK path", zap.Error(err))
		}
		saved = p
	}

	// An unsafe override is treated as a missing folder, never replaced by
	// the default location.
	usable := true
	if s.sdkPath != "" {
		if _, err := s.cfg.SDK.CheckFolder(s.sdkPath); err != nil {
			s.logger.Warn("SDK path override rejected", zap.String("sdk_path", s.sdkPath), zap.Error(err))
			usable = false
		}
	}

	var folder string
	var found bool
	if usable {
		folder, found = s.detector.LocateSDKRoot(saved)
		if s.sdkPath != "" && (!found || folder != path.Clean(s.sdkPath)) {
			s.logger.Warn("SDK path override not found", zap.String("sdk_path", s.sdkPath))
		}
	}
	if found {
		s.rememberSDKPath(folder)
	}

	_, settings := s.detector.FindSettingsMarker()
	installing, upgrading := s.marker.Flags()

	return reconcile.Context{
		Catalog:          s.catalog,
		SettingsMarker:   settings,
		IsInstalling:     installing,
		IsUpgrading:      upgrading,
		SDKFolderFound:   found,
		InstalledVersion: s.detector.InstalledVersion(),
		LatestVersion:    s.latestVersion(ctx),
		SDKName:          s.cfg.SDK.Name,
		SDKFolder:        folder,
		ReleaseNotesURL:  s.cfg.SDK.ReleaseNotesURL,
	}
}

// Status builds the status panel.
func (s *SDKService) Status(ctx context.Context) reconcile.Panel {
	return reconcile.BuildPanel(s.Snapshot(ctx))
}

// Check compares the installed version with the latest release.
func (s *SDKService) Check(ctx context.Context) update.CheckInfo {
	latest := s.latestVersion(ctx)
	installed := s.detector.InstalledVersion()
	return update.CheckInfo{
		InstalledVersion: update.DisplayVersion(installed),
		LatestVersion:    latest,
		UpgradeAvailable: update.IsUpgradeAvailable(installed, latest),
		LastChecked:      s.oracle.LastChecked(),
		ReleaseNotesURL:  s.cfg.SDK.ReleaseNotesURL,
	}
}

// Install imports the packages that are not installed yet at the latest
// version. names restricts the install to those packages; sel, when set,
// lets the user narrow the list further.
func (s *SDKService) Install(ctx context.Context, names []string, sel SelectFunc) (*installer.Result, error) {
	snap := s.Snapshot(ctx)
	st := reconcile.ComputeUIState(snap)

	if snap.IsInstalling || snap.IsUpgrading {
		return nil, installer.ErrBusy
	}
	if !reconcile.ActionEnabled(types.ActionInstall, st, snap) {
		return nil, fmt.Errorf("%w: %s is fully installed", installer.ErrNothingToDo, s.sdkName())
	}

	pkgs := reconcile.NotInstalledPackages(snap.Catalog)
	if len(names) > 0 {
		var err error
		if pkgs, err = s.pick(pkgs, names); err != nil {
			return nil, err
		}
	}

	if sel != nil && len(pkgs) > 0 {
		chosen, ok := sel(packageNames(pkgs))
		if !ok {
			return nil, installer.ErrCancelled
		}
		pkgs = keep(pkgs, chosen)
	}

	sdkPath := s.cfg.SDK.DefaultLocation
	if snap.SDKFolderFound {
		sdkPath = snap.SDKFolder
	}

	res, err := s.installer.Install(ctx, pkgs, snap.LatestVersion, sdkPath)
	s.record(ctx, res, err)
	return res, err
}

// Upgrade reinstalls the installed packages at the latest version.
func (s *SDKService) Upgrade(ctx context.Context) (*installer.Result, error) {
	snap := s.Snapshot(ctx)
	st := reconcile.ComputeUIState(snap)

	switch {
	case snap.IsInstalling || snap.IsUpgrading:
		return nil, installer.ErrBusy
	case !st.HasInstalledPackages():
		return nil, fmt.Errorf("%w: %s is not installed", installer.ErrNothingToDo, s.sdkName())
	case !snap.SDKFolderFound:
		return nil, installer.ErrFolderNotFound
	case !reconcile.ActionEnabled(types.ActionUpgrade, st, snap):
		return nil, fmt.Errorf("%w: installed %s, latest %s", installer.ErrUpgradeUnavailable,
			update.DisplayVersion(snap.InstalledVersion), update.DisplayVersion(snap.LatestVersion))
	}

	warnings := s.uncommittedChanges(ctx, snap.SDKFolder)
	installed := reconcile.InstalledPackages(snap.Catalog)
	bak, err := s.backupSDK(snap, types.ActionUpgrade, packageNames(installed))
	if err != nil {
		return nil, err
	}

	res, err := s.installer.Upgrade(ctx, installed, snap.LatestVersion, snap.SDKFolder)
	s.settleBackup(bak, res, err)
	if res != nil {
		res.Warnings = append(res.Warnings, warnings...)
	}
	s.record(ctx, res, err)
	return res, err
}

// Remove deletes the SDK from the project and forgets the saved SDK path.
func (s *SDKService) Remove(ctx context.Context) (*installer.Result, error) {
	snap := s.Snapshot(ctx)
	st := reconcile.ComputeUIState(snap)

	switch {
	case snap.IsInstalling || snap.IsUpgrading:
		return nil, installer.ErrBusy
	case !st.HasInstalledPackages():
		return nil, fmt.Errorf("%w: %s is not installed", installer.ErrNothingToDo, s.sdkName())
	case !reconcile.ActionEnabled(types.ActionRemove, st, snap):
		return nil, installer.ErrFolderNotFound
	}

	warnings := s.uncommittedChanges(ctx, snap.SDKFolder)
	bak, err := s.backupSDK(snap, types.ActionRemove, packageNames(reconcile.InstalledPackages(snap.Catalog)))
	if err != nil {
		return nil, err
	}

	res, err := s.installer.Remove(ctx, snap.SDKFolder)
	s.settleBackup(bak, res, err)
	if res != nil {
		res.Warnings = append(res.Warnings, warnings...)
	}
	s.record(ctx, res, err)

	if err == nil && !s.dryRun {
		if _, perr := s.prefs.SetSDKPath(""); perr != nil {
			s.logger.Warn("failed to clear saved SDK path", zap.Error(perr))
		}
	}
	return res, err
}

// Backups lists the SDK folder backups, newest first.
func (s *SDKService) Backups() ([]backup.Backup, error) {
	return s.backups.List()
}

// CreateBackup copies the current SDK folder into a new backup.
func (s *SDKService) CreateBackup(ctx context.Context, note string) (*backup.Backup, error) {
	snap := s.Snapshot(ctx)
	if !snap.SDKFolderFound {
		return nil, installer.ErrFolderNotFound
	}
	return s.backups.Create(backup.Source{
		ProjectDir: s.projectDir,
		SDKPath:    snap.SDKFolder,
		SDKVersion: snap.InstalledVersion,
		Packages:   packageNames(reconcile.InstalledPackages(snap.Catalog)),
	}, note)
}

// RestoreBackup puts the SDK folder from a backup back in place. id may be
// "latest".
func (s *SDKService) RestoreBackup(id string) (*backup.Backup, error) {
	installing, upgrading := s.marker.Flags()
	if installing || upgrading {
		return nil, installer.ErrBusy
	}

	b, err := s.backups.Get(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.cfg.SDK.CheckFolder(b.SDKPath); err != nil {
		return nil, fmt.Errorf("backup %s: %w", b.ID, err)
	}
	if s.dryRun {
		return b, nil
	}

	if b, err = s.backups.Restore(b.ID, s.projectDir); err != nil {
		return nil, err
	}
	s.logger.Info("restored SDK folder",
		zap.String("backup", b.ID),
		zap.String("sdk_path", b.SDKPath),
		zap.String("version", b.SDKVersion))
	s.rememberSDKPath(b.SDKPath)
	return b, nil
}

// DeleteBackup removes one backup.
func (s *SDKService) DeleteBackup(id string) error {
	b, err := s.backups.Get(id)
	if err != nil {
		return err
	}
	if s.dryRun {
		return nil
	}
	return s.backups.Delete(b.ID)
}

// PruneBackups keeps the newest keep backups.
func (s *SDKService) PruneBackups(keep int) (*backup.PruneResult, error) {
	if s.dryRun {
		backups, err := s.backups.List()
		if err != nil {
			return nil, err
		}
		res := &backup.PruneResult{Deleted: []backup.Backup{}, Kept: len(backups)}
		if keep >= 0 && len(backups) > keep {
			res.Deleted = backups[keep:]
			res.Kept = keep
		}
		return res, nil
	}
	return s.backups.Prune(keep)
}

// History lists recorded operations, newest first.
func (s *SDKService) History(ctx context.Context, opts journal.ListOptions) ([]journal.Entry, error) {
	if s.journal == nil {
		return nil, ErrHistoryUnavailable
	}
	return s.journal.List(ctx, opts)
}

// latestVersion returns the latest known release, refreshing it first
// unless offline.
func (s *SDKService) latestVersion(ctx context.Context) string {
	if s.offline {
		return s.oracle.Latest()
	}
	s.oracle.Refresh(ctx)
	s.oracle.Wait()
	return s.oracle.Latest()
}

func (s *SDKService) rememberSDKPath(folder string) {
	if s.dryRun {
		return
	}
	changed, err := s.prefs.SetSDKPath(folder)
	if err != nil {
		s.logger.Warn("failed to save SDK path", zap.Error(err))
		return
	}
	if changed {
		s.logger.Info("SDK folder located", zap.String("sdk_path", folder))
	}
}

// uncommittedChanges reports SDK folder edits git has not recorded.
func (s *SDKService) uncommittedChanges(ctx context.Context, folder string) []string {
	if s.git == nil {
		return nil
	}
	st := s.git.CheckPath(ctx, s.projectDir, folder)
	switch st.Level {
	case git.LevelWarning:
		s.logger.Warn("SDK folder has uncommitted changes",
			zap.String("sdk_path", folder),
			zap.String("branch", st.Branch),
			zap.Strings("changes", st.Changes))
		return []string{st.Message}
	case git.LevelError:
		s.logger.Debug("git status check failed", zap.Error(st.Error))
	}
	return nil
}

// backupSDK copies the SDK folder before a destructive operation. It returns
// nil when backups are disabled.
func (s *SDKService) backupSDK(snap reconcile.Context, action types.Action, pkgs []string) (*backup.Backup, error) {
	if s.dryRun || s.noBackup || s.backups == nil {
		return nil, nil
	}
	b, err := s.backups.Create(backup.Source{
		ProjectDir: s.projectDir,
		SDKPath:    snap.SDKFolder,
		Action:     action,
		SDKVersion: snap.InstalledVersion,
		Packages:   pkgs,
	}, "before "+action.String())
	if err != nil {
		return nil, fmt.Errorf("failed to back up SDK folder: %w", err)
	}
	s.logger.Debug("backed up SDK folder",
		zap.String("backup", b.ID),
		zap.Int("files", b.Files),
		zap.Int64("bytes", b.Size))
	return b, nil
}

// settleBackup drops the backup when the user cancelled, otherwise attaches
// it to the result and prunes old backups.
func (s *SDKService) settleBackup(b *backup.Backup, res *installer.Result, opErr error) {
	if b == nil {
		return
	}
	if errors.Is(opErr, installer.ErrCancelled) {
		if err := s.backups.Delete(b.ID); err != nil {
			s.logger.Warn("failed to delete unused backup", zap.String("backup", b.ID), zap.Error(err))
		}
		return
	}
	if res != nil {
		res.Backup = b.ID
	}
	pruned, err := s.backups.Prune(s.keep)
	if err != nil {
		s.logger.Warn("failed to prune backups", zap.Error(err))
		return
	}
	for _, d := range pruned.Deleted {
		s.logger.Debug("pruned backup", zap.String("backup", d.ID))
	}
}

// record appends the outcome of an operation to the journal.
func (s *SDKService) record(ctx context.Context, res *installer.Result, opErr error) {
	if s.journal == nil || res == nil {
		return
	}
	e := &journal.Entry{
		Action:     res.Action,
		Version:    res.Version,
		SDKPath:    res.SDKPath,
		Packages:   res.Packages,
		Succeeded:  opErr == nil,
		DryRun:     res.DryRun,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	if opErr != nil {
		e.Error = opErr.Error()
	}
	if err := s.journal.Record(ctx, e); err != nil {
		s.logger.Warn("failed to record operation", zap.Error(err))
	}
}

// pick keeps the requested packages from pkgs in catalog order.
func (s *SDKService) pick(pkgs []state.Package, names []string) ([]state.Package, error) {
	for _, name := range names {
		if _, ok := s.catalog.Find(name); !ok {
			return nil, fmt.Errorf("unknown package '%s' (available: %s)", name, strings.Join(s.catalog.Names(), ", "))
		}
	}
	picked := keep(pkgs, names)
	if len(picked) == 0 {
		return nil, fmt.Errorf("%w: %s already installed", installer.ErrNothingToDo, strings.Join(names, ", "))
	}
	return picked, nil
}

func (s *SDKService) sdkName() string {
	if s.cfg.SDK.Name != "" {
		return s.cfg.SDK.Name
	}
	return "SDK"
}

func keep(pkgs []state.Package, names []string) []state.Package {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []state.Package
	for _, p := range pkgs {
		if wanted[p.Name()] {
			out = append(out, p)
		}
	}
	return out
}

func packageNames(pkgs []state.Package) []string {
	names := make([]string, len(pkgs))
	for i, p := range pkgs {
		names[i] = p.Name()
	}
	return names
}

func resolveProjectDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to determine working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project directory %s is not a directory", abs)
	}
	return abs, nil
}
