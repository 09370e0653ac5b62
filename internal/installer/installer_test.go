package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/adamancini/sdkctl/internal/config"
	"github.com/adamancini/sdkctl/internal/state"
	"github.com/adamancini/sdkctl/internal/types"
)

// MockCommandRunner records commands for testing.
type MockCommandRunner struct {
	Commands []string
	Outputs  map[string][]byte
	Errors   map[string]error
	OnRun    func()
}

func (m *MockCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := name + " " + strings.Join(args, " ")
	m.Commands = append(m.Commands, cmd)
	if m.OnRun != nil {
		m.OnRun()
	}

	if err, ok := m.Errors[cmd]; ok {
		return []byte("boom"), err
	}
	if output, ok := m.Outputs[cmd]; ok {
		return output, nil
	}
	return []byte("success"), nil
}

type fixedConfirmer struct {
	answer bool
	asked  []string
}

func (c *fixedConfirmer) Confirm(title, message string) bool {
	c.asked = append(c.asked, title)
	return c.answer
}

type pkg string

func (p pkg) Name() string      { return string(p) }
func (p pkg) IsInstalled() bool { return false }

func pkgs(names ...string) []state.Package {
	out := make([]state.Package, len(names))
	for i, n := range names {
		out[i] = pkg(n)
	}
	return out
}

func testConfig() *config.Sdkfile {
	return &config.Sdkfile{
		SDK: config.SDK{
			DefaultLocation:     "Assets/AppCenter",
			Preserve:            []string{"AppCenterSettings.asset", "AppCenterSettings.asset.meta"},
			AndroidSettingsDir:  "Assets/Plugins/Android/res/values",
			AndroidSettingsGlob: "appcenter-settings.xml*",
		},
		Installer: config.Installer{
			Command: "unity-import",
			Args:    []string{"--package", "{package}", "--version", "{version}", "--into", "{sdk_path}"},
		},
	}
}

func newMockInstaller(t *testing.T) (*Installer, *MockCommandRunner, string) {
	t.Helper()
	dir := t.TempDir()
	mock := &MockCommandRunner{
		Outputs: make(map[string][]byte),
		Errors:  make(map[string]error),
	}
	return New(dir, testConfig(), nil).WithRunner(mock), mock, dir
}

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func exists(root, rel string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}

func TestInstall(t *testing.T) {
	inst, mock, _ := newMockInstaller(t)

	res, err := inst.Install(context.Background(), pkgs("AppCenterAnalytics", "AppCenterCrashes"), "v4.1.0", "")
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	want := []string{
		"unity-import --package AppCenterAnalytics --version 4.1.0 --into ",
		"unity-import --package AppCenterCrashes --version 4.1.0 --into ",
	}
	if !reflect.DeepEqual(mock.Commands, want) {
		t.Errorf("Commands = %q, want %q", mock.Commands, want)
	}
	if !reflect.DeepEqual(res.Packages, []string{"AppCenterAnalytics", "AppCenterCrashes"}) {
		t.Errorf("Packages = %v", res.Packages)
	}
	if res.Action != types.ActionInstall || !res.Succeeded() {
		t.Errorf("Result = %+v", res)
	}
}

func TestInstallUnknownVersionUsesLatest(t *testing.T) {
	inst, mock, _ := newMockInstaller(t)

	if _, err := inst.Install(context.Background(), pkgs("AppCenterPush"), "Unknown", "Assets/AppCenter"); err != nil {
		t.Fatal(err)
	}
	if mock.Commands[0] != "unity-import --package AppCenterPush --version latest --into Assets/AppCenter" {
		t.Errorf("Command = %q", mock.Commands[0])
	}
}

func TestInstallNothingToDo(t *testing.T) {
	inst, mock, _ := newMockInstaller(t)

	_, err := inst.Install(context.Background(), nil, "1.0.0", "")
	if !errors.Is(err, ErrNothingToDo) {
		t.Errorf("Install() error = %v, want ErrNothingToDo", err)
	}
	if len(mock.Commands) != 0 {
		t.Errorf("Commands = %v, want none", mock.Commands)
	}
}

func TestInstallContinuesAfterFailure(t *testing.T) {
	inst, mock, _ := newMockInstaller(t)
	mock.Errors["unity-import --package A --version 1.0.0 --into "] = errors.New("exit status 1")

	res, err := inst.Install(context.Background(), pkgs("A", "B"), "1.0.0", "")
	if err == nil {
		t.Fatal("Install() expected error")
	}
	if len(mock.Commands) != 2 {
		t.Errorf("Commands = %v, want both packages attempted", mock.Commands)
	}
	if !reflect.DeepEqual(res.Failed, []string{"A"}) || !reflect.DeepEqual(res.Packages, []string{"B"}) {
		t.Errorf("Failed = %v, Packages = %v", res.Failed, res.Packages)
	}
	if !strings.Contains(err.Error(), "1 package(s) failed") {
		t.Errorf("error = %v", err)
	}
}

func TestInstallHoldsOperationMarker(t *testing.T) {
	inst, mock, dir := newMockInstaller(t)
	marker := state.NewOperationMarker(dir)

	var installing bool
	mock.OnRun = func() { installing, _ = marker.Flags() }

	if _, err := inst.Install(context.Background(), pkgs("A"), "1.0.0", ""); err != nil {
		t.Fatal(err)
	}
	if !installing {
		t.Error("operation marker not visible while importing")
	}
	if op, _ := marker.Current(); op != nil {
		t.Errorf("marker left behind: %+v", op)
	}
}

func TestInstallBusy(t *testing.T) {
	inst, mock, dir := newMockInstaller(t)

	release, err := state.NewOperationMarker(dir).Begin(state.Operation{Action: types.ActionUpgrade})
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	if _, err := inst.Install(context.Background(), pkgs("A"), "1.0.0", ""); !errors.Is(err, ErrBusy) {
		t.Errorf("Install() error = %v, want ErrBusy", err)
	}
	if len(mock.Commands) != 0 {
		t.Errorf("Commands = %v, want none", mock.Commands)
	}
}

func TestUpgrade(t *testing.T) {
	inst, mock, dir := newMockInstaller(t)
	writeTree(t, dir,
		"Assets/AppCenter/Plugins/Analytics.dll",
		"Assets/AppCenter/Plugins.meta",
		"Assets/AppCenter/AppCenterSettings.asset",
		"Assets/AppCenter/AppCenterSettings.asset.meta",
		"Assets/Plugins/Android/res/values/appcenter-settings.xml",
		"Assets/Plugins/Android/res/values/appcenter-settings.xml.meta",
		"Assets/Plugins/Android/res/values/strings.xml",
	)
	confirm := &fixedConfirmer{answer: true}
	inst.WithConfirmer(confirm)

	res, err := inst.Upgrade(context.Background(), pkgs("AppCenterAnalytics"), "5.0.0", "Assets/AppCenter")
	if err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	if !reflect.DeepEqual(confirm.asked, []string{UpgradeTitle}) {
		t.Errorf("dialogs = %v", confirm.asked)
	}
	for _, gone := range []string{
		"Assets/AppCenter/Plugins",
		"Assets/AppCenter/Plugins.meta",
		"Assets/Plugins/Android/res/values/appcenter-settings.xml",
		"Assets/Plugins/Android/res/values/appcenter-settings.xml.meta",
	} {
		if exists(dir, gone) {
			t.Errorf("%s should have been deleted", gone)
		}
	}
	for _, kept := range []string{
		"Assets/AppCenter/AppCenterSettings.asset",
		"Assets/AppCenter/AppCenterSettings.asset.meta",
		"Assets/Plugins/Android/res/values/strings.xml",
	} {
		if !exists(dir, kept) {
			t.Errorf("%s should have been preserved", kept)
		}
	}

	want := []string{"unity-import --package AppCenterAnalytics --version 5.0.0 --into Assets/AppCenter"}
	if !reflect.DeepEqual(mock.Commands, want) {
		t.Errorf("Commands = %q, want %q", mock.Commands, want)
	}
	if res.Action != types.ActionUpgrade {
		t.Errorf("Action = %v", res.Action)
	}
}

func TestUpgradePreconditions(t *testing.T) {
	tests := []struct {
		name      string
		installed []state.Package
		version   string
		sdkPath   string
		confirm   bool
		wantErr   error
	}{
		{"no folder", pkgs("A"), "2.0.0", "", true, ErrFolderNotFound},
		{"unknown latest", pkgs("A"), "Unknown", "Assets/AppCenter", true, ErrUpgradeUnavailable},
		{"nothing installed", nil, "2.0.0", "Assets/AppCenter", true, ErrNothingToDo},
		{"declined", pkgs("A"), "2.0.0", "Assets/AppCenter", false, ErrCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, mock, dir := newMockInstaller(t)
			writeTree(t, dir, "Assets/AppCenter/Plugins/A.dll")
			inst.WithConfirmer(&fixedConfirmer{answer: tt.confirm})

			_, err := inst.Upgrade(context.Background(), tt.installed, tt.version, tt.sdkPath)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Upgrade() error = %v, want %v", err, tt.wantErr)
			}
			if len(mock.Commands) != 0 {
				t.Errorf("Commands = %v, want none", mock.Commands)
			}
			if !exists(dir, "Assets/AppCenter/Plugins/A.dll") {
				t.Error("SDK contents deleted despite failed precondition")
			}
		})
	}
}

func TestRemove(t *testing.T) {
	inst, _, dir := newMockInstaller(t)
	writeTree(t, dir,
		"Assets/AppCenter/Plugins/Analytics.dll",
		"Assets/AppCenter.meta",
		"Assets/Plugins/Android/res/values/appcenter-settings.xml",
		"Assets/Game/Player.cs",
	)
	confirm := &fixedConfirmer{answer: true}
	inst.WithConfirmer(confirm)

	res, err := inst.Remove(context.Background(), "Assets/AppCenter")
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if !reflect.DeepEqual(confirm.asked, []string{RemoveTitle}) {
		t.Errorf("dialogs = %v", confirm.asked)
	}
	for _, gone := range []string{"Assets/AppCenter", "Assets/AppCenter.meta", "Assets/Plugins/Android/res/values/appcenter-settings.xml"} {
		if exists(dir, gone) {
			t.Errorf("%s should have been deleted", gone)
		}
	}
	if !exists(dir, "Assets/Game/Player.cs") {
		t.Error("unrelated project file deleted")
	}

	wantDeleted := []string{
		"Assets/Plugins/Android/res/values/appcenter-settings.xml",
		"Assets/AppCenter",
		"Assets/AppCenter.meta",
	}
	if !reflect.DeepEqual(res.Deleted, wantDeleted) {
		t.Errorf("Deleted = %v, want %v", res.Deleted, wantDeleted)
	}
}

func TestRemoveFolderMissing(t *testing.T) {
	inst, _, _ := newMockInstaller(t)

	for _, path := range []string{"", "Assets/AppCenter"} {
		if _, err := inst.Remove(context.Background(), path); !errors.Is(err, ErrFolderNotFound) {
			t.Errorf("Remove(%q) error = %v, want ErrFolderNotFound", path, err)
		}
	}
}

func TestRemoveDeclined(t *testing.T) {
	inst, _, dir := newMockInstaller(t)
	writeTree(t, dir, "Assets/AppCenter/x.dll")
	inst.WithConfirmer(&fixedConfirmer{answer: false})

	if _, err := inst.Remove(context.Background(), "Assets/AppCenter"); !errors.Is(err, ErrCancelled) {
		t.Errorf("Remove() error = %v, want ErrCancelled", err)
	}
	if !exists(dir, "Assets/AppCenter/x.dll") {
		t.Error("SDK removed after declining")
	}
}

func TestDryRun(t *testing.T) {
	inst, mock, dir := newMockInstaller(t)
	writeTree(t, dir, "Assets/AppCenter/Plugins/A.dll")
	inst.WithDryRun(true)

	res, err := inst.Upgrade(context.Background(), pkgs("A"), "2.0.0", "Assets/AppCenter")
	if err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}
	if len(mock.Commands) != 0 {
		t.Errorf("dry run executed %v", mock.Commands)
	}
	if len(res.Commands) != 1 || !reflect.DeepEqual(res.Deleted, []string{"Assets/AppCenter/Plugins"}) {
		t.Errorf("Result = %+v", res)
	}
	if !exists(dir, "Assets/AppCenter/Plugins/A.dll") {
		t.Error("dry run deleted files")
	}
	if !res.DryRun {
		t.Error("DryRun flag not set on result")
	}
}

func TestUnsafeSDKFolderIsNotFound(t *testing.T) {
	for _, sdkPath := range []string{"../victim", ".", "Assets", "ProjectSettings", "/tmp"} {
		t.Run(sdkPath, func(t *testing.T) {
			root := t.TempDir()
			project := filepath.Join(root, "project")
			writeTree(t, root, "victim/important.txt")
			writeTree(t, project, "Assets/AppCenter/A.dll", "ProjectSettings/Project.asset")

			mock := &MockCommandRunner{}
			inst := New(project, testConfig(), nil).WithRunner(mock)

			if _, err := inst.Remove(context.Background(), sdkPath); !errors.Is(err, ErrFolderNotFound) {
				t.Errorf("Remove(%q) error = %v, want ErrFolderNotFound", sdkPath, err)
			}
			if _, err := inst.Upgrade(context.Background(), pkgs("A"), "2.0.0", sdkPath); !errors.Is(err, ErrFolderNotFound) {
				t.Errorf("Upgrade(%q) error = %v, want ErrFolderNotFound", sdkPath, err)
			}

			for _, kept := range []string{"victim/important.txt", "project/Assets/AppCenter/A.dll", "project/ProjectSettings/Project.asset"} {
				if !exists(root, kept) {
					t.Errorf("%s deleted", kept)
				}
			}
			if len(mock.Commands) != 0 {
				t.Errorf("Commands = %v, want none", mock.Commands)
			}
		})
	}
}
