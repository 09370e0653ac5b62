package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adamancini/sdkctl/internal/config"
)

func TestRunInit_DirectTemplate(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "Sdkfile.yaml")

	var stdout, stderr bytes.Buffer
	stdin := strings.NewReader("")

	err := runInit(stdin, &stdout, &stderr, "appcenter", outputPath, false)
	if err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	cfg, err := config.Load(outputPath)
	if err != nil {
		t.Fatalf("created Sdkfile does not load: %v", err)
	}
	if cfg.SDK.Repo != "microsoft/appcenter-sdk-unity" {
		t.Errorf("repo = %q", cfg.SDK.Repo)
	}

	if !strings.Contains(stdout.String(), "Created") {
		t.Errorf("stdout missing 'Created' message")
	}
	if !strings.Contains(stdout.String(), "Next steps:") {
		t.Errorf("stdout missing 'Next steps' guidance")
	}
}

func TestRunInit_InteractiveDefault(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "Sdkfile.yaml")

	var stdout, stderr bytes.Buffer
	if err := runInit(strings.NewReader("\n"), &stdout, &stderr, "", outputPath, false); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read Sdkfile: %v", err)
	}
	if !strings.Contains(string(content), "AppCenterAnalytics") {
		t.Errorf("default template should be appcenter, got:\n%s", content)
	}
	if !strings.Contains(stdout.String(), "Select a Sdkfile template") {
		t.Errorf("menu not shown")
	}
}

func TestRunInit_InteractiveByNumber(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "Sdkfile.yaml")

	// minimal sorts after appcenter
	var stdout, stderr bytes.Buffer
	if err := runInit(strings.NewReader("2\n"), &stdout, &stderr, "", outputPath, false); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	content, _ := os.ReadFile(outputPath)
	if !strings.Contains(string(content), "owner/my-sdk") {
		t.Errorf("expected minimal template, got:\n%s", content)
	}
}

func TestRunInit_InvalidSelection(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "Sdkfile.yaml")

	var stdout, stderr bytes.Buffer
	err := runInit(strings.NewReader("42\n"), &stdout, &stderr, "", outputPath, false)
	if err == nil || !strings.Contains(err.Error(), "invalid selection") {
		t.Errorf("expected invalid selection error, got %v", err)
	}
}

func TestRunInit_ExistingFile_Abort(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "Sdkfile.yaml")
	if err := os.WriteFile(outputPath, []byte("existing content"), 0644); err != nil {
		t.Fatalf("failed to create existing file: %v", err)
	}

	var stdout, stderr bytes.Buffer
	err := runInit(strings.NewReader("n\n"), &stdout, &stderr, "minimal", outputPath, false)
	if err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	content, _ := os.ReadFile(outputPath)
	if string(content) != "existing content" {
		t.Errorf("existing file was modified when user aborted")
	}
	if !strings.Contains(stdout.String(), "Aborted") {
		t.Errorf("stdout missing 'Aborted' message")
	}
}

func TestRunInit_ExistingFile_Overwrite(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "Sdkfile.yaml")
	if err := os.WriteFile(outputPath, []byte("existing content"), 0644); err != nil {
		t.Fatalf("failed to create existing file: %v", err)
	}

	var stdout, stderr bytes.Buffer
	err := runInit(strings.NewReader("y\n"), &stdout, &stderr, "minimal", outputPath, false)
	if err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	content, _ := os.ReadFile(outputPath)
	if !strings.Contains(string(content), "packages:") {
		t.Errorf("existing file was not overwritten when user confirmed")
	}
}

func TestRunInit_ForceFlag(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "Sdkfile.yaml")
	if err := os.WriteFile(outputPath, []byte("existing content"), 0644); err != nil {
		t.Fatalf("failed to create existing file: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if err := runInit(strings.NewReader(""), &stdout, &stderr, "minimal", outputPath, true); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	content, _ := os.ReadFile(outputPath)
	if string(content) == "existing content" {
		t.Errorf("existing file was not overwritten with force flag")
	}
}

func TestRunInit_InvalidTemplate(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "Sdkfile.yaml")

	var stdout, stderr bytes.Buffer
	err := runInit(strings.NewReader(""), &stdout, &stderr, "nonexistent", outputPath, false)
	if err == nil {
		t.Fatal("expected error for nonexistent template, got nil")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error message should mention 'not found', got: %v", err)
	}
}

func TestRunInit_RemoteTemplate(t *testing.T) {
	body := `version: 1
sdk:
  repo: acme/widgets
  default_location: Assets/Widgets
installer:
  command: import
packages:
  - Widgets
`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	outputPath := filepath.Join(t.TempDir(), "Sdkfile.yaml")
	var stdout, stderr bytes.Buffer
	if err := runInit(strings.NewReader(""), &stdout, &stderr, server.URL, outputPath, false); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	content, _ := os.ReadFile(outputPath)
	if string(content) != body {
		t.Errorf("remote template not written verbatim:\n%s", content)
	}
}

func TestRunInit_RemoteTemplateInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("version: 1\npackages: []\n"))
	}))
	defer server.Close()

	outputPath := filepath.Join(t.TempDir(), "Sdkfile.yaml")
	var stdout, stderr bytes.Buffer
	err := runInit(strings.NewReader(""), &stdout, &stderr, server.URL, outputPath, false)
	if err == nil || !strings.Contains(err.Error(), "invalid template") {
		t.Errorf("expected invalid template error, got %v", err)
	}
	if _, statErr := os.Stat(outputPath); !os.IsNotExist(statErr) {
		t.Error("invalid template should not be written")
	}
}

func TestRunInit_RemoteTemplateTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("#"), maxTemplateSize+1))
	}))
	defer server.Close()

	outputPath := filepath.Join(t.TempDir(), "Sdkfile.yaml")
	var stdout, stderr bytes.Buffer
	err := runInit(strings.NewReader(""), &stdout, &stderr, server.URL, outputPath, false)
	if err == nil || !strings.Contains(err.Error(), "larger than") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestRunInit_RemoteTemplateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	outputPath := filepath.Join(t.TempDir(), "Sdkfile.yaml")
	var stdout, stderr bytes.Buffer
	err := runInit(strings.NewReader(""), &stdout, &stderr, server.URL, outputPath, false)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected HTTP status in error, got %v", err)
	}
}

func TestRunInit_LeavesOnlySdkfile(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "Sdkfile.yaml")

	var stdout, stderr bytes.Buffer
	if err := runInit(strings.NewReader(""), &stdout, &stderr, "appcenter", outputPath, false); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "Sdkfile.yaml" {
		t.Errorf("directory entries = %v, want only Sdkfile.yaml", entries)
	}
	if !strings.Contains(stdout.String(), "(3 packages)") {
		t.Errorf("summary missing package count:\n%s", stdout.String())
	}
}
