package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/work/game")
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, filepath.Join("/work/game", ".sdkctl", "logs", "sdkctl.log"), cfg.FilePath)
	assert.False(t, cfg.Console)

	assert.Empty(t, DefaultConfig("").FilePath)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_NoSinks(t *testing.T) {
	logger, err := New(Config{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	logger.Info("dropped")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Console: true, Stderr: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("fetch failed", zap.String("repo", "Microsoft/AppCenter-SDK-Unity"))
	_ = logger.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "fetch failed")
	assert.Contains(t, out, "Microsoft/AppCenter-SDK-Unity")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sdkctl.log")
	logger, err := New(Config{Level: "debug", FilePath: path, MaxSize: 1})
	require.NoError(t, err)

	logger.Debug("probe", zap.String("package", "AppCenterAnalytics"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"probe"`)
	assert.Contains(t, string(data), `"package":"AppCenterAnalytics"`)
}

func TestToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "****"},
		{"ghp_abcdef123456", "****3456"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Token("token", tt.in).String)
	}
}
