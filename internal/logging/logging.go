// Package logging builds the zap loggers used across sdkctl.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where log records go.
type Config struct {
	Level      string // debug, info, warn, error
	FilePath   string // rotated JSON log, disabled when empty
	MaxSize    int    // megabytes per file
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	Console    bool      // human-readable records on Stderr
	Stderr     io.Writer // defaults to os.Stderr
}

// DefaultConfig logs warnings to the console and everything from info up
// to a rotated file under the project's .sdkctl directory.
func DefaultConfig(projectDir string) Config {
	cfg := Config{
		Level:      "info",
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	if projectDir != "" {
		cfg.FilePath = filepath.Join(projectDir, ".sdkctl", "logs", "sdkctl.log")
	}
	return cfg
}

// New creates a logger from cfg. With neither a file nor a console sink the
// result is a no-op logger.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, err
		}
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			fileWriter,
			level,
		))
	}

	if cfg.Console {
		w := cfg.Stderr
		if w == nil {
			w = os.Stderr
		}
		consoleEncoder := encoderConfig
		consoleEncoder.EncodeLevel = zapcore.CapitalLevelEncoder
		consoleEncoder.TimeKey = ""
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoder),
			zapcore.AddSync(w),
			level,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// Token returns a field that never exposes more than the last four
// characters of a credential.
func Token(key, val string) zap.Field {
	if val == "" {
		return zap.String(key, "")
	}
	if len(val) <= 4 {
		return zap.String(key, "****")
	}
	return zap.String(key, strings.Repeat("*", 4)+val[len(val)-4:])
}
