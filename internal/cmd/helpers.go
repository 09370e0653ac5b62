package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adamancini/sdkctl/internal/installer"
	"github.com/adamancini/sdkctl/internal/interactive"
	"github.com/adamancini/sdkctl/internal/logging"
	"github.com/adamancini/sdkctl/internal/output"
)

// errConfirmationRequired is returned when a destructive command runs
// without a terminal and without --yes.
var errConfirmationRequired = errors.New("confirmation required: rerun with --yes or from a terminal")

// openService builds an SDKService from the global flags.
func openService(cmd *cobra.Command, dryRun bool) (*SDKService, error) {
	dir, err := resolveProjectDir(projectDir)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(dir, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return NewSDKService(cmd.Context(), Options{
		ProjectDir: dir,
		ConfigPath: configPath,
		SDKPath:    sdkPath,
		Offline:    offline,
		DryRun:     dryRun,
		NoBackup:   noBackup,
		Version:    sdkctlVersion,
		Confirmer:  confirmer(dryRun),
		Logger:     logger,
	})
}

// newLogger logs to the project's rotated log file, and to stderr with --verbose.
func newLogger(dir string, stderr io.Writer) (*zap.Logger, error) {
	cfg := logging.DefaultConfig(dir)
	switch {
	case verbose:
		cfg.Level = "debug"
		cfg.Console = true
		cfg.Stderr = stderr
	case quiet:
		cfg.Level = "error"
	}
	return logging.New(cfg)
}

func confirmer(dryRun bool) installer.Confirmer {
	if assumeYes || dryRun {
		return installer.AutoConfirm{}
	}
	return interactive.NewPrompter()
}

// requireConfirmation fails early when a prompt could not be answered.
func requireConfirmation(dryRun bool) error {
	if assumeYes || dryRun || interactive.IsTerminal() {
		return nil
	}
	return errConfirmationRequired
}

// writeOutput prints v in the selected format. Text output is suppressed
// in quiet mode.
func writeOutput(cmd *cobra.Command, v interface{}) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if quiet && format == output.FormatText {
		return nil
	}
	return output.NewWriter(cmd.OutOrStdout(), format).Write(v)
}

// writeResult prints an operation result and returns the operation error.
func writeResult(cmd *cobra.Command, res *installer.Result, opErr error) error {
	if res == nil {
		return opErr
	}
	if err := writeOutput(cmd, output.NewResultView(res)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return opErr
}
