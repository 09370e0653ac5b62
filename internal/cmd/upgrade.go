package cmd

import (
	"github.com/spf13/cobra"
)

func newUpgradeCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Replace the installed SDK with the latest release",
		Long: `Upgrade removes the current SDK folder, keeping the preserved settings
files, deletes the Android settings resources, and imports the previously
installed packages at the latest version.

The SDK folder is backed up to .sdkctl/backups first unless --no-backup is
given. The upgrade asks for confirmation unless --yes is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfirmation(dryRun); err != nil {
				return err
			}

			svc, err := openService(cmd, dryRun)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			res, err := svc.Upgrade(cmd.Context())
			return writeResult(cmd, res, err)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be deleted and imported")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Do not back up the SDK folder first")
	return cmd
}
