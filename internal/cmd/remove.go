package cmd

import (
	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:     "remove",
		Aliases: []string{"uninstall"},
		Short:   "Remove the SDK from the project",
		Long: `Remove deletes the SDK folder, its .meta file and the Android settings
resources. It asks for confirmation unless --yes is given.

The SDK folder is backed up to .sdkctl/backups first unless --no-backup is
given. Use 'sdkctl backup restore latest' to undo a remove.`,
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

			res, err := svc.Remove(cmd.Context())
			return writeResult(cmd, res, err)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be deleted")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Do not back up the SDK folder first")
	return cmd
}
