package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/sdkctl/internal/backup"
	"github.com/adamancini/sdkctl/internal/installer"
	"github.com/adamancini/sdkctl/internal/interactive"
	"github.com/adamancini/sdkctl/internal/output"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage SDK folder backups",
		Long: `Backup manages copies of the SDK folder.

Upgrade and remove copy the SDK folder and its .meta file to
.sdkctl/backups/ in the project before changing anything, unless
--no-backup is given. Use 'sdkctl backup restore' to put a previous
SDK folder back.`,
	}

	cmd.AddCommand(newBackupCreateCmd())
	cmd.AddCommand(newBackupListCmd())
	cmd.AddCommand(newBackupRestoreCmd())
	cmd.AddCommand(newBackupDeleteCmd())
	cmd.AddCommand(newBackupPruneCmd())

	return cmd
}

func newBackupCreateCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Back up the SDK folder now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			bak, err := svc.CreateBackup(cmd.Context(), note)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output.BackupView{Backup: *bak, Verb: "Created"})
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Add a note to describe this backup")
	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List SDK folder backups",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			backups, err := svc.Backups()
			if err != nil {
				return err
			}
			return writeOutput(cmd, output.BackupsView(backups))
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Replace the SDK folder with a backup",
		Long: `Restore deletes the current SDK folder and copies the backed up one in
its place. Use 'latest' as the ID to restore the most recent backup.

Restore asks for confirmation unless --yes is given.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeBackupIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfirmation(dryRun); err != nil {
				return err
			}

			svc, err := openService(cmd, dryRun)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			if !assumeYes && !dryRun {
				msg := fmt.Sprintf("The current SDK folder will be replaced with backup %s.", args[0])
				if !interactive.NewPrompter().Confirm("Restore SDK backup", msg) {
					return installer.ErrCancelled
				}
			}

			bak, err := svc.RestoreBackup(args[0])
			if err != nil {
				return err
			}
			verb := "Restored"
			if dryRun {
				verb = "Would restore"
			}
			return writeOutput(cmd, output.BackupView{Backup: *bak, Verb: verb})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show which backup would be restored")
	return cmd
}

func newBackupDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <id>",
		Short:             "Delete a backup",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeBackupIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			if err := svc.DeleteBackup(args[0]); err != nil {
				return err
			}
			if !quiet {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted backup %s\n", args[0])
			}
			return nil
		},
	}
}

func newBackupPruneCmd() *cobra.Command {
	var keep int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old backups",
		Long: fmt.Sprintf(`Prune deletes old backups, keeping only the most recent N backups.

By default, keeps the %d most recent backups.`, backup.DefaultKeepCount),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd, dryRun)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			res, err := svc.PruneBackups(keep)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output.PruneView{PruneResult: *res, DryRun: dryRun})
		},
	}

	cmd.Flags().IntVar(&keep, "keep", backup.DefaultKeepCount, "Number of backups to keep")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show which backups would be deleted")
	return cmd
}

// completeBackupIDs offers the IDs of existing backups.
func completeBackupIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	dir, err := resolveProjectDir(projectDir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	backups, err := backup.NewManager(dir, sdkctlVersion).List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ids := []string{"latest"}
	for _, b := range backups {
		ids = append(ids, fmt.Sprintf("%s\t%s", b.ID, b.Note))
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
