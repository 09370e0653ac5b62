package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/adamancini/sdkctl/internal/output"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	projectDir   string
	sdkPath      string
	offline      bool
	assumeYes    bool
	verbose      bool
	quiet        bool

	// Set by upgrade and remove
	noBackup bool

	sdkctlVersion = "dev"
	sdkctlCommit  = "none"
	sdkctlDate    = "unknown"
)

func Execute(version, commit, date string) error {
	sdkctlVersion, sdkctlCommit, sdkctlDate = version, commit, date
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sdkctl",
		Short: "Install, upgrade and remove a game SDK in a project",
		Long: `sdkctl manages a vendor SDK inside a game project.

Describe the SDK and its packages in a Sdkfile, then use sdkctl status to see
what is installed and sdkctl install, upgrade or remove to change it.`,
		Version:      sdkctlVersion,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to Sdkfile")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&sdkPath, "sdk-path", "", "SDK folder relative to the project, when it was moved")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Do not check GitHub for the latest version")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to confirmation prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	// Add subcommands
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newUpgradeCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Register completion function for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return output.Formats(), cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd
}
