package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/adamancini/sdkctl/internal/interactive"
)

func newInstallCmd() *cobra.Command {
	var dryRun bool
	var selectPackages bool

	cmd := &cobra.Command{
		Use:   "install [package...]",
		Short: "Install the SDK packages that are missing",
		Long: `Install imports every package that is not installed yet, at the latest
released version. Name packages to install only those.

Examples:
  sdkctl install                        # Install all missing packages
  sdkctl install AppCenterCrashes       # Install one package
  sdkctl install --select               # Choose packages interactively
  sdkctl install --dry-run              # Show the import commands only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var sel SelectFunc
			if selectPackages {
				if !interactive.IsTerminal() {
					return errors.New("--select requires a terminal")
				}
				prompter := interactive.NewPrompter()
				sel = func(names []string) ([]string, bool) {
					return prompter.SelectPackages("install", names)
				}
			}

			svc, err := openService(cmd, dryRun)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			res, err := svc.Install(cmd.Context(), args, sel)
			return writeResult(cmd, res, err)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be imported without running the installer")
	cmd.Flags().BoolVar(&selectPackages, "select", false, "Confirm each package interactively")

	cmd.ValidArgsFunction = completePackages
	return cmd
}

// completePackages completes package names from the Sdkfile.
func completePackages(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	dir, err := resolveProjectDir(projectDir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, _, err := LoadConfiguration(configPath, dir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	given := make(map[string]bool, len(args))
	for _, a := range args {
		given[a] = true
	}
	var names []string
	for _, p := range cfg.Packages {
		if !given[p.Name] {
			names = append(names, p.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
