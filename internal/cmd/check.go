package cmd

import (
	"github.com/spf13/cobra"

	"github.com/adamancini/sdkctl/internal/output"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check for a newer SDK release",
		Long: `Check compares the installed SDK version with the newest release tag on
GitHub. Remote checks are throttled; within the throttle window the cached
result is shown. Set GITHUB_TOKEN to raise the API rate limit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			return writeOutput(cmd, output.CheckView{CheckInfo: svc.Check(cmd.Context())})
		},
	}
}
