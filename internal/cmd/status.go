package cmd

import (
	"github.com/spf13/cobra"

	"github.com/adamancini/sdkctl/internal/output"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which SDK packages are installed and what can be done",
		Long: `Status shows the install state of the SDK, the installed and latest
versions, the SDK folder, each package, and the actions currently available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			return writeOutput(cmd, output.StatusView{Panel: svc.Status(cmd.Context())})
		},
	}
}
