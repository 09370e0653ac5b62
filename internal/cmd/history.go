package cmd

import (
	"github.com/spf13/cobra"

	"github.com/adamancini/sdkctl/internal/journal"
	"github.com/adamancini/sdkctl/internal/output"
	"github.com/adamancini/sdkctl/internal/types"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	var action string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past install, upgrade and remove operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := journal.ListOptions{Limit: limit}
			if action != "" {
				a, err := types.ParseAction(action)
				if err != nil {
					return err
				}
				opts.Action = a
			}

			svc, err := openService(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			entries, err := svc.History(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output.HistoryView(entries))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	cmd.Flags().StringVar(&action, "action", "", "Only show this action: install, upgrade, remove")

	_ = cmd.RegisterFlagCompletionFunc("action", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, a := range types.AllActions() {
			names = append(names, a.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
