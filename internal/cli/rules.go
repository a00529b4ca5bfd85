package cli

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rawready/internal/rules"
)

func newRulesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the checks defined in the rule document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := rules.Load(opts.rulesPath)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				defs := set.All()
				if defs == nil {
					defs = []rules.Definition{}
				}
				return writeJSON(cmd.OutOrStdout(), defs)
			}
			return printRules(cmd.OutOrStdout(), set.All())
		},
	}
}
