package cli

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rawready/internal/core"
)

func newPreviewCommand(opts *options) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show the first rows of one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sb, err := opts.sandbox()
			if err != nil {
				return err
			}
			p, err := sb.Preview(args[0], rows)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			return printPreview(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", core.DefaultPreviewRows, "rows to show (1-200)")
	return cmd
}
