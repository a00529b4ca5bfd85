package cli

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rawready/internal/checks"
)

func newScanCommand(opts *options) *cobra.Command {
	var failOnError bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Profile every file under the data root and evaluate the rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := opts.builder()
			if err != nil {
				return err
			}
			ov, err := b.Build(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				if err := writeJSON(out, ov); err != nil {
					return err
				}
			} else {
				if err := printFiles(out, ov.Files); err != nil {
					return err
				}
				if err := printChecks(out, ov.Checks); err != nil {
					return err
				}
				printSummary(out, ov.Summary)
			}

			if failOnError && hasFailure(ov.Checks) {
				return ErrChecksFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when any check fails")
	return cmd
}

func hasFailure(results []checks.Result) bool {
	for _, r := range results {
		if r.Status == checks.StatusFail {
			return true
		}
	}
	return false
}
