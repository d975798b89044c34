package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/services"
)

type snapshotFunc func(snap domain.SprintSnapshot, now time.Time) any

// snapshotCmd builds a subcommand that reads a sprint snapshot and prints
// what fn derives from it.
func snapshotCmd(opts *options, use, short string, fn snapshotFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now, err := parseClock(opts.now)
			if err != nil {
				return err
			}
			var snap domain.SprintSnapshot
			if err := decodeInput(opts.input, cmd.InOrStdin(), &snap); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), fn(snap, now))
		},
	}
}

func boardsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "Board summaries, derived metrics and leadership grades",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now, err := parseClock(opts.now)
			if err != nil {
				return err
			}
			var in domain.BoardRollupInput
			if err := decodeInput(opts.input, cmd.InOrStdin(), &in); err != nil {
				return err
			}
			if opts.windowEnd != "" {
				end, err := parseClock(opts.windowEnd)
				if err != nil {
					return err
				}
				in.WindowEnd = end.UTC().Format(time.RFC3339)
			}
			return writeJSON(cmd.OutOrStdout(), services.ComputeBoardsReport(in, now))
		},
	}
	cmd.Flags().StringVar(&opts.windowEnd, "window-end", "", "end of the leadership windows, RFC3339 (default: input windowEnd, else now)")
	return cmd
}
