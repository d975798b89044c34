// Package commands implements sprintctl, an offline companion of the
// reporting service: it computes every report from a snapshot file instead
// of calling Jira.
package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/iamalbertly/jira-reporting/internal/alerts"
	"github.com/iamalbertly/jira-reporting/internal/burndown"
	"github.com/iamalbertly/jira-reporting/internal/capacity"
	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/services"
	"github.com/iamalbertly/jira-reporting/internal/workrisk"
)

type options struct {
	input     string
	now       string
	windowEnd string
}

// NewRootCmd constructs the sprintctl root command.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "sprintctl",
		Short:         "Compute sprint and board reports from exported snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.input, "input", "i", "", "snapshot file (.json, .yaml, or - for stdin)")
	cmd.PersistentFlags().StringVar(&opts.now, "now", "", "evaluation time, RFC3339 (default: current time)")

	cmd.AddCommand(
		snapshotCmd(opts, "report", "Full sprint report", func(snap domain.SprintSnapshot, now time.Time) any {
			return services.ComputeSprintReport(snap, now)
		}),
		snapshotCmd(opts, "risks", "Merged work-risk rows", func(snap domain.SprintSnapshot, _ time.Time) any {
			rows := workrisk.Build(snap)
			if rows == nil {
				rows = []domain.WorkRiskRow{}
			}
			return rows
		}),
		snapshotCmd(opts, "alerts", "Alerts, verdict and banner", func(snap domain.SprintSnapshot, _ time.Time) any {
			found := alerts.Derive(snap)
			if found == nil {
				found = []domain.Alert{}
			}
			return map[string]any{
				"verdict": alerts.Verdict(found),
				"alerts":  found,
				"banner":  alerts.NewBanner(found),
			}
		}),
		snapshotCmd(opts, "capacity", "Per-assignee capacity allocation", func(snap domain.SprintSnapshot, _ time.Time) any {
			return capacity.Calculate(snap.Stories, snap.DaysMeta.DaysInSprintWorking)
		}),
		snapshotCmd(opts, "burndown", "Burndown classification", func(snap domain.SprintSnapshot, now time.Time) any {
			return burndown.Classify(snap.RemainingWorkByDay, snap.IdealBurndown, now)
		}),
		boardsCmd(opts),
	)
	return cmd
}
