/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package workrisk merges the four independent risk signals of a sprint
// (scope changes, stuck items, sub-task tracking gaps, ownership gaps) into
// one deduplicated table ordered freshest first.
package workrisk

import (
	"strings"

	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

const (
	SourceScope   = "Scope"
	SourceFlow    = "Flow"
	SourceSubtask = "Subtask"
	SourceSprint  = "Sprint"

	RiskAddedMidSprint  = "Added Mid-Sprint"
	RiskStuck           = "Stuck >24h"
	RiskMissingEstimate = "Missing Estimate"
	RiskNoTimeLogged    = "No Time Logged"
	RiskUnassigned      = "Unassigned Issue"
	RiskMissingReporter = "Missing Reporter"

	stuckHours = 24
)

// Build returns the merged work-risk rows of a snapshot.
func Build(snap domain.SprintSnapshot) []domain.WorkRiskRow {
	var rows []domain.WorkRiskRow
	rows = append(rows, ScopeRows(snap.ScopeChanges, snap.Stories)...)
	rows = append(rows, FlowRows(snap.StuckCandidates)...)
	rows = append(rows, SubtaskRows(snap.SubtaskTracking.Rows)...)
	rows = append(rows, OwnershipRows(snap.Stories)...)
	return Merge(rows)
}

// ScopeRows tags every scope change, back-filling blank fields from the
// story with the same key.
func ScopeRows(changes, stories []domain.Issue) []domain.WorkRiskRow {
	byKey := make(map[string]domain.Issue, len(stories))
	for _, s := range stories {
		if k := normalizeKey(s.IssueKey); k != "" {
			if _, seen := byKey[k]; !seen {
				byKey[k] = s
			}
		}
	}
	out := make([]domain.WorkRiskRow, 0, len(changes))
	for _, c := range changes {
		story := byKey[normalizeKey(c.IssueKey)]
		row := fromIssue(SourceScope, RiskAddedMidSprint, c)
		row.Summary = firstText(c.Summary, story.Summary)
		row.IssueType = firstText(c.IssueType, story.IssueType)
		row.Status = firstText(c.Status, story.Status)
		row.Assignee = firstText(c.Assignee, story.Assignee)
		row.Reporter = firstText(c.Reporter, story.Reporter)
		row.IssueURL = firstText(c.IssueURL, story.IssueURL)
		row.Updated = firstText(c.Updated, story.Updated)
		if row.StoryPoints == nil && story.StoryPoints != nil {
			row.StoryPoints = copyFloat(story.StoryPoints)
		}
		out = append(out, row)
	}
	return out
}

func FlowRows(stuck []domain.Issue) []domain.WorkRiskRow {
	out := make([]domain.WorkRiskRow, 0, len(stuck))
	for _, s := range stuck {
		out = append(out, fromIssue(SourceFlow, RiskStuck, s))
	}
	return out
}

// SubtaskRows emits one row per sub-task with a tracking gap. A missing
// estimate outranks a missing log, which outranks being stuck; sub-tasks
// with none of the three are dropped.
func SubtaskRows(tracking []domain.Issue) []domain.WorkRiskRow {
	out := make([]domain.WorkRiskRow, 0, len(tracking))
	for _, st := range tracking {
		risk := SubtaskRisk(st)
		if risk == "" {
			continue
		}
		out = append(out, fromIssue(SourceSubtask, risk, st))
	}
	return out
}

// SubtaskRisk classifies one sub-task, returning "" when it carries no risk.
func SubtaskRisk(st domain.Issue) string {
	switch {
	case !format.Positive(st.EstimateHours):
		return RiskMissingEstimate
	case !format.Positive(st.LoggedHours):
		return RiskNoTimeLogged
	case st.HoursInStatus != nil && *st.HoursInStatus >= stuckHours:
		return RiskStuck
	default:
		return ""
	}
}

// OwnershipRows flags stories without an assignee or reporter. A missing
// assignee wins when both are missing.
func OwnershipRows(stories []domain.Issue) []domain.WorkRiskRow {
	var out []domain.WorkRiskRow
	for _, s := range stories {
		noAssignee := format.IsBlank(s.Assignee)
		noReporter := format.IsBlank(s.Reporter)
		switch {
		case noAssignee:
			out = append(out, fromIssue(SourceSprint, RiskUnassigned, s))
		case noReporter:
			out = append(out, fromIssue(SourceSprint, RiskMissingReporter, s))
		}
	}
	return out
}

func fromIssue(source, risk string, is domain.Issue) domain.WorkRiskRow {
	return domain.WorkRiskRow{
		Source:        source,
		RiskType:      risk,
		IssueKey:      format.Text(is.IssueKey),
		IssueURL:      format.Text(is.IssueURL),
		Summary:       format.Text(is.Summary),
		IssueType:     format.Text(is.IssueType),
		StoryPoints:   copyFloat(is.StoryPoints),
		Status:        format.Text(is.Status),
		Assignee:      format.Text(is.Assignee),
		Reporter:      format.Text(is.Reporter),
		HoursInStatus: copyFloat(is.HoursInStatus),
		EstimateHours: copyFloat(is.EstimateHours),
		LoggedHours:   copyFloat(is.LoggedHours),
		Updated:       format.Text(is.Updated),
	}
}

func normalizeKey(k string) string {
	k = strings.ToUpper(strings.TrimSpace(k))
	if k == domain.Placeholder {
		return ""
	}
	return k
}

func firstText(values ...string) string {
	for _, v := range values {
		if !format.IsBlank(v) {
			return strings.TrimSpace(v)
		}
	}
	return domain.Placeholder
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
