/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package alerts derives the ordered sprint alerts, the verdict and the
// alert banner from a sprint snapshot.
//
// Checks run in a fixed order: stuck items, scope growth, missing sub-task
// estimates, missing time logs. The verdict is the first alert produced,
// whatever its severity. The banner instead takes its color from the worst
// severity among the alerts it shows.
package alerts

import (
	"fmt"
	"math"
	"strings"

	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

const (
	TypeStuck            = "stuck"
	TypeScopeGrowth      = "scope-growth"
	TypeMissingEstimates = "missing-estimates"
	TypeNoTimeLogged     = "no-time-logged"
	TypeOnTrack          = "on-track"

	ColorRed    = "red"
	ColorOrange = "orange"
	ColorYellow = "yellow"
	ColorGreen  = "green"
)

// check inspects a snapshot and returns at most one alert.
type check func(snap domain.SprintSnapshot, teamSize int) (domain.Alert, bool)

// checks is evaluated in order; do not sort by severity.
var checks = []check{
	StuckCheck,
	ScopeGrowthCheck,
	MissingEstimatesCheck,
	NoTimeLoggedCheck,
}

// Derive returns the alerts of a snapshot in detection order.
func Derive(snap domain.SprintSnapshot) []domain.Alert {
	teamSize := TeamSize(snap)
	var out []domain.Alert
	for _, c := range checks {
		if a, ok := c(snap, teamSize); ok {
			out = append(out, a)
		}
	}
	return out
}

// Verdict is the first alert, or an on-track alert when there is none.
func Verdict(alerts []domain.Alert) domain.Alert {
	if len(alerts) > 0 {
		return alerts[0]
	}
	return domain.Alert{
		ID:       TypeOnTrack,
		Type:     TypeOnTrack,
		Severity: domain.SeverityLow,
		Title:    "On Track",
		Message:  "No delivery risks detected for this sprint.",
		Action:   "Keep the current cadence.",
		Color:    ColorGreen,
	}
}

// TeamSize counts distinct assignees across stories and stuck candidates,
// never less than one.
func TeamSize(snap domain.SprintSnapshot) int {
	seen := map[string]struct{}{}
	add := func(issues []domain.Issue) {
		for _, is := range issues {
			if format.IsBlank(is.Assignee) {
				continue
			}
			seen[strings.ToLower(strings.TrimSpace(is.Assignee))] = struct{}{}
		}
	}
	add(snap.Stories)
	add(snap.StuckCandidates)
	if len(seen) < 1 {
		return 1
	}
	return len(seen)
}

// StuckThreshold is the stuck-item count that raises an alert for a team.
func StuckThreshold(teamSize int) int {
	return max(1, int(math.Ceil(float64(teamSize)/5)))
}

func StuckCheck(snap domain.SprintSnapshot, teamSize int) (domain.Alert, bool) {
	count := len(snap.StuckCandidates)
	threshold := StuckThreshold(teamSize)
	if count < threshold {
		return domain.Alert{}, false
	}
	sev, color := domain.SeverityMedium, ColorYellow
	switch {
	case count > max(5, threshold+3):
		sev, color = domain.SeverityCritical, ColorRed
	case count > max(2, threshold):
		sev, color = domain.SeverityHigh, ColorOrange
	}
	return domain.Alert{
		ID:         "stuck-items",
		Type:       TypeStuck,
		Severity:   sev,
		Title:      fmt.Sprintf("%d item%s stuck >24h", count, plural(count)),
		Message:    fmt.Sprintf("%d issue%s have not changed status in over 24 hours (team of %d, threshold %d).", count, plural(count), teamSize, threshold),
		Action:     "Unblock stuck work in stand-up",
		ActionHref: "#work-risks",
		Color:      color,
	}, true
}

// ScopeGrowthThresholds returns the high and medium scope-growth percentages
// for a team. Small teams feel growth sooner.
func ScopeGrowthThresholds(teamSize int) (high, medium float64) {
	if teamSize <= 3 {
		return 8, 4
	}
	return 15, 5
}

func ScopeGrowthCheck(snap domain.SprintSnapshot, teamSize int) (domain.Alert, bool) {
	total := snap.Summary.TotalSP
	if len(snap.ScopeChanges) == 0 || total <= 0 {
		return domain.Alert{}, false
	}
	scopeSP := 0.0
	for _, c := range snap.ScopeChanges {
		scopeSP += format.Value(c.StoryPoints)
	}
	pct := format.Percent(scopeSP, total)
	high, medium := ScopeGrowthThresholds(teamSize)

	var sev domain.Severity
	var color string
	switch {
	case pct > high:
		sev, color = domain.SeverityHigh, ColorOrange
	case pct > medium:
		sev, color = domain.SeverityMedium, ColorYellow
	default:
		return domain.Alert{}, false
	}
	return domain.Alert{
		ID:         "scope-growth",
		Type:       TypeScopeGrowth,
		Severity:   sev,
		Title:      fmt.Sprintf("Scope grew %s", format.FormatPercent(pct, 0)),
		Message:    fmt.Sprintf("%s SP added mid-sprint across %d issue%s (%s of %s SP).", format.FormatNumber(scopeSP, 1), len(snap.ScopeChanges), plural(len(snap.ScopeChanges)), format.FormatPercent(pct, 1), format.FormatNumber(total, 1)),
		Action:     "Review mid-sprint additions with the product owner",
		ActionHref: "#scope-changes",
		Color:      color,
	}, true
}

func MissingEstimatesCheck(snap domain.SprintSnapshot, _ int) (domain.Alert, bool) {
	missing := 0
	for _, r := range snap.SubtaskTracking.Rows {
		if !format.Positive(r.EstimateHours) {
			missing++
		}
	}
	var sev domain.Severity
	var color string
	switch {
	case missing > 5:
		sev, color = domain.SeverityHigh, ColorRed
	case missing > 2:
		sev, color = domain.SeverityMedium, ColorYellow
	default:
		return domain.Alert{}, false
	}
	return domain.Alert{
		ID:         "missing-estimates",
		Type:       TypeMissingEstimates,
		Severity:   sev,
		Title:      fmt.Sprintf("%d sub-tasks without estimates", missing),
		Message:    "Sub-tasks without an original estimate hide the remaining effort of the sprint.",
		Action:     "Estimate open sub-tasks",
		ActionHref: "#subtask-tracking",
		Color:      color,
	}, true
}

func NoTimeLoggedCheck(snap domain.SprintSnapshot, _ int) (domain.Alert, bool) {
	estimated, logged := 0.0, 0.0
	for _, r := range snap.SubtaskTracking.Rows {
		estimated += format.Value(r.EstimateHours)
		logged += format.Value(r.LoggedHours)
	}
	if estimated <= 0 || logged != 0 {
		return domain.Alert{}, false
	}
	return domain.Alert{
		ID:         "no-time-logged",
		Type:       TypeNoTimeLogged,
		Severity:   domain.SeverityMedium,
		Title:      "No time logged",
		Message:    fmt.Sprintf("%s h estimated on sub-tasks but nothing logged yet.", format.FormatNumber(estimated, 1)),
		Action:     "Ask the team to log work on sub-tasks",
		ActionHref: "#subtask-tracking",
		Color:      ColorYellow,
	}, true
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
