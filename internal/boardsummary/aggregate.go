/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package boardsummary folds issue rows, sprint metadata and predictability
// records into per-board running totals.
package boardsummary

import (
	"strings"
	"time"

	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

const dayMillis = 86400000

// accumulator is local to one Aggregate call.
type accumulator struct {
	byBoard map[int64]*domain.BoardSummary
	// per board, per sprint story-point totals in first-seen sprint order
	sprintSP    map[int64]map[int64]float64
	sprintOrder map[int64][]int64
}

func newAccumulator() *accumulator {
	return &accumulator{
		byBoard:     map[int64]*domain.BoardSummary{},
		sprintSP:    map[int64]map[int64]float64{},
		sprintOrder: map[int64][]int64{},
	}
}

// ensure returns the summary for boardID, inserting a zeroed one on first use.
func (a *accumulator) ensure(boardID int64) *domain.BoardSummary {
	if s, ok := a.byBoard[boardID]; ok {
		return s
	}
	s := domain.NewBoardSummary(boardID)
	a.byBoard[boardID] = s
	return s
}

func (a *accumulator) addSprintSP(boardID, sprintID int64, sp float64) {
	m, ok := a.sprintSP[boardID]
	if !ok {
		m = map[int64]float64{}
		a.sprintSP[boardID] = m
	}
	if _, seen := m[sprintID]; !seen {
		a.sprintOrder[boardID] = append(a.sprintOrder[boardID], sprintID)
	}
	m[sprintID] += sp
}

// Aggregate builds one summary per board. Every board in boards gets an
// entry even when no rows or sprints reference it, and boards that only
// appear in rows or sprints are added on first sight.
func Aggregate(boards []domain.Board, sprints []domain.SprintIncluded, rows []domain.DeliveryRow, meta domain.ReportMeta, predictability map[int64]domain.PredictabilityRecord) map[int64]*domain.BoardSummary {
	acc := newAccumulator()
	for _, b := range boards {
		s := acc.ensure(b.ID)
		s.BoardName = b.Name
	}

	for _, r := range rows {
		foldRow(acc, r, meta)
	}
	for _, sp := range sprints {
		foldSprint(acc, sp, predictability)
	}
	if meta.StoryPointsEnabled {
		for boardID, order := range acc.sprintOrder {
			s := acc.ensure(boardID)
			values := make([]float64, 0, len(order))
			for _, sprintID := range order {
				values = append(values, acc.sprintSP[boardID][sprintID])
			}
			s.SprintSPValues = values
		}
	}
	return acc.byBoard
}

func foldRow(acc *accumulator, r domain.DeliveryRow, meta domain.ReportMeta) {
	s := acc.ensure(r.BoardID)
	s.DoneStories++

	s.RegisteredWorkHours += preferred(r.SubtaskTimeSpentHours, r.TimeSpentHours)
	s.EstimatedWorkHours += preferred(r.SubtaskEstimateHours, r.OriginalEstimateHours)

	sp := 0.0
	if meta.StoryPointsEnabled {
		sp = format.Value(r.StoryPoints)
		s.DoneSP += sp
	}

	if meta.EpicLinkEnabled {
		if strings.TrimSpace(r.EpicKey) != "" {
			s.EpicStories++
			s.EpicSP += sp
		} else {
			s.NonEpicStories++
			s.NonEpicSP += sp
		}
	}

	if name := strings.TrimSpace(r.AssigneeDisplayName); name != "" && name != domain.Placeholder {
		s.Assignees.Add(name)
		s.AssigneeStoryCounts[name]++
		s.AssigneeSPTotals[name] += sp
	}

	if meta.StoryPointsEnabled && r.SprintID != 0 {
		acc.addSprintSP(r.BoardID, r.SprintID, sp)
	}
}

func foldSprint(acc *accumulator, sp domain.SprintIncluded, predictability map[int64]domain.PredictabilityRecord) {
	s := acc.ensure(sp.BoardID)
	s.SprintCount++
	s.DoneBySprintEnd += sp.DoneStoriesBySprintEnd

	if rec, ok := predictability[sp.ID]; ok {
		s.CommittedSP += rec.CommittedSP
		s.DeliveredSP += rec.DeliveredSP
	}

	start, startOK := format.ParseTime(sp.StartDate)
	end, endOK := format.ParseTime(sp.EndDate)
	if days := SprintCalendarDays(sp.StartDate, sp.EndDate); days != nil {
		s.TotalSprintDays += *days
		s.ValidSprintDaysCount++
	}
	if startOK && (s.EarliestStart == nil || start.Before(*s.EarliestStart)) {
		t := start
		s.EarliestStart = &t
	}
	if endOK && (s.LatestEnd == nil || end.After(*s.LatestEnd)) {
		t := end
		s.LatestEnd = &t
	}
}

// SprintCalendarDays returns the inclusive calendar length of a sprint, or
// nil when either date is invalid or the sprint ends before it starts.
func SprintCalendarDays(startDate, endDate string) *int {
	start, ok1 := format.ParseTime(startDate)
	end, ok2 := format.ParseTime(endDate)
	if !ok1 || !ok2 || end.Before(start) {
		return nil
	}
	days := int(end.Sub(start).Milliseconds()/dayMillis) + 1
	return &days
}

// WorkingDays counts Monday-Friday dates in [start, end], by calendar date.
func WorkingDays(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	d := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	n := 0
	for !d.After(last) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
		d = d.AddDate(0, 0, 1)
	}
	return n
}

// preferred returns the first positive value, sub-task level first.
func preferred(subtask, issue *float64) float64 {
	if format.Positive(subtask) {
		return *subtask
	}
	if format.Positive(issue) {
		return *issue
	}
	return 0
}
