/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

package boardsummary

import (
	"math"
	"sort"

	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

// Metrics are the ratios shown per board. A nil value means the
// denominator was zero.
type Metrics struct {
	BoardID           int64    `json:"boardId"`
	BoardName         string   `json:"boardName,omitempty"`
	SprintCount       int      `json:"sprintCount"`
	DoneStories       int      `json:"doneStories"`
	DoneSP            float64  `json:"doneSP"`
	AssigneeCount     int      `json:"assigneeCount"`
	AvgSprintDays     *float64 `json:"avgSprintDays"`
	SPPerDay          *float64 `json:"spPerDay"`
	StoriesPerSprint  *float64 `json:"storiesPerSprint"`
	SPPerSprint       *float64 `json:"spPerSprint"`
	OnTimePct         *float64 `json:"onTimePct"`
	PredictabilityPct *float64 `json:"predictabilityPct"`
	EpicSharePct      *float64 `json:"epicSharePct"`
	SPStdDev          *float64 `json:"spStdDev"`
	SPVariationPct    *float64 `json:"spVariationPct"`
	HoursLoggedPct    *float64 `json:"hoursLoggedPct"`
}

// Derive computes the per-board ratios from a finished summary.
func Derive(s *domain.BoardSummary) Metrics {
	m := Metrics{
		BoardID:       s.BoardID,
		BoardName:     s.BoardName,
		SprintCount:   s.SprintCount,
		DoneStories:   s.DoneStories,
		DoneSP:        s.DoneSP,
		AssigneeCount: len(s.Assignees),
	}
	m.AvgSprintDays = format.Ratio(float64(s.TotalSprintDays), float64(s.ValidSprintDaysCount))
	m.SPPerDay = format.Ratio(s.DoneSP, float64(s.TotalSprintDays))
	m.StoriesPerSprint = format.Ratio(float64(s.DoneStories), float64(s.SprintCount))
	m.SPPerSprint = format.Ratio(s.DoneSP, float64(s.SprintCount))
	m.OnTimePct = format.PercentPtr(float64(s.DoneBySprintEnd), float64(s.DoneStories))
	m.PredictabilityPct = format.PercentPtr(s.DeliveredSP, s.CommittedSP)
	m.EpicSharePct = format.PercentPtr(float64(s.EpicStories), float64(s.EpicStories+s.NonEpicStories))
	m.HoursLoggedPct = format.PercentPtr(s.RegisteredWorkHours, s.EstimatedWorkHours)

	if len(s.SprintSPValues) > 0 {
		mean, sd := meanStdDev(s.SprintSPValues)
		m.SPStdDev = &sd
		m.SPVariationPct = format.PercentPtr(sd, mean)
	}
	return m
}

// DeriveAll returns metrics for every summary ordered by board id.
func DeriveAll(summaries map[int64]*domain.BoardSummary) []Metrics {
	ids := make([]int64, 0, len(summaries))
	for id := range summaries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Metrics, 0, len(ids))
	for _, id := range ids {
		out = append(out, Derive(summaries[id]))
	}
	return out
}

// meanStdDev returns the mean and population standard deviation.
func meanStdDev(values []float64) (float64, float64) {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	sq := 0.0
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
