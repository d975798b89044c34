/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package burndown classifies a sprint's remaining-work series against its
// ideal line and splits the series into its actual and projected parts.
package burndown

import (
	"time"

	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

type State string

// States are checked in this order; the first match stops classification.
const (
	StateNoData        State = "no-data"
	StateNoWorkPlanned State = "no-work-planned"
	StateJustStarted   State = "just-started"
	StateNoWorkDone    State = "no-work-done"
	StateTracking      State = "tracking"
)

const (
	StatusBehind  = "Behind"
	StatusAhead   = "Ahead"
	StatusOnTrack = "On track"

	// tolerance is the share of total SP the actual line may drift from
	// the ideal before it counts as ahead or behind.
	tolerance = 0.10
)

type Result struct {
	State         State                  `json:"state"`
	Message       string                 `json:"message"`
	Status        string                 `json:"status,omitempty"`
	TotalSP       float64                `json:"totalSp"`
	DoneSP        float64                `json:"doneSp"`
	RemainingSP   float64                `json:"remainingSp"`
	Diff          *float64               `json:"diff"`
	Tolerance     float64                `json:"tolerance"`
	BurstDelivery bool                   `json:"burstDelivery"`
	Annotation    string                 `json:"annotation,omitempty"`
	TodayIndex    int                    `json:"todayIndex"`
	Actual        []domain.BurndownPoint `json:"actual"`
	Projection    []domain.BurndownPoint `json:"projection"`
	Ideal         []domain.BurndownPoint `json:"ideal"`
}

// Classify evaluates the remaining-work series. now only drives the today
// split; the classification itself is independent of the clock.
func Classify(actual, ideal []domain.BurndownPoint, now time.Time) Result {
	r := Result{
		TodayIndex: -1,
		Actual:     []domain.BurndownPoint{},
		Projection: []domain.BurndownPoint{},
		Ideal:      []domain.BurndownPoint{},
	}
	if len(actual) == 0 {
		r.State = StateNoData
		r.Message = "No burndown data for this sprint yet."
		return r
	}

	r.TotalSP = actual[0].RemainingSP
	r.RemainingSP = actual[len(actual)-1].RemainingSP
	r.DoneSP = r.TotalSP - r.RemainingSP
	r.Tolerance = r.TotalSP * tolerance

	if len(ideal) == 0 {
		ideal = Linear(actual, r.TotalSP)
	}
	r.Ideal = ideal
	r.TodayIndex = TodayIndex(actual, now)
	r.Actual, r.Projection = Split(actual, r.TodayIndex)

	switch {
	case r.TotalSP <= 0:
		r.State = StateNoWorkPlanned
		r.Message = "No story points were planned for this sprint."
		return r
	case len(actual) <= 2 && r.DoneSP == 0:
		r.State = StateJustStarted
		r.Message = "Sprint just started. Health will show once work is completed."
		return r
	case r.DoneSP == 0:
		r.State = StateNoWorkDone
		r.Message = "No story points completed yet."
		return r
	}

	r.State = StateTracking
	idealLast := ideal[min(len(actual), len(ideal))-1].RemainingSP
	diff := r.RemainingSP - idealLast
	r.Diff = &diff
	switch {
	case diff > r.Tolerance:
		r.Status = StatusBehind
	case diff < -r.Tolerance:
		r.Status = StatusAhead
	default:
		r.Status = StatusOnTrack
	}
	r.Message = r.Status

	if Burst(actual) {
		r.BurstDelivery = true
		r.Annotation = "All remaining work was completed on the last day."
	}
	return r
}

// Burst reports whether the whole remainder was closed only on the final
// point: the last value is zero, the one before it was not, and some work
// was done overall.
func Burst(actual []domain.BurndownPoint) bool {
	n := len(actual)
	if n < 2 {
		return false
	}
	last, prev := actual[n-1].RemainingSP, actual[n-2].RemainingSP
	return last == 0 && prev > 0 && actual[0].RemainingSP-last > 0
}

// TodayIndex is the first point dated after now, or the last point when
// none is. Unparseable dates count as the epoch.
func TodayIndex(actual []domain.BurndownPoint, now time.Time) int {
	for i, p := range actual {
		if format.EpochMillis(p.Date) > now.UnixMilli() {
			return i
		}
	}
	return len(actual) - 1
}

// Split returns the solid segment up to and including today and the dashed
// projection from today on. Both share the today point so the lines join.
func Split(actual []domain.BurndownPoint, today int) (solid, projection []domain.BurndownPoint) {
	if len(actual) == 0 || today < 0 {
		return []domain.BurndownPoint{}, []domain.BurndownPoint{}
	}
	today = min(today, len(actual)-1)
	solid = append([]domain.BurndownPoint{}, actual[:today+1]...)
	if today == len(actual)-1 {
		return solid, []domain.BurndownPoint{}
	}
	projection = append([]domain.BurndownPoint{}, actual[today:]...)
	return solid, projection
}

// Linear is the ideal line from total to zero over the dates of actual.
func Linear(actual []domain.BurndownPoint, total float64) []domain.BurndownPoint {
	n := len(actual)
	out := make([]domain.BurndownPoint, n)
	for i, p := range actual {
		v := 0.0
		if n > 1 {
			v = total * float64(n-1-i) / float64(n-1)
		}
		out[i] = domain.BurndownPoint{Date: p.Date, RemainingSP: format.Round(v, 2)}
	}
	return out
}
