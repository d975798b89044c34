/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package leadership grades each board over rolling windows of closed
// sprints and compares velocity with the window before.
package leadership

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

// WindowMonths are the rolling windows reported for every board.
var WindowMonths = []int{1, 3, 6, 12}

type Grade string

const (
	GradeStrong   Grade = "Strong"
	GradeStable   Grade = "Stable"
	GradeWatch    Grade = "Watch"
	GradeAtRisk   Grade = "At risk"
	GradeCritical Grade = "Critical"
)

type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendStable  Trend = "stable"
	TrendUnknown Trend = "unknown"
)

const (
	// trendBand is the velocity change, in percent, that counts as movement.
	trendBand = 10.0
	// baselineSprints is how many prior sprints form the indexed-delivery
	// baseline.
	baselineSprints = 6
)

type WindowStats struct {
	Months            int      `json:"months"`
	Start             string   `json:"start"`
	End               string   `json:"end"`
	SprintCount       int      `json:"sprintCount"`
	DoneSP            float64  `json:"doneSP"`
	WorkDays          float64  `json:"workDays"`
	AvgVelocity       *float64 `json:"avgVelocity"`
	OnTimePct         *float64 `json:"onTimePct"`
	PredictabilityAvg *float64 `json:"predictabilityAvg"`
	Score             *float64 `json:"score"`
	Grade             *Grade   `json:"grade"`
	PreviousVelocity  *float64 `json:"previousVelocity"`
	VelocityChangePct *float64 `json:"velocityChangePct"`
	Trend             Trend    `json:"trend"`
}

// IndexedDelivery is the latest sprint's SP/day against the board's own
// trailing baseline.
type IndexedDelivery struct {
	SprintID         int64    `json:"sprintId"`
	CurrentSPPerDay  float64  `json:"currentSpPerDay"`
	BaselineSPPerDay *float64 `json:"baselineSpPerDay"`
	BaselineSprints  int      `json:"baselineSprints"`
	Index            *float64 `json:"index"`
}

type BoardGrade struct {
	BoardID         int64            `json:"boardId"`
	BoardName       string           `json:"boardName,omitempty"`
	Windows         []WindowStats    `json:"windows"`
	IndexedDelivery *IndexedDelivery `json:"indexedDelivery"`
}

type Report struct {
	WindowEnd string       `json:"windowEnd"`
	Boards    []BoardGrade `json:"boards"`
}

// GradeFor averages whichever of the two signals are present and buckets
// the result. Both nil yields nil.
func GradeFor(onTimePct, predictabilityAvg *float64) (*float64, *Grade) {
	sum, n := 0.0, 0
	for _, v := range []*float64{onTimePct, predictabilityAvg} {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	score := sum / float64(n)
	g := Bucket(score)
	return &score, &g
}

func Bucket(score float64) Grade {
	switch {
	case score >= 90:
		return GradeStrong
	case score >= 80:
		return GradeStable
	case score >= 70:
		return GradeWatch
	case score >= 60:
		return GradeAtRisk
	default:
		return GradeCritical
	}
}

// Compute grades every board for every window ending at end.
func Compute(in domain.BoardRollupInput, end time.Time) Report {
	r := Report{WindowEnd: end.UTC().Format(time.RFC3339), Boards: []BoardGrade{}}
	byBoard, order := groupClosed(in)
	for _, id := range order {
		bg := BoardGrade{BoardID: id, BoardName: boardName(in.Boards, id), Windows: make([]WindowStats, 0, len(WindowMonths))}
		sprints := byBoard[id]
		for _, months := range WindowMonths {
			bg.Windows = append(bg.Windows, window(sprints, in.PredictabilityPerSprint, months, end))
		}
		bg.IndexedDelivery = Indexed(sprints, end)
		r.Boards = append(r.Boards, bg)
	}
	return r
}

type dated struct {
	domain.SprintIncluded
	end time.Time
}

// groupClosed keeps closed sprints with a valid end date, grouped by board.
// Boards listed in the input come first, in input order.
func groupClosed(in domain.BoardRollupInput) (map[int64][]dated, []int64) {
	byBoard := map[int64][]dated{}
	var order []int64
	seen := map[int64]bool{}
	note := func(id int64) {
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	for _, b := range in.Boards {
		note(b.ID)
	}
	for _, sp := range in.SprintsIncluded {
		if !closed(sp.State) {
			continue
		}
		t, ok := format.ParseTime(sp.EndDate)
		if !ok {
			continue
		}
		note(sp.BoardID)
		byBoard[sp.BoardID] = append(byBoard[sp.BoardID], dated{SprintIncluded: sp, end: t})
	}
	for _, list := range byBoard {
		sort.SliceStable(list, func(i, j int) bool { return list[i].end.Before(list[j].end) })
	}
	return byBoard, order
}

// closed accepts a blank state; rollup payloads only carry closed sprints.
func closed(state string) bool {
	s := strings.TrimSpace(state)
	return s == "" || strings.EqualFold(s, "closed")
}

func boardName(boards []domain.Board, id int64) string {
	for _, b := range boards {
		if b.ID == id {
			return b.Name
		}
	}
	return ""
}

type totals struct {
	count          int
	doneSP         float64
	workDays       float64
	doneNow        int
	doneBySprint   int
	predictability []float64
}

func collect(sprints []dated, pred map[int64]domain.PredictabilityRecord, from, to time.Time, inclusiveEnd bool) totals {
	var t totals
	for _, sp := range sprints {
		if sp.end.Before(from) || sp.end.After(to) || (!inclusiveEnd && sp.end.Equal(to)) {
			continue
		}
		t.count++
		t.doneSP += sp.DoneSP
		if sp.SprintWorkDays != nil && *sp.SprintWorkDays > 0 {
			t.workDays += *sp.SprintWorkDays
		}
		t.doneNow += sp.DoneStoriesNow
		t.doneBySprint += sp.DoneStoriesBySprintEnd
		if rec, ok := pred[sp.ID]; ok && rec.PredictabilitySP != nil {
			t.predictability = append(t.predictability, *rec.PredictabilitySP)
		}
	}
	return t
}

func (t totals) velocity() *float64 { return format.Ratio(t.doneSP, t.workDays) }

func window(sprints []dated, pred map[int64]domain.PredictabilityRecord, months int, end time.Time) WindowStats {
	start := end.AddDate(0, -months, 0)
	cur := collect(sprints, pred, start, end, true)

	w := WindowStats{
		Months:      months,
		Start:       start.UTC().Format(time.RFC3339),
		End:         end.UTC().Format(time.RFC3339),
		SprintCount: cur.count,
		DoneSP:      cur.doneSP,
		WorkDays:    cur.workDays,
		AvgVelocity: cur.velocity(),
		OnTimePct:   format.PercentPtr(float64(cur.doneBySprint), float64(cur.doneNow)),
		Trend:       TrendUnknown,
	}
	if len(cur.predictability) > 0 {
		avg := mean(cur.predictability)
		w.PredictabilityAvg = &avg
	}
	w.Score, w.Grade = GradeFor(w.OnTimePct, w.PredictabilityAvg)

	prev := collect(sprints, pred, start.AddDate(0, -months, 0), start, false)
	w.PreviousVelocity = prev.velocity()
	w.Trend, w.VelocityChangePct = TrendOf(w.AvgVelocity, w.PreviousVelocity)
	return w
}

// TrendOf compares the current velocity with the previous one. A change of
// at least ten percent either way is movement.
func TrendOf(current, previous *float64) (Trend, *float64) {
	if current == nil || previous == nil || *previous <= 0 {
		return TrendUnknown, nil
	}
	change := format.Round((*current / *previous - 1)*100, 2)
	switch {
	case change >= trendBand:
		return TrendUp, &change
	case change <= -trendBand:
		return TrendDown, &change
	default:
		return TrendStable, &change
	}
}

// Indexed compares the most recent sprint ending by end with the mean
// SP/day of up to six sprints before it. Sprints without work days are
// skipped.
func Indexed(sprints []dated, end time.Time) *IndexedDelivery {
	var rates []float64
	var ids []int64
	for _, sp := range sprints {
		if sp.end.After(end) || sp.SprintWorkDays == nil || *sp.SprintWorkDays <= 0 {
			continue
		}
		rates = append(rates, sp.DoneSP / *sp.SprintWorkDays)
		ids = append(ids, sp.ID)
	}
	if len(rates) == 0 {
		return nil
	}
	last := len(rates) - 1
	out := &IndexedDelivery{SprintID: ids[last], CurrentSPPerDay: format.Round(rates[last], 2)}
	prior := rates[max(0, last-baselineSprints):last]
	out.BaselineSprints = len(prior)
	if len(prior) == 0 {
		return out
	}
	base := mean(prior)
	out.BaselineSPPerDay = &base
	if idx := format.Ratio(rates[last], base); idx != nil {
		v := format.Round(*idx, 2)
		out.Index = &v
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	if math.IsNaN(sum) {
		return 0
	}
	return sum / float64(len(values))
}
