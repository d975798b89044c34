package leadership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

func closedSprint(id int64, end string, doneSP, days float64, now, onTime int) domain.SprintIncluded {
	return domain.SprintIncluded{
		ID: id, BoardID: 1, State: "closed", EndDate: end,
		DoneSP: doneSP, SprintWorkDays: format.Float(days),
		DoneStoriesNow: now, DoneStoriesBySprintEnd: onTime,
	}
}

func sampleInput() domain.BoardRollupInput {
	active := closedSprint(104, "2025-06-25T00:00:00Z", 99, 10, 50, 50)
	active.State = "active"
	return domain.BoardRollupInput{
		Boards: []domain.Board{{ID: 1, Name: "Payments"}, {ID: 2, Name: "Idle"}},
		SprintsIncluded: []domain.SprintIncluded{
			closedSprint(101, "2025-06-20T00:00:00Z", 20, 10, 10, 9),
			closedSprint(102, "2025-06-06T00:00:00Z", 20, 10, 10, 10),
			closedSprint(103, "2025-05-15T00:00:00Z", 10, 10, 5, 5),
			active,
		},
		PredictabilityPerSprint: map[int64]domain.PredictabilityRecord{
			101: {CommittedSP: 25, DeliveredSP: 20, PredictabilitySP: format.Float(80)},
			103: {CommittedSP: 10, DeliveredSP: 10, PredictabilitySP: format.Float(100)},
		},
	}
}

var windowEnd = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

func TestCompute_Windows(t *testing.T) {
	r := Compute(sampleInput(), windowEnd)
	require.Len(t, r.Boards, 2)
	b := r.Boards[0]
	assert.Equal(t, "Payments", b.BoardName)
	require.Len(t, b.Windows, len(WindowMonths))

	one := b.Windows[0]
	assert.Equal(t, 1, one.Months)
	assert.Equal(t, 2, one.SprintCount, "active sprints are ignored")
	require.NotNil(t, one.AvgVelocity)
	assert.InDelta(t, 2.0, *one.AvgVelocity, 1e-9)
	require.NotNil(t, one.OnTimePct)
	assert.InDelta(t, 95.0, *one.OnTimePct, 1e-9)
	require.NotNil(t, one.PredictabilityAvg)
	assert.InDelta(t, 80.0, *one.PredictabilityAvg, 1e-9, "sprints without a record are skipped")
	require.NotNil(t, one.Grade)
	assert.Equal(t, GradeStable, *one.Grade)
	assert.Equal(t, TrendUp, one.Trend)
	require.NotNil(t, one.PreviousVelocity)
	assert.InDelta(t, 1.0, *one.PreviousVelocity, 1e-9)

	three := b.Windows[1]
	assert.Equal(t, 3, three.SprintCount)
	require.NotNil(t, three.Grade)
	assert.Equal(t, GradeStrong, *three.Grade)
	assert.Equal(t, TrendUnknown, three.Trend, "no sprints in the previous window")
	assert.Nil(t, three.PreviousVelocity)
}

func TestCompute_BoardWithoutSprints(t *testing.T) {
	r := Compute(sampleInput(), windowEnd)
	idle := r.Boards[1]
	assert.Equal(t, int64(2), idle.BoardID)
	for _, w := range idle.Windows {
		assert.Nil(t, w.AvgVelocity)
		assert.Nil(t, w.OnTimePct)
		assert.Nil(t, w.Grade)
		assert.Nil(t, w.Score)
		assert.Equal(t, TrendUnknown, w.Trend)
	}
	assert.Nil(t, idle.IndexedDelivery)
}

func TestIndexedDelivery(t *testing.T) {
	r := Compute(sampleInput(), windowEnd)
	id := r.Boards[0].IndexedDelivery
	require.NotNil(t, id)
	assert.Equal(t, int64(101), id.SprintID)
	assert.Equal(t, 2.0, id.CurrentSPPerDay)
	assert.Equal(t, 2, id.BaselineSprints)
	require.NotNil(t, id.Index)
	assert.Equal(t, 1.33, *id.Index)
}

func TestGradeFor(t *testing.T) {
	score, g := GradeFor(nil, nil)
	assert.Nil(t, score)
	assert.Nil(t, g)

	score, g = GradeFor(format.Float(70), nil)
	require.NotNil(t, g)
	assert.Equal(t, 70.0, *score)
	assert.Equal(t, GradeWatch, *g)

	score, g = GradeFor(format.Float(100), format.Float(80))
	require.NotNil(t, g)
	assert.Equal(t, 90.0, *score)
	assert.Equal(t, GradeStrong, *g)

	score, g = GradeFor(format.Float(90), format.Float(80))
	require.NotNil(t, g)
	assert.Equal(t, 85.0, *score)
	assert.Equal(t, GradeStable, *g)

	cases := map[float64]Grade{90: GradeStrong, 89.9: GradeStable, 80: GradeStable, 79: GradeWatch, 60: GradeAtRisk, 59.9: GradeCritical, 0: GradeCritical}
	for score, want := range cases {
		assert.Equal(t, want, Bucket(score), "score %v", score)
	}
}

func TestTrendOf(t *testing.T) {
	trend, _ := TrendOf(format.Float(11), format.Float(10))
	assert.Equal(t, TrendUp, trend)
	trend, _ = TrendOf(format.Float(9), format.Float(10))
	assert.Equal(t, TrendDown, trend)
	trend, pct := TrendOf(format.Float(10.5), format.Float(10))
	assert.Equal(t, TrendStable, trend)
	require.NotNil(t, pct)
	assert.Equal(t, 5.0, *pct)
	trend, pct = TrendOf(format.Float(3), format.Float(0))
	assert.Equal(t, TrendUnknown, trend)
	assert.Nil(t, pct)
}
