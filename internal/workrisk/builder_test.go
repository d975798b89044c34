package workrisk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

func find(rows []domain.WorkRiskRow, key string) (domain.WorkRiskRow, int) {
	var hit domain.WorkRiskRow
	n := 0
	for _, r := range rows {
		if strings.EqualFold(strings.TrimSpace(r.IssueKey), key) {
			hit = r
			n++
		}
	}
	return hit, n
}

func TestBuild_ScopeBackfillFromStory(t *testing.T) {
	snap := domain.SprintSnapshot{
		ScopeChanges: []domain.Issue{{IssueKey: "X-1"}},
		Stories:      []domain.Issue{{IssueKey: "X-1", Summary: "Fix login", Status: "In Progress", Assignee: "Ana", Reporter: "Ben"}},
	}
	rows := Build(snap)

	row, n := find(rows, "X-1")
	require.Equal(t, 1, n)
	assert.Equal(t, "Fix login", row.Summary)
	assert.Equal(t, "In Progress", row.Status)
	assert.Equal(t, SourceScope, row.Source)
	assert.Equal(t, RiskAddedMidSprint, row.RiskType)
}

func TestSubtaskRisk_Priority(t *testing.T) {
	cases := []struct {
		name string
		in   domain.Issue
		want string
	}{
		{"missing estimate wins", domain.Issue{LoggedHours: format.Float(0), HoursInStatus: format.Float(50)}, RiskMissingEstimate},
		{"missing log next", domain.Issue{EstimateHours: format.Float(4), HoursInStatus: format.Float(50)}, RiskNoTimeLogged},
		{"stuck last", domain.Issue{EstimateHours: format.Float(4), LoggedHours: format.Float(1), HoursInStatus: format.Float(24)}, RiskStuck},
		{"healthy dropped", domain.Issue{EstimateHours: format.Float(4), LoggedHours: format.Float(1), HoursInStatus: format.Float(3)}, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, SubtaskRisk(c.in))
		})
	}

	rows := SubtaskRows([]domain.Issue{
		{IssueKey: "S-1", EstimateHours: format.Float(4), LoggedHours: format.Float(2)},
		{IssueKey: "S-2"},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "S-2", rows[0].IssueKey)
	assert.Equal(t, SourceSubtask, rows[0].Source)
}

func TestOwnershipRows(t *testing.T) {
	rows := OwnershipRows([]domain.Issue{
		{IssueKey: "O-1", Assignee: "-", Reporter: ""},
		{IssueKey: "O-2", Assignee: "Ana", Reporter: "-"},
		{IssueKey: "O-3", Assignee: "Ana", Reporter: "Ben"},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, RiskUnassigned, rows[0].RiskType)
	assert.Equal(t, RiskMissingReporter, rows[1].RiskType)
	assert.Equal(t, SourceSprint, rows[1].Source)
}

func sampleSnapshot() domain.SprintSnapshot {
	return domain.SprintSnapshot{
		Stories: []domain.Issue{
			{IssueKey: "P-1", Summary: "Checkout", Assignee: "", Reporter: "Ben", Updated: "2025-03-01T10:00:00Z"},
			{IssueKey: "P-2", Summary: "Search", Assignee: "Ana", Reporter: "Ben", StoryPoints: format.Float(5), Updated: "2025-03-02T10:00:00Z"},
		},
		ScopeChanges: []domain.Issue{
			{IssueKey: " p-1 ", Updated: "2025-03-03T10:00:00Z"},
		},
		StuckCandidates: []domain.Issue{
			{IssueKey: "P-2", HoursInStatus: format.Float(72), Status: "In Review", Updated: "2025-03-01T08:00:00Z"},
			{IssueKey: "", Summary: "orphan one", Updated: "2025-02-01T00:00:00Z"},
			{IssueKey: "-", Summary: "orphan two", Updated: "2025-02-02T00:00:00Z"},
		},
		SubtaskTracking: domain.SubtaskTracking{Rows: []domain.Issue{
			{IssueKey: "P-2", Status: "Done", HoursInStatus: format.Float(30), EstimateHours: format.Float(3), LoggedHours: format.Float(1), Updated: "not-a-date"},
			{IssueKey: "P-9", Updated: ""},
		}},
	}
}

func TestBuild_DedupUnionAndFirstWins(t *testing.T) {
	rows := Build(sampleSnapshot())

	p1, n := find(rows, "P-1")
	require.Equal(t, 1, n)
	assert.Equal(t, "Scope, Sprint", p1.Source)
	assert.Equal(t, "Added Mid-Sprint, Unassigned Issue", p1.RiskType)
	assert.Equal(t, "Checkout", p1.Summary)
	assert.Equal(t, "2025-03-03T10:00:00Z", p1.Updated)

	p2, n := find(rows, "P-2")
	require.Equal(t, 1, n)
	assert.Equal(t, "Flow, Subtask", p2.Source)
	assert.Equal(t, RiskStuck, p2.RiskType, "same risk from two sources is listed once")
	assert.Equal(t, "In Review", p2.Status, "first real value wins")
	require.NotNil(t, p2.HoursInStatus)
	assert.Equal(t, 72.0, *p2.HoursInStatus)
	require.NotNil(t, p2.EstimateHours, "placeholder is filled from a later row")
	assert.Equal(t, 3.0, *p2.EstimateHours)
	assert.Equal(t, "2025-03-01T08:00:00Z", p2.Updated)

	orphans := 0
	for _, r := range rows {
		if strings.HasPrefix(r.Summary, "orphan") {
			orphans++
			assert.Equal(t, domain.Placeholder, r.IssueKey)
		}
	}
	assert.Equal(t, 2, orphans, "blank keys are never merged")
}

func TestBuild_SortedFreshestFirst(t *testing.T) {
	rows := Build(sampleSnapshot())
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, format.EpochMillis(rows[i-1].Updated), format.EpochMillis(rows[i].Updated))
	}
	assert.True(t, strings.EqualFold("P-1", rows[0].IssueKey))
	last := rows[len(rows)-1]
	assert.Equal(t, int64(0), format.EpochMillis(last.Updated))
}

func TestBuild_Idempotent(t *testing.T) {
	snap := sampleSnapshot()
	assert.Equal(t, Build(snap), Build(snap))
}

func TestMerge_NeverDowngrades(t *testing.T) {
	rows := Merge([]domain.WorkRiskRow{
		{Source: "Flow", RiskType: "Stuck >24h", IssueKey: "K-1", Summary: "-", Assignee: "Ana", StoryPoints: nil, Updated: "-"},
		{Source: "Sprint", RiskType: "Missing Reporter", IssueKey: "k-1", Summary: "Real summary", Assignee: "-", StoryPoints: format.Float(2), Updated: "2025-01-01"},
		{Source: "Scope", RiskType: "Added Mid-Sprint", IssueKey: "K-1 ", Summary: "-", Assignee: "-", Updated: "-"},
	})
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "Real summary", r.Summary)
	assert.Equal(t, "Ana", r.Assignee)
	require.NotNil(t, r.StoryPoints)
	assert.Equal(t, 2.0, *r.StoryPoints)
	assert.Equal(t, "2025-01-01", r.Updated)
	assert.Equal(t, "Flow, Sprint, Scope", r.Source)
}

func TestBuild_EmptySnapshot(t *testing.T) {
	assert.Empty(t, Build(domain.SprintSnapshot{}))
}

func TestMerge_UnionIgnoresCase(t *testing.T) {
	rows := Merge([]domain.WorkRiskRow{
		{IssueKey: "Q-1", Source: "Scope", RiskType: RiskStuck},
		{IssueKey: "q-1", Source: "scope", RiskType: strings.ToLower(RiskStuck)},
		{IssueKey: "Q-1", Source: "Flow", RiskType: RiskStuck},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "Scope, Flow", rows[0].Source)
	assert.Equal(t, RiskStuck, rows[0].RiskType)
}
