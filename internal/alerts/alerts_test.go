package alerts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

func team(n int) []domain.Issue {
	out := make([]domain.Issue, n)
	for i := range out {
		out[i] = domain.Issue{IssueKey: fmt.Sprintf("T-%d", i), Assignee: fmt.Sprintf("dev%d", i)}
	}
	return out
}

func stuck(n int) []domain.Issue {
	out := make([]domain.Issue, n)
	for i := range out {
		out[i] = domain.Issue{IssueKey: fmt.Sprintf("S-%d", i)}
	}
	return out
}

func TestTeamSize(t *testing.T) {
	assert.Equal(t, 1, TeamSize(domain.SprintSnapshot{}))
	snap := domain.SprintSnapshot{
		Stories:         []domain.Issue{{Assignee: "Ana"}, {Assignee: "ana "}, {Assignee: "-"}, {Assignee: ""}},
		StuckCandidates: []domain.Issue{{Assignee: "Ben"}},
	}
	assert.Equal(t, 2, TeamSize(snap))
}

func TestStuckThresholdScaling(t *testing.T) {
	snap := domain.SprintSnapshot{Stories: team(12), StuckCandidates: stuck(4)}
	require.Equal(t, 12, TeamSize(snap))
	assert.Equal(t, 3, StuckThreshold(12))

	got := Derive(snap)
	require.Len(t, got, 1)
	assert.Equal(t, TypeStuck, got[0].Type)
	assert.Equal(t, domain.SeverityHigh, got[0].Severity)
	assert.Equal(t, ColorOrange, got[0].Color)
}

func TestStuckSeverityLadder(t *testing.T) {
	cases := []struct {
		stuck int
		want  domain.Severity
		ok    bool
	}{
		{0, "", false},
		{1, domain.SeverityMedium, true},
		{2, domain.SeverityMedium, true},
		{3, domain.SeverityHigh, true},
		{5, domain.SeverityHigh, true},
		{6, domain.SeverityCritical, true},
	}
	for _, c := range cases {
		t.Run(fmt.Sprint(c.stuck), func(t *testing.T) {
			a, ok := StuckCheck(domain.SprintSnapshot{StuckCandidates: stuck(c.stuck)}, 1)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, a.Severity)
		})
	}
}

func TestScopeGrowthThresholdsAdaptToTeam(t *testing.T) {
	snap := domain.SprintSnapshot{
		Summary:      domain.SprintSummary{TotalSP: 100},
		ScopeChanges: []domain.Issue{{IssueKey: "N-1", StoryPoints: format.Float(10)}},
	}
	small, ok := ScopeGrowthCheck(snap, 3)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityHigh, small.Severity)
	assert.Equal(t, ColorOrange, small.Color)

	large, ok := ScopeGrowthCheck(snap, 8)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityMedium, large.Severity)
	assert.Equal(t, ColorYellow, large.Color)

	snap.ScopeChanges[0].StoryPoints = format.Float(4)
	_, ok = ScopeGrowthCheck(snap, 8)
	assert.False(t, ok)

	snap.Summary.TotalSP = 0
	_, ok = ScopeGrowthCheck(snap, 3)
	assert.False(t, ok, "no total SP means no growth signal")
}

func TestMissingEstimatesAndNoTimeLogged(t *testing.T) {
	rows := []domain.Issue{{}, {}, {}, {EstimateHours: format.Float(0)}}
	a, ok := MissingEstimatesCheck(domain.SprintSnapshot{SubtaskTracking: domain.SubtaskTracking{Rows: rows}}, 1)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityMedium, a.Severity)

	rows = append(rows, domain.Issue{}, domain.Issue{})
	a, ok = MissingEstimatesCheck(domain.SprintSnapshot{SubtaskTracking: domain.SubtaskTracking{Rows: rows}}, 1)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityHigh, a.Severity)
	assert.Equal(t, ColorRed, a.Color)

	logged := domain.SprintSnapshot{SubtaskTracking: domain.SubtaskTracking{Rows: []domain.Issue{
		{EstimateHours: format.Float(4)},
		{EstimateHours: format.Float(2), LoggedHours: format.Float(0)},
	}}}
	a, ok = NoTimeLoggedCheck(logged, 1)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityMedium, a.Severity)

	logged.SubtaskTracking.Rows[1].LoggedHours = format.Float(1)
	_, ok = NoTimeLoggedCheck(logged, 1)
	assert.False(t, ok)
}

func TestVerdictKeepsDetectionOrder(t *testing.T) {
	// One medium stuck alert and one high scope alert: stuck still wins.
	snap := domain.SprintSnapshot{
		Stories:         team(2),
		StuckCandidates: stuck(1),
		Summary:         domain.SprintSummary{TotalSP: 20},
		ScopeChanges:    []domain.Issue{{IssueKey: "N-1", StoryPoints: format.Float(10)}},
	}
	got := Derive(snap)
	require.Len(t, got, 2)
	assert.Equal(t, domain.SeverityMedium, got[0].Severity)
	assert.Equal(t, domain.SeverityHigh, got[1].Severity)

	v := Verdict(got)
	assert.Equal(t, TypeStuck, v.Type)

	b := NewBanner(got)
	require.Len(t, b.Alerts, 1, "scope growth is left to the verdict bar")
	assert.Equal(t, domain.SeverityMedium, b.Severity)
	assert.Equal(t, ColorYellow, b.Color)
}

func TestVerdictOnTrack(t *testing.T) {
	got := Derive(domain.SprintSnapshot{})
	assert.Empty(t, got)
	v := Verdict(got)
	assert.Equal(t, TypeOnTrack, v.Type)
	assert.Equal(t, ColorGreen, v.Color)

	b := NewBanner(got)
	assert.Empty(t, b.Alerts)
	assert.Empty(t, b.Color)
}

func TestBannerWorstSeverity(t *testing.T) {
	b := NewBanner([]domain.Alert{
		{Type: TypeNoTimeLogged, Severity: domain.SeverityMedium},
		{Type: TypeStuck, Severity: domain.SeverityCritical},
		{Type: TypeMissingEstimates, Severity: domain.SeverityHigh},
	})
	assert.Equal(t, domain.SeverityCritical, b.Severity)
	assert.Equal(t, ColorRed, b.Color)
}
