package capacity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

func story(assignee string, sp float64) domain.Issue {
	return domain.Issue{Assignee: assignee, StoryPoints: format.Float(sp)}
}

func days(n int) *int { return &n }

func TestCalculate_DefaultDaysAndAllocation(t *testing.T) {
	r := Calculate([]domain.Issue{story("Ana", 15), story("Ana", 10), story("Ben", 8)}, nil)

	assert.Equal(t, DefaultWorkingDays, r.WorkingDays)
	assert.Equal(t, 20.0, r.ExpectedCapacity)
	require.Len(t, r.Allocations, 2)

	ana := r.Allocations[0]
	assert.Equal(t, "Ana", ana.Assignee)
	assert.Equal(t, 25.0, ana.StoryPoints)
	assert.Equal(t, 2, ana.Issues)
	assert.Equal(t, 125, ana.AllocPercent)
	assert.True(t, ana.Overallocated)

	ben := r.Allocations[1]
	assert.Equal(t, 40, ben.AllocPercent)
	assert.False(t, ben.Overallocated)

	assert.Equal(t, HealthWarning, r.Health, "one of two is not more than half")
	require.Len(t, r.Suggestions, 1)
	assert.Equal(t, Suggestion{Assignee: "Ana", MoveSP: 3}, r.Suggestions[0])
}

func TestCalculate_Critical(t *testing.T) {
	r := Calculate([]domain.Issue{story("Ana", 12), story("Ben", 11), story("Cy", 2)}, days(5))
	assert.Equal(t, 10.0, r.ExpectedCapacity)
	assert.Equal(t, 2, r.Overallocated)
	assert.Equal(t, HealthCritical, r.Health)
	assert.Equal(t, 1, r.Suggestions[0].MoveSP)
}

func TestCalculate_UnassignedOverridesHealth(t *testing.T) {
	r := Calculate([]domain.Issue{story("Ana", 30), story("", 1), story("-", 1), story("Ben", 1)}, days(10))
	assert.Equal(t, 50.0, r.UnassignedPercent)
	assert.Equal(t, HealthUncertain, r.Health)

	var names []string
	for _, a := range r.Allocations {
		names = append(names, a.Assignee)
	}
	assert.Contains(t, names, Unassigned)
}

func TestCalculate_EmptyIsHealthy(t *testing.T) {
	r := Calculate(nil, days(0))
	assert.Equal(t, HealthOK, r.Health)
	assert.Empty(t, r.Allocations)
	assert.Equal(t, 0.0, r.UnassignedPercent)
	assert.Equal(t, DefaultWorkingDays, r.WorkingDays)
}
