/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package capacity compares each assignee's committed story points with an
// assumed per-person capacity for the sprint.
package capacity

import (
	"math"
	"sort"
	"strings"

	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

const (
	// SPPerDay is the assumed velocity of one person.
	SPPerDay = 2
	// DefaultWorkingDays applies when the sprint length is unknown.
	DefaultWorkingDays = 10

	Unassigned = "Unassigned"

	// unassignedLimit is the unassigned-issue share above which the
	// allocation picture is not trusted.
	unassignedLimit = 20.0
)

type Health string

const (
	HealthOK        Health = "ok"
	HealthWarning   Health = "warning"
	HealthCritical  Health = "critical"
	HealthUncertain Health = "uncertain"
)

type Allocation struct {
	Assignee         string  `json:"assignee"`
	StoryPoints      float64 `json:"storyPoints"`
	Issues           int     `json:"issues"`
	ExpectedCapacity float64 `json:"expectedCapacity"`
	AllocPercent     int     `json:"allocPercent"`
	Overallocated    bool    `json:"overallocated"`
}

// Suggestion proposes moving points away from an overallocated assignee.
type Suggestion struct {
	Assignee string `json:"assignee"`
	MoveSP   int    `json:"moveSp"`
}

type Report struct {
	Allocations       []Allocation `json:"allocations"`
	Health            Health       `json:"health"`
	Overallocated     int          `json:"overallocated"`
	UnassignedPercent float64      `json:"unassignedPercent"`
	WorkingDays       int          `json:"workingDays"`
	ExpectedCapacity  float64      `json:"expectedCapacity"`
	Suggestions       []Suggestion `json:"suggestions"`
}

// Calculate builds the capacity report for the stories of a sprint.
// workingDays of nil or below one falls back to DefaultWorkingDays.
func Calculate(stories []domain.Issue, workingDays *int) Report {
	days := DefaultWorkingDays
	if workingDays != nil && *workingDays > 0 {
		days = *workingDays
	}
	expected := float64(days * SPPerDay)

	order := []string{}
	byName := map[string]*Allocation{}
	unassigned := 0
	for _, s := range stories {
		name := Unassigned
		if format.IsBlank(s.Assignee) {
			unassigned++
		} else {
			name = strings.TrimSpace(s.Assignee)
		}
		a, ok := byName[name]
		if !ok {
			a = &Allocation{Assignee: name, ExpectedCapacity: expected}
			byName[name] = a
			order = append(order, name)
		}
		a.StoryPoints += format.Value(s.StoryPoints)
		a.Issues++
	}

	r := Report{
		Allocations:      make([]Allocation, 0, len(order)),
		Health:           HealthOK,
		WorkingDays:      days,
		ExpectedCapacity: expected,
		Suggestions:      []Suggestion{},
	}
	for _, name := range order {
		a := byName[name]
		a.AllocPercent = int(math.Round(format.Percent(a.StoryPoints, expected)))
		a.Overallocated = a.StoryPoints > expected
		if a.Overallocated {
			r.Overallocated++
			r.Suggestions = append(r.Suggestions, Suggestion{
				Assignee: a.Assignee,
				MoveSP:   int(math.Ceil((a.StoryPoints - expected) / 2)),
			})
		}
		r.Allocations = append(r.Allocations, *a)
	}
	sort.SliceStable(r.Allocations, func(i, j int) bool {
		return r.Allocations[i].StoryPoints > r.Allocations[j].StoryPoints
	})

	switch {
	case r.Overallocated*2 > len(r.Allocations):
		r.Health = HealthCritical
	case r.Overallocated > 0:
		r.Health = HealthWarning
	}
	r.UnassignedPercent = format.Round(format.Percent(float64(unassigned), float64(len(stories))), 1)
	if r.UnassignedPercent > unassignedLimit {
		r.Health = HealthUncertain
	}
	return r
}
