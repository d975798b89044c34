/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// NameSet is a set of display names that serializes as a sorted list.
type NameSet map[string]struct{}

func (s NameSet) Add(name string) { s[name] = struct{}{} }

func (s NameSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (s NameSet) MarshalJSON() ([]byte, error) { return json.Marshal(s.Sorted()) }

func (s *NameSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	*s = NameSet{}
	for _, n := range names {
		s.Add(n)
	}
	return nil
}

// BoardSummary is the per-board running total built by one aggregation pass.
type BoardSummary struct {
	BoardID              int64              `json:"boardId"`
	BoardName            string             `json:"boardName,omitempty"`
	SprintCount          int                `json:"sprintCount"`
	DoneStories          int                `json:"doneStories"`
	DoneSP               float64            `json:"doneSP"`
	RegisteredWorkHours  float64            `json:"registeredWorkHours"`
	EstimatedWorkHours   float64            `json:"estimatedWorkHours"`
	CommittedSP          float64            `json:"committedSP"`
	DeliveredSP          float64            `json:"deliveredSP"`
	EarliestStart        *time.Time         `json:"earliestStart"`
	LatestEnd            *time.Time         `json:"latestEnd"`
	TotalSprintDays      int                `json:"totalSprintDays"`
	ValidSprintDaysCount int                `json:"validSprintDaysCount"`
	DoneBySprintEnd      int                `json:"doneBySprintEnd"`
	SprintSPValues       []float64          `json:"sprintSpValues"`
	EpicStories          int                `json:"epicStories"`
	NonEpicStories       int                `json:"nonEpicStories"`
	EpicSP               float64            `json:"epicSP"`
	NonEpicSP            float64            `json:"nonEpicSP"`
	Assignees            NameSet            `json:"assignees"`
	AssigneeStoryCounts  map[string]int     `json:"assigneeStoryCounts"`
	AssigneeSPTotals     map[string]float64 `json:"assigneeSpTotals"`
}

// NewBoardSummary returns a fully zeroed summary with initialized collections.
func NewBoardSummary(boardID int64) *BoardSummary {
	return &BoardSummary{
		BoardID:             boardID,
		SprintSPValues:      []float64{},
		Assignees:           NameSet{},
		AssigneeStoryCounts: map[string]int{},
		AssigneeSPTotals:    map[string]float64{},
	}
}
