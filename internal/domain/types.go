/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package domain

// Placeholder is rendered for text fields the server left empty.
const Placeholder = "-"

// Issue is one unit of work as delivered by the sprint data endpoint.
// Numeric fields are nullable: nil means "not reported", which is
// distinct from zero.
type Issue struct {
	IssueKey       string   `json:"issueKey"`
	Summary        string   `json:"summary,omitempty"`
	Status         string   `json:"status,omitempty"`
	StatusCategory string   `json:"statusCategory,omitempty"`
	IssueType      string   `json:"issueType,omitempty"`
	Assignee       string   `json:"assignee,omitempty"`
	Reporter       string   `json:"reporter,omitempty"`
	StoryPoints    *float64 `json:"storyPoints,omitempty"`
	EpicKey        string   `json:"epicKey,omitempty"`
	ParentKey      string   `json:"parentKey,omitempty"`
	Created        string   `json:"created,omitempty"`
	Resolved       string   `json:"resolved,omitempty"`
	Updated        string   `json:"updated,omitempty"`
	HoursInStatus  *float64 `json:"hoursInStatus,omitempty"`
	EstimateHours  *float64 `json:"estimateHours,omitempty"`
	LoggedHours    *float64 `json:"loggedHours,omitempty"`
	RemainingHours *float64 `json:"remainingHours,omitempty"`
	IssueURL       string   `json:"issueUrl,omitempty"`
}

type Sprint struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	State        string `json:"state,omitempty"`
	BoardID      int64  `json:"boardId,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	CompleteDate string `json:"completeDate,omitempty"`
	Goal         string `json:"goal,omitempty"`
}

// SprintSummary holds the rollups of a sprint. Callers keep
// DoneStories <= TotalStories and DoneSP <= TotalSP.
type SprintSummary struct {
	TotalStories  int     `json:"totalStories"`
	DoneStories   int     `json:"doneStories"`
	TotalSP       float64 `json:"totalSP"`
	DoneSP        float64 `json:"doneSP"`
	PercentDone   float64 `json:"percentDone"`
	NewFeaturesSP float64 `json:"newFeaturesSP"`
	SupportOpsSP  float64 `json:"supportOpsSP"`
}

type SubtaskSummary struct {
	TotalEstimateHours  float64 `json:"totalEstimateHours"`
	TotalLoggedHours    float64 `json:"totalLoggedHours"`
	TotalRemainingHours float64 `json:"totalRemainingHours"`
	MissingEstimate     int     `json:"missingEstimate"`
	MissingLogged       int     `json:"missingLogged"`
}

type SubtaskTracking struct {
	Rows    []Issue        `json:"rows"`
	Summary SubtaskSummary `json:"summary"`
}

type DaysMeta struct {
	DaysInSprintCalendar int  `json:"daysInSprintCalendar,omitempty"`
	DaysInSprintWorking  *int `json:"daysInSprintWorking,omitempty"`
	DaysElapsedWorking   *int `json:"daysElapsedWorking,omitempty"`
	DaysRemainingWorking *int `json:"daysRemainingWorking,omitempty"`
}

type PlannedWindow struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// BurndownPoint is one day of a remaining-work series.
type BurndownPoint struct {
	Date        string  `json:"date"`
	RemainingSP float64 `json:"remainingSP"`
}

// SprintSnapshot is the unit the report computations operate over.
type SprintSnapshot struct {
	Sprint             Sprint          `json:"sprint"`
	Summary            SprintSummary   `json:"summary"`
	Stories            []Issue         `json:"stories"`
	StuckCandidates    []Issue         `json:"stuckCandidates"`
	ScopeChanges       []Issue         `json:"scopeChanges"`
	SubtaskTracking    SubtaskTracking `json:"subtaskTracking"`
	DaysMeta           DaysMeta        `json:"daysMeta"`
	PlannedWindow      PlannedWindow   `json:"plannedWindow"`
	RecentSprints      []Sprint        `json:"recentSprints,omitempty"`
	RemainingWorkByDay []BurndownPoint `json:"remainingWorkByDay,omitempty"`
	IdealBurndown      []BurndownPoint `json:"idealBurndown,omitempty"`
	Notes              []string        `json:"notes,omitempty"`
	Assumptions        []string        `json:"assumptions,omitempty"`
}

// Board is a Jira Software board as reported by the aggregation endpoint.
type Board struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type,omitempty"`
	ProjectKeys []string `json:"projectKeys,omitempty"`
}

// SprintIncluded is a sprint that contributed to a board rollup.
type SprintIncluded struct {
	ID                     int64    `json:"id"`
	BoardID                int64    `json:"boardId"`
	Name                   string   `json:"name,omitempty"`
	State                  string   `json:"state,omitempty"`
	StartDate              string   `json:"startDate,omitempty"`
	EndDate                string   `json:"endDate,omitempty"`
	DoneStoriesNow         int      `json:"doneStoriesNow"`
	DoneStoriesBySprintEnd int      `json:"doneStoriesBySprintEnd"`
	DoneSP                 float64  `json:"doneSP"`
	SprintWorkDays         *float64 `json:"sprintWorkDays,omitempty"`
}

// DeliveryRow is one done issue attributed to a board and sprint.
type DeliveryRow struct {
	IssueKey              string   `json:"issueKey"`
	BoardID               int64    `json:"boardId"`
	SprintID              int64    `json:"sprintId"`
	IssueType             string   `json:"issueType,omitempty"`
	StoryPoints           *float64 `json:"storyPoints,omitempty"`
	AssigneeDisplayName   string   `json:"assigneeDisplayName,omitempty"`
	EpicKey               string   `json:"epicKey,omitempty"`
	Created               string   `json:"created,omitempty"`
	Resolved              string   `json:"resolved,omitempty"`
	TimeSpentHours        *float64 `json:"timeSpentHours,omitempty"`
	SubtaskTimeSpentHours *float64 `json:"subtaskTimeSpentHours,omitempty"`
	OriginalEstimateHours *float64 `json:"originalEstimateHours,omitempty"`
	SubtaskEstimateHours  *float64 `json:"subtaskEstimateHours,omitempty"`
}

// ReportMeta carries feature flags of the aggregation run.
type ReportMeta struct {
	StoryPointsEnabled bool `json:"storyPointsEnabled"`
	EpicLinkEnabled    bool `json:"epicLinkEnabled"`
}

// PredictabilityRecord is keyed by sprint id.
type PredictabilityRecord struct {
	CommittedSP      float64  `json:"committedSP"`
	DeliveredSP      float64  `json:"deliveredSP"`
	PredictabilitySP *float64 `json:"predictabilitySP,omitempty"`
}

// BoardRollupInput is the payload of the board/sprint aggregation endpoint.
type BoardRollupInput struct {
	Boards                  []Board                        `json:"boards"`
	SprintsIncluded         []SprintIncluded               `json:"sprintsIncluded"`
	Rows                    []DeliveryRow                  `json:"rows"`
	Meta                    ReportMeta                     `json:"meta"`
	PredictabilityPerSprint map[int64]PredictabilityRecord `json:"predictabilityPerSprint,omitempty"`
	WindowEnd               string                         `json:"windowEnd,omitempty"`
}
