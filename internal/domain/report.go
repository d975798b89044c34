package domain

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for worst-of comparisons.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

type Alert struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Severity   Severity `json:"severity"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Action     string   `json:"action"`
	ActionHref string   `json:"actionHref"`
	Color      string   `json:"color"`
}

// WorkRiskRow is the merged view of every risk signal on one issue.
type WorkRiskRow struct {
	Source        string   `json:"source"`
	RiskType      string   `json:"riskType"`
	IssueKey      string   `json:"issueKey"`
	IssueURL      string   `json:"issueUrl"`
	Summary       string   `json:"summary"`
	IssueType     string   `json:"issueType"`
	StoryPoints   *float64 `json:"storyPoints"`
	Status        string   `json:"status"`
	Assignee      string   `json:"assignee"`
	Reporter      string   `json:"reporter"`
	HoursInStatus *float64 `json:"hoursInStatus"`
	EstimateHours *float64 `json:"estimateHours"`
	LoggedHours   *float64 `json:"loggedHours"`
	Updated       string   `json:"updated"`
}
