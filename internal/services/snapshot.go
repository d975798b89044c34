package services

import (
	"strings"
	"time"

	"github.com/iamalbertly/jira-reporting/internal/adapters/jira"
	"github.com/iamalbertly/jira-reporting/internal/boardsummary"
	"github.com/iamalbertly/jira-reporting/internal/burndown"
	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

const stuckAfterHours = 24

type SnapshotOptions struct {
	BaseURL          string
	StoryPointsField string
	EpicLinkField    string
}

// supportTypes are issue types counted as support and operations work.
var supportTypes = []string{"bug", "defect", "incident", "support", "problem", "service request"}

func isSupport(issueType string) bool {
	t := strings.ToLower(strings.TrimSpace(issueType))
	if t == "task" {
		return true
	}
	for _, s := range supportTypes {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}

// ToIssue flattens a Jira issue into the report record. now drives the
// hours-in-status figure.
func ToIssue(is jira.Issue, opt SnapshotOptions, now time.Time) domain.Issue {
	f := is.Fields
	out := domain.Issue{
		IssueKey:       is.Key,
		Summary:        f.Summary,
		Status:         f.Status.Name,
		StatusCategory: f.Status.StatusCategory.Key,
		IssueType:      f.IssueType.Name,
		Assignee:       f.AssigneeName(),
		Reporter:       f.ReporterName(),
		ParentKey:      f.ParentKey(),
		Created:        f.Created,
		Resolved:       f.ResolutionDate,
		Updated:        f.Updated,
		EstimateHours:  hours(f.TimeTracking.OriginalEstimateSeconds),
		LoggedHours:    hours(f.TimeTracking.TimeSpentSeconds),
		RemainingHours: hours(f.TimeTracking.RemainingEstimateSeconds),
	}
	if opt.StoryPointsField != "" {
		out.StoryPoints = f.Number(opt.StoryPointsField)
	}
	if opt.EpicLinkField != "" {
		out.EpicKey = f.Text(opt.EpicLinkField)
	}
	if changed, ok := format.ParseTime(f.StatusCategoryChangeDate); ok && !now.Before(changed) {
		h := format.Round(now.Sub(changed).Hours(), 1)
		out.HoursInStatus = &h
	}
	if base := strings.TrimRight(opt.BaseURL, "/"); base != "" && is.Key != "" {
		out.IssueURL = base + "/browse/" + is.Key
	}
	return out
}

func hours(seconds *float64) *float64 {
	if seconds == nil {
		return nil
	}
	h := format.Round(*seconds/3600, 2)
	return &h
}

func toSprint(sp jira.Sprint, boardID int64) domain.Sprint {
	if boardID == 0 {
		boardID = sp.OriginBoardID
	}
	return domain.Sprint{
		ID:           sp.ID,
		Name:         sp.Name,
		State:        sp.State,
		BoardID:      boardID,
		StartDate:    sp.StartDate,
		EndDate:      sp.EndDate,
		CompleteDate: sp.CompleteDate,
		Goal:         sp.Goal,
	}
}

func isDone(is domain.Issue) bool { return strings.EqualFold(is.StatusCategory, "done") }

// BuildSnapshot normalizes a sprint and its issues into a sprint snapshot.
func BuildSnapshot(sp jira.Sprint, boardID int64, issues []jira.Issue, opt SnapshotOptions, now time.Time) domain.SprintSnapshot {
	snap := domain.SprintSnapshot{
		Sprint:          toSprint(sp, boardID),
		Stories:         []domain.Issue{},
		StuckCandidates: []domain.Issue{},
		ScopeChanges:    []domain.Issue{},
		SubtaskTracking: domain.SubtaskTracking{Rows: []domain.Issue{}},
		PlannedWindow:   domain.PlannedWindow{Start: sp.StartDate, End: sp.EndDate},
	}
	start, startOK := format.ParseTime(sp.StartDate)

	for _, raw := range issues {
		is := ToIssue(raw, opt, now)
		stuck := !isDone(is) && is.HoursInStatus != nil && *is.HoursInStatus > stuckAfterHours
		if stuck {
			snap.StuckCandidates = append(snap.StuckCandidates, is)
		}
		if raw.Fields.IssueType.Subtask {
			addSubtask(&snap.SubtaskTracking, is)
			continue
		}
		snap.Stories = append(snap.Stories, is)
		addStory(&snap.Summary, is)
		if created, ok := format.ParseTime(is.Created); ok && startOK && created.After(start) {
			snap.ScopeChanges = append(snap.ScopeChanges, is)
		}
	}
	if snap.Summary.TotalSP > 0 {
		snap.Summary.PercentDone = format.Round(format.Percent(snap.Summary.DoneSP, snap.Summary.TotalSP), 1)
	} else {
		snap.Summary.PercentDone = format.Round(format.Percent(float64(snap.Summary.DoneStories), float64(snap.Summary.TotalStories)), 1)
	}

	snap.DaysMeta = daysMeta(sp.StartDate, sp.EndDate, now)
	snap.RemainingWorkByDay = remainingByDay(snap.Stories, snap.Summary.TotalSP, sp.StartDate, sp.EndDate, now)
	snap.IdealBurndown = burndown.Linear(snap.RemainingWorkByDay, snap.Summary.TotalSP)

	if opt.StoryPointsField == "" {
		snap.Notes = append(snap.Notes, "Story points are not configured; SP figures are zero.")
	}
	snap.Assumptions = append(snap.Assumptions,
		"Stuck means no status category change for more than 24 hours.",
		"Scope changes are stories created after the sprint started.",
	)
	return snap
}

func addStory(sum *domain.SprintSummary, is domain.Issue) {
	sp := format.Value(is.StoryPoints)
	sum.TotalStories++
	sum.TotalSP += sp
	if isDone(is) {
		sum.DoneStories++
		sum.DoneSP += sp
	}
	if isSupport(is.IssueType) {
		sum.SupportOpsSP += sp
	} else {
		sum.NewFeaturesSP += sp
	}
}

func addSubtask(t *domain.SubtaskTracking, is domain.Issue) {
	t.Rows = append(t.Rows, is)
	t.Summary.TotalEstimateHours += format.Value(is.EstimateHours)
	t.Summary.TotalLoggedHours += format.Value(is.LoggedHours)
	t.Summary.TotalRemainingHours += format.Value(is.RemainingHours)
	if !format.Positive(is.EstimateHours) {
		t.Summary.MissingEstimate++
	}
	if !format.Positive(is.LoggedHours) {
		t.Summary.MissingLogged++
	}
}

func daysMeta(startDate, endDate string, now time.Time) domain.DaysMeta {
	var m domain.DaysMeta
	if d := boardsummary.SprintCalendarDays(startDate, endDate); d != nil {
		m.DaysInSprintCalendar = *d
	}
	start, ok1 := format.ParseTime(startDate)
	end, ok2 := format.ParseTime(endDate)
	if !ok1 || !ok2 || end.Before(start) {
		return m
	}
	working := boardsummary.WorkingDays(start, end)
	elapsed := 0
	if !now.Before(start) {
		elapsed = boardsummary.WorkingDays(start, minTime(now, end))
	}
	remaining := working - elapsed
	m.DaysInSprintWorking = &working
	m.DaysElapsedWorking = &elapsed
	m.DaysRemainingWorking = &remaining
	return m
}

// remainingByDay emits one point per calendar day of the sprint. Days after
// now repeat the latest known value.
func remainingByDay(stories []domain.Issue, total float64, startDate, endDate string, now time.Time) []domain.BurndownPoint {
	start, ok1 := format.ParseTime(startDate)
	end, ok2 := format.ParseTime(endDate)
	if !ok1 || !ok2 || end.Before(start) {
		return nil
	}
	type resolved struct {
		at time.Time
		sp float64
	}
	var done []resolved
	for _, s := range stories {
		if !isDone(s) || !format.Positive(s.StoryPoints) {
			continue
		}
		if at, ok := format.ParseTime(s.Resolved); ok {
			done = append(done, resolved{at: at, sp: *s.StoryPoints})
		}
	}

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	var out []domain.BurndownPoint
	latest := total
	for !day.After(last) {
		dayEnd := day.AddDate(0, 0, 1)
		if !day.After(now) {
			remaining := total
			for _, d := range done {
				if d.at.Before(dayEnd) {
					remaining -= d.sp
				}
			}
			latest = format.Round(remaining, 2)
		}
		out = append(out, domain.BurndownPoint{Date: day.Format("2006-01-02"), RemainingSP: latest})
		day = dayEnd
	}
	return out
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
