package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iamalbertly/jira-reporting/internal/adapters/jira"
	"github.com/iamalbertly/jira-reporting/internal/boardsummary"
	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
)

// SprintRollup is what one closed sprint contributes to a board rollup.
type SprintRollup struct {
	Sprint         domain.SprintIncluded
	Rows           []domain.DeliveryRow
	Predictability domain.PredictabilityRecord
}

// RollupSprint summarizes the done work of one sprint. Committed SP is the
// SP of stories that existed at sprint start; delivered SP is the part of
// it resolved by sprint end.
func RollupSprint(boardID int64, sp jira.Sprint, issues []jira.Issue, opt SnapshotOptions) SprintRollup {
	start, startOK := format.ParseTime(sp.StartDate)
	endDate := sp.EndDate
	if format.IsBlank(endDate) {
		endDate = sp.CompleteDate
	}
	end, endOK := format.ParseTime(endDate)

	out := SprintRollup{
		Sprint: domain.SprintIncluded{
			ID:        sp.ID,
			BoardID:   boardID,
			Name:      sp.Name,
			State:     sp.State,
			StartDate: sp.StartDate,
			EndDate:   endDate,
		},
		Rows: []domain.DeliveryRow{},
	}
	if startOK && endOK && !end.Before(start) {
		days := float64(boardsummary.WorkingDays(start, end))
		out.Sprint.SprintWorkDays = &days
	}

	subSpent := map[string]float64{}
	subEstimate := map[string]float64{}
	for _, is := range issues {
		if !is.Fields.IssueType.Subtask {
			continue
		}
		parent := strings.ToUpper(is.Fields.ParentKey())
		subSpent[parent] += format.Value(hours(is.Fields.TimeTracking.TimeSpentSeconds))
		subEstimate[parent] += format.Value(hours(is.Fields.TimeTracking.OriginalEstimateSeconds))
	}

	var committed, delivered float64
	for _, raw := range issues {
		if raw.Fields.IssueType.Subtask {
			continue
		}
		is := ToIssue(raw, opt, end)
		pts := format.Value(is.StoryPoints)
		resolved, resolvedOK := format.ParseTime(is.Resolved)
		onTime := isDone(is) && resolvedOK && endOK && !resolved.After(end)

		if created, ok := format.ParseTime(is.Created); ok && startOK && !created.After(start) {
			committed += pts
			if onTime {
				delivered += pts
			}
		}
		if !isDone(is) {
			continue
		}
		out.Sprint.DoneStoriesNow++
		out.Sprint.DoneSP += pts
		if onTime {
			out.Sprint.DoneStoriesBySprintEnd++
		}
		key := strings.ToUpper(is.IssueKey)
		out.Rows = append(out.Rows, domain.DeliveryRow{
			IssueKey:              is.IssueKey,
			BoardID:               boardID,
			SprintID:              sp.ID,
			IssueType:             is.IssueType,
			StoryPoints:           is.StoryPoints,
			AssigneeDisplayName:   is.Assignee,
			EpicKey:               is.EpicKey,
			Created:               is.Created,
			Resolved:              is.Resolved,
			TimeSpentHours:        is.LoggedHours,
			OriginalEstimateHours: is.EstimateHours,
			SubtaskTimeSpentHours: positive(subSpent[key]),
			SubtaskEstimateHours:  positive(subEstimate[key]),
		})
	}
	out.Predictability = domain.PredictabilityRecord{
		CommittedSP:      committed,
		DeliveredSP:      delivered,
		PredictabilitySP: format.PercentPtr(delivered, committed),
	}
	return out
}

func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}

// LoadRollup fetches the latest closed sprints of every board and their
// issues, at most WorkersJira requests at a time.
func (s *Service) LoadRollup(ctx context.Context, boardIDs []int64) (domain.BoardRollupInput, error) {
	in := domain.BoardRollupInput{
		Boards:                  []domain.Board{},
		SprintsIncluded:         []domain.SprintIncluded{},
		Rows:                    []domain.DeliveryRow{},
		PredictabilityPerSprint: map[int64]domain.PredictabilityRecord{},
		Meta: domain.ReportMeta{
			StoryPointsEnabled: s.cfg.JiraStoryPointsField != "",
			EpicLinkEnabled:    s.cfg.JiraEpicLinkField != "",
		},
		WindowEnd: s.now().UTC().Format(time.RFC3339),
	}
	if len(boardIDs) == 0 {
		return in, ErrNoBoards
	}

	type job struct {
		boardID int64
		sprint  jira.Sprint
	}
	var jobs []job
	for _, id := range boardIDs {
		b, err := s.jira.Board(ctx, id)
		if err != nil {
			if errors.Is(err, jira.ErrNotFound) {
				return in, fmt.Errorf("board %d: %w", id, err)
			}
			s.log.Warn().Err(err).Int64("board", id).Msg("board lookup failed; using id only")
			b = jira.Board{ID: id}
		}
		in.Boards = append(in.Boards, domain.Board{ID: id, Name: b.Name, Type: b.Type, ProjectKeys: projectKeys(b)})

		sprints, err := s.jira.Sprints(ctx, id, "closed")
		if err != nil {
			return in, fmt.Errorf("list sprints of board %d: %w", id, err)
		}
		for _, sp := range latestSprints(sprints, s.cfg.SprintLookback) {
			jobs = append(jobs, job{boardID: id, sprint: sp})
		}
	}

	results := make([]SprintRollup, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.WorkersJira))
	opt := s.snapshotOptions()
	for i, j := range jobs {
		g.Go(func() error {
			issues, err := s.jira.SprintIssues(gctx, j.sprint.ID)
			if err != nil {
				return fmt.Errorf("issues of sprint %d: %w", j.sprint.ID, err)
			}
			results[i] = RollupSprint(j.boardID, j.sprint, issues, opt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return in, err
	}

	for _, r := range results {
		in.SprintsIncluded = append(in.SprintsIncluded, r.Sprint)
		in.Rows = append(in.Rows, r.Rows...)
		in.PredictabilityPerSprint[r.Sprint.ID] = r.Predictability
	}
	s.log.Info().Int("boards", len(in.Boards)).Int("sprints", len(in.SprintsIncluded)).Int("rows", len(in.Rows)).Msg("rollup loaded")
	return in, nil
}

func projectKeys(b jira.Board) []string {
	if b.Location.ProjectKey == "" {
		return nil
	}
	return []string{b.Location.ProjectKey}
}

// latestSprints keeps the n most recently ended sprints, oldest first.
// n <= 0 keeps all.
func latestSprints(sprints []jira.Sprint, n int) []jira.Sprint {
	out := append([]jira.Sprint{}, sprints...)
	sort.SliceStable(out, func(i, j int) bool {
		return format.EpochMillis(out[i].EndDate) < format.EpochMillis(out[j].EndDate)
	})
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
