package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iamalbertly/jira-reporting/internal/alerts"
	"github.com/iamalbertly/jira-reporting/internal/boardsummary"
	"github.com/iamalbertly/jira-reporting/internal/burndown"
	"github.com/iamalbertly/jira-reporting/internal/capacity"
	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/format"
	"github.com/iamalbertly/jira-reporting/internal/leadership"
	"github.com/iamalbertly/jira-reporting/internal/workrisk"
)

const (
	kindSprint = "sprint"
	kindBoards = "boards"
)

// SprintReport is every derived view of one sprint.
type SprintReport struct {
	Sprint     domain.Sprint        `json:"sprint"`
	Summary    domain.SprintSummary `json:"summary"`
	DaysMeta   domain.DaysMeta      `json:"daysMeta"`
	Verdict    domain.Alert         `json:"verdict"`
	Alerts     []domain.Alert       `json:"alerts"`
	Banner     alerts.Banner        `json:"banner"`
	WorkRisks  []domain.WorkRiskRow `json:"workRisks"`
	Capacity   capacity.Report      `json:"capacity"`
	Burndown   burndown.Result      `json:"burndown"`
	ComputedAt string               `json:"computedAt"`
}

// ComputeSprintReport derives the sprint views from a snapshot. now only
// feeds the burndown today split and the timestamp.
func ComputeSprintReport(snap domain.SprintSnapshot, now time.Time) SprintReport {
	found := alerts.Derive(snap)
	if found == nil {
		found = []domain.Alert{}
	}
	return SprintReport{
		Sprint:     snap.Sprint,
		Summary:    snap.Summary,
		DaysMeta:   snap.DaysMeta,
		Verdict:    alerts.Verdict(found),
		Alerts:     found,
		Banner:     alerts.NewBanner(found),
		WorkRisks:  workrisk.Build(snap),
		Capacity:   capacity.Calculate(snap.Stories, snap.DaysMeta.DaysInSprintWorking),
		Burndown:   burndown.Classify(snap.RemainingWorkByDay, snap.IdealBurndown, now),
		ComputedAt: now.UTC().Format(time.RFC3339),
	}
}

// SprintReport loads a sprint from Jira and derives its report. Results are
// cached; when Jira fails a previously stored report is served instead.
func (s *Service) SprintReport(ctx context.Context, boardID, sprintID int64) (SprintReport, error) {
	key := fmt.Sprintf("%d/%d", boardID, sprintID)
	if rep, ok := s.sprints.Get(key); ok {
		return rep, nil
	}
	gen := s.gens.Next(kindSprint + ":" + key)

	rep, err := s.fetchSprintReport(ctx, boardID, sprintID)
	if err != nil {
		if stored, ok := s.storedSprintReport(ctx, key); ok {
			s.log.Warn().Err(err).Str("report", key).Msg("jira fetch failed; serving stored report")
			return stored, nil
		}
		return SprintReport{}, err
	}
	s.tel.ReportComputed(kindSprint)

	if !s.gens.IsLatest(kindSprint+":"+key, gen) {
		s.tel.StaleDiscarded()
		s.log.Debug().Str("report", key).Uint64("generation", gen).Msg("newer fetch issued; result not published")
		return rep, nil
	}
	s.sprints.Set(key, rep)
	s.persist(ctx, kindSprint, key, rep)
	return rep, nil
}

func (s *Service) fetchSprintReport(ctx context.Context, boardID, sprintID int64) (SprintReport, error) {
	sp, err := s.jira.Sprint(ctx, sprintID)
	if err != nil {
		return SprintReport{}, fmt.Errorf("load sprint %d: %w", sprintID, err)
	}
	issues, err := s.jira.SprintIssues(ctx, sprintID)
	if err != nil {
		return SprintReport{}, fmt.Errorf("load issues of sprint %d: %w", sprintID, err)
	}
	now := s.now()
	snap := BuildSnapshot(sp, boardID, issues, s.snapshotOptions(), now)
	return ComputeSprintReport(snap, now), nil
}

func (s *Service) storedSprintReport(ctx context.Context, key string) (SprintReport, bool) {
	if s.store == nil {
		return SprintReport{}, false
	}
	var rep SprintReport
	if _, err := s.store.GetReport(ctx, kindSprint, key, &rep); err != nil {
		return SprintReport{}, false
	}
	return rep, true
}

func (s *Service) persist(ctx context.Context, kind, key string, payload any) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveReport(ctx, kind, key, payload); err != nil {
		s.log.Error().Err(err).Str("kind", kind).Str("key", key).Msg("save report failed")
	}
}

// WorkRisks returns only the merged risk table of a sprint.
func (s *Service) WorkRisks(ctx context.Context, boardID, sprintID int64) ([]domain.WorkRiskRow, error) {
	rep, err := s.SprintReport(ctx, boardID, sprintID)
	if err != nil {
		return nil, err
	}
	return rep.WorkRisks, nil
}

// BoardsReport is the per-board rollup together with its leadership grades.
type BoardsReport struct {
	Boards     []*domain.BoardSummary `json:"boards"`
	Metrics    []boardsummary.Metrics `json:"metrics"`
	Leadership leadership.Report      `json:"leadership"`
}

// ComputeBoardsReport aggregates a rollup payload. The leadership window
// ends at the payload's windowEnd, or at now when it has none.
func ComputeBoardsReport(in domain.BoardRollupInput, now time.Time) BoardsReport {
	summaries := boardsummary.Aggregate(in.Boards, in.SprintsIncluded, in.Rows, in.Meta, in.PredictabilityPerSprint)
	ids := make([]int64, 0, len(summaries))
	for id := range summaries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	boards := make([]*domain.BoardSummary, 0, len(ids))
	for _, id := range ids {
		boards = append(boards, summaries[id])
	}

	end := now
	if t, ok := format.ParseTime(in.WindowEnd); ok {
		end = t
	}
	return BoardsReport{
		Boards:     boards,
		Metrics:    boardsummary.DeriveAll(summaries),
		Leadership: leadership.Compute(in, end),
	}
}

// Leadership loads live rollups for the boards and grades them.
func (s *Service) Leadership(ctx context.Context, boardIDs []int64) (BoardsReport, error) {
	if len(boardIDs) == 0 {
		boardIDs = s.cfg.JiraBoardIDs
	}
	if len(boardIDs) == 0 {
		return BoardsReport{}, ErrNoBoards
	}
	key := boardsKey(boardIDs)
	if rep, ok := s.boards.Get(key); ok {
		return rep, nil
	}
	gen := s.gens.Next(kindBoards + ":" + key)

	in, err := s.LoadRollup(ctx, boardIDs)
	if err != nil {
		return BoardsReport{}, err
	}
	rep := ComputeBoardsReport(in, s.now())
	s.tel.ReportComputed(kindBoards)
	if !s.gens.IsLatest(kindBoards+":"+key, gen) {
		s.tel.StaleDiscarded()
		return rep, nil
	}
	s.boards.Set(key, rep)
	s.persist(ctx, kindBoards, key, rep)
	return rep, nil
}

func boardsKey(ids []int64) string {
	sorted := append([]int64{}, ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
