/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamalbertly/jira-reporting/internal/adapters/jira"
	"github.com/iamalbertly/jira-reporting/internal/cache"
	"github.com/iamalbertly/jira-reporting/internal/config"
	"github.com/iamalbertly/jira-reporting/internal/repo"
)

// ErrNoBoards is returned when a board report is requested without boards.
var ErrNoBoards = errors.New("services: no boards configured")

type JiraClient interface {
	Board(ctx context.Context, boardID int64) (jira.Board, error)
	Sprints(ctx context.Context, boardID int64, state string) ([]jira.Sprint, error)
	Sprint(ctx context.Context, sprintID int64) (jira.Sprint, error)
	SprintIssues(ctx context.Context, sprintID int64) ([]jira.Issue, error)
	BaseURL() string
}

type Store interface {
	StartRun(ctx context.Context, boards []int64) (int64, error)
	FinishRun(ctx context.Context, id int64, boardsGraded, messagesSent int, success bool, errStr string) error
	GetLastRun(ctx context.Context) (*repo.LastRun, error)
	SaveReport(ctx context.Context, kind, key string, payload any) error
	GetReport(ctx context.Context, kind, key string, out any) (time.Time, error)
}

type Narrator interface {
	Enabled() bool
	Narrate(ctx context.Context, digestJSON string) (string, error)
}

type Notifier interface {
	SendMarkdownV2(ctx context.Context, chatID int64, text string) error
}

type Telemetry interface {
	cache.Observer
	ReportComputed(kind string)
	StaleDiscarded()
	DigestRun(success bool)
}

type Service struct {
	cfg   config.Config
	log   zerolog.Logger
	jira  JiraClient
	store Store
	llm   Narrator
	tg    Notifier
	tel   Telemetry

	sprints *cache.Cache[SprintReport]
	boards  *cache.Cache[BoardsReport]
	gens    *generations
	now     func() time.Time
}

// New wires the service. store, llm and tg may be nil; the matching
// features are then skipped.
func New(cfg config.Config, log zerolog.Logger, jc JiraClient, store Store, llm Narrator, tg Notifier, tel Telemetry) *Service {
	if tel == nil {
		tel = noopTelemetry{}
	}
	return &Service{
		cfg:     cfg,
		log:     log,
		jira:    jc,
		store:   store,
		llm:     llm,
		tg:      tg,
		tel:     tel,
		sprints: cache.New[SprintReport](cfg.ReportCacheTTL, tel),
		boards:  cache.New[BoardsReport](cfg.ReportCacheTTL, tel),
		gens:    newGenerations(),
		now:     time.Now,
	}
}

func (s *Service) snapshotOptions() SnapshotOptions {
	base := ""
	if s.jira != nil {
		base = s.jira.BaseURL()
	}
	return SnapshotOptions{
		BaseURL:          base,
		StoryPointsField: s.cfg.JiraStoryPointsField,
		EpicLinkField:    s.cfg.JiraEpicLinkField,
	}
}

// GetLastRun returns the latest digest run.
func (s *Service) GetLastRun(ctx context.Context) (*repo.LastRun, error) {
	if s.store == nil {
		return nil, repo.ErrNoRun
	}
	return s.store.GetLastRun(ctx)
}

// PurgeCaches drops expired report cache entries and returns how many went.
func (s *Service) PurgeCaches() int {
	return s.sprints.Purge() + s.boards.Purge()
}

type noopTelemetry struct{}

func (noopTelemetry) CacheHit()             {}
func (noopTelemetry) CacheMiss()            {}
func (noopTelemetry) ReportComputed(string) {}
func (noopTelemetry) StaleDiscarded()       {}
func (noopTelemetry) DigestRun(bool)        {}
