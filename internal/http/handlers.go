/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/iamalbertly/jira-reporting/internal/adapters/jira"
	"github.com/iamalbertly/jira-reporting/internal/config"
	"github.com/iamalbertly/jira-reporting/internal/domain"
	"github.com/iamalbertly/jira-reporting/internal/repo"
	"github.com/iamalbertly/jira-reporting/internal/services"
)

type service interface {
	SprintReport(ctx context.Context, boardID, sprintID int64) (services.SprintReport, error)
	WorkRisks(ctx context.Context, boardID, sprintID int64) ([]domain.WorkRiskRow, error)
	Leadership(ctx context.Context, boardIDs []int64) (services.BoardsReport, error)
	RunDigest(ctx context.Context) (services.DigestResult, error)
	GetLastRun(ctx context.Context) (*repo.LastRun, error)
}

type Handlers struct {
	cfg config.Config
	log zerolog.Logger
	svc service
	now func() time.Time
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc service) *Handlers {
	return &Handlers{cfg: cfg, log: log, svc: svc, now: time.Now}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) SprintReport(c *gin.Context) {
	boardID, sprintID, ok := sprintParams(c)
	if !ok {
		return
	}
	rep, err := h.svc.SprintReport(c.Request.Context(), boardID, sprintID)
	if err != nil {
		h.fail(c, err, http.StatusBadGateway)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handlers) WorkRisks(c *gin.Context) {
	boardID, sprintID, ok := sprintParams(c)
	if !ok {
		return
	}
	rows, err := h.svc.WorkRisks(c.Request.Context(), boardID, sprintID)
	if err != nil {
		h.fail(c, err, http.StatusBadGateway)
		return
	}
	if rows == nil {
		rows = []domain.WorkRiskRow{}
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// ComputeSprint derives a report from a posted snapshot without calling Jira.
func (h *Handlers) ComputeSprint(c *gin.Context) {
	now, ok := h.clock(c)
	if !ok {
		return
	}
	var snap domain.SprintSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, services.ComputeSprintReport(snap, now))
}

// ComputeBoards aggregates a posted rollup payload.
func (h *Handlers) ComputeBoards(c *gin.Context) {
	now, ok := h.clock(c)
	if !ok {
		return
	}
	var in domain.BoardRollupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rollup: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, services.ComputeBoardsReport(in, now))
}

func (h *Handlers) Leadership(c *gin.Context) {
	ids, err := parseBoards(c.Query("boards"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "boards must be a comma separated list of ids"})
		return
	}
	rep, err := h.svc.Leadership(c.Request.Context(), ids)
	if err != nil {
		h.fail(c, err, http.StatusBadGateway)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handlers) LastRun(c *gin.Context) {
	lr, err := h.svc.GetLastRun(c.Request.Context())
	if err != nil {
		h.fail(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, lr)
}

func (h *Handlers) RunNow(c *gin.Context) {
	// Detached from the request so the digest outlives the response.
	go func() {
		if _, err := h.svc.RunDigest(context.Background()); err != nil {
			h.log.Error().Err(err).Msg("manual digest failed")
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func sprintParams(c *gin.Context) (boardID, sprintID int64, ok bool) {
	boardID, err1 := strconv.ParseInt(c.Param("boardId"), 10, 64)
	sprintID, err2 := strconv.ParseInt(c.Param("sprintId"), 10, 64)
	if err1 != nil || err2 != nil || boardID <= 0 || sprintID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "boardId and sprintId must be positive integers"})
		return 0, 0, false
	}
	return boardID, sprintID, true
}

func parseBoards(csv string) ([]int64, error) {
	var ids []int64
	for _, p := range config.ParseStrings(csv) {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid board id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// clock reads the optional now query parameter.
func (h *Handlers) clock(c *gin.Context) (time.Time, bool) {
	v := c.Query("now")
	if v == "" {
		return h.now(), true
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "now must be RFC3339"})
		return time.Time{}, false
	}
	return t, true
}

func (h *Handlers) fail(c *gin.Context, err error, fallback int) {
	status := fallback
	switch {
	case errors.Is(err, services.ErrNoBoards):
		status = http.StatusBadRequest
	case errors.Is(err, jira.ErrNotFound), errors.Is(err, repo.ErrNoRun):
		status = http.StatusNotFound
	}
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
