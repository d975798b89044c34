/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iamalbertly/jira-reporting/internal/config"
	"github.com/iamalbertly/jira-reporting/internal/telemetry"
)

const requestIDHeader = "X-Request-ID"

// NewRouter wires every route. metrics may be nil.
func NewRouter(cfg config.Config, log zerolog.Logger, svc service, metrics *telemetry.Metrics) *gin.Engine {
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(metrics.Middleware())
	r.Use(accessLog(log))

	h := NewHandlers(cfg, log, svc)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.GET("/boards/:boardId/sprints/:sprintId/report", h.SprintReport)
	api.GET("/boards/:boardId/sprints/:sprintId/work-risks", h.WorkRisks)
	api.POST("/reports/sprint", h.ComputeSprint)
	api.POST("/reports/boards", h.ComputeBoards)
	api.GET("/leadership", h.Leadership)

	r.GET("/admin/last-run", h.LastRun)
	r.POST("/admin/run", h.RunNow)

	return r
}

// requestID keeps an incoming X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("m", c.Request.Method).
			Str("p", c.FullPath()).
			Int("s", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Str("rid", c.GetString("request_id")).
			Msg("http")
	}
}
