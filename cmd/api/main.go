/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iamalbertly/jira-reporting/internal/adapters/jira"
	"github.com/iamalbertly/jira-reporting/internal/adapters/openai"
	"github.com/iamalbertly/jira-reporting/internal/adapters/telegram"
	"github.com/iamalbertly/jira-reporting/internal/config"
	apihttp "github.com/iamalbertly/jira-reporting/internal/http"
	"github.com/iamalbertly/jira-reporting/internal/jobs"
	"github.com/iamalbertly/jira-reporting/internal/logger"
	"github.com/iamalbertly/jira-reporting/internal/repo"
	"github.com/iamalbertly/jira-reporting/internal/services"
	"github.com/iamalbertly/jira-reporting/internal/telemetry"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := telemetry.NewMetrics()

	// Storage is optional; without DB_DSN reports live only in the cache.
	var (
		store  services.Store
		locker jobs.Locker
	)
	if cfg.DBDSN != "" {
		db := repo.MustOpen(ctx, cfg, log)
		defer db.Close()
		repository := repo.NewRepository(db, log)
		if err := repository.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("db schema failed")
		}
		store, locker = repository, repository
	} else {
		log.Warn().Msg("DB_DSN not set; reports are not persisted")
	}

	// Adapters
	jc := jira.NewClient(cfg, log, metrics)
	var llm services.Narrator
	if c := openai.NewClient(cfg, log); c.Enabled() {
		llm = c
	}
	var tg services.Notifier
	if c := telegram.NewClient(cfg, log); c.Enabled() {
		tg = c
	}

	svc := services.New(cfg, log, jc, store, llm, tg, metrics)
	router := apihttp.NewRouter(cfg, log, svc, metrics)

	if cfg.DigestCron != "" {
		cr, err := jobs.NewCron(cfg, log, svc, locker)
		if err != nil {
			log.Fatal().Err(err).Msg("cron setup failed")
		}
		cr.Start()
		defer cr.Stop()
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info().Str("addr", cfg.HTTPAddr).Ints64("boards", cfg.JiraBoardIDs).Msg("listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info().Msg("shutting down...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}
