package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/iamalbertly/jira-reporting/internal/config"
	"github.com/iamalbertly/jira-reporting/internal/services"
)

// lockKey is the Postgres advisory lock shared by every replica.
const lockKey int64 = 424242

const purgeSchedule = "@every 15m"

type service interface {
	RunDigest(ctx context.Context) (services.DigestResult, error)
	PurgeCaches() int
}

// Locker makes sure only one replica runs the digest. A nil Locker runs
// unguarded.
type Locker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (bool, error)
	AdvisoryUnlock(ctx context.Context, key int64) error
}

type Cron struct {
	cfg     config.Config
	log     zerolog.Logger
	svc     service
	lock    Locker
	c       *cron.Cron
	timeout time.Duration
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service, lock Locker) (*Cron, error) {
	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		log.Warn().Err(err).Str("tz", cfg.TZ).Msg("cron: unknown timezone; using UTC")
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)))
	cr := &Cron{cfg: cfg, log: log, svc: svc, lock: lock, c: c, timeout: 5 * time.Minute}
	if _, err := c.AddFunc(cfg.DigestCron, cr.digest); err != nil {
		return nil, fmt.Errorf("cron spec %q: %w", cfg.DigestCron, err)
	}
	if _, err := c.AddFunc(purgeSchedule, cr.purge); err != nil {
		return nil, fmt.Errorf("cron purge: %w", err)
	}
	return cr, nil
}

func (cr *Cron) Start() { cr.c.Start() }

// Stop waits for a running digest to finish.
func (cr *Cron) Stop() { <-cr.c.Stop().Done() }

func (cr *Cron) digest() {
	ctx, cancel := context.WithTimeout(context.Background(), cr.timeout)
	defer cancel()
	cr.run(ctx)
}

func (cr *Cron) run(ctx context.Context) {
	if cr.lock != nil {
		ok, err := cr.lock.TryAdvisoryLock(ctx, lockKey)
		if err != nil {
			cr.log.Error().Err(err).Msg("cron: lock error")
			return
		}
		if !ok {
			cr.log.Info().Msg("cron: already running elsewhere")
			return
		}
		defer func() {
			if err := cr.lock.AdvisoryUnlock(context.Background(), lockKey); err != nil {
				cr.log.Error().Err(err).Msg("cron: unlock failed")
			}
		}()
	}
	cr.log.Info().Msg("cron: leadership digest")
	res, err := cr.svc.RunDigest(ctx)
	if err != nil {
		cr.log.Error().Err(err).Msg("cron: digest failed")
		return
	}
	cr.log.Info().Int("boards", res.BoardsGraded).Int("messages", res.MessagesSent).Msg("cron: digest sent")
}

// purge is local to each replica, so it runs without the advisory lock.
func (cr *Cron) purge() {
	if n := cr.svc.PurgeCaches(); n > 0 {
		cr.log.Debug().Int("entries", n).Msg("cron: purged report cache")
	}
}
