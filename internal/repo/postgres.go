package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/iamalbertly/jira-reporting/internal/config"
)

var (
	ErrNoRun    = errors.New("repo: no digest run recorded")
	ErrNoReport = errors.New("repo: report not stored")
)

type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(ctx2); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
	db  *DB
	log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

const schema = `
CREATE TABLE IF NOT EXISTS job_runs (
	id            BIGSERIAL PRIMARY KEY,
	started_at    timestamptz NOT NULL,
	finished_at   timestamptz,
	boards        jsonb,
	boards_graded integer,
	messages_sent integer,
	success       boolean NOT NULL DEFAULT false,
	error         text
);
CREATE TABLE IF NOT EXISTS reports (
	kind        text NOT NULL,
	key         text NOT NULL,
	computed_at timestamptz NOT NULL,
	payload     jsonb NOT NULL,
	PRIMARY KEY (kind, key)
);`

// EnsureSchema creates the tables the service writes to.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	var ok bool
	err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
	return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
	var ok bool
	err := r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
	if !ok && err == nil {
		return errors.New("advisory unlock returned false")
	}
	return err
}

func (r *Repository) StartRun(ctx context.Context, boards []int64) (int64, error) {
	b, err := json.Marshal(boards)
	if err != nil {
		return 0, err
	}
	const q = `INSERT INTO job_runs(started_at, boards, success) VALUES(now(), $1, false) RETURNING id`
	var id int64
	if err := r.db.Pool.QueryRow(ctx, q, string(b)).Scan(&id); err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

func (r *Repository) FinishRun(ctx context.Context, id int64, boardsGraded, messagesSent int, success bool, errStr string) error {
	const q = `UPDATE job_runs SET finished_at=now(), boards_graded=$2, messages_sent=$3, success=$4, error=$5 WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, boardsGraded, messagesSent, success, errStr)
	return err
}

type LastRun struct {
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
	Boards       string     `json:"boards"`
	BoardsGraded int        `json:"boards_graded"`
	MessagesSent int        `json:"messages_sent"`
	Success      bool       `json:"success"`
	Error        string     `json:"error"`
}

func (r *Repository) GetLastRun(ctx context.Context) (*LastRun, error) {
	const q = `SELECT started_at, finished_at, coalesce(boards::text, '[]'),
		coalesce(boards_graded,0), coalesce(messages_sent,0),
		coalesce(success,false), coalesce(error,'')
		FROM job_runs ORDER BY id DESC LIMIT 1`
	lr := &LastRun{}
	err := r.db.Pool.QueryRow(ctx, q).Scan(&lr.StartedAt, &lr.FinishedAt, &lr.Boards, &lr.BoardsGraded, &lr.MessagesSent, &lr.Success, &lr.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRun
	}
	if err != nil {
		return nil, err
	}
	return lr, nil
}

// SaveReport upserts a computed report under (kind, key).
func (r *Repository) SaveReport(ctx context.Context, kind, key string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	const q = `INSERT INTO reports(kind, key, computed_at, payload) VALUES($1, $2, now(), $3)
		ON CONFLICT (kind, key) DO UPDATE SET computed_at=EXCLUDED.computed_at, payload=EXCLUDED.payload`
	if _, err := r.db.Pool.Exec(ctx, q, kind, key, string(b)); err != nil {
		return fmt.Errorf("save report %s/%s: %w", kind, key, err)
	}
	return nil
}

// GetReport decodes the stored report into out and returns when it was
// computed.
func (r *Repository) GetReport(ctx context.Context, kind, key string, out any) (time.Time, error) {
	const q = `SELECT computed_at, payload::text FROM reports WHERE kind=$1 AND key=$2`
	var at time.Time
	var payload string
	err := r.db.Pool.QueryRow(ctx, q, kind, key).Scan(&at, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrNoReport
	}
	if err != nil {
		return time.Time{}, err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return time.Time{}, fmt.Errorf("decode report %s/%s: %w", kind, key, err)
	}
	return at, nil
}
