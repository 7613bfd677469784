package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/brewery-sync/internal/db"
	"github.com/sells-group/brewery-sync/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	workflow   TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    JSONB,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_outcomes (
	id         BIGSERIAL PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	record_id  TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	kind       TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS route_cache (
	key            TEXT PRIMARY KEY,
	origin         TEXT NOT NULL,
	destination    TEXT NOT NULL,
	duration_text  TEXT NOT NULL,
	distance_text  TEXT NOT NULL,
	distance_miles DOUBLE PRECISION NOT NULL,
	cached_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_workflow ON runs(workflow);
CREATE INDEX IF NOT EXISTS idx_run_outcomes_run_id ON run_outcomes(run_id);
CREATE INDEX IF NOT EXISTS idx_route_cache_expires_at ON route_cache(expires_at);
`

var outcomeColumns = []string{"run_id", "record_id", "name", "kind", "reason", "error", "created_at"}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, workflow model.Workflow) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, workflow, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, string(workflow), string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Workflow:  workflow,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary model.Summary) error {
	return s.finishRun(ctx, runID, model.RunStatusComplete, summary, "")
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, summary model.Summary, runErr error) error {
	return s.finishRun(ctx, runID, model.RunStatusFailed, summary, errString(runErr))
}

func (s *PostgresStore) finishRun(ctx context.Context, runID string, status model.RunStatus, summary model.Summary, errMsg string) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, summary = $2, error = $3, updated_at = $4 WHERE id = $5`,
		string(status), summaryJSON, errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, workflow, status, summary, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, workflow, status, summary, error, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Workflow != "" {
		query += fmt.Sprintf(` AND workflow = $%d`, argIdx)
		args = append(args, string(filter.Workflow))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) RecordOutcomes(ctx context.Context, runID string, outcomes []model.Outcome) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, []any{runID, o.RecordID, o.Name, string(o.Kind), o.Reason, o.Error, now})
	}
	_, err := db.CopyFrom(ctx, s.pool, "run_outcomes", outcomeColumns, rows)
	return eris.Wrapf(err, "postgres: record outcomes for run %s", runID)
}

func (s *PostgresStore) ListOutcomes(ctx context.Context, runID string) ([]model.Outcome, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record_id, name, kind, reason, error FROM run_outcomes WHERE run_id = $1 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list outcomes")
	}
	defer rows.Close()

	var outcomes []model.Outcome
	for rows.Next() {
		var o model.Outcome
		if err := rows.Scan(&o.RecordID, &o.Name, &o.Kind, &o.Reason, &o.Error); err != nil {
			return nil, eris.Wrap(err, "postgres: scan outcome")
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, eris.Wrap(rows.Err(), "postgres: list outcomes iterate")
}

func (s *PostgresStore) GetCachedRoute(ctx context.Context, key string) (*model.Route, error) {
	var r model.Route
	err := s.pool.QueryRow(ctx,
		`SELECT origin, destination, duration_text, distance_text, distance_miles FROM route_cache
		 WHERE key = $1 AND expires_at > now()`,
		key,
	).Scan(&r.Origin, &r.Destination, &r.DurationText, &r.DistanceText, &r.DistanceMiles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached route")
	}
	return &r, nil
}

func (s *PostgresStore) SetCachedRoute(ctx context.Context, key string, route model.Route, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO route_cache (key, origin, destination, duration_text, distance_text, distance_miles, cached_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (key) DO UPDATE SET origin = $2, destination = $3, duration_text = $4,
		   distance_text = $5, distance_miles = $6, cached_at = $7, expires_at = $8`,
		key, route.Origin, route.Destination, route.DurationText, route.DistanceText, route.DistanceMiles, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached route")
}

func (s *PostgresStore) DeleteExpiredRoutes(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM route_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired routes")
	}
	return int(tag.RowsAffected()), nil
}

func scanPostgresRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var summaryJSON []byte

	if err := row.Scan(&r.ID, &r.Workflow, &r.Status, &summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if len(summaryJSON) > 0 {
		r.Summary = &model.Summary{}
		if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	return &r, nil
}
