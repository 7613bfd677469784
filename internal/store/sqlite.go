package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/brewery-sync/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	workflow   TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_outcomes (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	record_id  TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	kind       TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS route_cache (
	key            TEXT PRIMARY KEY,
	origin         TEXT NOT NULL,
	destination    TEXT NOT NULL,
	duration_text  TEXT NOT NULL,
	distance_text  TEXT NOT NULL,
	distance_miles REAL NOT NULL,
	cached_at      DATETIME NOT NULL,
	expires_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_workflow ON runs(workflow);
CREATE INDEX IF NOT EXISTS idx_run_outcomes_run_id ON run_outcomes(run_id);
CREATE INDEX IF NOT EXISTS idx_route_cache_expires_at ON route_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, workflow model.Workflow) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, workflow, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(workflow), string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Workflow:  workflow,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary model.Summary) error {
	return s.finishRun(ctx, runID, model.RunStatusComplete, summary, "")
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, summary model.Summary, runErr error) error {
	return s.finishRun(ctx, runID, model.RunStatusFailed, summary, errString(runErr))
}

func (s *SQLiteStore) finishRun(ctx context.Context, runID string, status model.RunStatus, summary model.Summary, errMsg string) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), string(summaryJSON), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, workflow, status, summary, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, workflow, status, summary, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Workflow != "" {
		query += ` AND workflow = ?`
		args = append(args, string(filter.Workflow))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) RecordOutcomes(ctx context.Context, runID string, outcomes []model.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin record outcomes")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_outcomes (id, run_id, record_id, name, kind, reason, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare record outcomes")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for _, o := range outcomes {
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), runID, o.RecordID, o.Name, string(o.Kind), o.Reason, o.Error, now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert outcome for %s", o.RecordID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit record outcomes")
}

func (s *SQLiteStore) ListOutcomes(ctx context.Context, runID string) ([]model.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id, name, kind, reason, error FROM run_outcomes WHERE run_id = ? ORDER BY created_at, rowid`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list outcomes")
	}
	defer rows.Close() //nolint:errcheck

	var outcomes []model.Outcome
	for rows.Next() {
		var o model.Outcome
		if err := rows.Scan(&o.RecordID, &o.Name, &o.Kind, &o.Reason, &o.Error); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan outcome")
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, eris.Wrap(rows.Err(), "sqlite: list outcomes iterate")
}

func (s *SQLiteStore) GetCachedRoute(ctx context.Context, key string) (*model.Route, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT origin, destination, duration_text, distance_text, distance_miles FROM route_cache
		 WHERE key = ? AND expires_at > ?`,
		key, time.Now().UTC(),
	)

	var r model.Route
	err := row.Scan(&r.Origin, &r.Destination, &r.DurationText, &r.DistanceText, &r.DistanceMiles)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached route")
	}
	return &r, nil
}

func (s *SQLiteStore) SetCachedRoute(ctx context.Context, key string, route model.Route, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO route_cache (key, origin, destination, duration_text, distance_text, distance_miles, cached_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   origin = excluded.origin,
		   destination = excluded.destination,
		   duration_text = excluded.duration_text,
		   distance_text = excluded.distance_text,
		   distance_miles = excluded.distance_miles,
		   cached_at = excluded.cached_at,
		   expires_at = excluded.expires_at`,
		key, route.Origin, route.Destination, route.DurationText, route.DistanceText, route.DistanceMiles, now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached route")
}

func (s *SQLiteStore) DeleteExpiredRoutes(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM route_cache WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired routes")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var summaryJSON sql.NullString

	err := row.Scan(&r.ID, &r.Workflow, &r.Status, &summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if summaryJSON.Valid && summaryJSON.String != "" {
		r.Summary = &model.Summary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	return &r, nil
}
