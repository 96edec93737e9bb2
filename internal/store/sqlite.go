package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/regioniq/insight-cli/internal/model"
)

// sqliteTimeLayout is fixed-width so created_at sorts as text.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

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
CREATE TABLE IF NOT EXISTS regions (
	region_code TEXT PRIMARY KEY,
	region_name TEXT NOT NULL,
	level       TEXT NOT NULL,
	parent_code TEXT
);

CREATE TABLE IF NOT EXISTS observations (
	region_code  TEXT NOT NULL,
	metric_id    TEXT NOT NULL,
	period       INTEGER NOT NULL,
	scenario     TEXT NOT NULL DEFAULT 'baseline',
	value        REAL,
	ci_lower     REAL,
	ci_upper     REAL,
	unit         TEXT,
	data_type    TEXT NOT NULL DEFAULT 'historical',
	data_quality TEXT,
	PRIMARY KEY (region_code, metric_id, period, scenario)
);

CREATE INDEX IF NOT EXISTS idx_observations_metric_period ON observations(metric_id, period);
CREATE INDEX IF NOT EXISTS idx_regions_level ON regions(level);

CREATE TABLE IF NOT EXISTS import_runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	rows       INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertObservations(ctx context.Context, obs []model.Observation) (int64, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert observations: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO observations (`+strings.Join(observationColumns, ", ")+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (region_code, metric_id, period, scenario) DO UPDATE SET
			value = excluded.value, ci_lower = excluded.ci_lower, ci_upper = excluded.ci_upper,
			unit = excluded.unit, data_type = excluded.data_type, data_quality = excluded.data_quality`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert observations: prepare")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx, observationRow(o)...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert observation %s/%s/%d", o.RegionCode, o.MetricID, o.Period)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert observations: commit")
	}
	return n, nil
}

func (s *SQLiteStore) QueryObservations(ctx context.Context, filter ObservationFilter) ([]model.Observation, error) {
	query, args := buildSQLiteQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query observations")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Observation
	for rows.Next() {
		var o model.Observation
		var scenario, dataType string
		if err := rows.Scan(&o.RegionCode, &o.MetricID, &o.Period, &scenario,
			&o.Value, &o.CILower, &o.CIUpper, &o.Unit, &dataType, &o.DataQuality); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan observation")
		}
		o.Scenario = model.Scenario(scenario)
		o.DataType = model.DataType(dataType)
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: query observations iterate")
}

func buildSQLiteQuery(f ObservationFilter) (string, []any) {
	var where []string
	var args []any
	in := func(col string, vals []string) {
		if len(vals) == 0 {
			return
		}
		where = append(where, col+" IN ("+placeholders(len(vals))+")")
		for _, v := range vals {
			args = append(args, v)
		}
	}

	in("metric_id", f.Metrics)
	in("region_code", f.Regions)
	in("scenario", scenarioStrings(f.Scenarios))
	in("data_type", dataTypeStrings(f.DataTypes))
	if f.FromYear > 0 {
		where = append(where, "period >= ?")
		args = append(args, f.FromYear)
	}
	if f.ToYear > 0 {
		where = append(where, "period <= ?")
		args = append(args, f.ToYear)
	}

	query := `SELECT region_code, metric_id, period, scenario, value, ci_lower, ci_upper,
		COALESCE(unit, ''), data_type, COALESCE(data_quality, '') FROM observations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY region_code, metric_id, scenario, period LIMIT ? OFFSET ?"
	args = append(args, f.limit(), f.Offset)
	return query, args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (s *SQLiteStore) TimeCoverage(ctx context.Context) (Coverage, error) {
	var c Coverage
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MIN(period), 0), COALESCE(MAX(period), 0) FROM observations`).
		Scan(&c.FirstYear, &c.LastYear)
	if err != nil {
		return Coverage{}, eris.Wrap(err, "sqlite: time coverage")
	}
	return c, nil
}

func (s *SQLiteStore) UpsertRegions(ctx context.Context, regions []model.Region) error {
	if len(regions) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: upsert regions: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range regions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO regions (region_code, region_name, level, parent_code) VALUES (?, ?, ?, ?)
			ON CONFLICT (region_code) DO UPDATE SET region_name = excluded.region_name,
				level = excluded.level, parent_code = excluded.parent_code`,
			r.Code, r.Name, string(r.Level), nullIfEmpty(r.ParentCode))
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert region %s", r.Code)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: upsert regions: commit")
}

func (s *SQLiteStore) ListRegions(ctx context.Context, level model.Level) ([]model.Region, error) {
	query := `SELECT region_code, region_name, level, COALESCE(parent_code, '') FROM regions`
	var args []any
	if level != "" {
		query += ` WHERE level = ?`
		args = append(args, string(level))
	}
	query += ` ORDER BY region_code`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list regions")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Region
	for rows.Next() {
		var r model.Region
		var lvl string
		if err := rows.Scan(&r.Code, &r.Name, &lvl, &r.ParentCode); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan region")
		}
		r.Level = model.Level(lvl)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list regions iterate")
}

func (s *SQLiteStore) RecordImport(ctx context.Context, source string, n int64) (*ImportRun, error) {
	run := &ImportRun{ID: uuid.New().String(), Source: source, Rows: n, CreatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_runs (id, source, rows, created_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Source, run.Rows, run.CreatedAt.Format(sqliteTimeLayout))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: record import")
	}
	return run, nil
}

func (s *SQLiteStore) ListImports(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, rows, created_at FROM import_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list imports")
	}
	defer rows.Close() //nolint:errcheck

	var out []ImportRun
	for rows.Next() {
		var r ImportRun
		var created string
		if err := rows.Scan(&r.ID, &r.Source, &r.Rows, &created); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan import")
		}
		r.CreatedAt, err = time.Parse(sqliteTimeLayout, created)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse import time %q", created)
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list imports iterate")
}
