package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/regioniq/insight-cli/internal/db"
	"github.com/regioniq/insight-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
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

	maxConns := int32(10)
	minConns := int32(2)
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
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
	value        DOUBLE PRECISION,
	ci_lower     DOUBLE PRECISION,
	ci_upper     DOUBLE PRECISION,
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
	rows       BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
		return nil
	}
	s.pool.Close()
	return nil
}

// UpsertObservations bulk-loads rows through a temp table and COPY.
func (s *PostgresStore) UpsertObservations(ctx context.Context, obs []model.Observation) (int64, error) {
	rows := make([][]any, 0, len(obs))
	for _, o := range obs {
		rows = append(rows, observationRow(o))
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "public.observations",
		Columns:      observationColumns,
		ConflictKeys: []string{"region_code", "metric_id", "period", "scenario"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert observations")
	}
	return n, nil
}

// QueryObservations returns rows matching filter ordered by region, metric,
// scenario and period.
func (s *PostgresStore) QueryObservations(ctx context.Context, filter ObservationFilter) ([]model.Observation, error) {
	query, args := buildPostgresQuery(filter)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query observations")
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		var o model.Observation
		var scenario, dataType string
		if err := rows.Scan(&o.RegionCode, &o.MetricID, &o.Period, &scenario,
			&o.Value, &o.CILower, &o.CIUpper, &o.Unit, &dataType, &o.DataQuality); err != nil {
			return nil, eris.Wrap(err, "postgres: scan observation")
		}
		o.Scenario = model.Scenario(scenario)
		o.DataType = model.DataType(dataType)
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: query observations iterate")
}

func buildPostgresQuery(f ObservationFilter) (string, []any) {
	var where []string
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if len(f.Metrics) > 0 {
		add("metric_id = ANY($%d)", f.Metrics)
	}
	if len(f.Regions) > 0 {
		add("region_code = ANY($%d)", f.Regions)
	}
	if len(f.Scenarios) > 0 {
		add("scenario = ANY($%d)", scenarioStrings(f.Scenarios))
	}
	if len(f.DataTypes) > 0 {
		add("data_type = ANY($%d)", dataTypeStrings(f.DataTypes))
	}
	if f.FromYear > 0 {
		add("period >= $%d", f.FromYear)
	}
	if f.ToYear > 0 {
		add("period <= $%d", f.ToYear)
	}

	query := `SELECT region_code, metric_id, period, scenario, value, ci_lower, ci_upper,
		COALESCE(unit, ''), data_type, COALESCE(data_quality, '') FROM observations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY region_code, metric_id, scenario, period"

	args = append(args, f.limit())
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

// TimeCoverage returns the first and last period stored.
func (s *PostgresStore) TimeCoverage(ctx context.Context) (Coverage, error) {
	var c Coverage
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MIN(period), 0), COALESCE(MAX(period), 0) FROM observations`).
		Scan(&c.FirstYear, &c.LastYear)
	if err != nil {
		return Coverage{}, eris.Wrap(err, "postgres: time coverage")
	}
	return c, nil
}

// UpsertRegions inserts or renames regions.
func (s *PostgresStore) UpsertRegions(ctx context.Context, regions []model.Region) error {
	rows := make([][]any, 0, len(regions))
	for _, r := range regions {
		rows = append(rows, []any{r.Code, r.Name, string(r.Level), nullIfEmpty(r.ParentCode)})
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "public.regions",
		Columns:      []string{"region_code", "region_name", "level", "parent_code"},
		ConflictKeys: []string{"region_code"},
	}, rows)
	return eris.Wrap(err, "postgres: upsert regions")
}

// ListRegions returns regions at a level, or every region when level is empty.
func (s *PostgresStore) ListRegions(ctx context.Context, level model.Level) ([]model.Region, error) {
	query := `SELECT region_code, region_name, level, COALESCE(parent_code, '') FROM regions`
	var args []any
	if level != "" {
		query += ` WHERE level = $1`
		args = append(args, string(level))
	}
	query += ` ORDER BY region_code`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list regions")
	}
	defer rows.Close()

	var out []model.Region
	for rows.Next() {
		var r model.Region
		var lvl string
		if err := rows.Scan(&r.Code, &r.Name, &lvl, &r.ParentCode); err != nil {
			return nil, eris.Wrap(err, "postgres: scan region")
		}
		r.Level = model.Level(lvl)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list regions iterate")
}

// RecordImport logs a completed load.
func (s *PostgresStore) RecordImport(ctx context.Context, source string, n int64) (*ImportRun, error) {
	run := &ImportRun{ID: uuid.New().String(), Source: source, Rows: n, CreatedAt: time.Now().UTC()}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_runs (id, source, rows, created_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.Source, run.Rows, run.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: record import")
	}
	return run, nil
}

// ListImports returns the most recent imports first.
func (s *PostgresStore) ListImports(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, rows, created_at FROM import_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list imports")
	}
	defer rows.Close()

	var out []ImportRun
	for rows.Next() {
		var r ImportRun
		if err := rows.Scan(&r.ID, &r.Source, &r.Rows, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan import")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list imports iterate")
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scenarioStrings(in []model.Scenario) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func dataTypeStrings(in []model.DataType) []string {
	out := make([]string, len(in))
	for i, d := range in {
		out[i] = string(d)
	}
	return out
}
