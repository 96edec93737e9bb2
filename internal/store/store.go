// Package store persists regional observations in PostgreSQL or SQLite.
package store

import (
	"context"
	"time"

	"github.com/regioniq/insight-cli/internal/model"
)

// DefaultLimit caps QueryObservations when no limit is set.
const DefaultLimit = 10000

// ObservationFilter selects observations. Empty slices match everything.
type ObservationFilter struct {
	Metrics   []string         `json:"metrics,omitempty"`
	Regions   []string         `json:"regions,omitempty"`
	Scenarios []model.Scenario `json:"scenarios,omitempty"`
	DataTypes []model.DataType `json:"data_types,omitempty"`
	FromYear  int              `json:"from_year,omitempty"`
	ToYear    int              `json:"to_year,omitempty"`
	Limit     int              `json:"limit,omitempty"`
	Offset    int              `json:"offset,omitempty"`
}

func (f ObservationFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

// ImportRun records one load of observations.
type ImportRun struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Rows      int64     `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}

// Coverage is the span of periods held in the store.
type Coverage struct {
	FirstYear int `json:"first_year"`
	LastYear  int `json:"last_year"`
}

// Store defines the persistence interface for observations and regions.
type Store interface {
	// Observations
	UpsertObservations(ctx context.Context, obs []model.Observation) (int64, error)
	QueryObservations(ctx context.Context, filter ObservationFilter) ([]model.Observation, error)
	TimeCoverage(ctx context.Context) (Coverage, error)

	// Regions
	UpsertRegions(ctx context.Context, regions []model.Region) error
	ListRegions(ctx context.Context, level model.Level) ([]model.Region, error)

	// Imports
	RecordImport(ctx context.Context, source string, rows int64) (*ImportRun, error)
	ListImports(ctx context.Context, limit int) ([]ImportRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// observationColumns is the column order used by every insert and scan.
var observationColumns = []string{
	"region_code", "metric_id", "period", "scenario",
	"value", "ci_lower", "ci_upper", "unit", "data_type", "data_quality",
}

// normalizeObservation fills defaults before a row is written.
func normalizeObservation(o model.Observation) model.Observation {
	if o.Scenario == "" {
		o.Scenario = model.ScenarioBaseline
	}
	if o.DataType == "" {
		o.DataType = model.DataTypeHistorical
	}
	return o
}

func observationRow(o model.Observation) []any {
	o = normalizeObservation(o)
	return []any{
		o.RegionCode, o.MetricID, o.Period, string(o.Scenario),
		o.Value, o.CILower, o.CIUpper, o.Unit, string(o.DataType), o.DataQuality,
	}
}
