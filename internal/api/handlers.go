package api

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/regioniq/insight-cli/internal/insight"
	"github.com/regioniq/insight-cli/internal/lens"
	"github.com/regioniq/insight-cli/internal/model"
	"github.com/regioniq/insight-cli/internal/peer"
	"github.com/regioniq/insight-cli/internal/region"
)

// Year bounds reported when the store is empty.
const (
	defaultMinYear = 1991
	defaultMaxYear = 2050
)

// Public scenarios and measures exposed by the query grammar.
var (
	publicScenarios = []model.Scenario{model.ScenarioBaseline, model.ScenarioUpside, model.ScenarioDownside}
	publicMeasures  = []string{measureValue, measureCILower, measureCIUpper, "growth_yoy"}
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service":          "RegionIQ Data API",
		"api_version":      APIVersion,
		"forecast_vintage": s.forecast.Vintage,
		"build":            s.build,
	})
}

// SchemaRegion is a region entry in the schema response.
type SchemaRegion struct {
	model.Region
	GeoSchema string `json:"geo_schema"`
	ValidFrom string `json:"valid_from"`
}

// TimeCoverage is the span of years available.
type TimeCoverage struct {
	MinYear int `json:"min_year"`
	MaxYear int `json:"max_year"`
}

// SchemaResponse describes what the query endpoint accepts.
type SchemaResponse struct {
	Version       string              `json:"version"`
	GeneratedAt   string              `json:"generated_at"`
	Vintage       string              `json:"vintage"`
	Source        string              `json:"source"`
	Status        string              `json:"status"`
	Metrics       []model.MetricClass `json:"metrics"`
	Regions       []SchemaRegion      `json:"regions"`
	Scenarios     []model.Scenario    `json:"scenarios"`
	Measures      []string            `json:"measures"`
	TimeCoverage  TimeCoverage        `json:"time_coverage"`
	Compatibility map[string]any      `json:"compatibility"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	coverage := TimeCoverage{MinYear: defaultMinYear, MaxYear: defaultMaxYear}
	if s.store != nil {
		c, err := s.store.TimeCoverage(r.Context())
		if err != nil {
			zap.L().Error("api: time coverage", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "DATA_UNAVAILABLE", "Failed to query underlying data store.", nil)
			return
		}
		if c.FirstYear > 0 && c.LastYear > 0 {
			coverage = TimeCoverage{MinYear: c.FirstYear, MaxYear: c.LastYear}
		}
	}

	metrics := model.MetricCatalogue()
	slices.SortFunc(metrics, func(a, b model.MetricClass) int { return strings.Compare(a.ID, b.ID) })

	itl1 := region.ITL1Regions()
	regions := make([]SchemaRegion, 0, len(itl1))
	for _, reg := range itl1 {
		regions = append(regions, SchemaRegion{Region: reg, GeoSchema: model.GeoSchema, ValidFrom: "2025-01-01"})
	}
	slices.SortFunc(regions, func(a, b SchemaRegion) int { return strings.Compare(a.Code, b.Code) })

	writeJSON(w, http.StatusOK, SchemaResponse{
		Version:      APIVersion,
		GeneratedAt:  s.timestamp(),
		Vintage:      s.forecast.Vintage,
		Source:       s.forecast.Source,
		Status:       s.forecast.Status,
		Metrics:      metrics,
		Regions:      regions,
		Scenarios:    publicScenarios,
		Measures:     publicMeasures,
		TimeCoverage: coverage,
		Compatibility: map[string]any{
			"rules": []map[string]string{{
				"id":          "unit_type_compat",
				"description": "Metrics in the same query should have compatible unit+type classes.",
			}},
		},
	})
}

func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "region")
	q := r.URL.Query()

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year <= 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "year must be a positive integer.",
			map[string]any{"year": q.Get("year")})
		return
	}

	metric := q.Get("metric")
	if metric == "" {
		metric = model.MetricJobs
	}
	if _, ok := peer.LookupConfig(metric); !ok {
		writeError(w, http.StatusBadRequest, "UNKNOWN_METRIC", "metric is not ranked.", map[string]any{"metric": metric})
		return
	}

	lensName := q.Get("lens")
	if lensName == "" {
		lensName = s.engine.DefaultLens
	}
	l, err := lens.ParseAssetLens(lensName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_LENS", err.Error(), map[string]any{"allowed": lens.Lenses})
		return
	}

	if _, err := s.regions.Resolve(code); err != nil {
		writeError(w, http.StatusNotFound, "REGION_NOT_FOUND", "unknown region code.", map[string]any{"region": code})
		return
	}

	resp, err := s.insights.Build(r.Context(), insight.Request{Region: code, Year: year, Metric: metric, Lens: l})
	if err != nil {
		zap.L().Error("api: build insight",
			zap.String("region", code),
			zap.Int("year", year),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "DATA_UNAVAILABLE", "Failed to build insight.", nil)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
