package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/regioniq/insight-cli/internal/model"
	"github.com/regioniq/insight-cli/internal/region"
	"github.com/regioniq/insight-cli/internal/store"
)

// Query grammar limits.
const (
	DefaultQueryLimit = 50000
	DefaultMaxCost    = 250000

	unboundedMetrics = 5000
	unboundedRegions = 50000
	unboundedYears   = 200
)

// Measures a query can select.
const (
	measureValue   = "value"
	measureCILower = "ci_lower"
	measureCIUpper = "ci_upper"
)

// Filter types of a selection.
const (
	FilterItem  = "item"
	FilterAll   = "all"
	FilterRange = "range"
)

var dimensionCodes = []string{
	"metric", "region", "geo_schema", "level", "time_period",
	"scenario", "measure", "data_type", "breakdown_type", "breakdown_value",
}

// Selection picks the values of one dimension.
type Selection struct {
	Filter string   `json:"filter"`
	Values []string `json:"values,omitempty"`
	From   string   `json:"from,omitempty"`
	To     string   `json:"to,omitempty"`
}

// QueryDim is one dimension of a query.
type QueryDim struct {
	Code      string    `json:"code"`
	Selection Selection `json:"selection"`
}

// QueryRequest is a PxWeb-style observation query.
type QueryRequest struct {
	Query  []QueryDim `json:"query"`
	Limit  int        `json:"limit,omitempty"`
	Cursor int        `json:"cursor,omitempty"`
}

// ObservationRecord is one value in a query response.
type ObservationRecord struct {
	MetricID        string         `json:"metric_id"`
	RegionCode      string         `json:"region_code"`
	GeoSchema       string         `json:"geo_schema"`
	Level           model.Level    `json:"level"`
	TimePeriod      int            `json:"time_period"`
	Scenario        model.Scenario `json:"scenario"`
	Measure         string         `json:"measure"`
	Value           *float64       `json:"value"`
	Unit            string         `json:"unit,omitempty"`
	DataType        model.DataType `json:"data_type,omitempty"`
	DataQuality     string         `json:"data_quality,omitempty"`
	ConfidenceLower *float64       `json:"confidence_lower,omitempty"`
	ConfidenceUpper *float64       `json:"confidence_upper,omitempty"`
}

// ResponseMeta carries lifecycle, cost and paging information.
type ResponseMeta struct {
	Vintage          string   `json:"vintage"`
	GeneratedAt      string   `json:"generated_at"`
	Source           string   `json:"source"`
	Status           string   `json:"status"`
	EstimatedRecords int      `json:"estimated_records"`
	ReturnedRecords  int      `json:"returned_records"`
	Truncated        bool     `json:"truncated"`
	Warnings         []string `json:"warnings"`
	Citation         string   `json:"citation"`
	URL              string   `json:"url"`
	AccessedAt       string   `json:"accessed_at"`
	NextCursor       *int     `json:"next_cursor"`
}

// QueryResponse is the body of a successful query.
type QueryResponse struct {
	Meta ResponseMeta        `json:"meta"`
	Data []ObservationRecord `json:"data"`
}

// Validate checks dimension codes and selection shapes.
func (q QueryRequest) Validate() error {
	if len(q.Query) == 0 {
		return eris.New("query must contain at least one dimension")
	}
	seen := make(map[string]bool, len(q.Query))
	for _, d := range q.Query {
		if !slices.Contains(dimensionCodes, d.Code) {
			return eris.Errorf("unknown dimension %q", d.Code)
		}
		if seen[d.Code] {
			return eris.Errorf("dimension %q given more than once", d.Code)
		}
		seen[d.Code] = true

		switch d.Selection.Filter {
		case FilterItem:
			if len(d.Selection.Values) == 0 {
				return eris.Errorf("dimension %q: item selection needs values", d.Code)
			}
		case FilterAll:
		case FilterRange:
			if d.Selection.From == "" || d.Selection.To == "" {
				return eris.Errorf("dimension %q: range selection needs from and to", d.Code)
			}
		default:
			return eris.Errorf("dimension %q: unknown filter %q", d.Code, d.Selection.Filter)
		}
	}
	if q.Limit < 0 || q.Cursor < 0 {
		return eris.New("limit and cursor must not be negative")
	}
	return nil
}

// values returns the selected values of a dimension. all is true for an
// "all" selection; a missing dimension yields nil, false.
func (q QueryRequest) values(code string) (vals []string, all bool) {
	for _, d := range q.Query {
		if d.Code != code {
			continue
		}
		switch d.Selection.Filter {
		case FilterAll:
			return nil, true
		case FilterRange:
			return []string{d.Selection.From, d.Selection.To}, false
		default:
			return d.Selection.Values, false
		}
	}
	return nil, false
}

func (q QueryRequest) isRange(code string) bool {
	for _, d := range q.Query {
		if d.Code == code {
			return d.Selection.Filter == FilterRange
		}
	}
	return false
}

// yearBounds returns the inclusive period range a query covers.
func (q QueryRequest) yearBounds() (from, to int, err error) {
	vals, all := q.values("time_period")
	if all || len(vals) == 0 {
		return defaultMinYear, defaultMaxYear, nil
	}
	years := make([]int, len(vals))
	for i, v := range vals {
		years[i], err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, eris.Errorf("time_period %q is not a year", v)
		}
	}
	from, to = slices.Min(years), slices.Max(years)
	return from, to, nil
}

// EstimateCost approximates the record count of a query. Unbounded
// dimensions count as very large.
func (q QueryRequest) EstimateCost() int {
	count := func(code string, unbounded int) int {
		vals, all := q.values(code)
		if all {
			return unbounded
		}
		return max(1, len(vals))
	}

	years := count("time_period", unboundedYears)
	if q.isRange("time_period") {
		from, to, err := q.yearBounds()
		if err == nil {
			years = to - from + 1
		}
	}

	cost := count("metric", unboundedMetrics) *
		count("region", unboundedRegions) *
		years *
		count("scenario", 1) *
		count("measure", 1)
	return max(1, cost)
}

// measureFor returns the measure read for a scenario. An explicit value,
// ci_lower or ci_upper measure wins.
func measureFor(sc model.Scenario, explicit string) string {
	switch explicit {
	case measureValue, measureCILower, measureCIUpper:
		return explicit
	}
	switch sc {
	case model.ScenarioUpside:
		return measureCIUpper
	case model.ScenarioDownside:
		return measureCILower
	default:
		return measureValue
	}
}

// pickValue reads a measure from a row. Historical rows always report
// their value; a missing bound falls back to the value.
func pickValue(o model.Observation, measure string) *float64 {
	if o.DataType == model.DataTypeHistorical {
		return o.Value
	}
	var v *float64
	switch measure {
	case measureCILower:
		v = o.CILower
	case measureCIUpper:
		v = o.CIUpper
	default:
		v = o.Value
	}
	if v == nil {
		return o.Value
	}
	return v
}

func (q QueryRequest) scenarios() ([]model.Scenario, error) {
	vals, all := q.values("scenario")
	if all {
		return publicScenarios, nil
	}
	if len(vals) == 0 {
		return []model.Scenario{model.ScenarioBaseline}, nil
	}
	out := make([]model.Scenario, 0, len(vals))
	for _, v := range vals {
		sc := model.Scenario(v)
		if !slices.Contains(publicScenarios, sc) {
			return nil, eris.Errorf("unknown scenario %q", v)
		}
		out = append(out, sc)
	}
	return out, nil
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload.",
			map[string]any{"reason": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload.",
			map[string]any{"reason": err.Error()})
		return
	}

	maxCost := s.cfg.MaxQueryCost
	if maxCost <= 0 {
		maxCost = DefaultMaxCost
	}
	estimated := req.EstimateCost()
	if estimated > maxCost {
		writeError(w, http.StatusBadRequest, "QUERY_TOO_LARGE", "Query exceeds maximum estimated record limit.",
			map[string]any{"estimated_records": estimated, "max_records": maxCost})
		return
	}

	metrics, allMetrics := req.values("metric")
	regions, allRegions := req.values("region")
	if allMetrics || allRegions {
		writeError(w, http.StatusBadRequest, "UNBOUNDED_QUERY",
			"metric=all and region=all are not allowed in v1; provide explicit metric and region selections.",
			map[string]any{"hint": "Use schema to enumerate values, then query a subset."})
		return
	}
	if len(metrics) == 0 || len(regions) == 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "metric and region selections are required.", nil)
		return
	}

	fromYear, toYear, err := req.yearBounds()
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload.",
			map[string]any{"reason": err.Error()})
		return
	}
	scenarios, err := req.scenarios()
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload.",
			map[string]any{"reason": err.Error()})
		return
	}

	var explicitMeasure string
	if m, _ := req.values("measure"); len(m) > 0 {
		explicitMeasure = m[0]
	}
	dataTypeVals, _ := req.values("data_type")
	dataTypes := make([]model.DataType, len(dataTypeVals))
	for i, v := range dataTypeVals {
		dataTypes[i] = model.DataType(v)
	}

	dbCodes := make([]string, len(regions))
	for i, c := range regions {
		dbCodes[i] = region.ToDBCode(c)
	}

	limit := req.Limit
	if limit == 0 {
		limit = DefaultQueryLimit
	}
	maxReturn := min(maxCost, limit)
	rowLimit := max(1, maxReturn/len(scenarios))

	rows, err := s.store.QueryObservations(r.Context(), store.ObservationFilter{
		Metrics:   metrics,
		Regions:   dbCodes,
		Scenarios: []model.Scenario{model.ScenarioBaseline},
		DataTypes: dataTypes,
		FromYear:  fromYear,
		ToYear:    toYear,
		Limit:     rowLimit + 1,
		Offset:    req.Cursor,
	})
	if err != nil {
		zap.L().Error("api: query observations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "DATA_UNAVAILABLE", "Failed to query underlying data store.", nil)
		return
	}

	truncated := len(rows) > rowLimit
	if truncated {
		rows = rows[:rowLimit]
	}

	exactYears := !req.isRange("time_period")
	years, _ := req.values("time_period")

	records := make([]ObservationRecord, 0, len(rows)*len(scenarios))
	for _, o := range rows {
		if exactYears && len(years) > 0 && !slices.Contains(years, strconv.Itoa(o.Period)) {
			continue
		}
		code := region.ToUICode(o.RegionCode)
		for _, sc := range scenarios {
			measure := measureFor(sc, explicitMeasure)
			records = append(records, ObservationRecord{
				MetricID:        o.MetricID,
				RegionCode:      code,
				GeoSchema:       model.GeoSchema,
				Level:           region.Classify(code),
				TimePeriod:      o.Period,
				Scenario:        sc,
				Measure:         measure,
				Value:           pickValue(o, measure),
				Unit:            o.Unit,
				DataType:        o.DataType,
				DataQuality:     o.DataQuality,
				ConfidenceLower: o.CILower,
				ConfidenceUpper: o.CIUpper,
			})
		}
	}

	accessed := s.timestamp()
	meta := ResponseMeta{
		Vintage:          s.forecast.Vintage,
		GeneratedAt:      accessed,
		Source:           s.forecast.Source,
		Status:           s.forecast.Status,
		EstimatedRecords: estimated,
		ReturnedRecords:  len(records),
		Truncated:        truncated,
		Warnings:         []string{},
		Citation:         fmt.Sprintf("RegionIQ Data API (%s). Accessed %s. Source: %s.", s.forecast.Vintage, accessed, s.forecast.Source),
		URL:              requestURL(r),
		AccessedAt:       accessed,
	}
	if truncated {
		next := req.Cursor + rowLimit
		meta.NextCursor = &next
	}

	zap.L().Info("observations query",
		zap.String("component", "api"),
		zap.String("request_id", RequestIDFrom(r.Context())),
		zap.Int("estimated_records", estimated),
		zap.Int("returned_records", len(records)),
		zap.Bool("truncated", truncated),
	)
	writeJSON(w, http.StatusOK, QueryResponse{Meta: meta, Data: records})
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
