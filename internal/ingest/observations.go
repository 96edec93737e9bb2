package ingest

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/regioniq/insight-cli/internal/model"
	"github.com/regioniq/insight-cli/internal/region"
)

// columnAliases maps accepted header names to canonical column names.
var columnAliases = map[string]string{
	"region_code":      "region_code",
	"region":           "region_code",
	"geo":              "region_code",
	"metric_id":        "metric_id",
	"metric":           "metric_id",
	"period":           "period",
	"time_period":      "period",
	"year":             "period",
	"scenario":         "scenario",
	"value":            "value",
	"ci_lower":         "ci_lower",
	"confidence_lower": "ci_lower",
	"ci_upper":         "ci_upper",
	"confidence_upper": "ci_upper",
	"unit":             "unit",
	"data_type":        "data_type",
	"data_quality":     "data_quality",
}

var requiredColumns = []string{"region_code", "metric_id", "period", "value"}

// ReadObservations reads a CSV or XLSX file whose first row is a header.
// Region codes are translated to store codes. Blank rows are skipped.
func ReadObservations(ctx context.Context, path string, opts Options) ([]model.Observation, error) {
	rowCh, errCh := StreamFile(ctx, path, opts)

	var (
		header map[string]int
		out    []model.Observation
		line   int
		err    error
	)
	for row := range rowCh {
		line++
		if header == nil {
			header, err = parseHeader(row)
			if err != nil {
				drain(rowCh)
				return nil, err
			}
			continue
		}
		if blank(row) {
			continue
		}
		o, err := parseRow(row, header)
		if err != nil {
			drain(rowCh)
			return nil, eris.Wrapf(err, "ingest: %s line %d", path, line)
		}
		out = append(out, o)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	if header == nil {
		return nil, eris.Errorf("ingest: %s is empty", path)
	}
	return out, nil
}

func drain(ch <-chan []string) {
	for range ch {
	}
}

func parseHeader(row []string) (map[string]int, error) {
	header := make(map[string]int, len(row))
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := columnAliases[key]; ok {
			if _, dup := header[canonical]; !dup {
				header[canonical] = i
			}
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("ingest: header missing columns: %s", strings.Join(missing, ", "))
	}
	return header, nil
}

func parseRow(row []string, header map[string]int) (model.Observation, error) {
	cell := func(col string) string {
		i, ok := header[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	o := model.Observation{
		RegionCode:  region.ToDBCode(cell("region_code")),
		MetricID:    cell("metric_id"),
		Scenario:    model.Scenario(strings.ToLower(cell("scenario"))),
		Unit:        cell("unit"),
		DataType:    model.DataType(strings.ToLower(cell("data_type"))),
		DataQuality: cell("data_quality"),
	}
	if o.RegionCode == "" {
		return o, eris.New("region_code is empty")
	}
	if o.MetricID == "" {
		return o, eris.New("metric_id is empty")
	}
	if o.Scenario == "" {
		o.Scenario = model.ScenarioBaseline
	}
	if !o.Scenario.Valid() {
		return o, eris.Errorf("unknown scenario %q", o.Scenario)
	}
	if o.DataType == "" {
		o.DataType = model.DataTypeHistorical
	}
	if o.DataType != model.DataTypeHistorical && o.DataType != model.DataTypeForecast {
		return o, eris.Errorf("unknown data_type %q", o.DataType)
	}

	period, err := parseNumber(cell("period"))
	if err != nil || period == nil || *period != math.Trunc(*period) {
		return o, eris.Errorf("invalid period %q", cell("period"))
	}
	o.Period = int(*period)

	for _, f := range []struct {
		col string
		dst **float64
	}{
		{"value", &o.Value},
		{"ci_lower", &o.CILower},
		{"ci_upper", &o.CIUpper},
	} {
		v, err := parseNumber(cell(f.col))
		if err != nil {
			return o, eris.Wrapf(err, "invalid %s", f.col)
		}
		*f.dst = v
	}
	return o, nil
}

// parseNumber returns nil for empty cells and the usual missing markers.
func parseNumber(s string) (*float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	switch strings.ToLower(s) {
	case "", "na", "n/a", "null", "..", "-":
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, eris.Errorf("non-finite number %q", s)
	}
	return &v, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
