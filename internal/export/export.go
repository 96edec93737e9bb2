// Package export renders insight responses as tables for CSV and XLSX output.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/regioniq/insight-cli/internal/insight"
	"github.com/regioniq/insight-cli/internal/lens"
	"github.com/regioniq/insight-cli/internal/model"
)

// Table is a named grid of cells with a header row.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// InsightTables flattens a response into Summary, Signals, Persistence,
// Peers and Implications tables.
func InsightTables(resp *insight.Response) []Table {
	summary := Table{Name: "Summary", Header: []string{"field", "value"}}
	summary.Rows = [][]string{
		{"region_code", resp.RegionCode},
		{"level", string(resp.Level)},
		{"year", strconv.Itoa(resp.Year)},
		{"lens", string(resp.Lens)},
		{"catalog_version", resp.CatalogVersion},
		{"peer_group", resp.PeerContext.PeerGroupLabel},
		{"parent", resp.PeerContext.ParentName},
		{"peer_count", strconv.Itoa(resp.PeerContext.PeerCount)},
	}
	if a := resp.Archetype; a != nil {
		summary.Rows = append(summary.Rows,
			[]string{"archetype", a.Label},
			[]string{"archetype_strength", formatFloat(&a.Strength)},
			[]string{"archetype_conclusion", a.Conclusion},
		)
	}

	signals := Table{Name: "Signals", Header: []string{"signal_id", "label", "outcome", "value", "conclusion", "detail"}}
	for _, s := range resp.Signals {
		signals.Rows = append(signals.Rows, []string{s.ID, s.Label, string(s.Outcome), formatFloat(s.Value), s.Conclusion, s.Detail})
	}

	persist := Table{Name: "Persistence", Header: []string{"signal_id", "current_outcome", "holds_in", "first_change_year", "horizon"}}
	for _, p := range resp.Persistence {
		persist.Rows = append(persist.Rows, []string{
			p.SignalID, string(p.CurrentOutcome), string(p.HoldsIn), formatInt(p.FirstChangeYear), strconv.Itoa(p.Horizon),
		})
	}

	peers := Table{Name: "Peers", Header: []string{"metric_id", "value", "position", "total", "percentile", "tier", "growth_band", "highlights"}}
	if mi := resp.MetricInsights; mi != nil {
		band := ""
		if mi.Growth != nil {
			band = string(mi.Growth.Band)
		}
		peers.Rows = append(peers.Rows, []string{
			mi.MetricID,
			formatFloat(&mi.Value),
			strconv.Itoa(mi.Rank.Position),
			strconv.Itoa(mi.Rank.Total),
			formatFloat(&mi.Rank.Percentile),
			string(mi.Rank.Tier),
			band,
			strings.Join(mi.Highlights, "; "),
		})
	}

	impl := Table{Name: "Implications", Header: []string{"lens", "role", "id", "priority", "text", "why"}}
	impl.Rows = append(impl.Rows, implicationRows(lens.LensIndustrial, resp.Logistics)...)
	impl.Rows = append(impl.Rows, implicationRows(resp.Lens, resp.Positioning)...)

	return []Table{summary, signals, persist, peers, impl}
}

func implicationRows(l lens.AssetLens, imp lens.Implications) [][]string {
	var rows [][]string
	for i, item := range imp.Items() {
		role := "supporting"
		if i == 0 {
			role = "lead"
		}
		rows = append(rows, []string{string(l), role, item.ID, strconv.Itoa(item.Priority), item.Text, item.Why})
	}
	return rows
}

// ObservationsTable renders store rows with the column order used by import.
func ObservationsTable(obs []model.Observation) Table {
	t := Table{
		Name:   "Observations",
		Header: []string{"region_code", "metric_id", "period", "scenario", "value", "ci_lower", "ci_upper", "unit", "data_type", "data_quality"},
	}
	for _, o := range obs {
		t.Rows = append(t.Rows, []string{
			o.RegionCode, o.MetricID, strconv.Itoa(o.Period), string(o.Scenario),
			formatFloat(o.Value), formatFloat(o.CILower), formatFloat(o.CIUpper),
			o.Unit, string(o.DataType), o.DataQuality,
		})
	}
	return t
}

// WriteCSV writes a table with its header row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return eris.Wrapf(err, "export: write csv %s", t.Name)
	}
	return nil
}

// WriteXLSX saves the tables as sheets of one workbook at path.
func WriteXLSX(path string, tables []Table) error {
	f := xlsx.NewFile()
	for _, t := range tables {
		sheet, err := f.AddSheet(t.Name)
		if err != nil {
			return eris.Wrapf(err, "export: add sheet %s", t.Name)
		}
		addRow(sheet, t.Header)
		for _, r := range t.Rows {
			addRow(sheet, r)
		}
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		if v, err := strconv.ParseFloat(c, 64); err == nil && c != "" {
			row.AddCell().SetFloat(v)
			continue
		}
		row.AddCell().SetString(c)
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
