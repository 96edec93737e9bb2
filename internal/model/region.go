package model

// Level is a tier of the UK regional geography.
type Level string

const (
	LevelUK   Level = "UK"
	LevelITL1 Level = "ITL1"
	LevelITL2 Level = "ITL2"
	LevelITL3 Level = "ITL3"
	LevelLAD  Level = "LAD"
)

// GeoSchema is the geography vintage every region code belongs to.
const GeoSchema = "UK_ITL_2025"

// Region is a single area in the hierarchy.
type Region struct {
	Code       string `json:"region_code"`
	Name       string `json:"region_name"`
	Level      Level  `json:"level"`
	ParentCode string `json:"parent_region_code,omitempty"`
}

// MetricClass describes a catalogue metric.
type MetricClass struct {
	ID    string `json:"metric_id"`
	Name  string `json:"name"`
	Unit  string `json:"unit"`
	Type  string `json:"type"`
	Scale string `json:"scale"`
}

// MetricCatalogue lists the metrics the system understands.
func MetricCatalogue() []MetricClass {
	return []MetricClass{
		{ID: MetricPopulation, Name: "Total Population", Unit: "people", Type: "level", Scale: "count"},
		{ID: MetricWorkingAge, Name: "Working-Age Population (16-64)", Unit: "people", Type: "level", Scale: "count"},
		{ID: MetricGVA, Name: "Gross Value Added", Unit: "£m", Type: "level", Scale: "nominal"},
		{ID: MetricGDHIPerHead, Name: "Disposable Income (per head)", Unit: "£", Type: "level", Scale: "nominal"},
		{ID: MetricJobs, Name: "Total Employment", Unit: "jobs", Type: "level", Scale: "count"},
		{ID: MetricEmploymentRate, Name: "Employment Rate (16-64)", Unit: "%", Type: "rate", Scale: "percent"},
		{ID: MetricUnemploymentRate, Name: "Unemployment Rate (16+)", Unit: "%", Type: "rate", Scale: "percent"},
	}
}
