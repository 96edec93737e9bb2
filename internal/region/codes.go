// Package region resolves UK region codes to their level, parent and peer group.
package region

import (
	"strings"

	"github.com/regioniq/insight-cli/internal/model"
)

// UKCode is the pseudo-code for the whole United Kingdom.
const (
	UKCode    = "UK"
	UKONSCode = "K02000001"
	UKName    = "United Kingdom"
)

// itl1 is one row of the ITL1 constant table.
type itl1 struct {
	UI   string // UKC, used by the UI and the API
	DB   string // E12000001, used by the store
	TL   string // TLC, used by the 2025 ITL lookup files
	Name string
}

var itl1Table = []itl1{
	{UI: "UKC", DB: "E12000001", TL: "TLC", Name: "North East"},
	{UI: "UKD", DB: "E12000002", TL: "TLD", Name: "North West"},
	{UI: "UKE", DB: "E12000003", TL: "TLE", Name: "Yorkshire and The Humber"},
	{UI: "UKF", DB: "E12000004", TL: "TLF", Name: "East Midlands"},
	{UI: "UKG", DB: "E12000005", TL: "TLG", Name: "West Midlands"},
	{UI: "UKH", DB: "E12000006", TL: "TLH", Name: "East of England"},
	{UI: "UKI", DB: "E12000007", TL: "TLI", Name: "London"},
	{UI: "UKJ", DB: "E12000008", TL: "TLJ", Name: "South East"},
	{UI: "UKK", DB: "E12000009", TL: "TLK", Name: "South West"},
	{UI: "UKL", DB: "W92000004", TL: "TLL", Name: "Wales"},
	{UI: "UKM", DB: "S92000003", TL: "TLM", Name: "Scotland"},
	{UI: "UKN", DB: "N92000002", TL: "TLN", Name: "Northern Ireland"},
}

// ITL1Regions returns the twelve ITL1 regions keyed by their UI code.
func ITL1Regions() []model.Region {
	out := make([]model.Region, 0, len(itl1Table))
	for _, r := range itl1Table {
		out = append(out, model.Region{Code: r.UI, Name: r.Name, Level: model.LevelITL1, ParentCode: UKCode})
	}
	return out
}

func lookupITL1(code string) (itl1, bool) {
	for _, r := range itl1Table {
		if code == r.UI || code == r.DB || code == r.TL {
			return r, true
		}
	}
	return itl1{}, false
}

// ToUICode maps store (E12…) and lookup (TL?) ITL1 codes to UK? codes.
// Other codes are returned trimmed and upper-cased.
func ToUICode(code string) string {
	code = normalize(code)
	if r, ok := lookupITL1(code); ok {
		return r.UI
	}
	if code == UKONSCode {
		return UKCode
	}
	return code
}

// ToDBCode maps UK? and TL? ITL1 codes to the store's E12… codes and UK to
// K02000001. Other codes are returned trimmed and upper-cased.
func ToDBCode(code string) string {
	code = normalize(code)
	if r, ok := lookupITL1(code); ok {
		return r.DB
	}
	if code == UKCode {
		return UKONSCode
	}
	return code
}

// Classify infers a region's level from the shape of its code.
func Classify(code string) model.Level {
	code = normalize(code)
	switch {
	case code == UKCode || code == UKONSCode:
		return model.LevelUK
	case hasAnyPrefix(code, "E12", "S92", "W92", "N92"):
		return model.LevelITL1
	case len(code) == 3 && (strings.HasPrefix(code, "UK") || strings.HasPrefix(code, "TL")):
		return model.LevelITL1
	case strings.HasPrefix(code, "TL") && len(code) == 4:
		return model.LevelITL2
	case strings.HasPrefix(code, "TL") && len(code) == 5:
		return model.LevelITL3
	default:
		return model.LevelLAD
	}
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
