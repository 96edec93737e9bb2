package signal

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BritishEnglish)

// Render substitutes {name} placeholders in tmpl with vars. Placeholders
// without a value are left untouched.
func Render(tmpl string, vars map[string]string) string {
	if tmpl == "" || len(vars) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	var b strings.Builder
	b.Grow(len(tmpl))
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			break
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			break
		}
		name := tmpl[open+1 : open+end]
		b.WriteString(tmpl[:open])
		if v, ok := vars[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(tmpl[open : open+end+1])
		}
		tmpl = tmpl[open+end+1:]
	}
	return b.String()
}

// FormatValue renders v in the given unit.
func FormatValue(v float64, unit Unit, precision int) string {
	switch unit {
	case UnitGBP:
		return "£" + printer.Sprintf("%d", int64(math.Round(v)))
	case UnitGBPMn:
		return "£" + printer.Sprintf("%d", int64(math.Round(v))) + "m"
	case UnitCount:
		return printer.Sprintf("%d", int64(math.Round(v)))
	case UnitPercent:
		return printer.Sprintf("%.*f", precision, v) + "%"
	case UnitPoints:
		s := printer.Sprintf("%.*f", precision, v)
		if v > 0 {
			s = "+" + s
		}
		return s + "pp"
	default:
		return printer.Sprintf("%.*f", precision, v)
	}
}
