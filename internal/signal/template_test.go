package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		vars map[string]string
		want string
	}{
		{"single", "{value} jobs per resident", map[string]string{"value": "1.20"}, "1.20 jobs per resident"},
		{"repeated", "{a} and {a}", map[string]string{"a": "x"}, "x and x"},
		{"unknown kept", "{value} vs {peer}", map[string]string{"value": "3"}, "3 vs {peer}"},
		{"no vars", "{value}", nil, "{value}"},
		{"unterminated", "value {open", map[string]string{"open": "x"}, "value {open"},
		{"empty", "", map[string]string{"a": "b"}, ""},
		{"plain", "no placeholders", map[string]string{"a": "b"}, "no placeholders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.tmpl, tt.vars))
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1.25", FormatValue(1.2499, UnitRatio, 2))
	assert.Equal(t, "78.5%", FormatValue(78.46, UnitPercent, 1))
	assert.Equal(t, "+0.62pp", FormatValue(0.62, UnitPoints, 2))
	assert.Equal(t, "-0.40pp", FormatValue(-0.4, UnitPoints, 2))
	assert.Equal(t, "£950", FormatValue(949.6, UnitGBP, 0))
	assert.Equal(t, "£65,400", FormatValue(65400.2, UnitGBP, 0))
	assert.Equal(t, "1,234,568", FormatValue(1234567.6, UnitCount, 0))
	assert.Equal(t, "£12,345m", FormatValue(12345, UnitGBPMn, 0))
}
