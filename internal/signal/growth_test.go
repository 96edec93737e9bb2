package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCAGR(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		end   float64
		years float64
		want  float64
	}{
		{"21 percent over five years", 100, 121, 5, 3.8860},
		{"flat", 250, 250, 5, 0},
		{"decline", 100, 90, 5, -2.0852},
		{"end zero", 100, 0, 5, -100},
		{"start zero", 0, 121, 5, 0},
		{"start negative", -10, 121, 5, 0},
		{"zero years", 100, 121, 0, 0},
		{"negative years", 100, 121, -5, 0},
		{"single year", 100, 110, 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CAGR(tt.start, tt.end, tt.years), 0.001)
		})
	}
}
