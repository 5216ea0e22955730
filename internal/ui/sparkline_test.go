package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSparkline(t *testing.T) {
	tests := []struct {
		name  string
		data  []float64
		width int
		want  string
	}{
		{name: "zeros", data: []float64{0, 0, 0}, width: 3, want: "▁▁▁"},
		{name: "empty pads", data: nil, width: 4, want: "▁▁▁▁"},
		{name: "single sample is peak", data: []float64{100}, width: 4, want: "▁▁▁█"},
		{name: "ramp", data: []float64{0, 1, 2, 3, 4, 5, 6, 7}, width: 8, want: "▁▂▃▄▅▆▇█"},
		{name: "flat", data: []float64{5, 5, 5}, width: 3, want: "███"},
		{name: "keeps tail", data: []float64{70, 0, 0, 7}, width: 2, want: "▁█"},
		{name: "negative", data: []float64{-3, 2}, width: 2, want: "▁█"},
		{name: "zero width", data: []float64{1, 2}, width: 0, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sparkline(tt.data, tt.width)
			assert.Equal(t, tt.want, got)
			assert.Len(t, []rune(got), tt.width)
		})
	}
}
