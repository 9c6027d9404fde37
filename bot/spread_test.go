package bot

import (
	"testing"

	"github.com/rustyeddy/execbot/config"
	"github.com/stretchr/testify/assert"
)

func TestSpreadTrackerCap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spreads []float64
		want    float64
	}{
		{"base until five samples", []float64{300, 300, 300, 300}, 190},
		{"tight market keeps base", []float64{40, 50, 50, 60, 50}, 190},
		{"wide market lifts cap", []float64{95, 100, 100, 100, 105}, 220},
		{"truncated product", []float64{99, 99, 99, 99, 99}, 217},
		{"ceiling", []float64{200, 200, 200, 200, 200}, 240},
		{"even count median", []float64{90, 90, 100, 100, 110, 110}, 220},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr := NewSpreadTracker(config.Default().Spread)
			var got float64
			for _, s := range tt.spreads {
				got = tr.Add(s)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpreadTrackerHigherBase(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Spread
	cfg.BaseCap = 260
	tr := NewSpreadTracker(cfg)
	for range 5 {
		tr.Add(200)
	}
	assert.Equal(t, 260.0, tr.Cap())
}

func TestSpreadTrackerEvictsOldest(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Spread
	cfg.History = 5
	tr := NewSpreadTracker(cfg)

	for range 5 {
		tr.Add(200)
	}
	assert.Equal(t, 240.0, tr.Cap())

	for range 5 {
		tr.Add(100)
	}
	assert.Equal(t, 5, tr.Len())
	assert.Equal(t, 100.0, tr.Median())
	assert.Equal(t, 220.0, tr.Cap())
}
