package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManageOpenTrade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pnl  float64
		r    float64
		want Action
	}{
		{"trail", 150, 100, Trail},
		{"breakeven", 60, 100, Breakeven},
		{"cut", -120, 100, CutOrHedge},
		{"hold", 10, 100, Hold},
		{"cut edge", -100, 100, CutOrHedge},
		{"trail edge", 120, 100, Trail},
		{"breakeven edge", 50, 100, Breakeven},
		{"no risk", 500, 0, Hold},
		{"negative risk", -500, -1, Hold},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ManageOpenTrade(tt.pnl, tt.r, 0.5, 1.2))
		})
	}
}
