package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/execbot/market"
)

// dxFloor keeps DX finite when both directional indicators are zero.
const dxFloor = 1e-9

// ADX calculates Wilder's Average Directional Index over bars.
//
// TR, +DM and -DM are summed over the first period moves, then carried as
// Wilder running sums (s = s - s/p + x). Every later move yields one DX value;
// ADX is the Wilder mean of that DX sequence seeded by its first value. With
// exactly period+1 bars no DX exists yet and ADX is unavailable.
func ADX(bars []market.Bar, period int) (float64, error) {
	if err := checkPeriod(period); err != nil {
		return 0, err
	}
	if len(bars) < period+1 {
		return 0, notEnough(period+1, len(bars))
	}

	adx := NewADX(period)
	for _, b := range bars {
		adx.Update(b)
	}
	if !adx.Ready() {
		return 0, notEnough(period+2, len(bars))
	}
	return adx.Value(), nil
}

// AverageDirectionalIndex is the streaming form of ADX.
// Usage:
//
//	adx := indicators.NewADX(14)
//	for _, b := range bars { adx.Update(b) }
//	if adx.Ready() && adx.Value() >= 25 { ... }
type AverageDirectionalIndex struct {
	period int

	prev    market.Bar
	hasPrev bool

	// moves processed (bar pairs)
	moves int

	// running sums, seeded with plain sums of the first period moves
	trSum      float64
	plusDMSum  float64
	minusDMSum float64

	plusDI  float64
	minusDI float64
	lastDX  float64

	adx     float64
	dxCount int
}

func NewADX(period int) *AverageDirectionalIndex {
	return &AverageDirectionalIndex{period: period}
}

func (a *AverageDirectionalIndex) Name() string {
	return fmt.Sprintf("ADX(%d)", a.period)
}

// Warmup is period+2: one seed bar, period moves to build the sums, and
// one more move for the first DX.
func (a *AverageDirectionalIndex) Warmup() int {
	return a.period + 2
}

func (a *AverageDirectionalIndex) Reset() {
	*a = AverageDirectionalIndex{period: a.period}
}

func (a *AverageDirectionalIndex) Update(b market.Bar) {
	if !a.hasPrev {
		a.prev = b
		a.hasPrev = true
		return
	}

	upMove := b.High - a.prev.High
	downMove := a.prev.Low - b.Low

	var pdm, mdm float64
	if upMove > downMove && upMove > 0 {
		pdm = upMove
	}
	if downMove > upMove && downMove > 0 {
		mdm = downMove
	}
	tr := trueRange(b, a.prev)
	a.prev = b
	a.moves++

	if a.moves <= a.period {
		a.trSum += tr
		a.plusDMSum += pdm
		a.minusDMSum += mdm
		return
	}

	p := float64(a.period)
	a.trSum = a.trSum - a.trSum/p + tr
	a.plusDMSum = a.plusDMSum - a.plusDMSum/p + pdm
	a.minusDMSum = a.minusDMSum - a.minusDMSum/p + mdm

	a.plusDI, a.minusDI = 0, 0
	if a.trSum != 0 {
		a.plusDI = 100 * a.plusDMSum / a.trSum
		a.minusDI = 100 * a.minusDMSum / a.trSum
	}
	dx := 100 * math.Abs(a.plusDI-a.minusDI) / math.Max(a.plusDI+a.minusDI, dxFloor)
	a.lastDX = dx

	if a.dxCount == 0 {
		a.adx = dx
	} else {
		a.adx = (a.adx*(p-1) + dx) / p
	}
	a.dxCount++
}

func (a *AverageDirectionalIndex) Ready() bool {
	return a.dxCount > 0
}

func (a *AverageDirectionalIndex) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.adx
}

// DI returns the latest +DI and -DI.
func (a *AverageDirectionalIndex) DI() (plus, minus float64) {
	return a.plusDI, a.minusDI
}
