package market

// SymbolSpec carries the static trading properties a terminal reports for an
// instrument. StopsLevel and FreezeLevel are in points.
type SymbolSpec struct {
	Name            string
	Point           float64
	Digits          int
	VolumeMin       float64
	VolumeMax       float64
	VolumeStep      float64
	VolumePrecision int
	StopsLevel      int
	FreezeLevel     int
	ContractSize    float64
	TickValue       float64
	TickSize        float64
}

// StopsDistance is the minimum SL/TP distance in price units.
func (s SymbolSpec) StopsDistance() float64 {
	return float64(s.StopsLevel) * s.Point
}

// FreezeDistance is the freeze zone width in price units.
func (s SymbolSpec) FreezeDistance() float64 {
	return float64(s.FreezeLevel) * s.Point
}

// DollarsPerPriceUnit is the account-currency value of a one unit price move
// for one lot. Tick value/size is preferred; contract size times point is the
// fallback when either is missing.
func (s SymbolSpec) DollarsPerPriceUnit() float64 {
	if s.TickValue > 0 && s.TickSize > 0 {
		return s.TickValue / s.TickSize
	}
	return s.ContractSize * s.Point
}

// Symbols holds the specs the simulator knows about out of the box.
var Symbols = map[string]SymbolSpec{
	"XAUUSD": {
		Name:            "XAUUSD",
		Point:           0.001,
		Digits:          3,
		VolumeMin:       0.01,
		VolumeMax:       100,
		VolumeStep:      0.01,
		VolumePrecision: 2,
		StopsLevel:      50,
		FreezeLevel:     20,
		ContractSize:    100,
		TickValue:       0.1,
		TickSize:        0.001,
	},
	"EURUSD": {
		Name:            "EURUSD",
		Point:           0.00001,
		Digits:          5,
		VolumeMin:       0.01,
		VolumeMax:       50,
		VolumeStep:      0.01,
		VolumePrecision: 2,
		StopsLevel:      10,
		FreezeLevel:     5,
		ContractSize:    100000,
		TickValue:       1,
		TickSize:        0.00001,
	},
}
