package market

import (
	"fmt"
	"strings"
)

// Direction is the side of a signal, order or position. None is the zero
// value and means "no signal".
type Direction int

const (
	None Direction = iota
	Long
	Short
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "NONE"
	}
}

// Opposite returns the hedge side of d. None stays None.
func (d Direction) Opposite() Direction {
	switch d {
	case Long:
		return Short
	case Short:
		return Long
	default:
		return None
	}
}

// ParseDirection accepts LONG/SHORT and the terminal's BUY/SELL.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return Long, nil
	case "SHORT", "SELL":
		return Short, nil
	default:
		return None, fmt.Errorf("unknown direction %q", s)
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	if len(b) == 0 || strings.EqualFold(string(b), "NONE") {
		*d = None
		return nil
	}
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
