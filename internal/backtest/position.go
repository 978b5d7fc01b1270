package backtest

import "math"

// Position is the number of spread units held
type Position int

const (
	Short Position = -1
	Flat  Position = 0
	Long  Position = 1
)

func (p Position) String() string {
	switch p {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// Next returns the position held after observing z. Entry breaches are checked
// before the exit band; a NaN z or a z between the bands keeps prev.
func Next(prev Position, z, entry, exit float64) Position {
	switch {
	case math.IsNaN(z):
		return prev
	case z > entry:
		return Short
	case z < -entry:
		return Long
	case math.Abs(z) < exit:
		return Flat
	default:
		return prev
	}
}
