// Package backtest simulates a single-pair spread strategy driven by a z-score
// signal and produces its daily P&L.
package backtest

import (
	"fmt"
)

// Params holds the thresholds and cost of a backtest
type Params struct {
	Entry float64 `json:"entry_z"`
	Exit  float64 `json:"exit_z"`
	Cost  float64 `json:"cost"`
}

// DefaultParams returns entry 2.0, exit 0.5 and a cost of 5bp per change
func DefaultParams() Params {
	return Params{Entry: 2.0, Exit: 0.5, Cost: 0.0005}
}

// Result is the outcome of a backtest. Returns[i] and Positions[i] refer to
// spread index i+1.
type Result struct {
	Returns   []float64  `json:"returns"`
	Positions []Position `json:"positions"`
	Trades    int        `json:"trades"`
	Exposure  float64    `json:"exposure"`
}

// Run walks the spread from its second point. At each step the position is
// updated from the z-score and P&L is position*(spread[i]-spread[i-1]), less
// Cost whenever the position changed.
func Run(spread, z []float64, p Params) (Result, error) {
	if len(spread) != len(z) {
		return Result{}, fmt.Errorf("backtest: spread has %d points, z-score has %d", len(spread), len(z))
	}
	if len(spread) < 2 {
		return Result{}, nil
	}

	res := Result{
		Returns:   make([]float64, 0, len(spread)-1),
		Positions: make([]Position, 0, len(spread)-1),
	}
	pos := Flat
	inMarket := 0
	for i := 1; i < len(spread); i++ {
		next := Next(pos, z[i], p.Entry, p.Exit)
		pnl := float64(next) * (spread[i] - spread[i-1])
		if next != pos {
			pnl -= p.Cost
			res.Trades++
		}
		if next != Flat {
			inMarket++
		}
		res.Returns = append(res.Returns, pnl)
		res.Positions = append(res.Positions, next)
		pos = next
	}
	res.Exposure = float64(inMarket) / float64(len(res.Positions))
	return res, nil
}
