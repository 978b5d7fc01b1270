package risk

import (
	"fmt"
	"math"

	"github.com/TruWeaveTrader/statarb/internal/config"
	"github.com/TruWeaveTrader/statarb/internal/pairs"
)

// Manager runs sanity checks on backtest settings and intermediate results.
// Checks report problems; they never adjust the values they inspect.
type Manager struct {
	cfg *config.Config
}

// NewManager creates a new risk manager
func NewManager(cfg *config.Config) *Manager {
	return &Manager{cfg: cfg}
}

// CheckResult contains the result of a risk check
type CheckResult struct {
	Passed   bool
	Reason   string
	Warnings []string
}

// CheckParams validates the signal and backtest thresholds
func (m *Manager) CheckParams() CheckResult {
	return CheckParams(m.cfg.EntryZ, m.cfg.ExitZ, m.cfg.Cost, m.cfg.ZScoreWindow)
}

// CheckParams validates thresholds without a config
func CheckParams(entry, exit, cost float64, window int) CheckResult {
	if window < 2 {
		return CheckResult{
			Passed: false,
			Reason: fmt.Sprintf("Z-score window %d is below 2", window),
		}
	}
	if cost < 0 {
		return CheckResult{
			Passed: false,
			Reason: fmt.Sprintf("Transaction cost %.6f is negative", cost),
		}
	}

	result := CheckResult{Passed: true}
	if entry <= 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Entry threshold %.2f is not positive: every signal breaches it", entry))
	}
	if exit >= entry {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Exit threshold %.2f is not below entry %.2f: the exit band may never close a position cleanly", exit, entry))
	}
	if exit < 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Exit threshold %.2f is negative: positions never go flat", exit))
	}
	return result
}

// CheckSelection reports whether the scan produced a pair worth trading
func (m *Manager) CheckSelection(sel pairs.Selection) CheckResult {
	switch sel.Kind {
	case pairs.SelectionNone:
		return CheckResult{
			Passed: false,
			Reason: fmt.Sprintf("No pair had at least %d overlapping observations", m.cfg.MinObservations),
		}
	case pairs.SelectionBestEffort:
		best, _ := sel.Best()
		return CheckResult{
			Passed: true,
			Warnings: []string{fmt.Sprintf("No pair is cointegrated at p <= %.3f; best is %s with p = %.4f",
				m.cfg.PValueThreshold, best.Name(), best.PValue)},
		}
	}
	return CheckResult{Passed: true}
}

// CheckSpread checks that a spread is long enough to produce a signal and that
// the per-change cost is small next to its typical daily move
func (m *Manager) CheckSpread(spread []float64) CheckResult {
	if len(spread) <= m.cfg.ZScoreWindow {
		return CheckResult{
			Passed: false,
			Reason: fmt.Sprintf("Spread has %d points; the %d-day z-score needs more",
				len(spread), m.cfg.ZScoreWindow),
		}
	}

	var sum float64
	for i := 1; i < len(spread); i++ {
		sum += math.Abs(spread[i] - spread[i-1])
	}
	meanMove := sum / float64(len(spread)-1)

	result := CheckResult{Passed: true}
	if meanMove > 0 && m.cfg.Cost >= meanMove {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Cost per change %.6f is at least the mean daily spread move %.6f", m.cfg.Cost, meanMove))
	}
	return result
}
