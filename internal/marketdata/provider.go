// Package marketdata supplies price tables for the analysis pipeline.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TruWeaveTrader/statarb/internal/models"
)

// Provider loads adjusted daily closes for symbols over an inclusive date
// range. Missing values are NaN cells, never dropped rows. A provider with no
// usable data returns models.ErrInsufficientData.
type Provider interface {
	Prices(ctx context.Context, symbols []string, start, end time.Time) (*models.PriceTable, error)
}

// FilterCoverage drops instruments observed on fewer than minCoverage times the
// dates of the best-covered instrument. It fails with ErrInsufficientData when
// fewer than two instruments remain.
func FilterCoverage(table *models.PriceTable, minCoverage float64) (*models.PriceTable, []string, error) {
	if table == nil {
		return nil, nil, models.ErrInsufficientData
	}
	best := 0
	for _, sym := range table.Symbols {
		if n := table.Observed(sym); n > best {
			best = n
		}
	}
	if best == 0 {
		return nil, nil, fmt.Errorf("no observations for %v: %w", table.Symbols, models.ErrInsufficientData)
	}

	floor := minCoverage * float64(best)
	var kept, dropped []string
	for _, sym := range table.Symbols {
		n := table.Observed(sym)
		if n == 0 || float64(n) < floor {
			dropped = append(dropped, sym)
			continue
		}
		kept = append(kept, sym)
	}
	if len(kept) < 2 {
		return nil, dropped, fmt.Errorf("%d instrument(s) with sufficient coverage: %w", len(kept), models.ErrInsufficientData)
	}
	if len(dropped) == 0 {
		return table, nil, nil
	}
	return table.Select(kept), dropped, nil
}

func checkUsable(table *models.PriceTable, logger *zap.Logger) error {
	var missing []string
	for _, sym := range table.Symbols {
		if table.Observed(sym) == 0 {
			missing = append(missing, sym)
		}
	}
	if len(missing) > 0 {
		logger.Warn("no data returned for symbols", zap.Strings("symbols", missing))
	}
	if table.Len() == 0 {
		return fmt.Errorf("no prices for %v: %w", table.Symbols, models.ErrInsufficientData)
	}
	return nil
}
