// Package pairs screens a universe of instruments for cointegrated pairs.
package pairs

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TruWeaveTrader/statarb/internal/models"
	"github.com/TruWeaveTrader/statarb/internal/stats"
)

// Options control a pair scan
type Options struct {
	PValueThreshold float64
	MinObservations int
	Workers         int
	// Timeout bounds the whole scan. Zero means no limit.
	Timeout time.Duration
}

// DefaultOptions returns a 0.05 threshold and a two-year (504 day) overlap floor
func DefaultOptions() Options {
	return Options{
		PValueThreshold: 0.05,
		MinObservations: 504,
		Workers:         DefaultWorkers(),
	}
}

// DefaultWorkers is the CPU count capped at 8
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Selector runs the pairwise cointegration scan
type Selector struct {
	opts   Options
	logger *zap.Logger
}

// NewSelector creates a selector. A nil logger is replaced by a no-op logger.
func NewSelector(opts Options, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers()
	}
	return &Selector{
		opts:   opts,
		logger: logger.With(zap.String("component", "pair_selector")),
	}
}

type job struct {
	index int
	a, b  string
}

type outcome struct {
	pair    models.CandidatePair
	ok      bool
	skipped string
}

// Find tests every unordered pair of symbols in the table. Pairs with too few
// overlapping observations, or whose test fails, are skipped. The surviving
// pairs are ranked by p-value with ties kept in enumeration order.
func (s *Selector) Find(ctx context.Context, table *models.PriceTable) (Selection, error) {
	if table == nil {
		return Selection{Kind: SelectionNone}, nil
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	jobs := enumerate(table.Symbols)
	results := make([]outcome, len(jobs))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[j.index] = s.evaluate(table, j)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Selection{}, fmt.Errorf("pair scan interrupted: %w", err)
	}

	evaluated := make([]models.CandidatePair, 0, len(results))
	skipped := 0
	for i, r := range results {
		if !r.ok {
			skipped++
			s.logger.Debug("pair skipped",
				zap.String("a", jobs[i].a),
				zap.String("b", jobs[i].b),
				zap.String("reason", r.skipped))
			continue
		}
		evaluated = append(evaluated, r.pair)
	}
	sort.SliceStable(evaluated, func(i, j int) bool {
		return evaluated[i].PValue < evaluated[j].PValue
	})

	sel := classify(evaluated, s.opts.PValueThreshold)
	sel.Evaluated = len(evaluated)
	sel.Skipped = skipped

	s.logger.Info("pair scan complete",
		zap.Int("symbols", len(table.Symbols)),
		zap.Int("pairs", len(jobs)),
		zap.Int("evaluated", sel.Evaluated),
		zap.Int("skipped", sel.Skipped),
		zap.String("outcome", sel.Kind.String()),
		zap.Duration("elapsed", time.Since(start)))

	return sel, nil
}

func (s *Selector) evaluate(table *models.PriceTable, j job) outcome {
	_, a, b := table.Align(j.a, j.b)
	if len(a) < s.opts.MinObservations {
		return outcome{skipped: fmt.Sprintf("overlap %d below %d", len(a), s.opts.MinObservations)}
	}
	res, err := stats.Coint(a, b)
	if err != nil {
		return outcome{skipped: err.Error()}
	}
	return outcome{
		ok: true,
		pair: models.CandidatePair{
			A:            j.a,
			B:            j.b,
			PValue:       res.PValue,
			Statistic:    res.Statistic,
			Observations: res.NObs,
		},
	}
}

func enumerate(symbols []string) []job {
	var jobs []job
	for i := 0; i < len(symbols); i++ {
		for k := i + 1; k < len(symbols); k++ {
			jobs = append(jobs, job{index: len(jobs), a: symbols[i], b: symbols[k]})
		}
	}
	return jobs
}
