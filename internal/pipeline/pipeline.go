// Package pipeline runs the end-to-end analysis: load prices, select a pair,
// build its spread and signal, backtest, and score the result.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TruWeaveTrader/statarb/internal/backtest"
	"github.com/TruWeaveTrader/statarb/internal/config"
	"github.com/TruWeaveTrader/statarb/internal/marketdata"
	"github.com/TruWeaveTrader/statarb/internal/metrics"
	"github.com/TruWeaveTrader/statarb/internal/models"
	"github.com/TruWeaveTrader/statarb/internal/pairs"
	"github.com/TruWeaveTrader/statarb/internal/risk"
	"github.com/TruWeaveTrader/statarb/internal/strategy"
)

// Pair names the two legs of an explicit pair, bypassing selection
type Pair struct {
	A string
	B string
}

// Result is everything a run produces
type Result struct {
	Selection  pairs.Selection
	Pair       models.CandidatePair
	Override   bool
	HedgeRatio float64
	Intercept  float64
	SplitDate  time.Time
	Dropped    []string
	Warnings   []string

	Spread        models.Series
	ZScore        models.Series
	Returns       models.Series
	CumulativePnL models.Series
	Equity        models.Series
	Backtest      backtest.Result
	Summary       metrics.Summary
}

// Runner wires a price provider to the analysis stages
type Runner struct {
	cfg      *config.Config
	provider marketdata.Provider
	selector *pairs.Selector
	risk     *risk.Manager
	logger   *zap.Logger
}

// NewRunner creates a runner from configuration
func NewRunner(cfg *config.Config, provider marketdata.Provider, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		provider: provider,
		selector: pairs.NewSelector(pairs.Options{
			PValueThreshold: cfg.PValueThreshold,
			MinObservations: cfg.MinObservations,
			Workers:         cfg.ScanWorkers,
			Timeout:         cfg.ScanTimeout,
		}, logger),
		risk:   risk.NewManager(cfg),
		logger: logger.With(zap.String("component", "pipeline")),
	}
}

// LoadPrices fetches the configured universe and drops sparsely covered
// instruments
func (r *Runner) LoadPrices(ctx context.Context) (*models.PriceTable, []string, error) {
	table, err := r.provider.Prices(ctx, r.cfg.Symbols, r.cfg.StartDate, r.cfg.EndDate)
	if err != nil {
		return nil, nil, fmt.Errorf("load prices: %w", err)
	}
	table, dropped, err := marketdata.FilterCoverage(table, r.cfg.MinCoverage)
	if err != nil {
		return nil, dropped, fmt.Errorf("coverage filter: %w", err)
	}
	if len(dropped) > 0 {
		r.logger.Warn("dropped sparsely covered instruments",
			zap.Strings("symbols", dropped),
			zap.Float64("min_coverage", r.cfg.MinCoverage))
	}
	return table, dropped, nil
}

// Scan loads prices and ranks pairs over the selection window. An empty
// selection is reported as models.ErrInsufficientData.
func (r *Runner) Scan(ctx context.Context) (pairs.Selection, []string, error) {
	table, dropped, err := r.LoadPrices(ctx)
	if err != nil {
		return pairs.Selection{}, dropped, err
	}
	sel, err := r.selector.Find(ctx, r.trainWindow(table))
	if err != nil {
		return pairs.Selection{}, dropped, err
	}
	if sel.IsEmpty() {
		return sel, dropped, fmt.Errorf("no pair has %d overlapping observations: %w",
			r.cfg.MinObservations, models.ErrInsufficientData)
	}
	return sel, dropped, nil
}

// Run executes the whole pipeline. With a non-nil override the given pair is
// traded without a scan.
func (r *Runner) Run(ctx context.Context, override *Pair) (*Result, error) {
	params := r.risk.CheckParams()
	if !params.Passed {
		return nil, fmt.Errorf("invalid parameters: %s", params.Reason)
	}

	table, dropped, err := r.LoadPrices(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{Dropped: dropped}
	r.warn(res, params.Warnings)

	train := r.trainWindow(table)
	if override != nil {
		for _, sym := range []string{override.A, override.B} {
			if _, ok := table.Column(sym); !ok {
				return nil, fmt.Errorf("pair leg %s has no usable prices: %w", sym, models.ErrInsufficientData)
			}
		}
		res.Override = true
		res.Pair = models.CandidatePair{A: override.A, B: override.B}
	} else {
		sel, err := r.selector.Find(ctx, train)
		if err != nil {
			return nil, err
		}
		res.Selection = sel
		selCheck := r.risk.CheckSelection(sel)
		if !selCheck.Passed {
			return nil, fmt.Errorf("%s: %w", selCheck.Reason, models.ErrInsufficientData)
		}
		r.warn(res, selCheck.Warnings)
		res.Pair, _ = sel.Best()
	}

	_, trainA, trainB := train.Align(res.Pair.A, res.Pair.B)
	fit, err := strategy.ComputeSpread(trainA, trainB)
	if err != nil {
		return nil, fmt.Errorf("spread %s: %w", res.Pair.Name(), err)
	}
	res.HedgeRatio = fit.HedgeRatio
	res.Intercept = fit.Intercept

	dates, a, b := table.Align(res.Pair.A, res.Pair.B)
	if r.cfg.HasSplit() {
		res.SplitDate = r.cfg.SplitDate
		dates, a, b = table.Slice(r.cfg.SplitDate, time.Time{}).Align(res.Pair.A, res.Pair.B)
	}
	spread, err := strategy.ApplyHedge(a, b, fit.HedgeRatio)
	if err != nil {
		return nil, fmt.Errorf("spread %s: %w", res.Pair.Name(), err)
	}
	check := r.risk.CheckSpread(spread)
	if !check.Passed {
		return nil, fmt.Errorf("spread %s: %s: %w", res.Pair.Name(), check.Reason, models.ErrInsufficientData)
	}
	r.warn(res, check.Warnings)

	z := strategy.ZScore(spread, r.cfg.ZScoreWindow)
	bt, err := backtest.Run(spread, z, backtest.Params{
		Entry: r.cfg.EntryZ,
		Exit:  r.cfg.ExitZ,
		Cost:  r.cfg.Cost,
	})
	if err != nil {
		return nil, err
	}

	convention, err := metrics.ParseEquityConvention(r.cfg.EquityConvention)
	if err != nil {
		return nil, err
	}

	res.Spread = models.Series{Dates: dates, Values: spread}
	res.ZScore = models.Series{Dates: dates, Values: z}
	res.Backtest = bt
	res.Returns = models.Series{Dates: dates[1:], Values: bt.Returns}
	res.CumulativePnL = models.Series{Dates: dates[1:], Values: metrics.CumulativePnL(bt.Returns)}
	res.Equity = models.Series{Dates: dates[1:], Values: metrics.EquityCurve(bt.Returns, convention)}
	res.Summary = metrics.Summarize(bt.Returns, convention)

	r.logger.Info("backtest complete",
		zap.String("pair", res.Pair.Name()),
		zap.Float64("hedge_ratio", res.HedgeRatio),
		zap.Bool("out_of_sample", r.cfg.HasSplit()),
		zap.Int("days", len(bt.Returns)),
		zap.Int("trades", bt.Trades),
		zap.Float64("sharpe", res.Summary.Sharpe),
		zap.Float64("max_drawdown", res.Summary.MaxDrawdown))

	return res, nil
}

// trainWindow is the part of the table used for selection and hedge fitting
func (r *Runner) trainWindow(table *models.PriceTable) *models.PriceTable {
	if !r.cfg.HasSplit() {
		return table
	}
	return table.Slice(time.Time{}, r.cfg.SplitDate)
}

func (r *Runner) warn(res *Result, warnings []string) {
	for _, w := range warnings {
		r.logger.Warn(w)
		res.Warnings = append(res.Warnings, w)
	}
}
