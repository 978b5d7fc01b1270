package models

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInsufficientData is returned when the price source has no usable data for the
// requested universe, or fewer than two instruments carry a valid series.
var ErrInsufficientData = errors.New("insufficient price data")

// DateLayout is the calendar format used for every date on the analysis axis
const DateLayout = "2006-01-02"

// Bar represents an OHLCV bar
type Bar struct {
	Symbol     string          `json:"symbol"`
	Open       decimal.Decimal `json:"o"`
	High       decimal.Decimal `json:"h"`
	Low        decimal.Decimal `json:"l"`
	Close      decimal.Decimal `json:"c"`
	Volume     int64           `json:"v"`
	Timestamp  time.Time       `json:"t"`
	TradeCount int64           `json:"n"`
	VWAP       decimal.Decimal `json:"vw"`
}

// Observation is a single dated price
type Observation struct {
	Date  time.Time
	Price float64
}

// ObservationsFromBars converts daily bars into close-price observations
func ObservationsFromBars(bars []*Bar) []Observation {
	obs := make([]Observation, 0, len(bars))
	for _, bar := range bars {
		if bar == nil {
			continue
		}
		obs = append(obs, Observation{
			Date:  TruncateDay(bar.Timestamp),
			Price: bar.Close.InexactFloat64(),
		})
	}
	return obs
}

// TruncateDay maps a timestamp onto its UTC calendar day
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PriceTable holds one price column per instrument on a shared ascending date axis.
// Missing values are NaN. A table is not modified after construction.
type PriceTable struct {
	Dates   []time.Time
	Symbols []string
	columns map[string][]float64
}

// NewPriceTable builds a table from per-symbol observations. The date axis is the
// union of all observed dates; rows where every symbol is missing never appear.
// Symbol order follows the order given in symbols; symbols absent from data get an
// all-NaN column.
func NewPriceTable(symbols []string, data map[string][]Observation) *PriceTable {
	dateSet := make(map[time.Time]struct{})
	for _, sym := range symbols {
		for _, o := range data[sym] {
			if isMissing(o.Price) {
				continue
			}
			dateSet[TruncateDay(o.Date)] = struct{}{}
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	table := &PriceTable{
		Dates:   dates,
		Symbols: make([]string, 0, len(symbols)),
		columns: make(map[string][]float64, len(symbols)),
	}
	for _, sym := range symbols {
		if _, dup := table.columns[sym]; dup {
			continue
		}
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = math.NaN()
		}
		for _, o := range data[sym] {
			if isMissing(o.Price) {
				continue
			}
			col[index[TruncateDay(o.Date)]] = o.Price
		}
		table.Symbols = append(table.Symbols, sym)
		table.columns[sym] = col
	}
	return table
}

// Column returns the price column for a symbol
func (t *PriceTable) Column(symbol string) ([]float64, bool) {
	col, ok := t.columns[symbol]
	return col, ok
}

// Len returns the number of dates on the axis
func (t *PriceTable) Len() int {
	return len(t.Dates)
}

// Observed counts the non-missing values for a symbol
func (t *PriceTable) Observed(symbol string) int {
	n := 0
	for _, v := range t.columns[symbol] {
		if !isMissing(v) {
			n++
		}
	}
	return n
}

// Select returns a table restricted to the given symbols, dropping rows that
// become entirely missing.
func (t *PriceTable) Select(symbols []string) *PriceTable {
	data := make(map[string][]Observation, len(symbols))
	for _, sym := range symbols {
		data[sym] = t.observations(sym)
	}
	return NewPriceTable(symbols, data)
}

// Slice returns the rows with from <= date < to. A zero bound is open.
func (t *PriceTable) Slice(from, to time.Time) *PriceTable {
	data := make(map[string][]Observation, len(t.Symbols))
	for _, sym := range t.Symbols {
		obs := t.observations(sym)
		kept := obs[:0:0]
		for _, o := range obs {
			if !from.IsZero() && o.Date.Before(from) {
				continue
			}
			if !to.IsZero() && !o.Date.Before(to) {
				continue
			}
			kept = append(kept, o)
		}
		data[sym] = kept
	}
	return NewPriceTable(t.Symbols, data)
}

// Align inner-joins two columns on the date axis, keeping only dates where both
// instruments have a value.
func (t *PriceTable) Align(a, b string) (dates []time.Time, seriesA, seriesB []float64) {
	colA, okA := t.columns[a]
	colB, okB := t.columns[b]
	if !okA || !okB {
		return nil, nil, nil
	}
	for i, d := range t.Dates {
		if isMissing(colA[i]) || isMissing(colB[i]) {
			continue
		}
		dates = append(dates, d)
		seriesA = append(seriesA, colA[i])
		seriesB = append(seriesB, colB[i])
	}
	return dates, seriesA, seriesB
}

func (t *PriceTable) observations(symbol string) []Observation {
	col := t.columns[symbol]
	obs := make([]Observation, 0, len(col))
	for i, v := range col {
		if isMissing(v) {
			continue
		}
		obs = append(obs, Observation{Date: t.Dates[i], Price: v})
	}
	return obs
}

func isMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// Series is a sequence of values aligned to a date axis
type Series struct {
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Len returns the number of points
func (s Series) Len() int {
	return len(s.Values)
}

// Tail returns the last n points
func (s Series) Tail(n int) Series {
	if n >= len(s.Values) || n < 0 {
		return s
	}
	start := len(s.Values) - n
	out := Series{Values: s.Values[start:]}
	if len(s.Dates) == len(s.Values) {
		out.Dates = s.Dates[start:]
	}
	return out
}

// CandidatePair is an evaluated pair of instruments. The order of A and B is the
// order the pair was tested in.
type CandidatePair struct {
	A            string  `json:"a"`
	B            string  `json:"b"`
	PValue       float64 `json:"p_value"`
	Statistic    float64 `json:"statistic"`
	Observations int     `json:"observations"`
}

// Name returns the display name of the pair
func (p CandidatePair) Name() string {
	return p.A + "/" + p.B
}
