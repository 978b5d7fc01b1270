package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TruWeaveTrader/statarb/internal/models"
)

// CSVProvider reads a wide price file: a date column followed by one close
// column per symbol. Empty, NaN, NA and null cells are missing values.
type CSVProvider struct {
	path   string
	logger *zap.Logger
}

// NewCSVProvider creates a provider for the file at path
func NewCSVProvider(path string, logger *zap.Logger) *CSVProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVProvider{
		path:   path,
		logger: logger.With(zap.String("component", "csv_provider")),
	}
}

// Prices loads the requested symbols, or every column when symbols is empty,
// keeping rows with start <= date <= end.
func (p *CSVProvider) Prices(ctx context.Context, symbols []string, start, end time.Time) (*models.PriceTable, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()

	return ReadCSV(ctx, f, symbols, start, end, p.logger)
}

// ReadCSV parses a wide price file from r
func ReadCSV(ctx context.Context, r io.Reader, symbols []string, start, end time.Time, logger *zap.Logger) (*models.PriceTable, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty price file: %w", models.ErrInsufficientData)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("price file needs a date column and at least one symbol column")
	}

	columns := make(map[string]int, len(header)-1)
	var fileSymbols []string
	for i, name := range header[1:] {
		sym := strings.ToUpper(strings.TrimSpace(name))
		if sym == "" {
			continue
		}
		if _, dup := columns[sym]; dup {
			return nil, fmt.Errorf("duplicate column %q", sym)
		}
		columns[sym] = i + 1
		fileSymbols = append(fileSymbols, sym)
	}
	if len(symbols) == 0 {
		symbols = fileSymbols
	}

	data := make(map[string][]models.Observation, len(symbols))
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := parseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if (!start.IsZero() && date.Before(models.TruncateDay(start))) ||
			(!end.IsZero() && date.After(models.TruncateDay(end))) {
			continue
		}

		for _, sym := range symbols {
			idx, ok := columns[sym]
			if !ok || idx >= len(record) {
				continue
			}
			price, ok, err := parsePrice(record[idx])
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, sym, err)
			}
			if ok {
				data[sym] = append(data[sym], models.Observation{Date: date, Price: price})
			}
		}
	}

	table := models.NewPriceTable(symbols, data)
	if err := checkUsable(table, logger); err != nil {
		return nil, err
	}
	return table, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return models.TruncateDay(t), nil
}

func parsePrice(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na", "null":
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid price %q", s)
	}
	return v, true, nil
}
