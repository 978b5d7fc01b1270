package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/TruWeaveTrader/statarb/internal/config"
	"github.com/TruWeaveTrader/statarb/internal/models"
)

// maxPageSize is the largest page the bars endpoint returns
const maxPageSize = 10000

// maxPages stops a misbehaving server from paginating forever
const maxPages = 1000

// Client is a thin wrapper around the Alpaca market data REST API
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	dataURL    string
}

// NewClient creates a new Alpaca client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		dataURL: cfg.AlpacaDataURL,
	}
}

// doRequest performs a GET request with auth headers
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("APCA-API-KEY-ID", c.cfg.AlpacaKeyID)
	req.Header.Set("APCA-API-SECRET-KEY", c.cfg.AlpacaSecretKey)
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// parseResponse reads and unmarshals the response
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(target)
}

type barsPage struct {
	Bars          []*models.Bar `json:"bars"`
	Symbol        string        `json:"symbol"`
	NextPageToken *string       `json:"next_page_token"`
}

// GetDailyBars retrieves split and dividend adjusted daily bars for symbol over
// [start, end], following next_page_token until the range is exhausted.
func (c *Client) GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]*models.Bar, error) {
	params := url.Values{}
	params.Set("timeframe", "1Day")
	params.Set("adjustment", "all")
	params.Set("limit", strconv.Itoa(maxPageSize))
	if c.cfg.AlpacaFeed != "" {
		params.Set("feed", c.cfg.AlpacaFeed)
	}
	if !start.IsZero() {
		params.Set("start", start.UTC().Format(time.RFC3339))
	}
	if !end.IsZero() {
		// end is a calendar day and inclusive
		params.Set("end", models.TruncateDay(end).Add(24*time.Hour-time.Second).Format(time.RFC3339))
	}

	var bars []*models.Bar
	for page := 0; page < maxPages; page++ {
		endpoint := fmt.Sprintf("%s/v2/stocks/%s/bars?%s", c.dataURL, url.PathEscape(symbol), params.Encode())
		resp, err := c.doRequest(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("get bars %s: %w", symbol, err)
		}

		var result barsPage
		if err := parseResponse(resp, &result); err != nil {
			return nil, fmt.Errorf("get bars %s: %w", symbol, err)
		}
		for _, bar := range result.Bars {
			if bar == nil {
				continue
			}
			bar.Symbol = symbol
			bars = append(bars, bar)
		}

		if result.NextPageToken == nil || *result.NextPageToken == "" {
			return bars, nil
		}
		params.Set("page_token", *result.NextPageToken)
	}
	return nil, fmt.Errorf("get bars %s: more than %d pages", symbol, maxPages)
}
