// ABOUTME: HTTP client for the external market data source (Yahoo Finance chart API).
// ABOUTME: Fetches daily candles for a symbol/period; unknown symbols map to ErrNoData.

package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoData is returned when the source has no candles for a symbol/period.
var ErrNoData = errors.New("no data for symbol")

// Candle is one daily price bar. Field names follow the data source's
// column names, which the frontend charts consume as-is.
type Candle struct {
	Date   string  `json:"Date"`
	Open   float64 `json:"Open"`
	High   float64 `json:"High"`
	Low    float64 `json:"Low"`
	Close  float64 `json:"Close"`
	Volume int64   `json:"Volume"`
}

// History is the full answer for one symbol/period lookup.
type History struct {
	Symbol string   `json:"symbol"`
	Period string   `json:"period"`
	Data   []Candle `json:"data"`
}

// validPeriods are the range values the chart API accepts.
var validPeriods = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

// ValidPeriod reports whether period is an accepted range value.
func ValidPeriod(period string) bool {
	return validPeriods[period]
}

// Client talks to the chart API. BaseURL is configurable so tests can point
// it at a local server.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a market data client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "marketdata"),
	}
}

// chartResponse mirrors the slice of the chart API payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches daily candles for symbol over period.
func (c *Client) History(ctx context.Context, symbol, period string) (*History, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(period))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "finsight-gateway")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching chart data: %w", err)
	}
	defer resp.Body.Close()

	// The source answers 404 for unknown symbols
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart API status %d", resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding chart data: %w", err)
	}

	if payload.Chart.Error != nil {
		c.logger.Debug("chart API error",
			"symbol", symbol,
			"code", payload.Chart.Error.Code)
		return nil, ErrNoData
	}
	if len(payload.Chart.Result) == 0 {
		return nil, ErrNoData
	}

	result := payload.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, ErrNoData
	}
	quote := result.Indicators.Quote[0]

	candles := make([]Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Rows with missing OHLC values (halts, partial sessions) are skipped
		if i >= len(quote.Open) || quote.Open[i] == nil ||
			i >= len(quote.High) || quote.High[i] == nil ||
			i >= len(quote.Low) || quote.Low[i] == nil ||
			i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		var volume int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}
		candles = append(candles, Candle{
			Date:   time.Unix(ts, 0).UTC().Format(time.RFC3339),
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: volume,
		})
	}

	if len(candles) == 0 {
		return nil, ErrNoData
	}

	return &History{
		Symbol: strings.ToUpper(symbol),
		Period: period,
		Data:   candles,
	}, nil
}
