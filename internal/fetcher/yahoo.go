package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"finance-metrics/internal/timeseries"
)

const yahooChartPath = "/v8/finance/chart/"

// YahooOptions parameterise the chart-API fetcher.
type YahooOptions struct {
	BaseURL   string
	ProxyURL  string
	Timeout   time.Duration
	UserAgent string
}

// Yahoo fetches daily bars from the Yahoo Finance chart API.
type Yahoo struct {
	opts    YahooOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewYahoo constructs a chart-API fetcher.
func NewYahoo(opts YahooOptions, logger zerolog.Logger) *Yahoo {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}

	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	return &Yahoo{
		opts:    opts,
		logger:  logger.With().Str("component", "yahoo_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout, Transport: transport},
		baseURL: baseURL,
	}
}

// yahooChart is the response structure from the chart API. Close values are
// decoded as pointers because the API emits JSON null for holiday gaps.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDailyCloses retrieves the daily close series for [from, to).
func (y *Yahoo) FetchDailyCloses(ctx context.Context, symbol string, from, to time.Time) (timeseries.Series, error) {
	if symbol == "" {
		return timeseries.Series{}, errors.New("symbol required")
	}
	if !from.Before(to) {
		return timeseries.Series{}, errors.New("from must be before to")
	}

	endpoint := fmt.Sprintf("%s%s%s?interval=1d&period1=%d&period2=%d",
		y.baseURL, yahooChartPath, url.PathEscape(symbol), from.Unix(), to.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return timeseries.Series{}, err
	}
	if ua := strings.TrimSpace(y.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "Mozilla/5.0")
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return timeseries.Series{}, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return timeseries.Series{}, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return timeseries.Series{}, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return timeseries.Series{}, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return timeseries.Series{}, fmt.Errorf("yahoo: no quote data for %s", symbol)
	}
	closes := result.Indicators.Quote[0].Close
	if len(closes) != len(result.Timestamp) {
		return timeseries.Series{}, fmt.Errorf("yahoo: %d timestamps but %d closes", len(result.Timestamp), len(closes))
	}

	points := make([]timeseries.Point, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		value := timeseries.Missing
		if closes[i] != nil {
			value = *closes[i]
		}
		points = append(points, timeseries.Point{Time: time.Unix(ts, 0).UTC(), Value: value})
	}

	series, err := timeseries.New(points)
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("yahoo: %w", err)
	}

	y.logger.Debug().Str("symbol", symbol).Int("points", series.Len()).Msg("fetched daily closes")
	return series, nil
}

var _ BarFetcher = (*Yahoo)(nil)
