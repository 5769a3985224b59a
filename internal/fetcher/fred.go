package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"finance-metrics/internal/timeseries"
)

const fredObservationsPath = "/fred/series/observations"

// FREDOptions parameterise the economic-series fetcher.
type FREDOptions struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// FRED fetches observation series from the St. Louis Fed FRED API.
type FRED struct {
	opts    FREDOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewFRED constructs an economic-series fetcher. The API key is mandatory.
func NewFRED(opts FREDOptions, logger zerolog.Logger) (*FRED, error) {
	if opts.APIKey == "" {
		return nil, errors.New("fred api key required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.stlouisfed.org"
	}

	return &FRED{
		opts:    opts,
		logger:  logger.With().Str("component", "fred_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}, nil
}

// fredObservations is the response structure from the observations endpoint.
// Values arrive as strings; FRED emits "." for gaps in a series.
type fredObservations struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// FetchSeries retrieves the observations of one FRED series for [from, to).
func (f *FRED) FetchSeries(ctx context.Context, seriesID string, from, to time.Time) (timeseries.Series, error) {
	if seriesID == "" {
		return timeseries.Series{}, errors.New("series id required")
	}
	if !from.Before(to) {
		return timeseries.Series{}, errors.New("from must be before to")
	}

	query := url.Values{}
	query.Set("series_id", seriesID)
	query.Set("api_key", f.opts.APIKey)
	query.Set("file_type", "json")
	query.Set("observation_start", from.UTC().Format("2006-01-02"))
	query.Set("observation_end", to.UTC().Format("2006-01-02"))

	endpoint := f.baseURL + fredObservationsPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return timeseries.Series{}, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("fred fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("fred read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return timeseries.Series{}, fmt.Errorf("fred: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload fredObservations
	if err := json.Unmarshal(body, &payload); err != nil {
		return timeseries.Series{}, fmt.Errorf("fred decode: %w", err)
	}
	if payload.ErrorCode != 0 {
		return timeseries.Series{}, fmt.Errorf("fred api error %d: %s", payload.ErrorCode, payload.ErrorMessage)
	}
	if len(payload.Observations) == 0 {
		return timeseries.Series{}, fmt.Errorf("fred: no observations returned for %s", seriesID)
	}

	points := make([]timeseries.Point, 0, len(payload.Observations))
	for _, obs := range payload.Observations {
		ts, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			return timeseries.Series{}, fmt.Errorf("fred: bad observation date %q: %w", obs.Date, err)
		}

		value := timeseries.Missing
		if obs.Value != "" && obs.Value != "." {
			value, err = strconv.ParseFloat(obs.Value, 64)
			if err != nil {
				return timeseries.Series{}, fmt.Errorf("fred: bad observation value %q: %w", obs.Value, err)
			}
		}
		points = append(points, timeseries.Point{Time: ts, Value: value})
	}

	series, err := timeseries.New(points)
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("fred: %w", err)
	}

	f.logger.Debug().Str("series", seriesID).Int("points", series.Len()).Msg("fetched observations")
	return series, nil
}

var _ EconomicSeriesFetcher = (*FRED)(nil)
