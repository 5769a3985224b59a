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
)

// OptionsAPIOptions parameterise the options-chain snapshot client.
type OptionsAPIOptions struct {
	BaseURL   string
	APIKey    string
	PageLimit int
	Timeout   time.Duration
}

// OptionsAPI fetches live options-chain snapshots from the REST API and
// aggregates them into put/call ratios. The snapshot endpoint paginates via
// next_url cursors.
type OptionsAPI struct {
	opts    OptionsAPIOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewOptionsAPI constructs the snapshot client. The API key is required at
// construction time.
func NewOptionsAPI(opts OptionsAPIOptions, logger zerolog.Logger) (*OptionsAPI, error) {
	if opts.APIKey == "" {
		return nil, errors.New("optionsapi: api key required")
	}
	if opts.PageLimit <= 0 || opts.PageLimit > 250 {
		opts.PageLimit = 250
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.massive.com"
	}

	return &OptionsAPI{
		opts:    opts,
		logger:  logger.With().Str("component", "optionsapi_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}, nil
}

type chainSnapshotPage struct {
	Status  string `json:"status"`
	Results []struct {
		Details struct {
			ContractType string `json:"contract_type"`
			Ticker       string `json:"ticker"`
		} `json:"details"`
		Day struct {
			Volume int64 `json:"volume"`
		} `json:"day"`
		OpenInterest int64 `json:"open_interest"`
	} `json:"results"`
	NextURL string `json:"next_url"`
}

// FetchPutCallRatio walks the full chain snapshot for an underlying and sums
// put and call volume and open interest across all pages.
func (o *OptionsAPI) FetchPutCallRatio(ctx context.Context, underlying string) (PutCallRatio, error) {
	if underlying == "" {
		return PutCallRatio{}, errors.New("optionsapi: underlying required")
	}

	endpoint := fmt.Sprintf("%s/v3/snapshot/options/%s?limit=%d",
		o.baseURL, url.PathEscape(strings.ToUpper(underlying)), o.opts.PageLimit)

	ratio := PutCallRatio{Underlying: strings.ToUpper(underlying), AsOf: time.Now().UTC()}
	pages := 0

	for endpoint != "" {
		page, err := o.fetchPage(ctx, endpoint)
		if err != nil {
			return PutCallRatio{}, err
		}
		pages++

		for _, contract := range page.Results {
			switch strings.ToLower(contract.Details.ContractType) {
			case "put":
				ratio.PutVolume += contract.Day.Volume
				ratio.PutOpenInterest += contract.OpenInterest
			case "call":
				ratio.CallVolume += contract.Day.Volume
				ratio.CallOpenInterest += contract.OpenInterest
			default:
				continue
			}
			ratio.Contracts++
		}

		endpoint = page.NextURL
	}

	if ratio.Contracts == 0 {
		return PutCallRatio{}, fmt.Errorf("optionsapi: no contracts in snapshot for %s", underlying)
	}

	ratio.VolumeRatio = ratioOf(ratio.PutVolume, ratio.CallVolume)
	ratio.OIRatio = ratioOf(ratio.PutOpenInterest, ratio.CallOpenInterest)

	o.logger.Debug().Str("underlying", ratio.Underlying).
		Int("contracts", ratio.Contracts).
		Int("pages", pages).
		Msg("fetched chain snapshot")
	return ratio, nil
}

func (o *OptionsAPI) fetchPage(ctx context.Context, endpoint string) (chainSnapshotPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return chainSnapshotPage{}, err
	}
	req.Header.Set("Authorization", "Bearer "+o.opts.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return chainSnapshotPage{}, fmt.Errorf("optionsapi fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return chainSnapshotPage{}, fmt.Errorf("optionsapi read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return chainSnapshotPage{}, fmt.Errorf("optionsapi: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page chainSnapshotPage
	if err := json.Unmarshal(body, &page); err != nil {
		return chainSnapshotPage{}, fmt.Errorf("optionsapi decode: %w", err)
	}
	if page.Status != "" && !strings.EqualFold(page.Status, "ok") {
		return chainSnapshotPage{}, fmt.Errorf("optionsapi: status %q", page.Status)
	}
	return page, nil
}

var _ OptionsChainFetcher = (*OptionsAPI)(nil)
