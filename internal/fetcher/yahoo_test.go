package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"finance-metrics/internal/timeseries"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestYahooFetchDailyCloses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/QQQ" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("unexpected interval %s", r.URL.Query().Get("interval"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"chart": {
				"result": [{
					"timestamp": [1704240000, 1704326400, 1704412800],
					"indicators": {"quote": [{"close": [402.5, null, 405.25]}]}
				}],
				"error": null
			}
		}`))
	}))
	defer server.Close()

	y := NewYahoo(YahooOptions{BaseURL: server.URL}, noopLogger())
	series, err := y.FetchDailyCloses(context.Background(), "QQQ",
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchDailyCloses: %v", err)
	}

	if series.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", series.Len())
	}
	if series.At(0).Value != 402.5 {
		t.Errorf("point 0: expected 402.5, got %v", series.At(0).Value)
	}
	if !timeseries.IsMissing(series.At(1).Value) {
		t.Errorf("point 1: expected missing for null close, got %v", series.At(1).Value)
	}
	if series.At(2).Value != 405.25 {
		t.Errorf("point 2: expected 405.25, got %v", series.At(2).Value)
	}
}

func TestYahooFetchDailyClosesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`))
	}))
	defer server.Close()

	y := NewYahoo(YahooOptions{BaseURL: server.URL}, noopLogger())
	_, err := y.FetchDailyCloses(context.Background(), "NOPE",
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error for api error payload")
	}
}

func TestYahooFetchDailyClosesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	y := NewYahoo(YahooOptions{BaseURL: server.URL}, noopLogger())
	_, err := y.FetchDailyCloses(context.Background(), "QQQ",
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestYahooFetchDailyClosesValidation(t *testing.T) {
	y := NewYahoo(YahooOptions{}, noopLogger())

	if _, err := y.FetchDailyCloses(context.Background(), "", time.Unix(0, 0), time.Unix(1, 0)); err == nil {
		t.Error("expected error for empty symbol")
	}
	now := time.Now()
	if _, err := y.FetchDailyCloses(context.Background(), "QQQ", now, now); err == nil {
		t.Error("expected error for empty range")
	}
}
