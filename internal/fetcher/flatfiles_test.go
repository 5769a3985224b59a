package fetcher

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"
	"time"
)

func gzipCSV(t *testing.T, lines ...string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(strings.Join(lines, "\n"))); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return &buf
}

func TestResolveOptionsSchemaDayAggs(t *testing.T) {
	schema, err := resolveOptionsSchema([]string{"ticker", "underlying_symbol", "contract_type", "volume", "open", "close"})
	if err != nil {
		t.Fatalf("resolveOptionsSchema: %v", err)
	}
	if schema.variant != "day_aggs" {
		t.Errorf("expected day_aggs variant, got %s", schema.variant)
	}
	if schema.underlyingCol != 1 || schema.typeCol != 2 || schema.volumeCol != 3 {
		t.Errorf("unexpected columns %+v", schema)
	}
}

func TestResolveOptionsSchemaTrades(t *testing.T) {
	schema, err := resolveOptionsSchema([]string{"underlying_symbol", "contract_type", "price", "size"})
	if err != nil {
		t.Fatalf("resolveOptionsSchema: %v", err)
	}
	if schema.variant != "trades" {
		t.Errorf("expected trades variant, got %s", schema.variant)
	}
	if schema.volumeCol != 3 {
		t.Errorf("expected size column 3, got %d", schema.volumeCol)
	}
}

func TestResolveOptionsSchemaUnknown(t *testing.T) {
	if _, err := resolveOptionsSchema([]string{"ticker", "open", "close"}); err == nil {
		t.Fatal("expected error for unrecognized header")
	}
	if _, err := resolveOptionsSchema([]string{"underlying_symbol", "contract_type", "vwap"}); err == nil {
		t.Fatal("expected error when neither volume nor size present")
	}
}

func TestSumPutCall(t *testing.T) {
	f := &FlatFiles{logger: noopLogger()}
	body := gzipCSV(t,
		"underlying_symbol,contract_type,volume",
		"SPY,call,1200",
		"SPY,put,900",
		"SPY,put,600",
		"QQQ,put,5000",
	)

	ratio, err := f.sumPutCall(body, "SPY")
	if err != nil {
		t.Fatalf("sumPutCall: %v", err)
	}
	if ratio.PutVolume != 1500 || ratio.CallVolume != 1200 {
		t.Errorf("unexpected volumes put=%d call=%d", ratio.PutVolume, ratio.CallVolume)
	}
	if ratio.Contracts != 3 {
		t.Errorf("expected 3 SPY contracts, got %d", ratio.Contracts)
	}
	if ratio.VolumeRatio == nil || ratio.VolumeRatio.StringFixed(2) != "1.25" {
		t.Errorf("expected ratio 1.25, got %v", ratio.VolumeRatio)
	}
}

func TestSumPutCallTradesLayout(t *testing.T) {
	f := &FlatFiles{logger: noopLogger()}
	body := gzipCSV(t,
		"underlying_symbol,contract_type,price,size",
		"SPY,P,4.20,10",
		"SPY,C,1.10,25",
	)

	ratio, err := f.sumPutCall(body, "")
	if err != nil {
		t.Fatalf("sumPutCall: %v", err)
	}
	if ratio.PutVolume != 10 || ratio.CallVolume != 25 {
		t.Errorf("unexpected volumes put=%d call=%d", ratio.PutVolume, ratio.CallVolume)
	}
}

func TestSumPutCallNoMatches(t *testing.T) {
	f := &FlatFiles{logger: noopLogger()}
	body := gzipCSV(t,
		"underlying_symbol,contract_type,volume",
		"QQQ,call,100",
	)
	if _, err := f.sumPutCall(body, "SPY"); err == nil {
		t.Fatal("expected error when no contracts match underlying")
	}
}

func TestSumPutCallZeroCallVolume(t *testing.T) {
	f := &FlatFiles{logger: noopLogger()}
	body := gzipCSV(t,
		"underlying_symbol,contract_type,volume",
		"SPY,put,900",
	)
	ratio, err := f.sumPutCall(body, "SPY")
	if err != nil {
		t.Fatalf("sumPutCall: %v", err)
	}
	if ratio.VolumeRatio != nil {
		t.Errorf("expected nil ratio for zero call volume, got %v", ratio.VolumeRatio)
	}
}

func TestDayAggsKey(t *testing.T) {
	f := &FlatFiles{opts: FlatFilesOptions{DayAggsPrefix: "us_options_opra/day_aggs_v1"}}
	key := f.dayAggsKey(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC))
	want := "us_options_opra/day_aggs_v1/2024/03/2024-03-07.csv.gz"
	if key != want {
		t.Errorf("expected %s, got %s", want, key)
	}
}

func TestParseVolume(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"125", 125},
		{"125.0", 125},
		{"", 0},
		{" 42 ", 42},
	}
	for _, tc := range cases {
		got, err := parseVolume(tc.in)
		if err != nil {
			t.Errorf("parseVolume(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseVolume(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if _, err := parseVolume("abc"); err == nil {
		t.Error("expected error for non-numeric volume")
	}
}

func TestNewFlatFilesRequiresCredentials(t *testing.T) {
	if _, err := NewFlatFiles(FlatFilesOptions{Bucket: "flatfiles"}, noopLogger()); err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if _, err := NewFlatFiles(FlatFilesOptions{AccessKeyID: "id", SecretAccessKey: "secret"}, noopLogger()); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}
