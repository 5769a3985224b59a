package fetcher

import (
	"fmt"
	"strconv"
	"strings"
)

// optionsSchema maps the columns this package needs out of a flat-file CSV.
// The store ships two layouts: day aggregates carry a "volume" column, tick
// trades carry "size". The variant is resolved once from the header and every
// record is then read positionally.
type optionsSchema struct {
	variant       string
	underlyingCol int
	typeCol       int
	volumeCol     int
}

func resolveOptionsSchema(header []string) (optionsSchema, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	underlying, ok := cols["underlying_symbol"]
	if !ok {
		if underlying, ok = cols["underlying"]; !ok {
			return optionsSchema{}, fmt.Errorf("schema: no underlying column in header %v", header)
		}
	}
	contractType, ok := cols["contract_type"]
	if !ok {
		if contractType, ok = cols["type"]; !ok {
			return optionsSchema{}, fmt.Errorf("schema: no contract type column in header %v", header)
		}
	}

	if volume, ok := cols["volume"]; ok {
		return optionsSchema{variant: "day_aggs", underlyingCol: underlying, typeCol: contractType, volumeCol: volume}, nil
	}
	if size, ok := cols["size"]; ok {
		return optionsSchema{variant: "trades", underlyingCol: underlying, typeCol: contractType, volumeCol: size}, nil
	}
	return optionsSchema{}, fmt.Errorf("schema: header %v matches neither day_aggs nor trades layout", header)
}

func parseVolume(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	// Some exports write volumes as floats ("125.0").
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("schema: bad volume %q: %w", raw, err)
	}
	return int64(f), nil
}
