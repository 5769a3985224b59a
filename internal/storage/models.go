package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sample statuses.
const (
	StatusOK      = "ok"
	StatusErrored = "errored"
)

// MetricSample represents one persisted daily observation of a metric.
type MetricSample struct {
	Metric     string
	Bucket     time.Time
	RawValue   decimal.Decimal
	Normalized decimal.Decimal
	Signal     string
	Status     string
	Error      *string
	CreatedAt  time.Time
}

// SignalAlert captures an emitted signal transition for auditing.
type SignalAlert struct {
	ID         int64
	Metric     string
	SampleTS   time.Time
	Signal     string
	PrevSignal string
	Normalized decimal.Decimal
	Channels   []string
	CreatedAt  time.Time
}
