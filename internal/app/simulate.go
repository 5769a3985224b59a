package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finance-metrics/internal/alerting"
	"finance-metrics/internal/metrics"
	"finance-metrics/internal/normalize"
	"finance-metrics/internal/service"
)

// SimulateSignal classifies a hypothetical normalized value for a metric and
// pushes it through the alert channel, exercising the delivery path without
// touching market data or the database.
func (a *App) SimulateSignal(ctx context.Context, metric string, value float64) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is not enabled")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no alert channel configured")
	}

	var thresholds normalize.Thresholds
	inverted := false
	switch metric {
	case metrics.MetricDeviation:
		opts, err := service.DeviationOptions(a.Config)
		if err != nil {
			return err
		}
		thresholds = opts.NormalizedThresholds
	case metrics.MetricVIX:
		opts, err := service.VIXOptions(a.Config)
		if err != nil {
			return err
		}
		thresholds = opts.NormalizedThresholds
		inverted = true
	default:
		return fmt.Errorf("metric %q does not support signal simulation", metric)
	}

	signal := normalize.Classify(value, thresholds)
	if inverted {
		signal = signal.Inverted()
	}

	note := alerting.Notification{
		Metric:        metric,
		SampleTS:      time.Now().UTC().Truncate(a.Config.Scheduler.Interval),
		Signal:        string(signal),
		RawValue:      decimal.NewFromFloat(value),
		Normalized:    decimal.NewFromFloat(value),
		Channels:      a.Config.Alerting.Channels,
		AdditionalMsg: "(simulated)",
	}

	a.Logger.Info().Str("metric", metric).
		Float64("value", value).
		Str("signal", string(signal)).
		Msg("dispatching simulated signal")
	return notifier.Notify(ctx, note)
}
