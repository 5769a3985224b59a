package app

import (
	"context"
	"errors"
	"time"

	"finance-metrics/internal/metrics"
	"finance-metrics/internal/service"
	"finance-metrics/internal/storage"
)

// Backfill re-samples metrics over a historical range, one bucket at a
// time. With Metric set only that metric is sampled, otherwise every
// enabled one is.
func (a *App) Backfill(ctx context.Context, opts BackfillOptions) error {
	interval := a.Config.Scheduler.Interval
	if interval <= 0 {
		return errors.New("scheduler interval is invalid")
	}

	start := alignForward(opts.From.UTC(), interval)
	end := opts.To.UTC()
	if !start.Before(end) {
		return errors.New("empty backfill range, check --from/--to")
	}

	var store *storage.Store
	var closeStore func()
	var err error

	if opts.DryRun {
		a.Logger.Warn().Msg("backfill dry-run: nothing will be written")
	} else {
		store, closeStore, err = a.openStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("database.dsn not configured; cannot backfill")
		}
		if closeStore != nil {
			defer closeStore()
		}
	}

	svc, err := a.newService(store, nil, nil)
	if err != nil {
		return err
	}

	processed := 0
	failed := 0
	for bucket := start; bucket.Before(end); bucket = bucket.Add(interval) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := a.backfillBucket(ctx, svc, bucket, opts.Metric); err != nil {
			failed++
			a.Logger.Error().Err(err).Time("bucket", bucket).Msg("backfill bucket failed")
			continue
		}
		processed++
	}

	a.Logger.Info().Int("processed", processed).Int("failed", failed).Msg("backfill finished")
	if store != nil {
		a.logSampleCounts(ctx, store, opts.Metric)
	}
	if failed > 0 {
		return errors.New("some buckets failed to backfill, check logs")
	}
	return nil
}

func (a *App) logSampleCounts(ctx context.Context, store *storage.Store, metric string) {
	names := []string{metrics.MetricDeviation, metrics.MetricVIX, metrics.MetricPutCall}
	if metric != "" {
		names = []string{metric}
	}
	for _, name := range names {
		count, err := store.CountSamples(ctx, name)
		if err != nil {
			a.Logger.Warn().Err(err).Str("metric", name).Msg("failed to count samples")
			continue
		}
		a.Logger.Info().Str("metric", name).Int64("stored", count).Msg("sample count")
	}
}

func (a *App) backfillBucket(ctx context.Context, svc *service.Service, bucket time.Time, metric string) error {
	if metric != "" {
		return svc.ProcessMetric(ctx, bucket, metric)
	}
	return svc.ProcessBucket(ctx, bucket)
}

func alignForward(t time.Time, interval time.Duration) time.Time {
	truncated := t.Truncate(interval)
	if truncated.Before(t) {
		return truncated.Add(interval)
	}
	return truncated
}
