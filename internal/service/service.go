package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"finance-metrics/internal/alerting"
	"finance-metrics/internal/config"
	"finance-metrics/internal/fetcher"
	"finance-metrics/internal/metrics"
	"finance-metrics/internal/normalize"
	"finance-metrics/internal/scheduler"
	"finance-metrics/internal/storage"
	"finance-metrics/internal/timeseries"
)

// Put/call ratios get projected onto the 0-100 scale against this fixed
// band; the interpretation cut points sit at its edges.
var putCallBounds = normalize.Bounds{Lower: 0.5, Upper: 1.3}

// Service orchestrates fetching, metric computation, persistence, and
// signal alerting.
type Service struct {
	scheduler *scheduler.Scheduler
	bars      fetcher.BarFetcher
	chain     fetcher.OptionsChainFetcher
	flat      fetcher.FlatFileFetcher

	store      storage.MetricSampleStore
	alertStore storage.AlertStore
	notifier   alerting.Notifier
	logger     zerolog.Logger

	cfg     *config.Config
	locker  storage.AdvisoryLocker
	lockKey int64
}

// New constructs the sampling service. The chain and flat-file fetchers may
// be nil when the put/call metric is disabled.
func New(cfg *config.Config, sched *scheduler.Scheduler, bars fetcher.BarFetcher, chain fetcher.OptionsChainFetcher, flat fetcher.FlatFileFetcher, store storage.MetricSampleStore, alertStore storage.AlertStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		scheduler:  sched,
		bars:       bars,
		chain:      chain,
		flat:       flat,
		store:      store,
		alertStore: alertStore,
		notifier:   notifier,
		logger:     logger.With().Str("component", "service").Logger(),
		cfg:        cfg,
		locker:     locker,
		lockKey:    cfg.Scheduler.AdvisoryLockKey,
	}
}

// Run begins the aligned sampling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessBucket)
}

// ProcessBucket samples every enabled metric for one bucket. Per-metric
// failures are recorded and logged without aborting the remaining metrics.
func (s *Service) ProcessBucket(ctx context.Context, bucket time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("bucket", bucket).Msg("skip bucket because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	for _, metric := range s.enabledMetrics() {
		if err := s.sampleMetric(ctx, bucket, metric); err != nil {
			s.logger.Error().Err(err).Str("metric", metric).Time("bucket", bucket).Msg("metric sampling failed")
			s.recordFailure(ctx, bucket, metric, err)
		}
	}

	s.pruneAlerts(ctx, bucket)
	return nil
}

func (s *Service) pruneAlerts(ctx context.Context, bucket time.Time) {
	days := s.cfg.Alerting.RetentionDays
	if days <= 0 || s.alertStore == nil {
		return
	}
	cutoff := bucket.AddDate(0, 0, -days)
	if err := s.alertStore.DeleteAlertsBefore(ctx, cutoff); err != nil {
		s.logger.Warn().Err(err).Time("cutoff", cutoff).Msg("failed to prune old alerts")
	}
}

// ProcessMetric samples a single metric for one bucket, bypassing the
// advisory lock. Used by one-shot jobs like backfill.
func (s *Service) ProcessMetric(ctx context.Context, bucket time.Time, metric string) error {
	if err := s.sampleMetric(ctx, bucket, metric); err != nil {
		s.recordFailure(ctx, bucket, metric, err)
		return err
	}
	return nil
}

func (s *Service) enabledMetrics() []string {
	var out []string
	if s.cfg.Metrics.Deviation.Enabled {
		out = append(out, metrics.MetricDeviation)
	}
	if s.cfg.Metrics.VIX.Enabled {
		out = append(out, metrics.MetricVIX)
	}
	if s.cfg.Metrics.PutCall.Enabled {
		out = append(out, metrics.MetricPutCall)
	}
	return out
}

func (s *Service) sampleMetric(ctx context.Context, bucket time.Time, metric string) error {
	var (
		sample metrics.Sample
		err    error
	)
	switch metric {
	case metrics.MetricDeviation:
		sample, err = s.sampleDeviation(ctx, bucket)
	case metrics.MetricVIX:
		sample, err = s.sampleVIX(ctx, bucket)
	case metrics.MetricPutCall:
		sample, err = s.samplePutCall(ctx, bucket)
	default:
		return fmt.Errorf("unknown metric %q", metric)
	}
	if err != nil {
		return err
	}

	return s.persistAndAlert(ctx, sample)
}

func (s *Service) sampleDeviation(ctx context.Context, bucket time.Time) (metrics.Sample, error) {
	opts, err := DeviationOptions(s.cfg)
	if err != nil {
		return metrics.Sample{}, err
	}

	closes, err := s.bars.FetchDailyCloses(ctx, opts.Symbol, opts.CalibrationStart, bucket.AddDate(0, 0, 1))
	if err != nil {
		return metrics.Sample{}, fmt.Errorf("fetch %s closes: %w", opts.Symbol, err)
	}

	result, err := metrics.ComputeDeviation(closes, opts)
	if err != nil {
		return metrics.Sample{}, err
	}
	return result.Latest()
}

// The volatility gauge calibrates against a one-year lookback.
func (s *Service) sampleVIX(ctx context.Context, bucket time.Time) (metrics.Sample, error) {
	opts, err := VIXOptions(s.cfg)
	if err != nil {
		return metrics.Sample{}, err
	}

	closes, err := s.bars.FetchDailyCloses(ctx, opts.Symbol, bucket.AddDate(-1, 0, 0), bucket.AddDate(0, 0, 1))
	if err != nil {
		return metrics.Sample{}, fmt.Errorf("fetch %s closes: %w", opts.Symbol, err)
	}

	result, err := metrics.ComputeVIX(closes, opts)
	if err != nil {
		return metrics.Sample{}, err
	}
	return result.Latest()
}

func (s *Service) samplePutCall(ctx context.Context, bucket time.Time) (metrics.Sample, error) {
	ratio, err := s.fetchPutCall(ctx, bucket)
	if err != nil {
		return metrics.Sample{}, err
	}

	raw := timeseries.Missing
	if ratio.VolumeRatio != nil {
		raw, _ = ratio.VolumeRatio.Float64()
	}

	// High put activity is bearish, so the projected scale is flipped.
	normalized := timeseries.Missing
	if !timeseries.IsMissing(raw) {
		normalized = 100 - normalize.Value(raw, putCallBounds)
	}

	// The stored signal is the interpretation label, which never matches the
	// strong-signal set: put/call alerts only on transitions. An
	// indeterminate ratio maps to the insufficient-data sentinel so it never
	// alerts at all.
	signal := normalize.Signal(metrics.InterpretPutCall(ratio.VolumeRatio))
	if ratio.VolumeRatio == nil {
		signal = normalize.SignalInsufficientData
	}

	return metrics.Sample{
		Metric:     metrics.MetricPutCall,
		Time:       bucket,
		Raw:        raw,
		Normalized: normalized,
		Signal:     signal,
	}, nil
}

func (s *Service) fetchPutCall(ctx context.Context, bucket time.Time) (fetcher.PutCallRatio, error) {
	symbol := s.cfg.Metrics.PutCall.Symbol
	switch s.cfg.Metrics.PutCall.Source {
	case "flatfiles":
		if s.flat == nil {
			return fetcher.PutCallRatio{}, fmt.Errorf("flat-file fetcher not configured")
		}
		// Daily files lag a session; sample the previous trading day.
		return s.flat.PutCallRatioForDate(ctx, bucket.AddDate(0, 0, -1), symbol)
	default:
		if s.chain == nil {
			return fetcher.PutCallRatio{}, fmt.Errorf("options chain fetcher not configured")
		}
		return s.chain.FetchPutCallRatio(ctx, symbol)
	}
}

func (s *Service) persistAndAlert(ctx context.Context, sample metrics.Sample) error {
	record := storage.MetricSample{
		Metric:    sample.Metric,
		Bucket:    sample.Time,
		Signal:    string(sample.Signal),
		Status:    storage.StatusOK,
		CreatedAt: time.Now().UTC(),
	}

	raw, rawOK := decimalFrom(sample.Raw)
	normalized, normOK := decimalFrom(sample.Normalized)
	record.RawValue = raw
	record.Normalized = normalized
	if !rawOK || !normOK {
		msg := "observation has no usable value"
		record.Status = storage.StatusErrored
		record.Error = &msg
	}

	prevSignal := s.previousSignal(ctx, sample.Metric)

	if s.store != nil {
		if err := s.store.UpsertMetricSample(ctx, record); err != nil {
			return fmt.Errorf("upsert metric sample: %w", err)
		}
	}

	s.logger.Info().Str("metric", sample.Metric).
		Time("bucket", sample.Time).
		Str("signal", string(sample.Signal)).
		Str("normalized", record.Normalized.StringFixed(1)).
		Msg("sample recorded")

	if s.shouldAlert(sample.Signal, prevSignal) {
		s.dispatchAlert(ctx, record, prevSignal)
	}
	return nil
}

func (s *Service) previousSignal(ctx context.Context, metric string) string {
	if s.store == nil {
		return ""
	}
	prev, err := s.store.LatestSample(ctx, metric)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().Err(err).Str("metric", metric).Msg("failed to load previous sample")
		}
		return ""
	}
	return prev.Signal
}

func (s *Service) shouldAlert(signal normalize.Signal, prevSignal string) bool {
	if !s.cfg.Alerting.Enabled || s.notifier == nil {
		return false
	}
	if signal == normalize.SignalInsufficientData {
		return false
	}
	if s.cfg.Alerting.NotifyOnChange && prevSignal != "" && prevSignal != string(signal) {
		return true
	}
	if s.cfg.Alerting.NotifyStrong && signal.Strong() {
		return true
	}
	return false
}

func (s *Service) dispatchAlert(ctx context.Context, record storage.MetricSample, prevSignal string) {
	note := alerting.Notification{
		Metric:     record.Metric,
		SampleTS:   record.Bucket,
		Signal:     record.Signal,
		PrevSignal: prevSignal,
		RawValue:   record.RawValue,
		Normalized: record.Normalized,
		Channels:   s.cfg.Alerting.Channels,
	}

	if s.alertStore != nil {
		alert := storage.SignalAlert{
			Metric:     record.Metric,
			SampleTS:   record.Bucket,
			Signal:     record.Signal,
			PrevSignal: prevSignal,
			Normalized: record.Normalized,
			Channels:   s.cfg.Alerting.Channels,
		}
		if _, err := s.alertStore.InsertAlert(ctx, alert); err != nil {
			s.logger.Error().Err(err).Str("metric", record.Metric).Msg("failed to persist alert record")
		}
	}

	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Str("metric", record.Metric).Msg("failed to dispatch alert")
	}
}

// recordFailure flags the bucket's sample as errored. An existing row keeps
// its stored values; when no row exists yet a placeholder is inserted.
func (s *Service) recordFailure(ctx context.Context, bucket time.Time, metric string, cause error) {
	if s.store == nil {
		return
	}
	msg := cause.Error()

	err := s.store.MarkSampleErrored(ctx, metric, bucket, msg)
	if err == nil {
		return
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		s.logger.Error().Err(err).Str("metric", metric).Msg("failed to record sampling failure")
		return
	}

	record := storage.MetricSample{
		Metric:     metric,
		Bucket:     bucket,
		RawValue:   decimal.Zero,
		Normalized: decimal.Zero,
		Signal:     string(normalize.SignalInsufficientData),
		Status:     storage.StatusErrored,
		Error:      &msg,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.UpsertMetricSample(ctx, record); err != nil {
		s.logger.Error().Err(err).Str("metric", metric).Msg("failed to record sampling failure")
	}
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}

func decimalFrom(v float64) (decimal.Decimal, bool) {
	if timeseries.IsMissing(v) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(v), true
}

// DeviationOptions materialises metric options from configuration.
func DeviationOptions(cfg *config.Config) (metrics.DeviationOptions, error) {
	c := cfg.Metrics.Deviation

	start, err := time.Parse("2006-01-02", c.CalibrationStart)
	if err != nil {
		return metrics.DeviationOptions{}, fmt.Errorf("parse calibration start: %w", err)
	}
	raw, err := thresholdsFrom(c.RawThresholds)
	if err != nil {
		return metrics.DeviationOptions{}, err
	}
	normalized, err := thresholdsFrom(c.NormalizedThresholds)
	if err != nil {
		return metrics.DeviationOptions{}, err
	}

	return metrics.DeviationOptions{
		Symbol:           c.Symbol,
		SMAPeriod:        c.SMAPeriod,
		CalibrationStart: start,
		Bounds: normalize.BoundsOptions{
			LowerPercentile: c.LowerPercentile,
			UpperPercentile: c.UpperPercentile,
			UsePercentiles:  c.UsePercentiles,
		},
		RawThresholds:        raw,
		NormalizedThresholds: normalized,
	}, nil
}

// VIXOptions materialises metric options from configuration.
func VIXOptions(cfg *config.Config) (metrics.VIXOptions, error) {
	c := cfg.Metrics.VIX

	levels, err := thresholdsFrom(c.LevelThresholds)
	if err != nil {
		return metrics.VIXOptions{}, err
	}
	normalized, err := thresholdsFrom(c.NormalizedThresholds)
	if err != nil {
		return metrics.VIXOptions{}, err
	}

	return metrics.VIXOptions{
		Symbol:               c.Symbol,
		Levels:               levels,
		NormalizedThresholds: normalized,
		Bounds:               normalize.DefaultBoundsOptions(),
	}, nil
}

func thresholdsFrom(values []float64) (normalize.Thresholds, error) {
	if len(values) != 4 {
		return normalize.Thresholds{}, fmt.Errorf("expected 4 thresholds, got %d", len(values))
	}
	return normalize.NewThresholds(values[0], values[1], values[2], values[3])
}
