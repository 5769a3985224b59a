package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertMetricSampleSQL = `INSERT INTO metric_samples (
        metric,
        bucket_ts,
        raw_value,
        normalized,
        signal,
        status,
        error
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (metric, bucket_ts) DO UPDATE
    SET
        raw_value  = EXCLUDED.raw_value,
        normalized = EXCLUDED.normalized,
        signal     = EXCLUDED.signal,
        status     = EXCLUDED.status,
        error      = EXCLUDED.error;`

	listSamplesBetweenSQL = `SELECT
        metric,
        bucket_ts,
        raw_value,
        normalized,
        signal,
        status,
        error,
        created_at
    FROM metric_samples
    WHERE metric = $1
      AND bucket_ts >= $2
      AND bucket_ts < $3
    ORDER BY bucket_ts;`

	listRecentSamplesSQL = `SELECT
        metric,
        bucket_ts,
        raw_value,
        normalized,
        signal,
        status,
        error,
        created_at
    FROM metric_samples
    WHERE metric = $1
    ORDER BY bucket_ts DESC
    LIMIT $2;`

	latestSampleSQL = `SELECT
        metric,
        bucket_ts,
        raw_value,
        normalized,
        signal,
        status,
        error,
        created_at
    FROM metric_samples
    WHERE metric = $1
      AND status = 'ok'
    ORDER BY bucket_ts DESC
    LIMIT 1;`

	markSampleErroredSQL = `UPDATE metric_samples
    SET status = 'errored', error = $3
    WHERE metric = $1 AND bucket_ts = $2;`

	countSamplesSQL = `SELECT COUNT(*) FROM metric_samples WHERE metric = $1;`

	insertAlertSQL = `INSERT INTO signal_alerts (
        metric,
        sample_ts,
        signal,
        prev_signal,
        normalized,
        channels
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    ON CONFLICT (metric, sample_ts) DO UPDATE
    SET signal      = EXCLUDED.signal,
        prev_signal = EXCLUDED.prev_signal,
        normalized  = EXCLUDED.normalized,
        channels    = EXCLUDED.channels
    RETURNING id, metric, sample_ts, signal, prev_signal, normalized, channels, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        metric,
        sample_ts,
        signal,
        prev_signal,
        normalized,
        channels,
        created_at
    FROM signal_alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAlertsBeforeSQL = `DELETE FROM signal_alerts WHERE created_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// MetricSampleStore defines operations for metric sample persistence.
type MetricSampleStore interface {
	UpsertMetricSample(ctx context.Context, sample MetricSample) error
	ListSamplesBetween(ctx context.Context, metric string, from, to time.Time) ([]MetricSample, error)
	ListRecentSamples(ctx context.Context, metric string, limit int) ([]MetricSample, error)
	LatestSample(ctx context.Context, metric string) (MetricSample, error)
	MarkSampleErrored(ctx context.Context, metric string, bucket time.Time, errMsg string) error
	CountSamples(ctx context.Context, metric string) (int64, error)
}

// AlertStore defines operations for signal alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert SignalAlert) (SignalAlert, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]SignalAlert, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to metric samples and signal alerts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertMetricSample persists or updates one metric observation.
func (s *Store) UpsertMetricSample(ctx context.Context, sample MetricSample) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var errMsg interface{}
	if sample.Error != nil {
		errMsg = *sample.Error
	}

	_, execErr := pool.Exec(ctx, upsertMetricSampleSQL,
		sample.Metric,
		sample.Bucket,
		sample.RawValue.String(),
		sample.Normalized.String(),
		sample.Signal,
		sample.Status,
		errMsg,
	)
	if execErr != nil {
		return fmt.Errorf("upsert metric sample: %w", execErr)
	}
	return nil
}

// ListSamplesBetween lists one metric's samples within a time window.
func (s *Store) ListSamplesBetween(ctx context.Context, metric string, from, to time.Time) ([]MetricSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSamplesBetweenSQL, metric, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list samples between: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]MetricSample, 0)
	for rows.Next() {
		sample, scanErr := scanMetricSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// ListRecentSamples lists the most recent samples ordered by descending bucket.
func (s *Store) ListRecentSamples(ctx context.Context, metric string, limit int) ([]MetricSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSamplesSQL, metric, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent samples: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]MetricSample, 0, limit)
	for rows.Next() {
		sample, scanErr := scanMetricSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// LatestSample returns the most recent successful sample of a metric.
func (s *Store) LatestSample(ctx context.Context, metric string) (MetricSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return MetricSample{}, err
	}

	rows, queryErr := pool.Query(ctx, latestSampleSQL, metric)
	if queryErr != nil {
		return MetricSample{}, fmt.Errorf("latest sample: %w", queryErr)
	}
	defer rows.Close()

	if !rows.Next() {
		if rows.Err() != nil {
			return MetricSample{}, rows.Err()
		}
		return MetricSample{}, pgx.ErrNoRows
	}
	return scanMetricSample(rows)
}

// MarkSampleErrored marks a sample as errored.
func (s *Store) MarkSampleErrored(ctx context.Context, metric string, bucket time.Time, errMsg string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, markSampleErroredSQL, metric, bucket, errMsg)
	if execErr != nil {
		return fmt.Errorf("mark sample errored: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountSamples counts stored samples of a metric.
func (s *Store) CountSamples(ctx context.Context, metric string) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSamplesSQL, metric).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count samples: %w", scanErr)
	}
	return count, nil
}

// InsertAlert persists a signal transition.
func (s *Store) InsertAlert(ctx context.Context, alert SignalAlert) (SignalAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return SignalAlert{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.Metric,
		alert.SampleTS,
		alert.Signal,
		alert.PrevSignal,
		alert.Normalized.String(),
		alert.Channels,
	)

	var rec SignalAlert
	var normalizedStr string
	if scanErr := row.Scan(
		&rec.ID,
		&rec.Metric,
		&rec.SampleTS,
		&rec.Signal,
		&rec.PrevSignal,
		&normalizedStr,
		&rec.Channels,
		&rec.CreatedAt,
	); scanErr != nil {
		return SignalAlert{}, fmt.Errorf("insert alert: %w", scanErr)
	}

	var convErr error
	rec.Normalized, convErr = decimal.NewFromString(normalizedStr)
	if convErr != nil {
		return SignalAlert{}, fmt.Errorf("parse normalized: %w", convErr)
	}

	return rec, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]SignalAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]SignalAlert, 0, limit)
	for rows.Next() {
		var rec SignalAlert
		var normalizedStr string
		if err := rows.Scan(
			&rec.ID,
			&rec.Metric,
			&rec.SampleTS,
			&rec.Signal,
			&rec.PrevSignal,
			&normalizedStr,
			&rec.Channels,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		var convErr error
		rec.Normalized, convErr = decimal.NewFromString(normalizedStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse normalized: %w", convErr)
		}

		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// DeleteAlertsBefore deletes historical alerts.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alerts before: %w", execErr)
	}
	return nil
}

func scanMetricSample(rows pgx.Rows) (MetricSample, error) {
	var (
		metric        string
		bucket        time.Time
		rawStr        string
		normalizedStr string
		signal        string
		status        string
		errMsg        sql.NullString
		createdAt     time.Time
	)

	if err := rows.Scan(
		&metric,
		&bucket,
		&rawStr,
		&normalizedStr,
		&signal,
		&status,
		&errMsg,
		&createdAt,
	); err != nil {
		return MetricSample{}, err
	}

	raw, err := decimal.NewFromString(rawStr)
	if err != nil {
		return MetricSample{}, fmt.Errorf("parse raw value: %w", err)
	}
	normalized, err := decimal.NewFromString(normalizedStr)
	if err != nil {
		return MetricSample{}, fmt.Errorf("parse normalized: %w", err)
	}

	sample := MetricSample{
		Metric:     metric,
		Bucket:     bucket,
		RawValue:   raw,
		Normalized: normalized,
		Signal:     signal,
		Status:     status,
		CreatedAt:  createdAt,
	}
	if errMsg.Valid {
		msg := errMsg.String
		sample.Error = &msg
	}

	return sample, nil
}
