package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"finance-metrics/internal/alerting"
	"finance-metrics/internal/config"
	"finance-metrics/internal/fetcher"
	"finance-metrics/internal/scheduler"
	"finance-metrics/internal/service"
	"finance-metrics/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newBarFetcher() fetcher.BarFetcher {
	return fetcher.NewYahoo(fetcher.YahooOptions{
		BaseURL:   a.Config.Yahoo.BaseURL,
		ProxyURL:  a.Config.Yahoo.ProxyURL,
		Timeout:   a.Config.Yahoo.RequestTimeout,
		UserAgent: a.Config.Yahoo.UserAgent,
	}, a.Logger)
}

func (a *App) newChainFetcher() (fetcher.OptionsChainFetcher, error) {
	if a.Config.OptionsAPI.APIKey == "" {
		return nil, nil
	}
	return fetcher.NewOptionsAPI(fetcher.OptionsAPIOptions{
		BaseURL:   a.Config.OptionsAPI.BaseURL,
		APIKey:    a.Config.OptionsAPI.APIKey,
		PageLimit: a.Config.OptionsAPI.PageLimit,
		Timeout:   a.Config.OptionsAPI.RequestTimeout,
	}, a.Logger)
}

func (a *App) newFlatFetcher() (fetcher.FlatFileFetcher, error) {
	if a.Config.FlatFiles.AccessKeyID == "" || a.Config.FlatFiles.SecretAccessKey == "" {
		return nil, nil
	}
	return fetcher.NewFlatFiles(fetcher.FlatFilesOptions{
		Endpoint:        a.Config.FlatFiles.Endpoint,
		Bucket:          a.Config.FlatFiles.Bucket,
		Region:          a.Config.FlatFiles.Region,
		AccessKeyID:     a.Config.FlatFiles.AccessKeyID,
		SecretAccessKey: a.Config.FlatFiles.SecretAccessKey,
		DayAggsPrefix:   a.Config.FlatFiles.DayAggsPrefix,
		TradesPrefix:    a.Config.FlatFiles.TradesPrefix,
		Timeout:         a.Config.FlatFiles.RequestTimeout,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newService(store *storage.Store, sched *scheduler.Scheduler, notifier alerting.Notifier) (*service.Service, error) {
	chain, err := a.newChainFetcher()
	if err != nil {
		return nil, err
	}
	flat, err := a.newFlatFetcher()
	if err != nil {
		return nil, err
	}

	var sampleStore storage.MetricSampleStore
	var alertStore storage.AlertStore
	if store != nil {
		sampleStore = store
		alertStore = store
	}

	return service.New(a.Config, sched, a.newBarFetcher(), chain, flat, sampleStore, alertStore, notifier, a.Logger), nil
}

// Run executes the long-running sampling service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:      a.Config.Scheduler.Interval,
		AlignToBucket: a.Config.Scheduler.AlignToBucket,
		StartupDelay:  a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	svc, err := a.newService(store, sched, a.newNotifier())
	if err != nil {
		return err
	}

	a.Logger.Info().Msg("starting sampling service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("sampling service stopped")
	return nil
}

// ExportOptions hold parameters for exporting historical samples.
type ExportOptions struct {
	Metric    string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command. Alerts switches the output from
// metric samples to the alert history.
type ShowOptions struct {
	Metric string
	Limit  int
	Alerts bool
}

// BackfillOptions configure the backfill job. An empty Metric backfills
// every enabled metric.
type BackfillOptions struct {
	Metric string
	From   time.Time
	To     time.Time
	DryRun bool
}

// PutCallOptions configure the one-shot put/call command.
type PutCallOptions struct {
	Symbol string
	Date   string
	Source string
}
