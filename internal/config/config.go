package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"finance-metrics/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Yahoo      YahooConfig      `mapstructure:"yahoo"`
	FlatFiles  FlatFilesConfig  `mapstructure:"flatfiles"`
	OptionsAPI OptionsAPIConfig `mapstructure:"options_api"`
	FRED       FREDConfig       `mapstructure:"fred"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Alerting   AlertingConfig   `mapstructure:"alerting"`
	Export     ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// SchedulerConfig governs sampling cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToBucket   bool          `mapstructure:"align_to_bucket"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// YahooConfig covers the free chart-API data source.
type YahooConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	ProxyURL       string        `mapstructure:"proxy_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// FlatFilesConfig covers the S3 flat-file store. Credentials are explicit
// fields rather than implicit environment reads so a missing key fails at
// construction time.
type FlatFilesConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Bucket          string        `mapstructure:"bucket"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	DayAggsPrefix   string        `mapstructure:"day_aggs_prefix"`
	TradesPrefix    string        `mapstructure:"trades_prefix"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// FREDConfig covers the St. Louis Fed economic-series API. The key is an
// explicit field; construction fails without one.
type FREDConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// OptionsAPIConfig covers the options-chain snapshot REST API.
type OptionsAPIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	PageLimit      int           `mapstructure:"page_limit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// MetricsConfig selects and tunes the derived indicators.
type MetricsConfig struct {
	Deviation DeviationConfig `mapstructure:"deviation"`
	VIX       VIXConfig       `mapstructure:"vix"`
	PutCall   PutCallConfig   `mapstructure:"putcall"`
}

// DeviationConfig tunes the SMA deviation index.
type DeviationConfig struct {
	Enabled              bool      `mapstructure:"enabled"`
	Symbol               string    `mapstructure:"symbol"`
	SMAPeriod            int       `mapstructure:"sma_period"`
	CalibrationStart     string    `mapstructure:"calibration_start"`
	LowerPercentile      float64   `mapstructure:"lower_percentile"`
	UpperPercentile      float64   `mapstructure:"upper_percentile"`
	UsePercentiles       bool      `mapstructure:"use_percentiles"`
	RawThresholds        []float64 `mapstructure:"raw_thresholds"`
	NormalizedThresholds []float64 `mapstructure:"normalized_thresholds"`
}

// VIXConfig tunes the VIX sentiment indicator.
type VIXConfig struct {
	Enabled              bool      `mapstructure:"enabled"`
	Symbol               string    `mapstructure:"symbol"`
	LevelThresholds      []float64 `mapstructure:"level_thresholds"`
	NormalizedThresholds []float64 `mapstructure:"normalized_thresholds"`
}

// PutCallConfig tunes the put/call ratio indicator.
type PutCallConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Symbol  string `mapstructure:"symbol"`
	Source  string `mapstructure:"source"` // "api" or "flatfiles"
}

// AlertingConfig defines signal alert routing.
type AlertingConfig struct {
	Enabled        bool           `mapstructure:"enabled"`
	NotifyOnChange bool           `mapstructure:"notify_on_change"`
	NotifyStrong   bool           `mapstructure:"notify_strong"`
	RetentionDays  int            `mapstructure:"retention_days"`
	Channels       []string       `mapstructure:"channels"`
	Telegram       TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram alert channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FINMETRICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "finmetrics")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "24h")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x66696e6d))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("yahoo.request_timeout", "30s")
	v.SetDefault("yahoo.user_agent", "finmetrics/1.0")

	v.SetDefault("flatfiles.endpoint", "https://files.massive.com")
	v.SetDefault("flatfiles.bucket", "flatfiles")
	v.SetDefault("flatfiles.region", "us-east-1")
	v.SetDefault("flatfiles.day_aggs_prefix", "us_options_opra/day_aggs_v1")
	v.SetDefault("flatfiles.trades_prefix", "us_options_opra/trades_v1")
	v.SetDefault("flatfiles.request_timeout", "60s")

	v.SetDefault("fred.base_url", "https://api.stlouisfed.org")
	v.SetDefault("fred.request_timeout", "30s")

	v.SetDefault("options_api.base_url", "https://api.massive.com")
	v.SetDefault("options_api.page_limit", 250)
	v.SetDefault("options_api.request_timeout", "15s")
	v.SetDefault("options_api.user_agent", "finmetrics/1.0")

	v.SetDefault("metrics.deviation.enabled", true)
	v.SetDefault("metrics.deviation.symbol", "QQQ")
	v.SetDefault("metrics.deviation.sma_period", 200)
	v.SetDefault("metrics.deviation.calibration_start", "2015-01-01")
	v.SetDefault("metrics.deviation.lower_percentile", 1.0)
	v.SetDefault("metrics.deviation.upper_percentile", 99.0)
	v.SetDefault("metrics.deviation.use_percentiles", true)
	v.SetDefault("metrics.deviation.raw_thresholds", []float64{-0.05, 0, 0, 0.05})
	v.SetDefault("metrics.deviation.normalized_thresholds", []float64{30, 50, 50, 70})

	v.SetDefault("metrics.vix.enabled", true)
	v.SetDefault("metrics.vix.symbol", "^VIX")
	v.SetDefault("metrics.vix.level_thresholds", []float64{12, 15, 20, 30})
	v.SetDefault("metrics.vix.normalized_thresholds", []float64{30, 50, 70, 85})

	v.SetDefault("metrics.putcall.enabled", false)
	v.SetDefault("metrics.putcall.symbol", "SPY")
	v.SetDefault("metrics.putcall.source", "api")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.notify_on_change", true)
	v.SetDefault("alerting.notify_strong", true)
	v.SetDefault("alerting.retention_days", 90)
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}

	if c.Metrics.Deviation.Enabled {
		d := c.Metrics.Deviation
		if d.Symbol == "" {
			return fmt.Errorf("metrics.deviation.symbol is required")
		}
		if d.SMAPeriod <= 0 {
			return fmt.Errorf("metrics.deviation.sma_period must be greater than zero")
		}
		if _, err := time.Parse("2006-01-02", d.CalibrationStart); err != nil {
			return fmt.Errorf("metrics.deviation.calibration_start must be YYYY-MM-DD: %w", err)
		}
		if err := validateThresholds("metrics.deviation.raw_thresholds", d.RawThresholds); err != nil {
			return err
		}
		if err := validateThresholds("metrics.deviation.normalized_thresholds", d.NormalizedThresholds); err != nil {
			return err
		}
	}

	if c.Metrics.VIX.Enabled {
		if c.Metrics.VIX.Symbol == "" {
			return fmt.Errorf("metrics.vix.symbol is required")
		}
		if err := validateThresholds("metrics.vix.level_thresholds", c.Metrics.VIX.LevelThresholds); err != nil {
			return err
		}
		if err := validateThresholds("metrics.vix.normalized_thresholds", c.Metrics.VIX.NormalizedThresholds); err != nil {
			return err
		}
	}

	if c.Metrics.PutCall.Enabled {
		switch c.Metrics.PutCall.Source {
		case "api":
			if c.OptionsAPI.APIKey == "" {
				return fmt.Errorf("options_api.api_key is required when metrics.putcall.source is api")
			}
		case "flatfiles":
			if c.FlatFiles.AccessKeyID == "" || c.FlatFiles.SecretAccessKey == "" {
				return fmt.Errorf("flatfiles.access_key_id and flatfiles.secret_access_key are required when metrics.putcall.source is flatfiles")
			}
		default:
			return fmt.Errorf("metrics.putcall.source must be api or flatfiles, got %q", c.Metrics.PutCall.Source)
		}
		if c.Metrics.PutCall.Symbol == "" {
			return fmt.Errorf("metrics.putcall.symbol is required")
		}
	}

	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

func validateThresholds(key string, values []float64) error {
	if len(values) != 4 {
		return fmt.Errorf("%s must have exactly 4 values, got %d", key, len(values))
	}
	for i := 1; i < 4; i++ {
		if values[i] < values[i-1] {
			return fmt.Errorf("%s must be ascending", key)
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
