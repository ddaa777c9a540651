package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // embedded zone database for minimal images

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"PivotSentinel/internal/cache"
	"PivotSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider      string  `yaml:"provider"` // yahoo|vstrader|mock
		BaseURL       string  `yaml:"base_url"`
		APIKey        string  `yaml:"api_key"`
		Proxy         string  `yaml:"proxy"`
		Timezone      string  `yaml:"timezone"`
		RatePerSecond float64 `yaml:"rate_per_second"`
	} `yaml:"data_source"`
	Pivot struct {
		GeneralTolerancePct float64  `yaml:"general_tolerance_pct"`
		SetupTolerancePct   float64  `yaml:"setup_tolerance_pct"`
		Timeframes          []string `yaml:"timeframes"`
		SetupTimeframes     []string `yaml:"setup_timeframes"`
	} `yaml:"pivot"`
	Cache struct {
		Backend       string            `yaml:"backend"` // memory|redis
		RedisAddr     string            `yaml:"redis_addr"`
		RedisPassword string            `yaml:"redis_password"`
		RedisDB       int               `yaml:"redis_db"`
		TTL           map[string]string `yaml:"ttl"` // time frame -> duration
	} `yaml:"cache"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Watchlist struct {
		File string `yaml:"file"`
	} `yaml:"watchlist"`
	Schedule struct {
		ScanCron    string `yaml:"scan_cron"`
		SummaryCron string `yaml:"summary_cron"`
	} `yaml:"schedule"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
		Env   string `yaml:"env"`
	} `yaml:"log"`
}

// envOverrides are applied on top of the YAML file when set.
type envOverrides struct {
	TelegramBotToken string   `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   *int64   `envconfig:"TELEGRAM_CHAT_ID"`
	Provider         string   `envconfig:"DATA_PROVIDER"`
	BaseURL          string   `envconfig:"VSTRADER_BASE_URL"`
	APIKey           string   `envconfig:"VSTRADER_API_KEY"`
	Proxy            string   `envconfig:"HTTPS_PROXY"`
	Timezone         string   `envconfig:"MARKET_TIMEZONE"`
	CacheBackend     string   `envconfig:"CACHE_BACKEND"`
	RedisAddr        string   `envconfig:"REDIS_ADDR"`
	RedisPassword    string   `envconfig:"REDIS_PASSWORD"`
	RedisDB          *int     `envconfig:"REDIS_DB"`
	SQLitePath       string   `envconfig:"SQLITE_PATH"`
	WatchlistFile    string   `envconfig:"WATCHLIST_FILE"`
	ScanCron         string   `envconfig:"CRON_SCAN"`
	HTTPAddr         string   `envconfig:"HTTP_ADDR"`
	LogLevel         string   `envconfig:"LOG_LEVEL"`
	AppEnv           string   `envconfig:"APP_ENV"`
	Timeframes       []string `envconfig:"PIVOT_TIMEFRAMES"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	cfg.applyEnv(env)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv(env envOverrides) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Telegram.BotToken, env.TelegramBotToken)
	if env.TelegramChatID != nil {
		c.Telegram.ChatID = *env.TelegramChatID
	}
	set(&c.DataSource.Provider, env.Provider)
	set(&c.DataSource.BaseURL, env.BaseURL)
	set(&c.DataSource.APIKey, env.APIKey)
	set(&c.DataSource.Proxy, env.Proxy)
	set(&c.DataSource.Timezone, env.Timezone)
	set(&c.Cache.Backend, env.CacheBackend)
	set(&c.Cache.RedisAddr, env.RedisAddr)
	set(&c.Cache.RedisPassword, env.RedisPassword)
	if env.RedisDB != nil {
		c.Cache.RedisDB = *env.RedisDB
	}
	set(&c.Database.SQLitePath, env.SQLitePath)
	set(&c.Watchlist.File, env.WatchlistFile)
	set(&c.Schedule.ScanCron, env.ScanCron)
	set(&c.HTTP.Addr, env.HTTPAddr)
	set(&c.Log.Level, env.LogLevel)
	set(&c.Log.Env, env.AppEnv)
	if len(env.Timeframes) > 0 {
		c.Pivot.Timeframes = env.Timeframes
	}
}

func (c *Config) applyDefaults() {
	def := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	def(&c.DataSource.Provider, "yahoo")
	def(&c.DataSource.Timezone, "Europe/Berlin")
	if c.DataSource.RatePerSecond == 0 {
		c.DataSource.RatePerSecond = 2
	}
	if c.Pivot.GeneralTolerancePct == 0 {
		c.Pivot.GeneralTolerancePct = 0.5
	}
	if c.Pivot.SetupTolerancePct == 0 {
		c.Pivot.SetupTolerancePct = 0.1
	}
	if len(c.Pivot.Timeframes) == 0 {
		for _, tf := range model.AllTimeFrames {
			c.Pivot.Timeframes = append(c.Pivot.Timeframes, tf.String())
		}
	}
	if len(c.Pivot.SetupTimeframes) == 0 {
		c.Pivot.SetupTimeframes = []string{"1d", "1w", "1m"}
	}
	def(&c.Cache.Backend, "memory")
	def(&c.Database.SQLitePath, "data/pivot_sentinel.db")
	def(&c.Watchlist.File, "data/watchlist.json")
	def(&c.Schedule.ScanCron, "0 */15 8-22 * * 1-5")
	def(&c.Schedule.SummaryCron, "0 0 18 * * 1-5")
	def(&c.HTTP.Addr, ":8080")
	def(&c.Log.Level, "info")
	def(&c.Log.Env, "production")
}

// Validate checks that all required fields are set and well-formed.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "vstrader":
		if c.DataSource.BaseURL == "" {
			return errors.New("data_source.base_url is required for vstrader")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Pivot.GeneralTolerancePct <= 0 || c.Pivot.SetupTolerancePct <= 0 {
		return errors.New("pivot tolerances must be positive")
	}
	if _, err := c.TimeFrames(); err != nil {
		return err
	}
	if _, err := c.SetupTimeFrames(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	if _, err := c.CacheTTLs(); err != nil {
		return err
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		return errors.New("telegram.chat_id is required when bot_token is set")
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

// Location loads the market time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DataSource.Timezone)
	if err != nil {
		return nil, fmt.Errorf("data_source.timezone: %w", err)
	}
	return loc, nil
}

// TimeFrames parses pivot.timeframes.
func (c *Config) TimeFrames() ([]model.TimeFrame, error) {
	return parseTimeFrames("pivot.timeframes", c.Pivot.Timeframes)
}

// SetupTimeFrames parses pivot.setup_timeframes.
func (c *Config) SetupTimeFrames() ([]model.TimeFrame, error) {
	return parseTimeFrames("pivot.setup_timeframes", c.Pivot.SetupTimeframes)
}

func parseTimeFrames(field string, raw []string) ([]model.TimeFrame, error) {
	out := make([]model.TimeFrame, 0, len(raw))
	for _, s := range raw {
		tf, err := model.ParseTimeFrame(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		out = append(out, tf)
	}
	return out, nil
}

// CacheTTLs returns the default TTLs with cache.ttl overrides applied.
func (c *Config) CacheTTLs() (cache.TTLs, error) {
	overrides := make(cache.TTLs, len(c.Cache.TTL))
	for k, v := range c.Cache.TTL {
		tf, err := model.ParseTimeFrame(k)
		if err != nil {
			return nil, fmt.Errorf("cache.ttl: %w", err)
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("cache.ttl.%s: %w", k, err)
		}
		overrides[tf] = d
	}
	return cache.DefaultTTLs().Merge(overrides), nil
}
