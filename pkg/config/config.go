package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8000" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"5s"`
		AllowOrigins    []string      `yaml:"allow_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Market Market `yaml:"market"`
	Cache  struct {
		// memory, redis or layered
		Backend       string `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
		MemoryMaxSize int    `yaml:"memory_max_size" default:"1000" validate:"gte=1"`
	} `yaml:"cache"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size" default:"10"`
		Prefix   string `yaml:"prefix" default:"fintrack"`
	} `yaml:"redis"`
	Postgres struct {
		// Empty DSN keeps line items in memory.
		DSN      string `yaml:"dsn"`
		MaxConns int32  `yaml:"max_conns" default:"20"`
		MinConns int32  `yaml:"min_conns" default:"2"`
	} `yaml:"postgres"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" validate:"required_if=Enabled true"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"fintrack"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert"`
		WaitForAsync bool          `yaml:"wait_for_async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers" validate:"required_if=Enabled true"`
		Topic        string        `yaml:"topic" default:"fintrack.market-gains"`
		RequiredAcks int           `yaml:"required_acks" default:"-1" validate:"oneof=-1 0 1"`
		Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=none gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
	Auth struct {
		// token_store: memory or redis
		TokenStore string        `yaml:"token_store" default:"memory" validate:"oneof=memory redis"`
		TokenTTL   time.Duration `yaml:"token_ttl"`
		Tokens     []StaticToken `yaml:"tokens" validate:"dive"`
		RateBurst  float64       `yaml:"rate_burst" default:"10" validate:"gt=0"`
		RatePerSec float64       `yaml:"rate_per_sec" default:"1" validate:"gt=0"`
	} `yaml:"auth"`
	Scheduler struct {
		Enabled   bool          `yaml:"enabled"`
		Spec      string        `yaml:"spec" default:"0 5 0 * * *"`
		LockTTL   time.Duration `yaml:"lock_ttl" default:"5m"`
		RunOnBoot bool          `yaml:"run_on_boot"`
	} `yaml:"scheduler"`
}

// Market configures the price provider and the fixed basket.
type Market struct {
	Provider      string        `yaml:"provider" default:"fmp" validate:"oneof=fmp alphavantage"`
	BaseURL       string        `yaml:"base_url" validate:"omitempty,url"`
	APIKey        string        `yaml:"api_key"`
	QuoteCurrency string        `yaml:"quote_currency" default:"USD" validate:"len=3"`
	Timeout       time.Duration `yaml:"timeout" default:"8s"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" default:"10s"`
	HistoryDays   int           `yaml:"history_days" default:"380" validate:"gte=365"`
	CacheTTL      time.Duration `yaml:"cache_ttl" default:"15m"`
	Basket        []BasketAsset `yaml:"basket" validate:"required,min=1,dive"`
}

// BasketAsset is one configured market instrument.
type BasketAsset struct {
	Name   string `yaml:"name" validate:"required"`
	Symbol string `yaml:"symbol" validate:"required"`
	Kind   string `yaml:"kind" validate:"oneof=equity index crypto"`
}

// StaticToken seeds the token store at startup.
type StaticToken struct {
	Token  string `yaml:"token" validate:"required,min=16"`
	UserID string `yaml:"user_id" validate:"required"`
	Email  string `yaml:"email" validate:"omitempty,email"`
}

// DefaultBasket is used when the configuration names no assets.
func DefaultBasket() []BasketAsset {
	return []BasketAsset{
		{Name: "VOO", Symbol: "VOO", Kind: "equity"},
		{Name: "QQQ", Symbol: "QQQ", Kind: "equity"},
		{Name: "DOW JONES", Symbol: "DIA", Kind: "index"},
		{Name: "Bitcoin", Symbol: "BTCUSD", Kind: "crypto"},
	}
}

var validate = validator.New()

// Load reads and parses a YAML configuration file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := c.finalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadWithEnv loads .env (if present), the YAML file, then overrides with
// environment variables.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var c Config
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.finalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"APP_ENV":          &c.Environment,
		"LOG_LEVEL":        &c.Log.Level,
		"MARKET_PROVIDER":  &c.Market.Provider,
		"MARKET_BASE_URL":  &c.Market.BaseURL,
		"MARKET_API_KEY":   &c.Market.APIKey,
		"CACHE_BACKEND":    &c.Cache.Backend,
		"REDIS_HOST":       &c.Redis.Host,
		"REDIS_PASSWORD":   &c.Redis.Password,
		"DATABASE_URL":     &c.Postgres.DSN,
		"CLICKHOUSE_HOST":  &c.ClickHouse.Host,
		"KAFKA_TOPIC":      &c.Kafka.Topic,
		"AUTH_TOKEN_STORE": &c.Auth.TokenStore,
	}
	for k, dst := range str {
		if v := os.Getenv(k); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":       &c.Server.Port,
		"REDIS_PORT": &c.Redis.Port,
	}
	for k, dst := range ints {
		if v := os.Getenv(k); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("env %s: %w", k, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Enabled = true
	}
	return nil
}

func (c *Config) finalize() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	if len(c.Market.Basket) == 0 {
		c.Market.Basket = DefaultBasket()
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(c.Market.Basket))
	for _, a := range c.Market.Basket {
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("market.basket: duplicate asset name %q", a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	if c.Cache.Backend != "memory" && c.Redis.Host == "" {
		return fmt.Errorf("cache.backend %s requires redis.host", c.Cache.Backend)
	}
	return nil
}
