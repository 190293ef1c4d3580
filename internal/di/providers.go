package di

import (
	"context"
	"fmt"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	"FinTrack/internal/handler/api"
	mid "FinTrack/internal/middleware"
	internalrepo "FinTrack/internal/repository"
	"FinTrack/internal/scheduler"
	"FinTrack/internal/service/marketdata"
	"FinTrack/internal/service/ratelimit"
	"FinTrack/internal/services/gains"
	"FinTrack/internal/usecase"
	"FinTrack/pkg/cache"
	pkgch "FinTrack/pkg/clickhouse"
	"FinTrack/pkg/config"
	xhttp "FinTrack/pkg/http"
	pkgkafka "FinTrack/pkg/kafka"
	applogger "FinTrack/pkg/logger"
	"FinTrack/pkg/metrics"
	pkgpg "FinTrack/pkg/postgres"
	"FinTrack/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

const initTimeout = 10 * time.Second

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry
// served at /metrics.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideRedis connects to Redis when the cache or the token store needs it.
func ProvideRedis(cfg *config.Config) (*cache.RedisCache, error) {
	if cfg.Cache.Backend == "memory" && cfg.Auth.TokenStore != "redis" {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvidePriceCache picks the price-table cache backend.
func ProvidePriceCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	switch {
	case cfg.Cache.Backend == "layered" && rc != nil:
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
			cache.WithLayeredMemoryTTL(time.Minute),
		)
	case cfg.Cache.Backend == "redis" && rc != nil:
		return rc
	default:
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	}
}

// ProvidePostgres opens the line item database when a DSN is configured.
func ProvidePostgres(cfg *config.Config) (*pkgpg.Client, error) {
	if cfg.Postgres.DSN == "" {
		return nil, nil
	}
	client, err := pkgpg.NewClient(
		pkgpg.WithDSN(cfg.Postgres.DSN),
		pkgpg.WithPool(cfg.Postgres.MaxConns, cfg.Postgres.MinConns),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}
	return client, nil
}

// ProvideRecordStore backs line items with Postgres, or memory without a DSN.
func ProvideRecordStore(pg *pkgpg.Client, l *applogger.Logger) (domrepo.RecordStore, error) {
	if pg == nil {
		l.Warn("postgres not configured, line items are kept in memory")
		return internalrepo.NewMemoryRecordStore(), nil
	}
	store := internalrepo.NewPGRecordStore(pg)
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("record schema: %w", err)
	}
	return store, nil
}

// ProvideTokenStore builds the token store and seeds the configured tokens.
func ProvideTokenStore(cfg *config.Config, rc *cache.RedisCache) (domrepo.TokenStore, error) {
	var store domrepo.TokenStore = internalrepo.NewMemoryTokenStore()
	if cfg.Auth.TokenStore == "redis" && rc != nil {
		store = internalrepo.NewRedisTokenStore(rc.Client(), cfg.Redis.Prefix+":token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	for _, t := range cfg.Auth.Tokens {
		p := models.Principal{ID: t.UserID, Email: t.Email}
		if err := store.Put(ctx, t.Token, p, cfg.Auth.TokenTTL); err != nil {
			return nil, fmt.Errorf("seed token for %s: %w", t.UserID, err)
		}
	}
	return store, nil
}

// ProvideClickHouseClient creates a ClickHouse client when the archive is enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.PriceArchiveSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvidePriceArchive returns nil when ClickHouse is disabled.
func ProvidePriceArchive(ch *pkgch.Client, l *applogger.Logger) domrepo.PriceArchive {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHPriceArchive(ch, l)
}

// ProvideKafkaProducer creates a Kafka producer when brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideGainsPublisher returns nil when Kafka is disabled.
func ProvideGainsPublisher(p *pkgkafka.Producer, cfg *config.Config) domrepo.GainsPublisher {
	if p == nil {
		return nil
	}
	return internalrepo.NewKafkaGainsPublisher(p, cfg.Kafka.Topic)
}

// ProvideMarketAdapter creates the price-history provider adapter.
func ProvideMarketAdapter(cfg *config.Config, l *applogger.Logger) (*marketdata.Adapter, error) {
	if cfg.Market.APIKey == "" {
		l.Warn("market api key is empty, provider requests go out without one")
	}
	a, err := marketdata.NewAdapter(l,
		marketdata.WithFamily(marketdata.Family(cfg.Market.Provider)),
		marketdata.WithBaseURL(cfg.Market.BaseURL),
		marketdata.WithAPIKey(cfg.Market.APIKey),
		marketdata.WithQuoteCurrency(cfg.Market.QuoteCurrency),
		marketdata.WithTimeout(cfg.Market.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("market adapter: %w", err)
	}
	return a, nil
}

// ProvideBasket converts the configured basket into domain assets.
func ProvideBasket(cfg *config.Config) ([]models.Asset, error) {
	basket := make([]models.Asset, 0, len(cfg.Market.Basket))
	for _, b := range cfg.Market.Basket {
		kind := models.InstrumentKind(b.Kind)
		if !models.IsValidInstrumentKind(kind) {
			return nil, fmt.Errorf("basket asset %q: unsupported kind %q", b.Name, b.Kind)
		}
		basket = append(basket, models.Asset{Name: b.Name, Symbol: b.Symbol, Kind: kind})
	}
	return basket, nil
}

// ProvideMarketGains creates the market gains use case.
func ProvideMarketGains(
	cfg *config.Config,
	adapter *marketdata.Adapter,
	basket []models.Asset,
	priceCache cache.Service,
	archive domrepo.PriceArchive,
	pub domrepo.GainsPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.MarketGainsUseCase {
	opts := []usecase.MarketGainsOption{
		usecase.WithHistoryDays(cfg.Market.HistoryDays),
		usecase.WithFetchTimeout(cfg.Market.FetchTimeout),
		usecase.WithPriceCache(priceCache, cfg.Market.CacheTTL),
		usecase.WithMetrics(m),
		usecase.WithLogger(l),
	}
	if archive != nil {
		opts = append(opts, usecase.WithArchive(archive))
	}
	if pub != nil {
		opts = append(opts, usecase.WithPublisher(pub))
	}
	return usecase.NewMarketGainsUseCase(adapter, gains.NewCalculator(), basket, opts...)
}

// ProvideLimiter creates the per-principal request limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideGuard chains authentication and rate limiting for protected routes.
func ProvideGuard(cfg *config.Config, tokens domrepo.TokenStore, lim *ratelimit.Limiter, l *applogger.Logger) api.Guard {
	return api.Guard{
		mid.RequireAuth(tokens, l),
		mid.RateLimit(lim, cfg.Auth.RateBurst, cfg.Auth.RatePerSec),
	}
}

// ProvideHealthChecks pings every configured dependency.
func ProvideHealthChecks(records domrepo.RecordStore, tokens domrepo.TokenStore, ch *pkgch.Client) map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{
		"records": records.Health,
		"tokens":  tokens.Health,
	}
	if ch != nil {
		checks["clickhouse"] = ch.Health
	}
	return checks
}

// ProvideHandlers collects every HTTP handler.
func ProvideHandlers(
	l *applogger.Logger,
	uc *usecase.MarketGainsUseCase,
	records domrepo.RecordStore,
	guard api.Guard,
	checks map[string]api.HealthCheck,
) xhttp.Handlers {
	return xhttp.Handlers{
		api.NewHealthEchoHandler(checks),
		api.NewMarketEchoHandler(l, uc, guard),
		api.NewRecordsEchoHandler(l, records, guard),
	}
}

// ProvideWarmer creates the scheduled basket warm-up. It shares the price
// cache so the lock is visible across replicas when Redis backs it.
func ProvideWarmer(cfg *config.Config, uc *usecase.MarketGainsUseCase, priceCache cache.Service, l *applogger.Logger) *scheduler.Warmer {
	return scheduler.NewWarmer(uc,
		scheduler.WithLock(priceCache, cfg.Scheduler.LockTTL),
		scheduler.WithLogger(l),
	)
}

// ProvideApp creates the application server and registers closers in
// reverse dependency order.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handlers xhttp.Handlers,
	warmer *scheduler.Warmer,
	lim *ratelimit.Limiter,
	records domrepo.RecordStore,
	priceCache cache.Service,
	rc *cache.RedisCache,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	app := server.New(cfg, l, handlers, warmer, lim)
	if producer != nil {
		app.AddCloser("kafka", producer.Close)
	}
	if ch != nil {
		app.AddCloser("clickhouse", ch.Close)
	}
	app.AddCloser("records", records.Close)
	if _, isRedis := priceCache.(*cache.RedisCache); !isRedis {
		app.AddCloser("price cache", priceCache.Close)
	}
	if rc != nil {
		app.AddCloser("redis", rc.Close)
	}
	return app
}
