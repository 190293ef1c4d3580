package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	domsvc "FinTrack/internal/domain/service"
	"FinTrack/internal/service/marketdata"
	"FinTrack/pkg/cache"
	"FinTrack/pkg/logger"
	"FinTrack/pkg/metrics"

	"github.com/shopspring/decimal"
)

const (
	defaultHistoryDays  = 380
	defaultFetchTimeout = 10 * time.Second
	sideEffectTimeout   = 5 * time.Second
	genericAssetError   = "internal error while computing gains"
)

// MarketGainsOption configures MarketGainsUseCase.
type MarketGainsOption func(*MarketGainsUseCase)

func WithHorizons(hs []models.Horizon) MarketGainsOption {
	return func(uc *MarketGainsUseCase) { uc.horizons = hs }
}

// WithHistoryDays sets the fetch window. It is never shorter than the longest horizon.
func WithHistoryDays(n int) MarketGainsOption {
	return func(uc *MarketGainsUseCase) { uc.historyDays = n }
}

func WithFetchTimeout(d time.Duration) MarketGainsOption {
	return func(uc *MarketGainsUseCase) { uc.fetchTimeout = d }
}

// WithPriceCache caches normalized tables per symbol and as-of day.
func WithPriceCache(c cache.Service, ttl time.Duration) MarketGainsOption {
	return func(uc *MarketGainsUseCase) { uc.cache, uc.cacheTTL = c, ttl }
}

func WithArchive(a domrepo.PriceArchive) MarketGainsOption {
	return func(uc *MarketGainsUseCase) { uc.archive = a }
}

func WithPublisher(p domrepo.GainsPublisher) MarketGainsOption {
	return func(uc *MarketGainsUseCase) { uc.publisher = p }
}

func WithMetrics(m domrepo.Metrics) MarketGainsOption {
	return func(uc *MarketGainsUseCase) { uc.metrics = m }
}

func WithLogger(l *logger.Logger) MarketGainsOption {
	return func(uc *MarketGainsUseCase) { uc.log = l }
}

// WithClock overrides the time source used for as_of.
func WithClock(now func() time.Time) MarketGainsOption {
	return func(uc *MarketGainsUseCase) { uc.now = now }
}

// MarketGainsUseCase evaluates the fixed basket: one fetch and one calculator
// pass per asset, each isolated from the others.
type MarketGainsUseCase struct {
	source       domrepo.PriceSource
	calc         domsvc.GainsCalculator
	basket       []models.Asset
	horizons     []models.Horizon
	historyDays  int
	fetchTimeout time.Duration

	cache     cache.Service
	cacheTTL  time.Duration
	archive   domrepo.PriceArchive
	publisher domrepo.GainsPublisher
	metrics   domrepo.Metrics
	log       *logger.Logger
	now       func() time.Time
}

func NewMarketGainsUseCase(source domrepo.PriceSource, calc domsvc.GainsCalculator, basket []models.Asset, opts ...MarketGainsOption) *MarketGainsUseCase {
	uc := &MarketGainsUseCase{
		source:       source,
		calc:         calc,
		basket:       append([]models.Asset(nil), basket...),
		horizons:     models.DefaultHorizons(),
		historyDays:  defaultHistoryDays,
		fetchTimeout: defaultFetchTimeout,
		metrics:      metrics.Nop{},
		log:          logger.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	if longest := models.LongestHorizon(uc.horizons); uc.historyDays < longest {
		uc.historyDays = longest
	}
	return uc
}

// Compute evaluates every basket asset. The snapshot always holds one entry
// per asset; failures are reported in that asset's slot.
func (uc *MarketGainsUseCase) Compute(ctx context.Context) *models.MarketSnapshot {
	start := uc.now()
	asOf := models.DateOf(start)
	since := asOf.AddDays(-uc.historyDays)

	snap := &models.MarketSnapshot{
		ComputedAt: start.UTC(),
		AsOf:       asOf,
		Results:    make(map[string]models.GainsResult, len(uc.basket)),
		Order:      make([]string, 0, len(uc.basket)),
	}

	ch := make(chan models.GainsResult, len(uc.basket))
	var wg sync.WaitGroup
	for _, a := range uc.basket {
		snap.Order = append(snap.Order, a.Name)
		wg.Add(1)
		go func(a models.Asset) {
			defer wg.Done()
			ch <- uc.evaluate(ctx, a, asOf, since)
		}(a)
	}
	go func() { wg.Wait(); close(ch) }()

	for res := range ch {
		snap.Results[res.Asset.Name] = res
		uc.metrics.RecordAssetOutcome(res.Asset.Name, outcomeOf(res))
	}
	uc.metrics.RecordLatency("market_gains", time.Since(start).Seconds())

	uc.publish(ctx, snap)
	return snap
}

// evaluate never panics; any failure becomes an error result.
func (uc *MarketGainsUseCase) evaluate(ctx context.Context, a models.Asset, asOf, since models.Date) (res models.GainsResult) {
	stage := "fetch"
	log := uc.log.With(logger.String("asset", a.Name), logger.String("symbol", a.Symbol))

	defer func() {
		if r := recover(); r != nil {
			log.Error("asset evaluation panicked",
				logger.String("stage", stage),
				logger.String("panic", fmt.Sprint(r)),
			)
			uc.metrics.RecordError("panic")
			res = models.GainsResult{Asset: a, Error: genericAssetError}
		}
	}()

	table, err := uc.history(ctx, a, since)
	if err != nil {
		log.Warn("price history unavailable", logger.String("stage", stage), logger.Error(err))
		uc.metrics.RecordError(marketdata.Outcome(err))
		return failure(a, err)
	}

	stage = "calculate"
	out, err := uc.calc.Compute(table, asOf, uc.horizons)
	if err != nil {
		log.Warn("gains calculation failed", logger.String("stage", stage), logger.Error(err))
		uc.metrics.RecordError("calculate")
		return models.GainsResult{Asset: a, Error: err.Error()}
	}
	out.Asset = a

	price, _ := out.LatestPrice.Float64()
	uc.metrics.RecordLastPrice(a.Symbol, price)
	return out
}

// history returns the asset table from cache or the provider.
func (uc *MarketGainsUseCase) history(ctx context.Context, a models.Asset, since models.Date) (models.PriceTable, error) {
	key := cache.GenerateKeyWithParams("prices", a.Symbol, string(a.Kind), since.String())

	if uc.cache != nil {
		var cached cachedTable
		switch err := uc.cache.Get(ctx, key, &cached); {
		case err == nil:
			if table, ok := cached.table(); ok {
				uc.metrics.RecordCache("hit")
				return table, nil
			}
			uc.metrics.RecordCache("error")
		case errors.Is(err, cache.ErrCacheMiss):
			uc.metrics.RecordCache("miss")
		default:
			uc.metrics.RecordCache("error")
			uc.log.Debug("price cache read failed", logger.String("key", key), logger.Error(err))
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, uc.fetchTimeout)
	defer cancel()

	start := time.Now()
	table, err := uc.source.FetchHistory(fetchCtx, a, since)
	uc.metrics.RecordLatency("provider_fetch", time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, &marketdata.FetchError{Kind: marketdata.ErrNoData, Symbol: a.Symbol, Message: "empty price table"}
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, newCachedTable(a.Symbol, table), uc.cacheTTL); err != nil {
			uc.log.Debug("price cache write failed", logger.String("key", key), logger.Error(err))
		}
	}
	uc.archiveTable(ctx, a, table)
	return table, nil
}

func (uc *MarketGainsUseCase) archiveTable(ctx context.Context, a models.Asset, table models.PriceTable) {
	if uc.archive == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := uc.archive.Archive(actx, a, table); err != nil {
		uc.metrics.RecordError("archive")
		uc.log.Warn("price archive failed", logger.String("asset", a.Name), logger.Error(err))
	}
}

func (uc *MarketGainsUseCase) publish(ctx context.Context, snap *models.MarketSnapshot) {
	if uc.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := uc.publisher.PublishSnapshot(pctx, snap); err != nil {
		uc.metrics.RecordError("publish")
		uc.log.Warn("gains snapshot publish failed", logger.Error(err))
	}
}

// failure maps a fetch error onto the asset's error slot.
func failure(a models.Asset, err error) models.GainsResult {
	res := models.GainsResult{Asset: a, Error: err.Error()}
	if fe, ok := marketdata.AsFetchError(err); ok {
		res.Error = fe.Error()
		res.Debug = fe.Debug
		res.StatusCode = fe.StatusCode
	}
	return res
}

func outcomeOf(res models.GainsResult) string {
	if !res.Failed() {
		return "ok"
	}
	return "error"
}

// cachedTable is the cache encoding of a price table.
type cachedTable struct {
	Symbol string            `json:"symbol"`
	Points map[string]string `json:"points"`
}

func newCachedTable(symbol string, t models.PriceTable) cachedTable {
	pts := make(map[string]string, len(t))
	for d, p := range t {
		pts[d.String()] = p.Price.String()
	}
	return cachedTable{Symbol: symbol, Points: pts}
}

func (c cachedTable) table() (models.PriceTable, bool) {
	if len(c.Points) == 0 {
		return nil, false
	}
	t := make(models.PriceTable, len(c.Points))
	for ds, ps := range c.Points {
		d, err := models.ParseDate(ds)
		if err != nil {
			return nil, false
		}
		p, err := decimal.NewFromString(ps)
		if err != nil {
			return nil, false
		}
		t.Add(models.PricePoint{Date: d, Price: p})
	}
	return t, len(t) > 0
}
