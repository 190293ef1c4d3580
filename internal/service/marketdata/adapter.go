package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"FinTrack/internal/domain/models"
	"FinTrack/internal/domain/repository"
	xhttp "FinTrack/pkg/http"
	"FinTrack/pkg/logger"
)

const (
	defaultTimeout = 8 * time.Second
	maxBodyBytes   = 16 << 20
)

// Config holds adapter settings.
type Config struct {
	Family        Family
	BaseURL       string
	APIKey        string
	QuoteCurrency string
	Timeout       time.Duration
}

// Option configures the adapter.
type Option func(*Config)

func WithFamily(f Family) Option {
	return func(c *Config) { c.Family = f }
}

func WithBaseURL(u string) Option {
	return func(c *Config) { c.BaseURL = strings.TrimRight(u, "/") }
}

// WithAPIKey sets the provider key. An empty key sends requests without one.
func WithAPIKey(k string) Option {
	return func(c *Config) { c.APIKey = k }
}

func WithQuoteCurrency(q string) Option {
	return func(c *Config) { c.QuoteCurrency = strings.ToUpper(q) }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// Adapter fetches daily price history for one basket asset per call.
type Adapter struct {
	cfg        Config
	client     *xhttp.Client
	strategies map[models.InstrumentKind]strategy
	log        *logger.Logger
}

var _ repository.PriceSource = (*Adapter)(nil)

// NewAdapter creates a provider adapter. The default family is FMP.
func NewAdapter(log *logger.Logger, opts ...Option) (*Adapter, error) {
	cfg := Config{
		Family:        FamilyFMP,
		QuoteCurrency: "USD",
		Timeout:       defaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !IsValidFamily(cfg.Family) {
		return nil, fmt.Errorf("unknown provider family %q", cfg.Family)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL(cfg.Family)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Adapter{
		cfg:        cfg,
		client:     xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout), xhttp.WithHeader("Accept", "application/json")),
		strategies: strategiesFor(cfg.Family, cfg.QuoteCurrency),
		log:        log.With(logger.String("component", "marketdata"), logger.String("family", string(cfg.Family))),
	}, nil
}

// FetchHistory issues one GET for asset and normalizes the answer. since bounds
// the request window for families that take a start date. Failures are always
// *FetchError.
func (a *Adapter) FetchHistory(ctx context.Context, asset models.Asset, since models.Date) (models.PriceTable, error) {
	st, ok := a.strategies[asset.Kind]
	if !ok {
		return nil, &FetchError{
			Kind:    ErrUnparseableResponse,
			Symbol:  asset.Symbol,
			Message: fmt.Sprintf("unsupported instrument kind %q", asset.Kind),
		}
	}

	query := st.query(asset, since)
	if a.cfg.APIKey != "" {
		query.Set("apikey", a.cfg.APIKey)
	}

	start := time.Now()
	status, body, err := a.client.Fetch(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         a.cfg.BaseURL + st.path(asset),
		QueryParams: query,
	}, maxBodyBytes)
	if err != nil {
		return nil, &FetchError{
			Kind:       ErrTransport,
			Symbol:     asset.Symbol,
			StatusCode: status,
			Message:    a.scrub(transportMessage(err)),
		}
	}

	a.log.Debug("provider response",
		logger.String("symbol", asset.Symbol),
		logger.String("strategy", st.name),
		logger.Int("status", status),
		logger.Int("bytes", len(body)),
		logger.Duration("elapsed", time.Since(start)),
	)

	if status < 200 || status >= 300 {
		return nil, &FetchError{
			Kind:       ErrTransport,
			Symbol:     asset.Symbol,
			StatusCode: status,
			Message:    fmt.Sprintf("unexpected status %d", status),
			Debug:      a.bodyDebug(body),
		}
	}

	return a.normalize(asset, st, body, status)
}

func (a *Adapter) normalize(asset models.Asset, st strategy, body []byte, status int) (models.PriceTable, error) {
	root, err := decodeBody(body)
	if err != nil {
		return nil, &FetchError{
			Kind:       ErrUnparseableResponse,
			Symbol:     asset.Symbol,
			StatusCode: status,
			Message:    "response body is not JSON",
			Debug:      map[string]any{"body_prefix": a.scrub(prefix(body, 120))},
		}
	}

	series, ok := locateSeries(root, st.series)
	if !ok {
		return nil, &FetchError{
			Kind:       ErrUnparseableResponse,
			Symbol:     asset.Symbol,
			StatusCode: status,
			Message:    "historical series not found",
			Debug:      describe(root, a.scrub),
		}
	}

	table := normalizeRows(series, st)
	if len(table) == 0 {
		return nil, &FetchError{
			Kind:       ErrNoData,
			Symbol:     asset.Symbol,
			StatusCode: status,
			Message:    "no usable rows",
			Debug:      describe(root, a.scrub),
		}
	}
	return table, nil
}

// bodyDebug keeps provider notes from a rejected answer when it is JSON.
func (a *Adapter) bodyDebug(body []byte) map[string]any {
	root, err := decodeBody(body)
	if err != nil {
		return nil
	}
	return describe(root, a.scrub)
}

// scrub removes the API key from text that may leave the process.
func (a *Adapter) scrub(s string) string {
	if a.cfg.APIKey == "" {
		return s
	}
	s = strings.ReplaceAll(s, a.cfg.APIKey, "***")
	return strings.ReplaceAll(s, url.QueryEscape(a.cfg.APIKey), "***")
}

func transportMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "provider request timed out"
	case errors.Is(err, context.Canceled):
		return "provider request canceled"
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return "provider request timed out"
		}
		return ue.Err.Error()
	}
	return err.Error()
}

func prefix(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return strings.TrimSpace(string(b))
}
