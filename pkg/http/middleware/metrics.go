package middleware

import (
	"errors"
	"strconv"
	"time"

	applogger "FinTrack/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics holds the request collectors of one registry.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewHTTPMetrics registers the collectors on reg. Collectors already present
// on reg are reused, so several servers may share one registry.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &HTTPMetrics{
		requests: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route template, method and status code.",
		}, []string{"route", "method", "status"})),
		duration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fintrack",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "class"})),
		inFlight: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fintrack",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requests currently being served.",
		})),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Middleware labels by the echo route template so cardinality stays bounded.
// 5xx and slow requests are logged.
func (m *HTTPMetrics) Middleware(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	if l == nil {
		l = applogger.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inFlight.Inc()
			defer m.inFlight.Dec()
			start := time.Now()

			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			code := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				code = he.Code
			}
			took := time.Since(start)

			m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
			m.duration.WithLabelValues(route, method, statusClass(code)).Observe(took.Seconds())

			switch {
			case code >= 500:
				l.Error("http request failed", applogger.String("route", route), applogger.Int("status", code), applogger.Duration("took_ms", took))
			case slow > 0 && took >= slow:
				l.Warn("http request slow", applogger.String("route", route), applogger.Int("status", code), applogger.Duration("took_ms", took))
			}
			return err
		}
	}
}

func statusClass(code int) string {
	if code < 100 || code >= 600 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
