package api

import (
	"context"
	"net/http"
	"time"

	xhttp "FinTrack/pkg/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// HealthEchoHandler reports dependency pings on /healthz.
type HealthEchoHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

func NewHealthEchoHandler(checks map[string]HealthCheck) *HealthEchoHandler {
	return &HealthEchoHandler{checks: checks, timeout: 2 * time.Second}
}

func (h *HealthEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

func (h *HealthEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}
	return xhttp.DataResponse(c, status, deps)
}
