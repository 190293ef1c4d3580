package api

import (
	"net/http"

	"FinTrack/internal/domain/models"
	"FinTrack/internal/usecase"
	xlogger "FinTrack/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketEchoHandler serves the basket gains endpoint.
type MarketEchoHandler struct {
	logger *xlogger.Logger
	gains  *usecase.MarketGainsUseCase
	guard  Guard
}

func NewMarketEchoHandler(logger *xlogger.Logger, gains *usecase.MarketGainsUseCase, guard Guard) *MarketEchoHandler {
	return &MarketEchoHandler{logger: logger, gains: gains, guard: guard}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/invest", h.guard...)
	g.GET("/market-gains/", h.MarketGains)
}

// MarketGains returns one entry per basket asset keyed by display name. It
// answers 200 even when some or all assets failed.
func (h *MarketEchoHandler) MarketGains(c echo.Context) error {
	snap := h.gains.Compute(c.Request().Context())

	body := make(map[string]any, len(snap.Results))
	failed := 0
	for _, name := range snap.Order {
		res := snap.Results[name]
		if res.Failed() {
			failed++
		}
		body[name] = gainsView(res)
	}
	if failed > 0 {
		h.logger.Info("market gains served with failures",
			xlogger.Int("assets", len(snap.Order)),
			xlogger.Int("failed", failed),
		)
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return c.JSON(http.StatusOK, body)
}

type assetGains struct {
	AsOf        string              `json:"as_of"`
	LatestPrice float64             `json:"latest_price"`
	ChangesPct  map[string]*float64 `json:"changes_pct"`
}

type assetFailure struct {
	Error      string         `json:"error"`
	Debug      map[string]any `json:"debug,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
}

func gainsView(res models.GainsResult) any {
	if res.Failed() {
		return assetFailure{Error: res.Error, Debug: res.Debug, StatusCode: res.StatusCode}
	}
	changes := make(map[string]*float64, len(res.Changes))
	for label, v := range res.Changes {
		if v == nil {
			changes[label] = nil
			continue
		}
		f, _ := v.Float64()
		changes[label] = &f
	}
	price, _ := res.LatestPrice.Float64()
	return assetGains{AsOf: res.AsOf.String(), LatestPrice: price, ChangesPct: changes}
}
