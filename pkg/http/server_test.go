package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
}

func TestNewServer_RoutesMetricsAndRequestID(t *testing.T) {
	srv := NewServer(Handlers{pingHandler{}, nil}, WithRegistry(prometheus.NewRegistry()))
	e := srv.Echo()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatalf("expected a minted request id")
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `fintrack_http_requests_total{method="GET",route="/ping",status="200"} 1`) {
		t.Fatalf("request counter missing from scrape:\n%s", body)
	}
}

func TestNewServer_UnknownRouteUsesEnvelope(t *testing.T) {
	e := NewServer(nil, WithRegistry(prometheus.NewRegistry())).Echo()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if rec.Header().Get(echo.HeaderXRequestID) != "abc" {
		t.Fatalf("inbound request id not echoed")
	}
	if !strings.Contains(rec.Body.String(), `"status":404`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
