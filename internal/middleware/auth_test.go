package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"FinTrack/internal/domain/models"
	"FinTrack/internal/repository"
	"FinTrack/internal/service/ratelimit"
	applogger "FinTrack/pkg/logger"

	"github.com/labstack/echo/v4"
)

func newGuarded(t *testing.T) *echo.Echo {
	t.Helper()
	store := repository.NewMemoryTokenStore()
	_ = store.Put(context.Background(), "good", models.Principal{ID: "u1"}, 0)

	e := echo.New()
	g := e.Group("", RequireAuth(store, applogger.NewNop()))
	g.GET("/me", func(c echo.Context) error {
		p, _ := PrincipalFrom(c)
		return c.String(http.StatusOK, p.ID)
	})
	return e
}

func TestRequireAuth(t *testing.T) {
	e := newGuarded(t)

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "good"}) }, http.StatusOK},
		{"token header", func(r *http.Request) { r.Header.Set("Authorization", "Token good") }, http.StatusOK},
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK},
		{"unknown scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic good") }, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Token nope") }, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.status, rec.Body.String())
			}
			if tc.status == http.StatusOK && rec.Body.String() != "u1" {
				t.Fatalf("principal not propagated: %q", rec.Body.String())
			}
		})
	}
}

func TestRateLimit_PerPrincipal(t *testing.T) {
	store := repository.NewMemoryTokenStore()
	_ = store.Put(context.Background(), "good", models.Principal{ID: "u1"}, 0)

	e := echo.New()
	g := e.Group("", RequireAuth(store, applogger.NewNop()), RateLimit(ratelimit.New(), 1, 0.0001))
	g.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Token good")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}
	if got := do(); got != http.StatusOK {
		t.Fatalf("first request = %d", got)
	}
	if got := do(); got != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", got)
	}
}
