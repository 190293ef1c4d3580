package middleware

import (
	"FinTrack/internal/service/ratelimit"
	xhttp "FinTrack/pkg/http"

	"github.com/labstack/echo/v4"
)

// RateLimit applies a token bucket per principal, falling back to the client IP.
// It must run after RequireAuth to see the principal.
func RateLimit(l *ratelimit.Limiter, burst, perSecond float64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if p, ok := PrincipalFrom(c); ok {
				key = "user:" + p.ID
			}
			if !l.Allow(key, burst, perSecond) {
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests"))
			}
			return next(c)
		}
	}
}
