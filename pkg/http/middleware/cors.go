package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	// AllowCredentials lets browsers send the session cookie from an explicit origin.
	AllowCredentials bool
	MaxAge           int
}

// CORS answers preflights and decorates responses for allowed origins.
// Requests without an Origin header pass through untouched. A preflight from
// an unknown origin gets 403.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	wildcard := false
	origins := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		origins[o] = struct{}{}
	}
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			preflight := c.Request().Method == http.MethodOptions &&
				c.Request().Header.Get(echo.HeaderAccessControlRequestMethod) != ""
			if origin == "" {
				return next(c)
			}

			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)

			_, listed := origins[origin]
			if !listed && !wildcard {
				if preflight {
					return c.NoContent(http.StatusForbidden)
				}
				return next(c)
			}

			// Credentials are never combined with a bare wildcard.
			if listed && cfg.AllowCredentials {
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
				h.Set(echo.HeaderAccessControlAllowCredentials, "true")
			} else if listed {
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			} else {
				h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			}

			if !preflight {
				return next(c)
			}
			if methods != "" {
				h.Set(echo.HeaderAccessControlAllowMethods, methods)
			}
			if headers != "" {
				h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			}
			if cfg.MaxAge > 0 {
				h.Set(echo.HeaderAccessControlMaxAge, strconv.Itoa(cfg.MaxAge))
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}
