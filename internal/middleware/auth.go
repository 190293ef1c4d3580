package middleware

import (
	"errors"
	"strings"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	xhttp "FinTrack/pkg/http"
	applogger "FinTrack/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	// TokenCookie is the HttpOnly cookie set by the login flow.
	TokenCookie  = "token"
	principalKey = "principal"
)

// RequireAuth rejects requests without a resolvable token with 401. The token
// is read from the session cookie first, then from "Authorization: Token <t>"
// or "Authorization: Bearer <t>".
func RequireAuth(store domrepo.TokenStore, l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFrom(c)
			if token == "" {
				return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("authentication credentials were not provided"))
			}

			p, err := store.Resolve(c.Request().Context(), token)
			if err != nil {
				if !errors.Is(err, domrepo.ErrUnauthorized) {
					l.Error("token lookup failed", applogger.Error(err))
				}
				return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("invalid token"))
			}

			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// PrincipalFrom returns the identity resolved by RequireAuth.
func PrincipalFrom(c echo.Context) (models.Principal, bool) {
	p, ok := c.Get(principalKey).(models.Principal)
	return p, ok
}

func tokenFrom(c echo.Context) string {
	if ck, err := c.Cookie(TokenCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "token", "bearer":
		return strings.TrimSpace(token)
	}
	return ""
}
