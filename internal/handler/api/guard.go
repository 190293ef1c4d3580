package api

import "github.com/labstack/echo/v4"

// Guard is the middleware chain placed in front of authenticated routes.
type Guard []echo.MiddlewareFunc
