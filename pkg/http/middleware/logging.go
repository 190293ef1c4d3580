package middleware

import (
	"time"

	applogger "FinTrack/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDKey is the echo context key holding the request id.
const RequestIDKey = "request_id"

// RequestID reuses an inbound X-Request-ID or mints a uuid, and echoes it on
// the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			c.Set(RequestIDKey, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// RequestLogging writes one access line per request. Errors are rendered by
// the echo error handler here so the logged status is final.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	if l == nil {
		l = applogger.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote_ip", c.RealIP()),
				applogger.Int("status", c.Response().Status),
				applogger.Int64("bytes_out", c.Response().Size),
				applogger.Duration("latency_ms", time.Since(start)),
			}
			if id, ok := c.Get(RequestIDKey).(string); ok {
				fields = append(fields, applogger.String("request_id", id))
			}
			if err != nil {
				l.Warn("http request", append(fields, applogger.Error(err))...)
				return nil
			}
			l.Debug("http request", fields...)
			return nil
		}
	}
}
