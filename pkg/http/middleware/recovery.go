package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "FinTrack/pkg/logger"

	"github.com/labstack/echo/v4"
)

type panicBody struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    []panicItem `json:"data"`
}

type panicItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Recover turns a handler panic into a 500 envelope and logs the stack.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}
				l.Error("panic recovered",
					applogger.String("method", c.Request().Method),
					applogger.String("route", c.Path()),
					applogger.Error(perr),
					applogger.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, panicBody{
					Status:  http.StatusInternalServerError,
					Message: http.StatusText(http.StatusInternalServerError),
					Data:    []panicItem{{Code: "ERR_INTERNAL", Message: "something went wrong"}},
				})
			}()
			return next(c)
		}
	}
}
