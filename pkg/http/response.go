package http

import (
	"errors"
	"net/http"

	applogger "FinTrack/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the envelope. The envelope status mirrors the HTTP status.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func ListResponse(c echo.Context, rows interface{}, total int64) error {
	return DataResponse(c, http.StatusOK, &ListDataResponse{Rows: rows, Total: total})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

func CreatedResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusCreated, data)
}

func NoContentResponse(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// BadRequestResponse writes validation errors from ReadAndValidateRequest.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// AppErrorResponse writes err as a one-element error list. Anything that is
// not an *AppError becomes a generic 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return DataResponse(c, http.StatusInternalServerError, []*AppError{InternalError("something went wrong")})
}

// ErrorHandler renders errors escaping handlers, including echo's own 404 and
// 405, with the envelope.
func ErrorHandler(l *applogger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code := CodeBadRequest
			switch he.Code {
			case http.StatusNotFound:
				code = CodeNotFound
			case http.StatusUnauthorized:
				code = CodeUnauthorized
			case http.StatusTooManyRequests:
				code = CodeRateLimited
			default:
				if he.Code >= http.StatusInternalServerError {
					code = CodeInternal
				}
			}
			err = NewAppError(code, "", http.StatusText(he.Code), he.Code)
		} else if !errors.As(err, new(*AppError)) {
			l.Error("unhandled error", applogger.String("path", c.Path()), applogger.Error(err))
		}
		if werr := AppErrorResponse(c, err); werr != nil {
			l.Error("write error response", applogger.Error(werr))
		}
	}
}
