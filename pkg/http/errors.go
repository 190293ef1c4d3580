package http

import (
	"fmt"
	"net/http"
)

// Error codes carried in the response envelope.
const (
	CodeBadRequest   = "ERR_BAD_REQUEST"
	CodeUnauthorized = "ERR_UNAUTHORIZED"
	CodeNotFound     = "ERR_NOT_FOUND"
	CodeRateLimited  = "ERR_RATE_LIMITED"
	CodeInternal     = "ERR_INTERNAL"
)

// AppError is a handler-level failure rendered as one envelope entry.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches another *AppError by code, so errors.Is(err, &AppError{Code: CodeNotFound}) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Field: field, Message: message, Status: status}
}

// WithParam sets a single error param.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithError attaches the cause. It is logged, never rendered.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return NewAppError(CodeBadRequest, "", fmt.Sprintf(format, a...), http.StatusBadRequest)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(CodeUnauthorized, "", message, http.StatusUnauthorized)
}

func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return NewAppError(CodeNotFound, "", fmt.Sprintf(format, a...), http.StatusNotFound)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(CodeRateLimited, "", message, http.StatusTooManyRequests)
}

func InternalError(message string) *AppError {
	return NewAppError(CodeInternal, "", message, http.StatusInternalServerError)
}
