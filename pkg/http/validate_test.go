package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applogger "FinTrack/pkg/logger"

	"github.com/labstack/echo/v4"
)

type sampleRequest struct {
	Name  string      `json:"name" validate:"required,max=5"`
	Count int         `json:"count" default:"3" validate:"gte=1"`
	Price json.Number `json:"price" validate:"omitempty,numeric"`
}

func bindBody(t *testing.T, body string) (interface{}, *sampleRequest) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	out := &sampleRequest{}
	return ReadAndValidateRequest(c, out), out
}

func TestReadAndValidateRequest_DefaultsAndSuccess(t *testing.T) {
	verr, out := bindBody(t, `{"name":"abc"}`)
	if verr != nil {
		t.Fatalf("unexpected errors %+v", verr)
	}
	if out.Count != 3 {
		t.Fatalf("default count = %d, want 3", out.Count)
	}
}

func TestReadAndValidateRequest_FieldErrorsUseJSONNames(t *testing.T) {
	verr, _ := bindBody(t, `{"name":"toolongname"}`)
	errs, ok := verr.([]ValidationError)
	if !ok || len(errs) != 1 {
		t.Fatalf("unexpected errors %#v", verr)
	}
	if errs[0].Field != "name" || errs[0].Code != "ERR_MAX" {
		t.Fatalf("unexpected error %+v", errs[0])
	}
	if errs[0].Message != "name must be at most 5 characters" {
		t.Fatalf("message = %q", errs[0].Message)
	}
}

func TestReadAndValidateRequest_TypeMismatch(t *testing.T) {
	verr, _ := bindBody(t, `{"name":"abc","count":"many"}`)
	errs, ok := verr.([]ValidationError)
	if !ok || len(errs) != 1 || errs[0].Code != "ERR_TYPE" || errs[0].Field != "count" {
		t.Fatalf("unexpected errors %#v", verr)
	}
}

func TestErrorHandler_UnknownRouteUsesEnvelope(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(applogger.NewNop())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status int         `json:"status"`
		Data   []*AppError `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusNotFound || len(body.Data) != 1 || body.Data[0].Code != CodeNotFound {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAppError_IsMatchesCode(t *testing.T) {
	err := NotFoundErrorf("record %s", "x")
	if !err.Is(&AppError{Code: CodeNotFound}) {
		t.Fatalf("Is should match by code")
	}
	if err.Is(&AppError{Code: CodeInternal}) {
		t.Fatalf("Is must not match a different code")
	}
}
