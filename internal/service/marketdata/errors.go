package marketdata

import (
	"errors"
	"fmt"
)

var (
	ErrTransport           = errors.New("transport error")
	ErrUnparseableResponse = errors.New("unparseable response")
	ErrNoData              = errors.New("no data")
)

// FetchError is returned by the adapter for every failed fetch. Kind is one of
// the sentinel errors above; Message and Debug never contain the API key.
type FetchError struct {
	Kind       error
	Symbol     string
	StatusCode int
	Message    string
	Debug      map[string]any
}

func (e *FetchError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Symbol, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Symbol, e.Kind, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Kind }

// AsFetchError extracts a *FetchError from err.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Outcome returns a short metrics label for err.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	case errors.Is(err, ErrUnparseableResponse):
		return "unparseable"
	case errors.Is(err, ErrNoData):
		return "no_data"
	default:
		return "error"
	}
}
