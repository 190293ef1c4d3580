package marketdata

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"FinTrack/internal/domain/models"
	"FinTrack/pkg/util"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// decodeBody parses a provider body keeping numbers as json.Number.
func decodeBody(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// locateSeries returns the historical rows of a decoded body. Candidate
// JSONPath expressions are tried in order, then the first top-level field in
// sorted key order that looks like a row collection.
func locateSeries(root any, candidates []string) (any, bool) {
	for _, path := range candidates {
		v, err := jsonpath.Get(path, root)
		if err != nil {
			continue
		}
		if path == "$" {
			if arr, ok := v.([]any); ok && len(arr) > 0 {
				return arr, true
			}
			continue
		}
		if isRowCollection(v) {
			return v, true
		}
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, k := range sortedKeys(obj) {
		if isRowCollection(obj[k]) {
			return obj[k], true
		}
	}
	return nil, false
}

// isRowCollection accepts a non-empty list holding objects, or a non-empty
// object whose values are objects or whose keys are dates.
func isRowCollection(v any) bool {
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			if _, ok := e.(map[string]any); ok {
				return true
			}
		}
	case map[string]any:
		for k, e := range t {
			if _, ok := e.(map[string]any); ok {
				return true
			}
			if _, ok := parseDate(k); ok {
				return true
			}
		}
	}
	return false
}

// normalizeRows converts a located series into a price table. Rows without a
// usable date or a positive price are dropped. Rows older than the fetch window
// are kept: the oldest horizon may resolve to a day before the window start.
func normalizeRows(series any, st strategy) models.PriceTable {
	table := make(models.PriceTable)
	keep := func(d models.Date, p decimal.Decimal) {
		table.Add(models.PricePoint{Date: d, Price: p})
	}

	switch rows := series.(type) {
	case []any:
		for _, r := range rows {
			row, ok := r.(map[string]any)
			if !ok {
				continue
			}
			d, ok := rowDate(row, st.dateKeys)
			if !ok {
				continue
			}
			p, ok := rowPrice(row, st.priceKeys, st.dateKeys)
			if !ok {
				continue
			}
			keep(d, p)
		}
	case map[string]any:
		// Date-keyed rows; iterate in key order so duplicates resolve the same way every run.
		for _, k := range sortedKeys(rows) {
			d, ok := parseDate(k)
			if !ok {
				continue
			}
			var (
				p   decimal.Decimal
				ok2 bool
			)
			if row, isObj := rows[k].(map[string]any); isObj {
				p, ok2 = rowPrice(row, st.priceKeys, st.dateKeys)
			} else {
				p, ok2 = parsePrice(rows[k])
			}
			if !ok2 {
				continue
			}
			keep(d, p)
		}
	}
	return table
}

func rowDate(row map[string]any, keys []string) (models.Date, bool) {
	for _, k := range keys {
		v, ok := row[k]
		if !ok {
			continue
		}
		if d, ok := parseDateValue(v); ok {
			return d, true
		}
	}
	return models.Date{}, false
}

// rowPrice tries the candidate close keys in order, then any scalar field in
// sorted key order, skipping date fields.
func rowPrice(row map[string]any, priceKeys, dateKeys []string) (decimal.Decimal, bool) {
	for _, k := range priceKeys {
		if v, ok := row[k]; ok {
			if p, ok := parsePrice(v); ok {
				return p, true
			}
		}
	}

	skip := make(map[string]struct{}, len(dateKeys))
	for _, k := range dateKeys {
		skip[k] = struct{}{}
	}
	for _, k := range sortedKeys(row) {
		if _, isDate := skip[k]; isDate {
			continue
		}
		if p, ok := parsePrice(row[k]); ok {
			return p, true
		}
	}
	return decimal.Zero, false
}

// parsePrice accepts JSON numbers and numeric strings greater than zero.
func parsePrice(v any) (decimal.Decimal, bool) {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	case float64:
		return positive(decimal.NewFromFloat(t))
	default:
		return decimal.Zero, false
	}
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return positive(d)
}

func positive(d decimal.Decimal) (decimal.Decimal, bool) {
	if !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

func parseDateValue(v any) (models.Date, bool) {
	switch t := v.(type) {
	case string:
		return parseDate(t)
	case json.Number:
		return parseDate(t.String())
	default:
		return models.Date{}, false
	}
}

func parseDate(s string) (models.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Date{}, false
	}
	if d, err := models.ParseDate(s); err == nil {
		return d, true
	}
	t, ok := util.ParseTime(s)
	if !ok {
		return models.Date{}, false
	}
	return models.DateOf(t), true
}

// describe collects the diagnostics attached to NoData and Unparseable errors.
func describe(root any, scrub func(string) string) map[string]any {
	obj, ok := root.(map[string]any)
	if !ok {
		switch t := root.(type) {
		case []any:
			return map[string]any{"type": "array", "length": len(t)}
		case nil:
			return map[string]any{"type": "null"}
		default:
			return map[string]any{"type": "scalar"}
		}
	}

	debug := map[string]any{"keys": sortedKeys(obj)}
	for _, k := range noteKeys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			debug[k] = scrub(t)
		case json.Number:
			debug[k] = t.String()
		default:
			if b, err := json.Marshal(t); err == nil {
				debug[k] = scrub(string(b))
			}
		}
	}
	return debug
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
