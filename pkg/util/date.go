package util

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order by ParseTime.
var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006/01/02",
}

// ParseTime tries RFC3339, plain dates, provider datetime layouts, and unix
// seconds or milliseconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return UnixAuto(ts)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return UnixAuto(int64(f))
	}
	return time.Time{}, false
}

// UnixAuto interprets ts as unix seconds, or milliseconds when it is too large
// to be a plausible seconds value.
func UnixAuto(ts int64) (time.Time, bool) {
	if ts <= 0 {
		return time.Time{}, false
	}
	if ts > 1e11 {
		return time.UnixMilli(ts).UTC(), true
	}
	return time.Unix(ts, 0).UTC(), true
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}
