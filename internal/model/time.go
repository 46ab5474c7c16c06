package model

import (
	"math"
	"time"
)

// Millis is a UTC timestamp in milliseconds since the Unix epoch. All
// persisted timestamps use this representation.
type Millis = int64

// NowMillis returns the current UTC time in epoch milliseconds.
func NowMillis() Millis {
	return time.Now().UTC().UnixMilli()
}

// DayUTC formats a millisecond timestamp as a YYYY-MM-DD date in UTC.
func DayUTC(ts Millis) string {
	return time.UnixMilli(ts).UTC().Format("2006-01-02")
}

// TodayUTC returns today's date as YYYY-MM-DD in UTC.
func TodayUTC() string {
	return time.Now().UTC().Format("2006-01-02")
}

// DayBoundsUTC returns the [start, end) millisecond window for a YYYY-MM-DD
// date in UTC. Returns ok=false if the date does not parse.
func DayBoundsUTC(date string) (start, end Millis, ok bool) {
	t, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return 0, 0, false
	}
	start = t.UnixMilli()
	end = t.Add(24 * time.Hour).UnixMilli()
	return start, end, true
}

// ParseActivityTime interprets a timestamp field coming from activity feeds.
// Accepts epoch seconds, epoch milliseconds, or an RFC3339 string. Numbers
// above 1e12 are treated as milliseconds, above 1e9 as seconds. Returns
// ok=false when the value carries no usable timestamp.
func ParseActivityTime(v any) (Millis, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return numericActivityTime(t)
	case int64:
		return numericActivityTime(float64(t))
	case int:
		return numericActivityTime(float64(t))
	case string:
		if t == "" {
			return 0, false
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.UTC().UnixMilli(), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func numericActivityTime(n float64) (Millis, bool) {
	if n <= 0 {
		return 0, false
	}
	if n > 1e12 {
		return int64(n), true
	}
	if n > 1e9 {
		return int64(n * 1000), true
	}
	return 0, false
}

// Round3 rounds to 3 decimals, half away from zero. Score and identity
// confidence values are stored rounded so repeated evaluation is stable.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Clamp01 clamps v into [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
