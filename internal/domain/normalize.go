package domain

import (
	"strconv"
	"strings"
	"time"
)

// RainCategory maps a rainfall measurement in millimetres to the HK rainstorm
// signal band.
func RainCategory(mm float64) string {
	switch {
	case mm >= 30:
		return "Black Rain"
	case mm >= 15:
		return "Red Rain"
	case mm >= 5:
		return "Amber Rain"
	case mm >= 1:
		return "Showers"
	default:
		return "Dry"
	}
}

// AQHICategory maps an AQHI value to the EPD health risk category. Used when
// the feed omits its own label.
func AQHICategory(value float64) string {
	switch {
	case value >= 10:
		return "Serious"
	case value >= 7:
		return "Very High"
	case value >= 4:
		return "High"
	case value >= 3:
		return "Moderate"
	default:
		return "Low"
	}
}

// FloatOrZero coerces a decoded JSON value to float64. Feeds deliver numbers
// as floats, strings, or garbage depending on provider version; anything
// unparsable counts as 0.0 rather than failing the record.
func FloatOrZero(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// timestampLayouts are the upstream formats seen across provider versions,
// tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp resolves an upstream timestamp string. Empty or unparsable
// input falls back to the current wall-clock time so observed_at is never
// zero.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return clock.Now()
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return clock.Now()
}

// NormalizeDistrict canonicalizes a district name for matching: lowercased,
// trimmed, with a trailing " district" suffix stripped.
func NormalizeDistrict(name string) string {
	text := strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSpace(strings.TrimSuffix(text, " district"))
}
