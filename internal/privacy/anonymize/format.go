package anonymize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	notAvailable = "N/A"
	isoDate      = "2006-01-02"
)

// dateLayouts are tried in order after strict ISO parsing fails.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
	"2 January 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// Money formats an optional amount as $ plus two decimals, or N/A when absent.
// The sign follows the dollar sign: -4.75 renders as $-4.75.
func Money(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return notAvailable
	}
	return "$" + decimal.NewFromFloat(*v).StringFixed(2)
}

// Percent formats an optional rate as a two-decimal percentage.
func Percent(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return notAvailable
	}
	return decimal.NewFromFloat(*v).StringFixed(2) + "%"
}

// Quantity keeps full precision for fractional shares and integer form otherwise.
func Quantity(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return notAvailable
	}
	q := *v
	if q == math.Trunc(q) {
		return strconv.FormatFloat(q, 'f', 0, 64)
	}
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// NormalizeDate renders a time.Time, *time.Time or date-like string as
// YYYY-MM-DD. Unparseable strings are returned trimmed but otherwise as-is.
func NormalizeDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return notAvailable
		}
		return t.Format(isoDate)
	case *time.Time:
		if t == nil || t.IsZero() {
			return notAvailable
		}
		return t.Format(isoDate)
	case string:
		raw := strings.TrimSpace(t)
		if raw == "" {
			return notAvailable
		}
		if parsed, err := time.Parse(isoDate, raw); err == nil {
			return parsed.Format(isoDate)
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, raw); err == nil {
				return parsed.Format(isoDate)
			}
		}
		return raw
	default:
		return notAvailable
	}
}

// joinClauses drops empty clauses and joins the rest with " | ".
func joinClauses(clauses ...string) string {
	kept := clauses[:0]
	for _, c := range clauses {
		if c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, " | ")
}

func typeLabel(primary, secondary string) string {
	primary = strings.TrimSpace(primary)
	secondary = strings.TrimSpace(secondary)
	switch {
	case primary != "" && secondary != "":
		return primary + "/" + secondary
	case primary != "":
		return primary
	case secondary != "":
		return secondary
	default:
		return "unknown type"
	}
}
