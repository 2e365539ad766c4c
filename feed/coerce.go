/*
coerce.go - Tolerant value extraction from open task rows

PURPOSE:
  The upstream exporters disagree about more than key names: numbers arrive
  as JSON numbers or as quoted strings, booleans as bools, "yes"/"no", or
  0/1, and dates as RFC3339 or bare calendar days. Every helper here takes
  the raw decoded value and produces the canonical Go type, degrading to
  the zero value instead of failing. The decoder counts string-to-number
  coercions so the ingest summary can report how dirty a feed was.

SEE ALSO:
  - feed.go: document decoding, field-variant tables
*/
package feed

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// pick returns the first present, non-nil value among the given keys.
func pick(row map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// text extracts a trimmed string. Numeric ids ("id": 12) are formatted
// without a trailing ".0".
func (d *decoder) text(row map[string]any, keys []string) string {
	v, ok := pick(row, keys)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// number extracts a float64. Quoted numerics parse through decimal so
// "1234.50" survives exactly; anything unreadable reads as 0.
func (d *decoder) number(row map[string]any, keys []string) float64 {
	f, _ := d.numberOK(row, keys)
	return f
}

// numberOK reports whether a numeric value was actually present, which is
// how TotalFloat keeps its absent-versus-zero distinction.
func (d *decoder) numberOK(row map[string]any, keys []string) (float64, bool) {
	v, ok := pick(row, keys)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		dec, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		d.sum.CoercedValues++
		return dec.InexactFloat64(), true
	default:
		return 0, false
	}
}

// money extracts a decimal cost. Costs stay decimal end to end; only the
// representation is coerced here.
func (d *decoder) money(row map[string]any, keys []string) decimal.Decimal {
	v, ok := pick(row, keys)
	if !ok {
		return decimal.Zero
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case string:
		dec, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero
		}
		d.sum.CoercedValues++
		return dec
	default:
		return decimal.Zero
	}
}

// flag extracts a boolean. Accepts bools, "true"/"yes"/"y"/"1", and
// non-zero numbers.
func (d *decoder) flag(row map[string]any, keys []string) bool {
	v, ok := pick(row, keys)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1":
			return true
		}
		return false
	case float64:
		return b != 0
	default:
		return false
	}
}

// when extracts a timestamp. RFC3339 first, then bare calendar days; an
// unparseable date leaves the task undated rather than failing the row.
func (d *decoder) when(row map[string]any, keys []string) time.Time {
	v, ok := pick(row, keys)
	if !ok {
		return time.Time{}
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}

// whole extracts an int (outline levels).
func (d *decoder) whole(row map[string]any, keys []string) int {
	f, ok := d.numberOK(row, keys)
	if !ok {
		return 0
	}
	return int(f)
}
