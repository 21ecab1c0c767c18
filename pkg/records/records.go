// Package records defines the row currency shared by parsers and the ingest
// layer. A Record maps canonical column names to loosely typed values; nil
// means "no value" (empty CSV cell, failed coercion).
package records

import (
	"strconv"
	"strings"
)

// Record is one parsed row keyed by canonical column name.
type Record map[string]any

// String returns the value for key as a string, or "" when the key is absent,
// nil, or not a string.
func (r Record) String(key string) string {
	if v, ok := r[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Float returns the value for key as a float64 plus a presence flag. Numeric
// values pass through; string cells are parsed leniently, stripping a leading
// currency symbol and thousands separators ("$1,299.00" → 1299). Anything
// else reports absent.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		return parseFloat(v)
	}
	return 0, false
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
