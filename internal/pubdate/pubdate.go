// Package pubdate extracts a publication date from the free-text
// publisher/date field of the metadata input, e.g.
//
//	"Acme Press (January 5, 2015)"  →  2015-01-05
//
// The extraction is a best-effort heuristic and its quirks are load-bearing:
// downstream rollups exclude exactly the records this package rejects, so the
// rules below (last parenthesis wins, the >8 length gate, the strict
// month-name layout) must not be "improved".
package pubdate

import (
	"strconv"
	"strings"
	"time"
)

// layout is the only accepted date form: full month name, day, 4-digit year.
const layout = "January 2, 2006"

// Parse extracts a publication date from the raw field. ok is false when no
// parsable date is present; such records carry no year and are excluded from
// every rollup. Parse never panics on malformed input.
//
// Rules, applied in order:
//
//  1. Take the fragment after the last '(' (earlier parenthesized groups are
//     ignored). No parenthesis → unparsable.
//  2. Strip a single trailing ')'.
//  3. The fragment's final 4 characters must parse as an integer — a cheap
//     plausibility check that a 4-digit year terminates the fragment.
//  4. Fragments of 8 characters or fewer are always unparsable, even when
//     they hold a valid short-form date such as "May 2015".
//  5. The remainder must match "January 2, 2006" exactly; any parse failure
//     (bad month name, impossible day) is unparsable, not an error.
func Parse(raw string) (date time.Time, ok bool) {
	i := strings.LastIndex(raw, "(")
	if i < 0 {
		return time.Time{}, false
	}
	frag := strings.TrimSuffix(raw[i+1:], ")")
	if len(frag) < 4 {
		return time.Time{}, false
	}
	if _, err := strconv.Atoi(frag[len(frag)-4:]); err != nil {
		return time.Time{}, false
	}
	if len(frag) <= 8 {
		return time.Time{}, false
	}
	t, err := time.Parse(layout, frag)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Year returns the calendar year of the extracted date, or 0 when the field
// is unparsable.
func Year(raw string) int {
	t, ok := Parse(raw)
	if !ok {
		return 0
	}
	return t.Year()
}
