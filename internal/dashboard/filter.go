// Package dashboard is the read-only consumer of the rollup artifacts: it
// applies a year-range and measure filter and re-aggregates the already-small
// tables for display. It never re-derives anything from the raw inputs.
package dashboard

import (
	"sort"
	"strconv"

	"booketl/internal/artifact"
)

// Measure selects which aggregate the top-N views rank by.
type Measure string

const (
	MeasureSales   Measure = "sales"
	MeasureReviews Measure = "reviews"
)

// ParseMeasure maps a query-string value onto a Measure, defaulting to sales.
func ParseMeasure(s string) Measure {
	if s == string(MeasureReviews) {
		return MeasureReviews
	}
	return MeasureSales
}

// YearRange is an inclusive filter over the year column.
type YearRange struct {
	From int
	To   int
}

// Contains reports whether year falls inside the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.From && year <= r.To
}

// YearPoint is one year of the scorecard series.
type YearPoint struct {
	Year    int     `json:"year"`
	Books   int64   `json:"total_books"`
	Reviews int64   `json:"total_reviews"`
	Sales   float64 `json:"total_sales"`
}

// Scorecard is the filtered scorecard: totals over the range plus the
// per-year series that feeds the trend sparklines.
type Scorecard struct {
	TotalBooks   int64       `json:"total_books"`
	TotalReviews int64       `json:"total_reviews"`
	TotalSales   float64     `json:"total_sales"`
	Years        []YearPoint `json:"years"`
}

// Slice is one segment of the genre breakdown.
type Slice struct {
	Genre string  `json:"genre"`
	Value float64 `json:"value"`
}

// Entry is one bar of a top-N ranking. Author is set only for the books view.
type Entry struct {
	Label  string  `json:"label"`
	Author string  `json:"author,omitempty"`
	Value  float64 `json:"value"`
}

// FilterScorecard sums the scorecard artifact over the year range. An empty
// range yields zero totals and an empty series, never an error.
func FilterScorecard(t *artifact.Table, r YearRange) Scorecard {
	yearIdx := t.Index("year")
	booksIdx := t.Index("total_books")
	reviewsIdx := t.Index("total_reviews")
	salesIdx := t.Index("total_sales")

	sc := Scorecard{Years: []YearPoint{}}
	for _, row := range t.Rows {
		year := cellInt(row, yearIdx)
		if !r.Contains(year) {
			continue
		}
		p := YearPoint{
			Year:    year,
			Books:   cellInt64(row, booksIdx),
			Reviews: cellInt64(row, reviewsIdx),
			Sales:   cellFloat(row, salesIdx),
		}
		sc.TotalBooks += p.Books
		sc.TotalReviews += p.Reviews
		sc.TotalSales += p.Sales
		sc.Years = append(sc.Years, p)
	}
	return sc
}

// topGenreCount is how many genres are shown individually; the remainder is
// folded into one "Others" slice.
const topGenreCount = 5

// TopGenres aggregates the genre artifact by genre over the year range and
// returns the top slices by the chosen measure, with the tail folded into
// "Others" when it is non-zero.
func TopGenres(t *artifact.Table, r YearRange, m Measure) []Slice {
	yearIdx := t.Index("year")
	genreIdx := t.Index("genre")
	valueIdx := t.Index("total_sales")
	if m == MeasureReviews {
		valueIdx = t.Index("review_count")
	}

	totals := map[string]float64{}
	for _, row := range t.Rows {
		if !r.Contains(cellInt(row, yearIdx)) {
			continue
		}
		totals[cell(row, genreIdx)] += cellFloat(row, valueIdx)
	}

	slices := make([]Slice, 0, len(totals))
	for g, v := range totals {
		slices = append(slices, Slice{Genre: g, Value: v})
	}
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Value != slices[j].Value {
			return slices[i].Value > slices[j].Value
		}
		return slices[i].Genre < slices[j].Genre
	})

	if len(slices) <= topGenreCount {
		return slices
	}
	var others float64
	for _, s := range slices[topGenreCount:] {
		others += s.Value
	}
	top := slices[:topGenreCount:topGenreCount]
	if others > 0 {
		top = append(top, Slice{Genre: "Others", Value: others})
	}
	return top
}

// TopAuthors aggregates the top-authors artifact by author over the year
// range and returns the n best by the chosen measure.
func TopAuthors(t *artifact.Table, r YearRange, m Measure, n int) []Entry {
	yearIdx := t.Index("year")
	authorIdx := t.Index("author_name")
	valueIdx := measureIndex(t, m)

	totals := map[string]float64{}
	for _, row := range t.Rows {
		if !r.Contains(cellInt(row, yearIdx)) {
			continue
		}
		totals[cell(row, authorIdx)] += cellFloat(row, valueIdx)
	}

	entries := make([]Entry, 0, len(totals))
	for a, v := range totals {
		entries = append(entries, Entry{Label: a, Value: v})
	}
	return rank(entries, n)
}

// TopBooks aggregates the top-books artifact by (title, author) over the
// year range and returns the n best by the chosen measure.
func TopBooks(t *artifact.Table, r YearRange, m Measure, n int) []Entry {
	yearIdx := t.Index("year")
	titleIdx := t.Index("title")
	authorIdx := t.Index("author_name")
	valueIdx := measureIndex(t, m)

	type key struct{ title, author string }
	totals := map[key]float64{}
	for _, row := range t.Rows {
		if !r.Contains(cellInt(row, yearIdx)) {
			continue
		}
		k := key{title: cell(row, titleIdx), author: cell(row, authorIdx)}
		totals[k] += cellFloat(row, valueIdx)
	}

	entries := make([]Entry, 0, len(totals))
	for k, v := range totals {
		entries = append(entries, Entry{Label: k.title, Author: k.author, Value: v})
	}
	return rank(entries, n)
}

// ShortTitle truncates a book title for axis labels, as the original
// dashboard does.
func ShortTitle(s string) string {
	const max = 15
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// measureIndex maps the measure onto the shared column names of the
// top-books/top-authors artifacts.
func measureIndex(t *artifact.Table, m Measure) int {
	if m == MeasureReviews {
		return t.Index("total_reviews")
	}
	return t.Index("total_sales")
}

// rank sorts entries by value descending (label, then author, break ties for
// stable output) and keeps the first n.
func rank(entries []Entry, n int) []Entry {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		if entries[i].Label != entries[j].Label {
			return entries[i].Label < entries[j].Label
		}
		return entries[i].Author < entries[j].Author
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// YearBounds returns the smallest and largest year present in the scorecard
// artifact; ok is false for an empty table.
func YearBounds(t *artifact.Table) (min, max int, ok bool) {
	idx := t.Index("year")
	for _, row := range t.Rows {
		y := cellInt(row, idx)
		if y == 0 {
			continue
		}
		if !ok || y < min {
			min = y
		}
		if !ok || y > max {
			max = y
		}
		ok = true
	}
	return min, max, ok
}

// Cell readers: artifacts are CSV, so every value arrives as a string; empty
// cells (NULL aggregates) read as zero.

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func cellInt(row []string, idx int) int {
	n, _ := strconv.Atoi(cell(row, idx))
	return n
}

func cellInt64(row []string, idx int) int64 {
	n, _ := strconv.ParseInt(cell(row, idx), 10, 64)
	return n
}

func cellFloat(row []string, idx int) float64 {
	f, _ := strconv.ParseFloat(cell(row, idx), 64)
	return f
}
