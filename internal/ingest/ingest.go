// Package ingest turns the raw CSV inputs into staged, typed tables ready for
// the rollup engine. It is the only place that knows how the source columns
// map onto the staging schema: numeric coercion for price/rating fields and
// normalization of the free-text publisher_date into published_date/pub_year.
package ingest

import (
	"context"
	"fmt"

	"booketl/internal/config"
	"booketl/internal/datasource"
	csvparser "booketl/internal/parser/csv"
	"booketl/internal/pubdate"
	"booketl/internal/schema"
	"booketl/pkg/records"
)

// dateLayout is the staging representation of published_date.
const dateLayout = "2006-01-02"

// MetadataColumns is the staging column order for the metadata table. The
// last two columns are derived during ingest; the rest mirror the input
// contract.
var MetadataColumns = []string{
	"parent_asin", "title", "author_name", "publisher",
	"price", "price_numeric", "page_count", "format",
	"category_level_3_detail", "published_date", "pub_year",
}

// ReviewColumns is the staging column order for the reviews table.
var ReviewColumns = []string{"asin", "parent_asin", "rating"}

// Table is a fully loaded, typed input ready for staging.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any

	// Skipped counts malformed CSV rows dropped by the parser.
	Skipped int

	// DatesUnparsed counts metadata rows whose publisher_date yielded no
	// published_date. Those rows stage with NULL pub_year and are excluded
	// from every rollup; they are not dropped here.
	DatesUnparsed int
}

// ParserOptions resolves csv parser options from the pipeline config for the
// given input contract.
func ParserOptions(p config.Parser, c schema.Contract) csvparser.Options {
	return csvparser.Options{
		HasHeader:       true,
		Comma:           p.Options.Rune("comma", ','),
		TrimSpace:       p.Options.Bool("trim_space", true),
		HeaderMap:       p.Options.StringMap("header_map"),
		RequiredColumns: c.Required(),
	}
}

// LoadMetadata reads the book metadata input and returns the staged table.
// It fails on a missing/unopenable file or a header that violates the input
// contract; individual damaged rows are skipped and counted.
func LoadMetadata(ctx context.Context, src datasource.Source, opt csvparser.Options) (*Table, error) {
	recs, skipped, err := parse(ctx, src, opt)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}

	types := schema.Metadata.Types()
	t := &Table{Name: "metadata", Columns: MetadataColumns, Skipped: skipped}
	for _, rec := range recs {
		coerce(rec, types)

		row := make([]any, 0, len(MetadataColumns))
		row = append(row,
			rec["parent_asin"], rec["title"], rec["author_name"], rec["publisher"],
			rec["price"], rec["price_numeric"], rec["page_count"], rec["format"],
			rec["category_level_3_detail"],
		)

		if d, ok := pubdate.Parse(rec.String("publisher_date")); ok {
			row = append(row, d.Format(dateLayout), int64(d.Year()))
		} else {
			row = append(row, nil, nil)
			t.DatesUnparsed++
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// LoadReviews reads the review input and returns the staged table.
func LoadReviews(ctx context.Context, src datasource.Source, opt csvparser.Options) (*Table, error) {
	recs, skipped, err := parse(ctx, src, opt)
	if err != nil {
		return nil, fmt.Errorf("reviews: %w", err)
	}

	types := schema.Reviews.Types()
	t := &Table{Name: "reviews", Columns: ReviewColumns, Skipped: skipped}
	for _, rec := range recs {
		coerce(rec, types)
		t.Rows = append(t.Rows, []any{rec["asin"], rec["parent_asin"], rec["rating"]})
	}
	return t, nil
}

// parse opens the source and runs the CSV parser over it.
func parse(ctx context.Context, src datasource.Source, opt csvparser.Options) ([]records.Record, int, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer r.Close()

	return csvparser.NewParser(opt).Parse(r)
}

// coerce converts string cells to their contract types in place. Values that
// fail coercion become nil rather than aborting the row; the rollup SQL
// treats them as NULL.
func coerce(rec records.Record, types map[string]string) {
	for field, typ := range types {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		if _, isStr := v.(string); !isStr {
			continue
		}
		switch typ {
		case "float":
			if f, ok := rec.Float(field); ok {
				rec[field] = f
			} else {
				rec[field] = nil
			}
		}
	}
}
