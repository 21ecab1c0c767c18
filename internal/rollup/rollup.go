// Package rollup implements the join-and-aggregate engine: it stages the two
// ingested tables into a relational engine and computes the six denormalized
// rollups the dashboard consumes.
//
// Shared semantics across every rollup:
//
//   - rows with a NULL published_date are excluded before grouping;
//   - year is the calendar year of published_date (staged as pub_year);
//   - metadata is LEFT JOINed to reviews on parent_asin, so books with zero
//     reviews still count as books while contributing nothing to
//     review/sales aggregates;
//   - total_sales is SUM(rating × price) over matched reviews. This is a
//     review-weighted revenue proxy, not transaction data; the column name
//     is kept because downstream consumers read it by name.
//
// Output ordering is part of each rollup's contract: the specified sort keys
// first, then the remaining grouping keys as tiebreakers so that identical
// inputs always produce byte-identical artifacts.
package rollup

// A Rollup describes one aggregation: its artifact file, the exact output
// column order, and the SQL that computes it over the staged tables.
type Rollup struct {
	Name     string
	Artifact string
	Columns  []string
	Query    string

	// Companion optionally names a second query whose rows are appended to
	// the same artifact (the format rollup's "All Formats" re-aggregation).
	// Its select list must align with Columns.
	Companion string
}

// Rollups lists every aggregation in artifact order.
var Rollups = []Rollup{
	{
		Name:     "scorecard",
		Artifact: "scorecard_data.csv",
		Columns:  []string{"year", "total_books", "total_reviews", "total_sales"},
		Query: `
SELECT m.pub_year AS year,
       COUNT(DISTINCT m.parent_asin) AS total_books,
       COUNT(r.asin) AS total_reviews,
       SUM(r.rating * m.price) AS total_sales
FROM metadata m
LEFT JOIN reviews r ON r.parent_asin = m.parent_asin
WHERE m.pub_year IS NOT NULL
GROUP BY m.pub_year
ORDER BY year`,
	},
	{
		Name:     "genre",
		Artifact: "genre_data.csv",
		Columns:  []string{"year", "genre", "book_count", "review_count", "total_sales"},
		Query: `
SELECT m.pub_year AS year,
       m.category_level_3_detail AS genre,
       COUNT(DISTINCT m.parent_asin) AS book_count,
       COUNT(r.asin) AS review_count,
       SUM(r.rating * m.price) AS total_sales
FROM metadata m
LEFT JOIN reviews r ON r.parent_asin = m.parent_asin
WHERE m.pub_year IS NOT NULL AND m.category_level_3_detail IS NOT NULL
GROUP BY m.pub_year, m.category_level_3_detail
ORDER BY year, book_count DESC, genre`,
	},
	{
		Name:     "top_books",
		Artifact: "top_books_data.csv",
		Columns:  []string{"year", "title", "author_name", "genre", "total_reviews", "total_sales"},
		Query: `
SELECT m.pub_year AS year,
       m.title,
       m.author_name,
       m.category_level_3_detail AS genre,
       COUNT(r.asin) AS total_reviews,
       SUM(r.rating * m.price) AS total_sales
FROM metadata m
LEFT JOIN reviews r ON r.parent_asin = m.parent_asin
WHERE m.pub_year IS NOT NULL
GROUP BY m.pub_year, m.title, m.author_name, m.category_level_3_detail
ORDER BY year, total_sales DESC, m.title, m.author_name, genre`,
	},
	{
		Name:     "top_authors",
		Artifact: "top_authors_data.csv",
		Columns:  []string{"year", "author_name", "total_reviews", "total_sales"},
		Query: `
SELECT m.pub_year AS year,
       m.author_name,
       COUNT(r.asin) AS total_reviews,
       SUM(r.rating * m.price) AS total_sales
FROM metadata m
LEFT JOIN reviews r ON r.parent_asin = m.parent_asin
WHERE m.pub_year IS NOT NULL AND m.author_name IS NOT NULL
GROUP BY m.pub_year, m.author_name
ORDER BY year, total_sales DESC, m.author_name`,
	},
	{
		Name:     "format",
		Artifact: "format_data.csv",
		Columns: []string{
			"year", "book_format", "genre", "avg_price", "avg_page_count",
			"book_count", "total_reviews", "total_sales",
		},
		// Missing formats group under "Kindle" rather than a null bucket;
		// this rollup alone weighs sales by price_numeric.
		Query: `
SELECT m.pub_year AS year,
       COALESCE(m.format, 'Kindle') AS book_format,
       m.category_level_3_detail AS genre,
       AVG(m.price_numeric) AS avg_price,
       AVG(m.page_count) AS avg_page_count,
       COUNT(DISTINCT m.parent_asin) AS book_count,
       COUNT(r.asin) AS total_reviews,
       SUM(r.rating * m.price_numeric) AS total_sales
FROM metadata m
LEFT JOIN reviews r ON r.parent_asin = m.parent_asin
WHERE m.pub_year IS NOT NULL
  AND m.price_numeric IS NOT NULL
  AND m.category_level_3_detail IS NOT NULL
GROUP BY m.pub_year, COALESCE(m.format, 'Kindle'), m.category_level_3_detail
ORDER BY year, book_format, genre`,
		// "All Formats" summary rows, appended after the per-format rows.
		// genre is NULL for these by construction.
		Companion: `
SELECT m.pub_year AS year,
       'All Formats' AS book_format,
       NULL AS genre,
       AVG(m.price_numeric) AS avg_price,
       AVG(m.page_count) AS avg_page_count,
       COUNT(DISTINCT m.parent_asin) AS book_count,
       COUNT(r.asin) AS total_reviews,
       SUM(r.rating * m.price_numeric) AS total_sales
FROM metadata m
LEFT JOIN reviews r ON r.parent_asin = m.parent_asin
WHERE m.pub_year IS NOT NULL
  AND m.price_numeric IS NOT NULL
GROUP BY m.pub_year
ORDER BY year`,
	},
	{
		Name:     "top_publishers",
		Artifact: "top_publishers_data.csv",
		Columns: []string{
			"year", "publisher_name", "genre", "book_count",
			"total_reviews", "total_sales", "avg_rating",
		},
		Query: `
SELECT m.pub_year AS year,
       m.publisher AS publisher_name,
       m.category_level_3_detail AS genre,
       COUNT(DISTINCT m.parent_asin) AS book_count,
       COUNT(r.asin) AS total_reviews,
       SUM(r.rating * m.price) AS total_sales,
       AVG(r.rating) AS avg_rating
FROM metadata m
LEFT JOIN reviews r ON r.parent_asin = m.parent_asin
WHERE m.pub_year IS NOT NULL
  AND m.publisher IS NOT NULL
  AND m.category_level_3_detail IS NOT NULL
GROUP BY m.pub_year, m.publisher, m.category_level_3_detail
ORDER BY year, total_sales DESC, publisher_name, genre`,
	},
}

// ByName returns the rollup definition with the given name, or false when it
// does not exist.
func ByName(name string) (Rollup, bool) {
	for _, r := range Rollups {
		if r.Name == name {
			return r, true
		}
	}
	return Rollup{}, false
}
