package rollup

import (
	"context"
	"fmt"

	"booketl/internal/ingest"
	"booketl/internal/storage"
)

// metadataDDL / reviewsDDL define the staging schema. published_date is kept
// as ISO-8601 text; pub_year carries the derived grouping key so the rollup
// SQL never re-parses dates.
const (
	metadataDDL = `
CREATE TABLE metadata (
    parent_asin             TEXT,
    title                   TEXT,
    author_name             TEXT,
    publisher               TEXT,
    price                   REAL,
    price_numeric           REAL,
    page_count              REAL,
    format                  TEXT,
    category_level_3_detail TEXT,
    published_date          TEXT,
    pub_year                INTEGER
)`

	reviewsDDL = `
CREATE TABLE reviews (
    asin        TEXT,
    parent_asin TEXT,
    rating      REAL
)`

	reviewsIndexDDL = `CREATE INDEX idx_reviews_parent_asin ON reviews (parent_asin)`
)

// copyBatchSize bounds the rows per staging transaction.
const copyBatchSize = 10000

// Result is one computed rollup: the definition plus its materialized rows in
// final artifact order.
type Result struct {
	Rollup  Rollup
	Columns []string
	Rows    [][]any
}

// Engine stages ingested tables and computes rollups through a
// storage.Repository.
type Engine struct {
	repo storage.Repository
}

// NewEngine wraps an opened repository. The caller owns the repository's
// lifetime.
func NewEngine(repo storage.Repository) *Engine { return &Engine{repo: repo} }

// Stage creates the staging schema and bulk-loads both inputs. It must be
// called exactly once before Run.
func (e *Engine) Stage(ctx context.Context, metadata, reviews *ingest.Table) error {
	for _, ddl := range []string{metadataDDL, reviewsDDL, reviewsIndexDDL} {
		if err := e.repo.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("stage ddl: %w", err)
		}
	}
	if err := e.load(ctx, metadata); err != nil {
		return err
	}
	return e.load(ctx, reviews)
}

func (e *Engine) load(ctx context.Context, t *ingest.Table) error {
	for start := 0; start < len(t.Rows); start += copyBatchSize {
		end := start + copyBatchSize
		if end > len(t.Rows) {
			end = len(t.Rows)
		}
		if _, err := e.repo.CopyFrom(ctx, t.Name, t.Columns, t.Rows[start:end]); err != nil {
			return fmt.Errorf("stage %s: %w", t.Name, err)
		}
	}
	return nil
}

// Run computes every rollup and returns the results in artifact order.
//
// All results are materialized in memory before the caller writes anything:
// a failing aggregation therefore aborts the run with no artifact touched,
// leaving the previous run's artifacts in place.
func (e *Engine) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(Rollups))
	for _, r := range Rollups {
		res, err := e.runOne(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("rollup %s: %w", r.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) runOne(ctx context.Context, r Rollup) (Result, error) {
	cols, rows, err := e.repo.Query(ctx, r.Query)
	if err != nil {
		return Result{}, err
	}
	if err := matchColumns(cols, r.Columns); err != nil {
		return Result{}, err
	}

	if r.Companion != "" {
		ccols, crows, err := e.repo.Query(ctx, r.Companion)
		if err != nil {
			return Result{}, fmt.Errorf("companion: %w", err)
		}
		if err := matchColumns(ccols, r.Columns); err != nil {
			return Result{}, fmt.Errorf("companion: %w", err)
		}
		rows = append(rows, crows...)
	}

	return Result{Rollup: r, Columns: r.Columns, Rows: rows}, nil
}

// matchColumns guards the artifact contract: the query's select list must
// produce exactly the declared column order.
func matchColumns(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("query returned %d columns, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			return fmt.Errorf("query column %d = %q, want %q", i, got[i], want[i])
		}
	}
	return nil
}
