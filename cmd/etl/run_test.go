package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"booketl/internal/artifact"
	"booketl/internal/config"
	"booketl/internal/rollup"
)

const metadataCSV = `parent_asin,title,author_name,publisher,price,price_numeric,page_count,format,category_level_3_detail,publisher_date
A1,Book X,Ann,Acme,10.00,10.00,200,Paperback,Fiction,"Acme Press (January 5, 2022)"
A2,Book Y,Ben,Acme,8.00,8.00,150,,History,"Acme (March 1, 2021)"
A3,Book Z,Cal,Acme,5.00,,,Hardcover,Fiction,"Acme (2019)"
`

const reviewsCSV = `asin,parent_asin,rating
R1,A1,4
R2,A1,5
R9,A3,5
`

// e2ePipeline writes both inputs into a temp dir and returns a ready config.
func e2ePipeline(t *testing.T) config.Pipeline {
	t.Helper()
	dir := t.TempDir()

	metaPath := filepath.Join(dir, "books_metadata.csv")
	reviewPath := filepath.Join(dir, "books_rating.csv")
	if err := os.WriteFile(metaPath, []byte(metadataCSV), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	if err := os.WriteFile(reviewPath, []byte(reviewsCSV), 0o644); err != nil {
		t.Fatalf("write reviews: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatalf("mkdir out: %v", err)
	}

	return config.Pipeline{
		Job: "book_rollups_test",
		Source: config.Source{
			Metadata: config.SourceFile{Path: metaPath},
			Reviews:  config.SourceFile{Path: reviewPath},
		},
		Output: config.Output{Dir: outDir},
	}
}

// TestRunEndToEnd executes the whole batch against real files and checks the
// published artifacts.
func TestRunEndToEnd(t *testing.T) {
	p := e2ePipeline(t)
	if err := run(context.Background(), p); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Every rollup artifact plus the processed metadata snapshot must exist.
	wantFiles := []string{processedArtifact}
	for _, r := range rollup.Rollups {
		wantFiles = append(wantFiles, r.Artifact)
	}
	for _, name := range wantFiles {
		if _, err := os.Stat(filepath.Join(p.Output.Dir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	// Scorecard: A1 (2022) has two reviews at price 10 → sales 90; A2 (2021)
	// has none; A3's year-only date is unparsable, excluding book and review.
	sc, err := artifact.Load(filepath.Join(p.Output.Dir, "scorecard_data.csv"))
	if err != nil {
		t.Fatalf("load scorecard: %v", err)
	}
	wantRows := [][]string{
		{"2021", "1", "0", ""},
		{"2022", "1", "2", "90"},
	}
	if !reflect.DeepEqual(sc.Rows, wantRows) {
		t.Fatalf("scorecard rows=%v\nwant %v", sc.Rows, wantRows)
	}

	// The processed snapshot keeps all three input rows, with the normalized
	// date columns appended.
	pm, err := artifact.Load(filepath.Join(p.Output.Dir, processedArtifact))
	if err != nil {
		t.Fatalf("load processed metadata: %v", err)
	}
	if len(pm.Rows) != 3 {
		t.Fatalf("processed rows=%d want 3", len(pm.Rows))
	}
	if got := pm.Rows[0][pm.Index("published_date")]; got != "2022-01-05" {
		t.Fatalf("published_date=%q", got)
	}
	if got := pm.Rows[2][pm.Index("pub_year")]; got != "" {
		t.Fatalf("unparsable pub_year=%q want empty", got)
	}
}

// TestRunFreshOutputDir: the output directory is created on demand, so a
// fresh checkout works without a manual mkdir. The metadata file carries a
// UTF-8 BOM, which must be stripped before header matching; one book at price
// 10 with reviews rated 4 and 5 rolls up to sales 90.
func TestRunFreshOutputDir(t *testing.T) {
	dir := t.TempDir()

	meta := "\uFEFF" + `parent_asin,title,author_name,publisher,price,price_numeric,page_count,format,category_level_3_detail,publisher_date
A1,Book X,Jane,Pub,10.00,10.00,180,Paperback,Fiction,"Pub (March 3, 2010)"
`
	reviews := "asin,parent_asin,rating\nr1,A1,4\nr2,A1,5\n"
	metaPath := filepath.Join(dir, "books_metadata.csv")
	reviewPath := filepath.Join(dir, "books_rating.csv")
	if err := os.WriteFile(metaPath, []byte(meta), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	if err := os.WriteFile(reviewPath, []byte(reviews), 0o644); err != nil {
		t.Fatalf("write reviews: %v", err)
	}

	p := config.Pipeline{
		Job: "book_rollups_test",
		Source: config.Source{
			Metadata: config.SourceFile{Path: metaPath},
			Reviews:  config.SourceFile{Path: reviewPath},
		},
		Output: config.Output{Dir: filepath.Join(dir, "out", "rollups")},
	}
	if err := run(context.Background(), p); err != nil {
		t.Fatalf("run: %v", err)
	}

	sc, err := artifact.Load(filepath.Join(p.Output.Dir, "scorecard_data.csv"))
	if err != nil {
		t.Fatalf("load scorecard: %v", err)
	}
	want := [][]string{{"2010", "1", "2", "90"}}
	if !reflect.DeepEqual(sc.Rows, want) {
		t.Fatalf("scorecard rows=%v\nwant %v", sc.Rows, want)
	}
}

// TestRunIsIdempotent: a second run over the same inputs replaces every
// artifact with identical content.
func TestRunIsIdempotent(t *testing.T) {
	p := e2ePipeline(t)
	if err := run(context.Background(), p); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, err := artifact.Load(filepath.Join(p.Output.Dir, "genre_data.csv"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := run(context.Background(), p); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, err := artifact.Load(filepath.Join(p.Output.Dir, "genre_data.csv"))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if first.Fingerprint != second.Fingerprint {
		t.Fatal("reruns must produce byte-identical artifacts")
	}
}

// TestRunMissingInputFailsFast: a missing input aborts before any artifact is
// written.
func TestRunMissingInputFailsFast(t *testing.T) {
	p := e2ePipeline(t)
	p.Source.Reviews.Path = filepath.Join(t.TempDir(), "nope.csv")

	err := run(context.Background(), p)
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if !strings.Contains(err.Error(), "reviews input") {
		t.Fatalf("error should name the input: %v", err)
	}

	entries, readErr := os.ReadDir(p.Output.Dir)
	if readErr != nil {
		t.Fatalf("readdir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("output dir should stay untouched, found %v", entries)
	}
}

// TestRunBrokenHeaderWritesNothing: a contract violation in one input aborts
// the whole run with the output directory untouched.
func TestRunBrokenHeaderWritesNothing(t *testing.T) {
	p := e2ePipeline(t)
	if err := os.WriteFile(p.Source.Reviews.Path, []byte("asin,stars\nR1,5\n"), 0o644); err != nil {
		t.Fatalf("rewrite reviews: %v", err)
	}

	if err := run(context.Background(), p); err == nil {
		t.Fatal("expected contract violation error")
	}
	entries, err := os.ReadDir(p.Output.Dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("output dir should stay untouched, found %v", entries)
	}
}
