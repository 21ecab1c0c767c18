// Batch orchestration: read both inputs, stage them into the in-memory
// engine, compute every rollup, then publish the artifacts. This file keeps
// the CLI layer thin: it depends only on the ingest/rollup/artifact packages
// and never touches SQL or CSV details directly.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"booketl/internal/artifact"
	"booketl/internal/config"
	"booketl/internal/datasource/file"
	"booketl/internal/ingest"
	"booketl/internal/metrics"
	"booketl/internal/rollup"
	"booketl/internal/schema"
	"booketl/internal/storage/sqlite"
)

// processedArtifact is the normalized metadata snapshot published alongside
// the rollups so downstream consumers can audit the date normalization.
const processedArtifact = "processed_metadata.csv"

// Function variables used to introduce test seams.
var (
	newRepositoryFn = sqlite.NewRepository

	writeArtifactFn = artifact.Write
)

// run executes the full batch: fail fast on missing inputs, load and coerce
// both tables, compute all six rollups in memory, and only then write any
// artifact. A failure before the write phase leaves the output directory
// untouched; a failure during it leaves previously published artifacts from
// this run in place but never a partial file.
func run(ctx context.Context, p config.Pipeline) error {
	job := p.Job

	metaSrc := file.NewLocal(p.Source.Metadata.Path)
	reviewSrc := file.NewLocal(p.Source.Reviews.Path)

	// Both inputs must exist before any work starts.
	if err := metaSrc.Stat(); err != nil {
		return fmt.Errorf("metadata input: %w", err)
	}
	if err := reviewSrc.Stat(); err != nil {
		return fmt.Errorf("reviews input: %w", err)
	}
	if err := os.MkdirAll(p.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}

	metadata, err := step(job, "load_metadata", func() (*ingest.Table, error) {
		return ingest.LoadMetadata(ctx, metaSrc, ingest.ParserOptions(p.Parser, schema.Metadata))
	})
	if err != nil {
		return err
	}
	reviews, err := step(job, "load_reviews", func() (*ingest.Table, error) {
		return ingest.LoadReviews(ctx, reviewSrc, ingest.ParserOptions(p.Parser, schema.Reviews))
	})
	if err != nil {
		return err
	}

	metrics.RecordRow(job, "metadata_rows", int64(len(metadata.Rows)))
	metrics.RecordRow(job, "review_rows", int64(len(reviews.Rows)))
	metrics.RecordRow(job, "parse_skipped", int64(metadata.Skipped+reviews.Skipped))
	metrics.RecordRow(job, "date_unparsed", int64(metadata.DatesUnparsed))

	log.Printf("ingest: metadata=%d (skipped=%d, dates_unparsed=%d) reviews=%d (skipped=%d)",
		len(metadata.Rows), metadata.Skipped, metadata.DatesUnparsed,
		len(reviews.Rows), reviews.Skipped)

	repo, err := newRepositoryFn(ctx, sqlite.MemoryDSN)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer repo.Close()

	engine := rollup.NewEngine(repo)
	if err := engine.Stage(ctx, metadata, reviews); err != nil {
		return stepErr(job, "stage", err)
	}

	results, err := step(job, "rollups", func() ([]rollup.Result, error) {
		return engine.Run(ctx)
	})
	if err != nil {
		return err
	}

	// Publish phase: everything is computed, now write the artifacts.
	start := time.Now()
	if err := writeArtifactFn(p.Output.Dir, processedArtifact, metadata.Columns, metadata.Rows); err != nil {
		return stepErr(job, "publish", err)
	}
	metrics.RecordArtifact(job, processedArtifact, int64(len(metadata.Rows)))
	log.Printf("artifact: name=%s rows=%d", processedArtifact, len(metadata.Rows))

	for _, res := range results {
		if err := writeArtifactFn(p.Output.Dir, res.Rollup.Artifact, res.Columns, res.Rows); err != nil {
			return stepErr(job, "publish", err)
		}
		metrics.RecordArtifact(job, res.Rollup.Artifact, int64(len(res.Rows)))
		log.Printf("artifact: name=%s rows=%d", res.Rollup.Artifact, len(res.Rows))
	}
	metrics.RecordStep(job, "publish", nil, time.Since(start))

	return nil
}

// step times a pipeline stage and records its outcome.
func step[T any](job, name string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	metrics.RecordStep(job, name, err, time.Since(start))
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// stepErr records a failed stage and wraps the error.
func stepErr(job, name string, err error) error {
	metrics.RecordStep(job, name, err, 0)
	return fmt.Errorf("%s: %w", name, err)
}
