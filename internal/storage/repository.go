// Package storage contains the storage-agnostic contract used by the rollup
// engine. The engine stages both inputs into relational tables and reads the
// aggregations back out; it never cares which engine executes the SQL.
package storage

import "context"

// Repository is the minimal relational surface the pipeline needs: DDL,
// batched inserts, and reads. Implementations are not required to be safe for
// concurrent use; the batch pipeline is single-threaded by design.
type Repository interface {
	// Exec executes a statement (typically DDL) without returning rows.
	Exec(ctx context.Context, query string, args ...any) error

	// CopyFrom bulk-inserts rows into table. Every row must align with the
	// columns slice. It returns the number of rows inserted.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Query runs a read query and returns the result column names plus all
	// rows, with values in driver-native types (int64, float64, string, nil).
	Query(ctx context.Context, query string, args ...any) ([]string, [][]any, error)

	// Close releases the underlying connection.
	Close() error
}
