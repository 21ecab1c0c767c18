package sqlite

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func newRepo(tb testing.TB) *Repository {
	tb.Helper()
	r, err := NewRepository(context.Background(), MemoryDSN)
	if err != nil {
		tb.Fatalf("open sqlite :memory:: %v", err)
	}
	tb.Cleanup(func() { _ = r.Close() })
	return r
}

func mustExec(tb testing.TB, r *Repository, sqlStmt string) {
	tb.Helper()
	if err := r.Exec(context.Background(), sqlStmt); err != nil {
		tb.Fatalf("exec %q: %v", sqlStmt, err)
	}
}

func TestNewRepositoryEmptyDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

// TestCopyFromAndQuery round-trips rows through the batched INSERT path and
// the materializing query path.
func TestCopyFromAndQuery(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	mustExec(t, r, `CREATE TABLE items (id INTEGER, label TEXT, score REAL)`)

	rows := [][]any{
		{int64(1), "a", 1.5},
		{int64(2), "b", nil},
		{int64(3), nil, 3.0},
	}
	n, err := r.CopyFrom(ctx, "items", []string{"id", "label", "score"}, rows)
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 3 {
		t.Fatalf("inserted=%d want 3", n)
	}

	cols, got, err := r.Query(ctx, `SELECT id, label, score FROM items ORDER BY id`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !reflect.DeepEqual(cols, []string{"id", "label", "score"}) {
		t.Fatalf("cols=%v", cols)
	}
	// TEXT comes back as string (not []byte), NULL as nil.
	if !reflect.DeepEqual(got, rows) {
		t.Fatalf("rows=%#v\nwant %#v", got, rows)
	}
}

func TestCopyFromRowWidthMismatch(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	mustExec(t, r, `CREATE TABLE t (a INTEGER, b INTEGER)`)

	_, err := r.CopyFrom(context.Background(), "t", []string{"a", "b"}, [][]any{{1}})
	if err == nil || !strings.Contains(err.Error(), "row length") {
		t.Fatalf("expected row width error, got %v", err)
	}
}

func TestCopyFromEmpty(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	mustExec(t, r, `CREATE TABLE t (a INTEGER)`)

	n, err := r.CopyFrom(context.Background(), "t", []string{"a"}, nil)
	if err != nil {
		t.Fatalf("CopyFrom empty: %v", err)
	}
	if n != 0 {
		t.Fatalf("inserted=%d want 0", n)
	}

	if _, err := r.CopyFrom(context.Background(), "t", nil, [][]any{{1}}); err == nil {
		t.Fatal("expected error for empty columns")
	}
}

// TestInMemoryIsolation: two repositories opened on :memory: must not see
// each other's tables.
func TestInMemoryIsolation(t *testing.T) {
	t.Parallel()

	a := newRepo(t)
	b := newRepo(t)
	mustExec(t, a, `CREATE TABLE only_in_a (x INTEGER)`)

	if _, _, err := b.Query(context.Background(), `SELECT * FROM only_in_a`); err == nil {
		t.Fatal("table leaked across in-memory databases")
	}
}

func TestExecBlankIsNoop(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	if err := r.Exec(context.Background(), "   "); err != nil {
		t.Fatalf("blank exec: %v", err)
	}
}
