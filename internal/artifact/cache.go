package artifact

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

// Table is a loaded artifact: its header in file order and all data rows as
// strings (artifacts are plain CSV; consumers coerce the columns they use).
type Table struct {
	Columns []string
	Rows    [][]string

	// Fingerprint is the xxh3 hash of the artifact bytes; the dashboard uses
	// it as a cheap ETag.
	Fingerprint uint64
}

// Index returns the position of the named column, or -1 when absent.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Load reads and parses one artifact from disk.
func Load(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact load: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(raw))
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("artifact parse %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("artifact parse %s: empty file", path)
	}

	return &Table{
		Columns:     all[0],
		Rows:        all[1:],
		Fingerprint: xxh3.Hash(raw),
	}, nil
}

// Cache memoizes loaded artifacts per path. An entry is reused only while the
// file's modification time and size are unchanged; a rewritten artifact is
// re-read on next access. This replaces the original's implicit
// session-lifetime cache with an explicit invalidation rule.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	table   *Table
}

// NewCache returns an empty cache, safe for concurrent use.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Load returns the table for path, reading the file only when the cache has
// no current entry.
func (c *Cache) Load(path string) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("artifact stat: %w", err)
	}

	c.mu.Lock()
	e, ok := c.entries[path]
	if ok && e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
		t := e.table
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	t, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = &cacheEntry{modTime: info.ModTime(), size: info.Size(), table: t}
	c.mu.Unlock()
	return t, nil
}
