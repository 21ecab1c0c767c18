// Package artifact persists and loads the rollup tables as flat CSV files.
//
// Writes are all-or-nothing per artifact: rows are written to a temp file in
// the destination directory and renamed over the prior artifact only after a
// successful flush, so a failing run can never leave a torn file behind.
// Reads go through a path-keyed cache invalidated by file modification time.
package artifact

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Write persists one table as dir/name with a stable column order. Any prior
// artifact of the same name is replaced atomically.
func Write(dir, name string, columns []string, rows [][]any) error {
	if len(columns) == 0 {
		return fmt.Errorf("artifact %s: no columns", name)
	}

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("artifact %s: temp file: %w", name, err)
	}
	defer func() {
		// No-ops once the rename has happened.
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("artifact %s: header: %w", name, err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("artifact %s: row width %d != %d columns", name, len(row), len(columns))
		}
		for i, v := range row {
			record[i] = formatValue(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("artifact %s: row: %w", name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("artifact %s: flush: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("artifact %s: sync: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("artifact %s: close: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("artifact %s: rename: %w", name, err)
	}
	return nil
}

// formatValue renders a cell for CSV output. NULL aggregates (e.g. no
// matching reviews) render as the empty string; floats use the shortest
// representation that round-trips, with no exponent form.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}
