// Package results extracts an engine's relational result store (one
// SQLite database per (building, variant) run) into columnar long and
// semi-wide files: zone mapping, nominal loads, sizing, time series,
// tabular summaries, and a quality/coverage report (spec.md §4.7).
package results

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Source wraps one open engine result database for a single
// (building, variant) run.
type Source struct {
	db         *sql.DB
	BuildingID string
	VariantID  string
}

// Open connects to the SQLite result store at path.
func Open(path, buildingID, variantID string) (*Source, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("results: open %s: %w", path, err)
	}
	return &Source{db: db, BuildingID: buildingID, VariantID: variantID}, nil
}

func (s *Source) Close() error { return s.db.Close() }

// tableExists reports whether a table is present, mirroring the
// extractor's pattern of wrapping every per-table query in a
// try/except and silently producing an empty result for tables the
// engine didn't populate this run.
func (s *Source) tableExists(name string) bool {
	var got string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&got)
	return err == nil
}
