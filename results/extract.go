package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extracted bundles every piece RE pulls out of one (building, variant)
// result store, ready to write under parsed_data/ (spec.md §6).
type Extracted struct {
	BuildingID   string
	VariantID    string
	Zones        []ZoneRecord
	Loads        map[string][]NominalLoadRecord
	Sizing       []SizingRecord
	TabularRaw   []TabularRecord
	TabularWide  []PivotedRow
	TimeSeries   map[string][]TimeSeriesRecord
	Quality      *QualityReport
	Coverage     []CoverageEntry
}

// Run performs the full RE pass over one open result store: zone
// mapping, nominal loads, sizing, tabular raw+pivoted, time series by
// frequency, the quality report, and zone-coverage validation
// (spec.md §4.7 steps 1-6, in that order).
func (s *Source) Run() (*Extracted, error) {
	e := &Extracted{BuildingID: s.BuildingID, VariantID: s.VariantID}

	var err error
	if e.Zones, err = s.ZoneMapping(); err != nil {
		return nil, err
	}
	if e.Loads, err = s.NominalLoads(); err != nil {
		return nil, err
	}
	if e.Sizing, err = s.Sizing(); err != nil {
		return nil, err
	}
	if e.TabularRaw, err = s.TabularRaw(); err != nil {
		return nil, err
	}
	e.TabularWide = Pivot(e.TabularRaw)
	if e.TimeSeries, err = s.TimeSeries(); err != nil {
		return nil, err
	}
	if e.Quality, err = s.Quality(); err != nil {
		return nil, err
	}
	e.Coverage = CheckCoverage(e.Zones, e.Loads)
	return e, nil
}

// Write lays out Extracted under root's parsed_data/ subtree (or
// parsed_modified_results/ when root already points there), following
// spec.md §6's fixed subtree names: timeseries/, zones/, sizing/,
// equipment/, characteristics/, metadata/, validation/.
//
// Time series is written per frequency as a semi-wide parquet file
// named base_all_<freq>.parquet under timeseries/; category labels used
// for ToSemiWide are derived from the variable's table grouping, which
// RE does not track per-row, so time series is written ungrouped under
// a single "all" category column.
func (e *Extracted) Write(root string) error {
	dirs := []string{"timeseries", "zones", "sizing", "equipment", "characteristics", "metadata", "validation"}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("results: mkdir %s: %w", d, err)
		}
	}

	if err := WriteParquet(filepath.Join(root, "zones", "zones.parquet"), e.Zones); err != nil {
		return err
	}

	for table, records := range e.Loads {
		path := filepath.Join(root, "equipment", table+".parquet")
		if err := WriteParquet(path, records); err != nil {
			return err
		}
	}

	if err := WriteParquet(filepath.Join(root, "sizing", "sizing.parquet"), e.Sizing); err != nil {
		return err
	}

	if err := WriteParquet(filepath.Join(root, "characteristics", "tabular_raw.parquet"), e.TabularRaw); err != nil {
		return err
	}
	if err := writePivoted(filepath.Join(root, "characteristics", "tabular_wide.parquet"), e.TabularWide); err != nil {
		return err
	}

	for freq, records := range e.TimeSeries {
		rows := ToSemiWide(records, e.BuildingID, e.VariantID, "all")
		path := filepath.Join(root, "timeseries", fmt.Sprintf("base_all_%s.parquet", strings.ToLower(freq)))
		if err := writeSemiWide(path, rows); err != nil {
			return err
		}
	}

	if err := WriteParquet(filepath.Join(root, "metadata", "quality.parquet"), []QualityReport{*e.Quality}); err != nil {
		return err
	}

	if err := writeCoverageReport(filepath.Join(root, "validation", "zone_coverage.txt"), e.Coverage); err != nil {
		return err
	}
	return nil
}

// writePivoted flattens PivotedRow's map-valued Columns field, which
// parquet-go's generic writer cannot encode directly, into a row-major
// column listing before handing off to WriteParquet.
func writePivoted(path string, rows []PivotedRow) error {
	type flatCell struct {
		ReportName string
		TableName  string
		RowName    string
		ColumnName string
		Value      string
	}
	var flat []flatCell
	for _, r := range rows {
		for col, val := range r.Columns {
			flat = append(flat, flatCell{r.ReportName, r.TableName, r.RowName, col, val})
		}
	}
	return WriteParquet(path, flat)
}

// writeSemiWide flattens SemiWideRow's Periods map into one row per
// (row, period) cell with Period and Value columns, in SortedPeriods
// order, for the same reason writePivoted does.
func writeSemiWide(path string, rows []SemiWideRow) error {
	type flatPeriod struct {
		BuildingID string
		VariantID  string
		Variable   string
		Category   string
		Zone       string
		Units      string
		Period     string
		Value      float64
	}
	var flat []flatPeriod
	for _, r := range rows {
		for _, p := range r.SortedPeriods() {
			flat = append(flat, flatPeriod{r.BuildingID, r.VariantID, r.Variable, r.Category, r.Zone, r.Units, p, r.Periods[p]})
		}
	}
	return WriteParquet(path, flat)
}

// writeCoverageReport renders one Line() per category, matching
// spec.md §8 scenario 6's exact wording.
func writeCoverageReport(path string, entries []CoverageEntry) error {
	var out string
	for _, e := range entries {
		out += e.Line() + "\n"
	}
	return os.WriteFile(path, []byte(out), 0o644)
}
