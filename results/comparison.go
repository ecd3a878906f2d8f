package results

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ComparisonRow is one (timestamp, zone) point of a per-variable
// base-vs-variants table: the baseline value plus one value per
// variant, nil where that run did not emit the variable (spec.md §3
// "Comparison Row").
type ComparisonRow struct {
	TimestampMillis int64
	Zone            string
	Base            *float64
	Variants        map[int]*float64
}

// ComparisonTable is every comparison row for one (variable, units,
// frequency) of one building.
type ComparisonTable struct {
	BuildingID string
	Variable   string
	Units      string
	Frequency  string
	Rows       []ComparisonRow
}

// BuildComparisons aligns a baseline's time series against each
// variant's, one table per (variable, units), rows keyed by
// (timestamp, zone). All inputs share one reporting frequency.
func BuildComparisons(buildingID, freq string, base []TimeSeriesRecord, variants map[int][]TimeSeriesRecord) []ComparisonTable {
	type varKey struct{ variable, units string }
	type rowKey struct {
		ts   int64
		zone string
	}

	tables := make(map[varKey]map[rowKey]*ComparisonRow)
	addCell := func(rec TimeSeriesRecord, set func(*ComparisonRow, float64)) {
		vk := varKey{rec.Variable, rec.Units}
		rows, ok := tables[vk]
		if !ok {
			rows = make(map[rowKey]*ComparisonRow)
			tables[vk] = rows
		}
		rk := rowKey{periodMillis(freq, rec.Timestamp), rec.Zone}
		row, ok := rows[rk]
		if !ok {
			row = &ComparisonRow{TimestampMillis: rk.ts, Zone: rec.Zone, Variants: make(map[int]*float64)}
			rows[rk] = row
		}
		set(row, rec.Value)
	}

	for _, rec := range base {
		addCell(rec, func(row *ComparisonRow, v float64) {
			val := v
			row.Base = &val
		})
	}
	variantIDs := make([]int, 0, len(variants))
	for id := range variants {
		variantIDs = append(variantIDs, id)
	}
	sort.Ints(variantIDs)
	for _, id := range variantIDs {
		vid := id
		for _, rec := range variants[id] {
			addCell(rec, func(row *ComparisonRow, v float64) {
				val := v
				row.Variants[vid] = &val
			})
		}
	}

	keys := make([]varKey, 0, len(tables))
	for vk := range tables {
		keys = append(keys, vk)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].variable != keys[j].variable {
			return keys[i].variable < keys[j].variable
		}
		return keys[i].units < keys[j].units
	})

	out := make([]ComparisonTable, 0, len(keys))
	for _, vk := range keys {
		rowMap := tables[vk]
		rows := make([]ComparisonRow, 0, len(rowMap))
		for _, row := range rowMap {
			rows = append(rows, *row)
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].TimestampMillis != rows[j].TimestampMillis {
				return rows[i].TimestampMillis < rows[j].TimestampMillis
			}
			return rows[i].Zone < rows[j].Zone
		})
		out = append(out, ComparisonTable{
			BuildingID: buildingID, Variable: vk.variable, Units: vk.units,
			Frequency: freq, Rows: rows,
		})
	}
	return out
}

// periodMillis converts one of RE's per-frequency timestamp strings
// back to epoch milliseconds (UTC), the encoding the long-path
// aggregator expects. time.Date normalizes the engine's hour-24
// convention onto the next day.
func periodMillis(freq, ts string) int64 {
	var y, mo, d, h, mi int
	mo, d = 1, 1
	switch freq {
	case "Annual":
		fmt.Sscanf(ts, "%d", &y)
	case "Monthly":
		fmt.Sscanf(ts, "%d-%d", &y, &mo)
	case "Daily":
		fmt.Sscanf(ts, "%d-%d-%d", &y, &mo, &d)
	case "Hourly":
		fmt.Sscanf(ts, "%d-%d-%d_%d", &y, &mo, &d, &h)
	default:
		fmt.Sscanf(ts, "%d-%d-%d_%d:%d", &y, &mo, &d, &h, &mi)
	}
	return time.Date(y, time.Month(mo), d, h, mi, 0, 0, time.UTC).UnixMilli()
}

// Filename renders the spec.md §6 convention
// "var_<safe_name>_<units>_<freq>_b<building_id>.parquet".
func (t ComparisonTable) Filename() string {
	return fmt.Sprintf("var_%s_%s_%s_b%s.parquet",
		safeName(t.Variable), safeName(t.Units), strings.ToLower(t.Frequency), t.BuildingID)
}

// safeName collapses anything outside [A-Za-z0-9] to underscores so a
// variable name is filesystem- and convention-safe.
func safeName(s string) string {
	if s == "" {
		return "none"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// flatComparison is ComparisonRow flattened for the generic parquet
// writer: one row per (timestamp, zone, series) cell, series "base" or
// "variant_<id>". Absent cells are simply not written, which is the
// columnar encoding of the spec's nulls.
type flatComparison struct {
	TimestampMillis int64
	Zone            string
	Series          string
	Value           float64
}

// WriteComparisons writes one parquet file per table under dir,
// following the §6 filename convention.
func WriteComparisons(dir string, tables []ComparisonTable) error {
	for _, t := range tables {
		var flat []flatComparison
		for _, row := range t.Rows {
			if row.Base != nil {
				flat = append(flat, flatComparison{row.TimestampMillis, row.Zone, "base", *row.Base})
			}
			ids := make([]int, 0, len(row.Variants))
			for id := range row.Variants {
				ids = append(ids, id)
			}
			sort.Ints(ids)
			for _, id := range ids {
				if v := row.Variants[id]; v != nil {
					flat = append(flat, flatComparison{row.TimestampMillis, row.Zone, fmt.Sprintf("variant_%d", id), *v})
				}
			}
		}
		if err := WriteParquet(filepath.Join(dir, t.Filename()), flat); err != nil {
			return err
		}
	}
	return nil
}
