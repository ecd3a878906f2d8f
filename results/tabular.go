package results

import (
	"fmt"
	"sort"
)

// TabularRecord is one raw row of the engine's precomputed summary
// reports (Annual Building Utility Performance Summary, Equipment
// Summary, HVAC Sizing Summary, etc.), grounded on
// sql_table_extractor.py's extract_tabular_data.
type TabularRecord struct {
	ReportName string
	TableName  string
	RowName    string
	ColumnName string
	Value      string
	Units      string
}

// TabularRaw extracts every TabularData row (spec.md §4.7 step 5, raw
// variant).
func (s *Source) TabularRaw() ([]TabularRecord, error) {
	if !s.tableExists("TabularData") {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT ReportName, TableName, RowName, ColumnName, Value, Units
		FROM TabularData
		ORDER BY ReportName, TableName, RowName, ColumnName
	`)
	if err != nil {
		return nil, fmt.Errorf("results: query TabularData: %w", err)
	}
	defer rows.Close()

	var out []TabularRecord
	for rows.Next() {
		var r TabularRecord
		if err := rows.Scan(&r.ReportName, &r.TableName, &r.RowName, &r.ColumnName, &r.Value, &r.Units); err != nil {
			return nil, fmt.Errorf("results: scan TabularData row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PivotedRow is one row-name keyed record with one field per observed
// column name, the pivoted variant of TabularRaw.
type PivotedRow struct {
	ReportName string
	TableName  string
	RowName    string
	Columns    map[string]string
}

// Pivot groups TabularRaw's rows by (ReportName, TableName, RowName)
// and spreads ColumnName/Value pairs into one PivotedRow per group,
// mirroring sql_enhanced_extractor.py's pivot_table call (first value
// wins on a duplicate column within a group).
func Pivot(rows []TabularRecord) []PivotedRow {
	type key struct{ report, table, row string }
	index := make(map[key]*PivotedRow)
	order := make([]key, 0)

	for _, r := range rows {
		k := key{r.ReportName, r.TableName, r.RowName}
		pr, ok := index[k]
		if !ok {
			pr = &PivotedRow{ReportName: r.ReportName, TableName: r.TableName, RowName: r.RowName, Columns: make(map[string]string)}
			index[k] = pr
			order = append(order, k)
		}
		if _, exists := pr.Columns[r.ColumnName]; !exists {
			pr.Columns[r.ColumnName] = r.Value
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].report != order[j].report {
			return order[i].report < order[j].report
		}
		if order[i].table != order[j].table {
			return order[i].table < order[j].table
		}
		return order[i].row < order[j].row
	})

	out := make([]PivotedRow, len(order))
	for i, k := range order {
		out[i] = *index[k]
	}
	return out
}
