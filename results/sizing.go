package results

import "fmt"

// SizingRecord is one row of ZoneSizes, SystemSizes, or ComponentSizes
// (spec.md §4.7 step 3), grounded on sql_table_extractor.py's
// extract_zone_sizes/extract_system_sizes/extract_component_sizes.
type SizingRecord struct {
	Category string // "zone", "system", "component"
	Name     string
	Desc     string
	Value    float64
	Units    string
}

// zoneSizesQuery and systemSizesQuery select the fields the engine's
// schema guarantees; ComponentSizes additionally carries CompType.
const (
	zoneSizesQuery      = `SELECT ZoneName, COALESCE(Description,''), COALESCE(Value,0), COALESCE(Units,'') FROM ZoneSizes`
	systemSizesQuery    = `SELECT SystemName, COALESCE(Description,''), COALESCE(Value,0), COALESCE(Units,'') FROM SystemSizes`
	componentSizesQuery = `SELECT CompName, COALESCE(Description,''), COALESCE(Value,0), COALESCE(Units,'') FROM ComponentSizes`
)

// Sizing extracts zone, system, and component sizing results.
func (s *Source) Sizing() ([]SizingRecord, error) {
	var out []SizingRecord
	for _, t := range []struct {
		table, category, query string
	}{
		{"ZoneSizes", "zone", zoneSizesQuery},
		{"SystemSizes", "system", systemSizesQuery},
		{"ComponentSizes", "component", componentSizesQuery},
	} {
		if !s.tableExists(t.table) {
			continue
		}
		rows, err := s.db.Query(t.query)
		if err != nil {
			return nil, fmt.Errorf("results: query %s: %w", t.table, err)
		}
		for rows.Next() {
			var r SizingRecord
			r.Category = t.category
			if err := rows.Scan(&r.Name, &r.Desc, &r.Value, &r.Units); err != nil {
				rows.Close()
				return nil, fmt.Errorf("results: scan %s row: %w", t.table, err)
			}
			out = append(out, r)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
