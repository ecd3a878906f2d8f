package results

import "sort"

// SemiWideRow is one row of RE's semi-wide time-series view: a fixed
// key (building, variant, variable, category, zone, units) plus one
// value per observed timestamp column (spec.md §4.7 "RE also emits a
// semi-wide time-series view").
type SemiWideRow struct {
	BuildingID string
	VariantID  string
	Variable   string
	Category   string
	Zone       string
	Units      string
	Periods    map[string]float64
}

// ToSemiWide pivots a set of long time-series rows that share one
// reporting frequency into one SemiWideRow per (variable, category,
// zone, units) group, with one column per Timestamp value.
func ToSemiWide(records []TimeSeriesRecord, buildingID, variantID, category string) []SemiWideRow {
	type key struct{ variable, zone, units string }
	index := make(map[key]*SemiWideRow)
	order := make([]key, 0)

	for _, r := range records {
		k := key{r.Variable, r.Zone, r.Units}
		row, ok := index[k]
		if !ok {
			row = &SemiWideRow{
				BuildingID: buildingID, VariantID: variantID,
				Variable: r.Variable, Category: category, Zone: r.Zone, Units: r.Units,
				Periods: make(map[string]float64),
			}
			index[k] = row
			order = append(order, k)
		}
		row.Periods[r.Timestamp] = r.Value
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].variable != order[j].variable {
			return order[i].variable < order[j].variable
		}
		if order[i].zone != order[j].zone {
			return order[i].zone < order[j].zone
		}
		return order[i].units < order[j].units
	})

	out := make([]SemiWideRow, len(order))
	for i, k := range order {
		out[i] = *index[k]
	}
	return out
}

// SortedPeriods returns a row's timestamp columns in ascending order,
// for deterministic columnar output.
func (r SemiWideRow) SortedPeriods() []string {
	keys := make([]string, 0, len(r.Periods))
	for k := range r.Periods {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
