package variant

import "sort"

// LongRecord is one row of the long-format modification export: one
// building/variant/parameter/value/change-type tuple per row (spec.md
// §6, §8 scenario 5, §9 "Variant provenance as a relational
// triple-store").
type LongRecord struct {
	BuildingID    string
	VariantID     int
	ParamKey      string
	OriginalValue float64
	NewValue      float64
	ChangeType    EditMethod
}

// WideCell is one variant's effect on a WideRow's parameter.
type WideCell struct {
	NewValue   float64
	ChangeType EditMethod
}

// WideRow is one row of the wide (semi-wide) modification export: one
// row per (building, modified parameter), with an `original` column
// and one column per variant that touched it (spec.md §8 scenario 5:
// "the wide row has original=10.0, variant_0=5.0, variant_1=15.0,
// variant_2=20.0").
type WideRow struct {
	BuildingID string
	ParamKey   string
	Original   float64
	Variants   map[int]WideCell
}

// RecordsToLong flattens applied modifications into long rows,
// skipping edits that failed validation.
func RecordsToLong(mods []ModificationRecord) []LongRecord {
	out := make([]LongRecord, 0, len(mods))
	for _, m := range mods {
		if !m.Success {
			continue
		}
		out = append(out, LongRecord{
			BuildingID:    m.BuildingID,
			VariantID:     m.VariantID,
			ParamKey:      ParamKey(m.Category, m.ObjectType, m.ObjectName, m.Field),
			OriginalValue: m.OriginalValue,
			NewValue:      m.NewValue,
			ChangeType:    m.ChangeType,
		})
	}
	return out
}

// LongToWide pivots long rows into one WideRow per (building,
// param_key), in ascending (building, param_key) order. A parameter
// edited by the same building's baseline and several variants collects
// every variant's cell under that single row; Original is taken from
// the first row seen for that (building, param_key) pair, which is
// correct as long as every variant for a parameter clones the same
// base deck value (true by construction: ApplyVariant always clones
// from the unmodified base).
func LongToWide(records []LongRecord) []WideRow {
	type rowKey struct {
		building string
		param    string
	}
	index := make(map[rowKey]*WideRow)
	order := make([]rowKey, 0)

	for _, rec := range records {
		k := rowKey{rec.BuildingID, rec.ParamKey}
		row, ok := index[k]
		if !ok {
			row = &WideRow{BuildingID: rec.BuildingID, ParamKey: rec.ParamKey, Original: rec.OriginalValue, Variants: make(map[int]WideCell)}
			index[k] = row
			order = append(order, k)
		}
		row.Variants[rec.VariantID] = WideCell{NewValue: rec.NewValue, ChangeType: rec.ChangeType}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].building != order[j].building {
			return order[i].building < order[j].building
		}
		return order[i].param < order[j].param
	})

	out := make([]WideRow, len(order))
	for i, k := range order {
		out[i] = *index[k]
	}
	return out
}

// WideToLong is the exact inverse of LongToWide: every (building,
// param_key, variant) cell becomes one long row, carrying the row's
// shared Original value and that cell's NewValue/ChangeType forward.
// Rows are emitted in ascending (building, param_key, variant_id)
// order regardless of the input WideRow.Variants map's iteration
// order, so LongToWide(WideToLong(rows)) reproduces the same rows and
// WideToLong(LongToWide(records)) reproduces records as a multiset.
func WideToLong(rows []WideRow) []LongRecord {
	out := make([]LongRecord, 0)
	for _, row := range rows {
		variantIDs := make([]int, 0, len(row.Variants))
		for id := range row.Variants {
			variantIDs = append(variantIDs, id)
		}
		sort.Ints(variantIDs)
		for _, id := range variantIDs {
			cell := row.Variants[id]
			out = append(out, LongRecord{
				BuildingID:    row.BuildingID,
				VariantID:     id,
				ParamKey:      row.ParamKey,
				OriginalValue: row.Original,
				NewValue:      cell.NewValue,
				ChangeType:    cell.ChangeType,
			})
		}
	}
	return out
}
