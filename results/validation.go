package results

import "fmt"

// CoverageEntry is one category's zone-coverage check against the
// zone mapping, grounded on sql_enhanced_extractor.py's
// _analyze_zone_coverage.
type CoverageEntry struct {
	Category    string
	ZonesFound  int
	TotalZones  int
	CoveragePct float64
}

// Line renders the exact "<Category>: <found>/<total> (<pct>%)" format
// required by spec.md §8 scenario 6 ("Lighting: 6/7 (85.7%)").
func (c CoverageEntry) Line() string {
	return fmt.Sprintf("%s: %d/%d (%.1f%%)", c.Category, c.ZonesFound, c.TotalZones, c.CoveragePct)
}

// displayName maps a raw nominal-load table name to the human label
// scenario 6 expects ("NominalLighting" -> "Lighting").
var displayName = map[string]string{
	"NominalLighting":          "Lighting",
	"NominalElectricEquipment": "Electric Equipment",
	"NominalGasEquipment":      "Gas Equipment",
	"NominalPeople":            "People",
	"NominalInfiltration":      "Infiltration",
	"NominalVentilation":       "Ventilation",
}

// CheckCoverage compares each nominal-load table's distinct zone count
// against the total zones in the mapping, one CoverageEntry per
// category, in the fixed nominalLoadTables order.
func CheckCoverage(zones []ZoneRecord, loads map[string][]NominalLoadRecord) []CoverageEntry {
	total := len(zones)
	out := make([]CoverageEntry, 0, len(nominalLoadTables))
	for _, table := range nominalLoadTables {
		records := loads[table]
		found := distinctZoneCount(records)
		pct := 0.0
		if total > 0 {
			pct = float64(found) / float64(total) * 100
		}
		name, ok := displayName[table]
		if !ok {
			name = table
		}
		out = append(out, CoverageEntry{Category: name, ZonesFound: found, TotalZones: total, CoveragePct: pct})
	}
	return out
}

func distinctZoneCount(records []NominalLoadRecord) int {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		seen[r.ZoneName] = true
	}
	return len(seen)
}
