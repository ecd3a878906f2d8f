package results

import "fmt"

// ZoneRecord is one row of the zone mapping table (spec.md §4.7 step 1).
type ZoneRecord struct {
	ZoneIndex  int
	ZoneName   string
	FloorArea  float64
	Volume     float64
	Multiplier float64
}

// ZoneMapping reads the Zones table, grounded on sql_table_extractor.py's
// extract_zones / sql_enhanced_extractor.py's _build_zone_mapping.
func (s *Source) ZoneMapping() ([]ZoneRecord, error) {
	if !s.tableExists("Zones") {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT ZoneIndex, ZoneName, FloorArea, Volume, Multiplier FROM Zones`)
	if err != nil {
		return nil, fmt.Errorf("results: query Zones: %w", err)
	}
	defer rows.Close()

	var out []ZoneRecord
	for rows.Next() {
		var z ZoneRecord
		if err := rows.Scan(&z.ZoneIndex, &z.ZoneName, &z.FloorArea, &z.Volume, &z.Multiplier); err != nil {
			return nil, fmt.Errorf("results: scan Zones row: %w", err)
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

// NominalLoadRecord is one row of a zone-level nominal load/equipment
// table (NominalLighting, NominalElectricEquipment, NominalGasEquipment,
// NominalPeople, NominalInfiltration, NominalVentilation), normalized
// to watts/m² where a DesignLevel and FloorArea are both present
// (spec.md §4.7 step 2).
type NominalLoadRecord struct {
	Category    string
	ZoneName    string
	ZoneIndex   int
	DesignLevel float64
	FloorArea   float64
	WattsPerM2  float64
}

// nominalLoadTables is the fixed set of zone-level load tables RE
// extracts, grounded on sql_enhanced_extractor.py's load_tables list.
var nominalLoadTables = []string{
	"NominalLighting",
	"NominalElectricEquipment",
	"NominalGasEquipment",
	"NominalPeople",
	"NominalInfiltration",
	"NominalVentilation",
}

// NominalLoads extracts every recognized nominal load table present in
// the database, joined against Zones for ZoneIndex/FloorArea the way
// _extract_zone_loads does.
func (s *Source) NominalLoads() (map[string][]NominalLoadRecord, error) {
	out := make(map[string][]NominalLoadRecord)
	for _, table := range nominalLoadTables {
		if !s.tableExists(table) {
			continue
		}
		records, err := s.nominalLoadTable(table)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			out[table] = records
		}
	}
	return out, nil
}

func (s *Source) nominalLoadTable(table string) ([]NominalLoadRecord, error) {
	query := fmt.Sprintf(`
		SELECT t.ZoneName, COALESCE(t.DesignLevel, 0), z.ZoneIndex, z.FloorArea
		FROM %s t
		LEFT JOIN Zones z ON t.ZoneName = z.ZoneName
	`, table)
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("results: query %s: %w", table, err)
	}
	defer rows.Close()

	var out []NominalLoadRecord
	for rows.Next() {
		var r NominalLoadRecord
		r.Category = table
		if err := rows.Scan(&r.ZoneName, &r.DesignLevel, &r.ZoneIndex, &r.FloorArea); err != nil {
			return nil, fmt.Errorf("results: scan %s row: %w", table, err)
		}
		if r.FloorArea > 0 {
			r.WattsPerM2 = r.DesignLevel / r.FloorArea
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
