package results

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// openTestDB builds an in-memory engine result store with the handful
// of tables RE extracts, seeded with a 6-perimeter + 1-core zone
// layout matching spec.md §8 scenario 6.
func openTestDB(t *testing.T) *Source {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := []string{
		`CREATE TABLE Zones (ZoneIndex INTEGER, ZoneName TEXT, FloorArea REAL, Volume REAL, Multiplier REAL)`,
		`CREATE TABLE NominalLighting (ZoneName TEXT, DesignLevel REAL)`,
		`CREATE TABLE ZoneSizes (ZoneName TEXT, Description TEXT, Value REAL, Units TEXT)`,
		`CREATE TABLE TabularData (ReportName TEXT, TableName TEXT, RowName TEXT, ColumnName TEXT, Value TEXT, Units TEXT)`,
		`CREATE TABLE Errors (ErrorType INTEGER, ErrorMessage TEXT)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	zoneNames := []string{"Perim_1", "Perim_2", "Perim_3", "Perim_4", "Perim_5", "Perim_6", "Core"}
	for i, name := range zoneNames {
		if _, err := db.Exec(`INSERT INTO Zones VALUES (?, ?, 40.0, 120.0, 1.0)`, i, name); err != nil {
			t.Fatalf("seed zone: %v", err)
		}
	}
	// lighting data populated for 6 of 7 zones (the Core zone is missing),
	// matching scenario 6's "6/7 (85.7%)" coverage shortfall.
	for _, name := range zoneNames[:6] {
		if _, err := db.Exec(`INSERT INTO NominalLighting VALUES (?, 400.0)`, name); err != nil {
			t.Fatalf("seed lighting: %v", err)
		}
	}
	if _, err := db.Exec(`INSERT INTO ZoneSizes VALUES ('Perim_1', 'Design Cooling Load', 1500.0, 'W')`); err != nil {
		t.Fatalf("seed sizing: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO TabularData VALUES ('AnnualBuildingUtilityPerformanceSummary','Site and Source Energy','Total Site Energy','Total Energy','123.4','GJ')`); err != nil {
		t.Fatalf("seed tabular: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO Errors VALUES (1, 'minor warning')`); err != nil {
		t.Fatalf("seed warning: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO Errors VALUES (2, 'severe trouble')`); err != nil {
		t.Fatalf("seed severe: %v", err)
	}

	return &Source{db: db, BuildingID: "bldg_1", VariantID: "variant_0"}
}

func TestZoneMappingReturnsAllZones(t *testing.T) {
	s := openTestDB(t)
	zones, err := s.ZoneMapping()
	if err != nil {
		t.Fatalf("ZoneMapping: %v", err)
	}
	if len(zones) != 7 {
		t.Fatalf("expected 7 zones, got %d", len(zones))
	}
}

func TestNominalLoadsNormalizesWattsPerM2(t *testing.T) {
	s := openTestDB(t)
	loads, err := s.NominalLoads()
	if err != nil {
		t.Fatalf("NominalLoads: %v", err)
	}
	lighting, ok := loads["NominalLighting"]
	if !ok || len(lighting) != 6 {
		t.Fatalf("expected 6 lighting rows, got %d (ok=%v)", len(lighting), ok)
	}
	for _, r := range lighting {
		if r.FloorArea != 40.0 {
			t.Fatalf("expected floor area 40.0, got %v", r.FloorArea)
		}
		want := 400.0 / 40.0
		if r.WattsPerM2 != want {
			t.Fatalf("expected %v W/m2, got %v", want, r.WattsPerM2)
		}
	}
}

func TestZoneCoverageMatchesScenarioSix(t *testing.T) {
	s := openTestDB(t)
	zones, err := s.ZoneMapping()
	if err != nil {
		t.Fatalf("ZoneMapping: %v", err)
	}
	loads, err := s.NominalLoads()
	if err != nil {
		t.Fatalf("NominalLoads: %v", err)
	}
	entries := CheckCoverage(zones, loads)

	var lighting *CoverageEntry
	for i := range entries {
		if entries[i].Category == "Lighting" {
			lighting = &entries[i]
		}
	}
	if lighting == nil {
		t.Fatal("no Lighting coverage entry found")
	}
	if lighting.ZonesFound != 6 || lighting.TotalZones != 7 {
		t.Fatalf("expected 6/7, got %d/%d", lighting.ZonesFound, lighting.TotalZones)
	}
	want := "Lighting: 6/7 (85.7%)"
	if got := lighting.Line(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSizingTaggesCategoryAndSkipsAbsentTables(t *testing.T) {
	s := openTestDB(t)
	rows, err := s.Sizing()
	if err != nil {
		t.Fatalf("Sizing: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 sizing row (SystemSizes/ComponentSizes absent), got %d", len(rows))
	}
	if rows[0].Category != "zone" {
		t.Fatalf("expected category zone, got %q", rows[0].Category)
	}
}

func TestTabularRawAndPivot(t *testing.T) {
	s := openTestDB(t)
	raw, err := s.TabularRaw()
	if err != nil {
		t.Fatalf("TabularRaw: %v", err)
	}
	if len(raw) != 1 {
		t.Fatalf("expected 1 tabular row, got %d", len(raw))
	}
	pivoted := Pivot(raw)
	if len(pivoted) != 1 {
		t.Fatalf("expected 1 pivoted row, got %d", len(pivoted))
	}
	if pivoted[0].Columns["Total Energy"] != "123.4" {
		t.Fatalf("expected Total Energy column 123.4, got %q", pivoted[0].Columns["Total Energy"])
	}
}

func TestTimeSeriesAbsentTablesReturnsNil(t *testing.T) {
	s := openTestDB(t)
	series, err := s.TimeSeries()
	if err != nil {
		t.Fatalf("TimeSeries: %v", err)
	}
	if series != nil {
		t.Fatalf("expected nil time series when ReportData tables absent, got %v", series)
	}
}

func TestQualityScoreFormula(t *testing.T) {
	s := openTestDB(t)
	q, err := s.Quality()
	if err != nil {
		t.Fatalf("Quality: %v", err)
	}
	if q.TotalWarnings != 1 || q.TotalSevereErrors != 1 {
		t.Fatalf("expected 1 warning and 1 severe error, got %+v", q)
	}
	// 100 - 0.1*1 (warning) - 1*1 (severe) = 98.9
	want := 98.9
	if diff := q.SimulationQualityScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected score %v, got %v", want, q.SimulationQualityScore)
	}
}

func TestQualityFloorsAtZero(t *testing.T) {
	s := openTestDB(t)
	for i := 0; i < 20; i++ {
		if _, err := s.db.Exec(`INSERT INTO Errors VALUES (3, 'fatal failure, did not converge')`); err != nil {
			t.Fatalf("seed fatal: %v", err)
		}
	}
	q, err := s.Quality()
	if err != nil {
		t.Fatalf("Quality: %v", err)
	}
	if q.SimulationQualityScore != 0 {
		t.Fatalf("expected score floored at 0, got %v", q.SimulationQualityScore)
	}
	if !q.HasConvergenceIssues {
		t.Fatal("expected convergence issue flag set")
	}
}

func TestRunAndWriteProducesExpectedLayout(t *testing.T) {
	s := openTestDB(t)
	extracted, err := s.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if extracted.Quality == nil {
		t.Fatal("expected a quality report")
	}
	if len(extracted.Coverage) != len(nominalLoadTables) {
		t.Fatalf("expected one coverage entry per load table, got %d", len(extracted.Coverage))
	}

	root := t.TempDir()
	if err := extracted.Write(root); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, want := range []string{
		filepath.Join(root, "zones", "zones.parquet"),
		filepath.Join(root, "equipment", "NominalLighting.parquet"),
		filepath.Join(root, "sizing", "sizing.parquet"),
		filepath.Join(root, "characteristics", "tabular_raw.parquet"),
		filepath.Join(root, "validation", "zone_coverage.txt"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Fatalf("expected file %s to exist: %v", want, err)
		}
	}
}
