package results

import (
	"testing"
	"time"
)

func dailyRec(day int, zone, variable string, value float64) TimeSeriesRecord {
	return TimeSeriesRecord{
		Timestamp: timestampFor("Daily", 2013, 1, day, 0, 0),
		Zone:      zone,
		Variable:  variable,
		Units:     "J",
		Value:     value,
		Frequency: "Daily",
	}
}

func TestBuildComparisonsAlignsBaseAndVariants(t *testing.T) {
	base := []TimeSeriesRecord{
		dailyRec(1, "Z1", "Zone Heating Energy", 100),
		dailyRec(2, "Z1", "Zone Heating Energy", 110),
	}
	variants := map[int][]TimeSeriesRecord{
		1: {dailyRec(1, "Z1", "Zone Heating Energy", 90)},
		2: {
			dailyRec(1, "Z1", "Zone Heating Energy", 80),
			dailyRec(2, "Z1", "Zone Heating Energy", 85),
		},
	}

	tables := BuildComparisons("b7", "Daily", base, variants)
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	tab := tables[0]
	if len(tab.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tab.Rows))
	}

	day1 := tab.Rows[0]
	if day1.Base == nil || *day1.Base != 100 {
		t.Errorf("day 1 base = %v, want 100", day1.Base)
	}
	if v := day1.Variants[1]; v == nil || *v != 90 {
		t.Errorf("day 1 variant 1 = %v, want 90", v)
	}
	if v := day1.Variants[2]; v == nil || *v != 80 {
		t.Errorf("day 1 variant 2 = %v, want 80", v)
	}

	// variant 1 emitted nothing on day 2: the cell must be absent.
	day2 := tab.Rows[1]
	if _, present := day2.Variants[1]; present {
		t.Error("day 2 variant 1 should be absent (null), but a cell was written")
	}
	if v := day2.Variants[2]; v == nil || *v != 85 {
		t.Errorf("day 2 variant 2 = %v, want 85", v)
	}

	wantMillis := time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	if day1.TimestampMillis != wantMillis {
		t.Errorf("day 1 timestamp = %d, want %d", day1.TimestampMillis, wantMillis)
	}
}

func TestComparisonFilenameConvention(t *testing.T) {
	tab := ComparisonTable{
		BuildingID: "17", Variable: "Zone Air Temperature", Units: "C", Frequency: "Hourly",
	}
	want := "var_Zone_Air_Temperature_C_hourly_b17.parquet"
	if got := tab.Filename(); got != want {
		t.Fatalf("Filename() = %q, want %q", got, want)
	}
}
