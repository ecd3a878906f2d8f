package archetype

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bldgsim/beosim/log"
)

func writeLookup(t *testing.T, tree string) *Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lookup.json")
	if err := os.WriteFile(path, []byte(tree), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	s, err := Load(path, log.Default())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

const fixture = `{
  "scenario1": {
    "pre_calibration": {
      "ventilation": {
        "residential": {
          "corner_house": {
            "1992 - 2005": {
              "infiltration_base": {"min": 1.2, "max": 1.4},
              "year_factor": {"min": 1.1, "max": 1.3},
              "f_ctrl": {"min": 0.90, "max": 1.00},
              "system_type_map": {"corner_house": "A"}
            }
          }
        }
      }
    }
  }
}`

func TestGetSubsystemBlockExactMatch(t *testing.T) {
	s := writeLookup(t, fixture)
	b := s.GetSubsystemBlock("scenario1", "pre_calibration", "ventilation", "residential", "corner_house", "1992 - 2005")
	got := b.Ranges["infiltration_base"]
	if got.Min != 1.2 || got.Max != 1.4 {
		t.Fatalf("infiltration_base = %+v, want {1.2 1.4}", got)
	}
	if b.SystemTypeMap["corner_house"] != "A" {
		t.Fatalf("system_type_map[corner_house] = %q, want A", b.SystemTypeMap["corner_house"])
	}
}

func TestGetSubsystemBlockFallsBackNeverRaises(t *testing.T) {
	s := writeLookup(t, fixture)
	// Every key below "ventilation" is wrong; the store must still
	// return a best-effort block rather than erroring.
	b := s.GetSubsystemBlock("scenario1", "pre_calibration", "ventilation", "non_residential", "office", "2015 and later")
	if b == nil {
		t.Fatal("GetSubsystemBlock returned nil")
	}
	if _, ok := b.Ranges["infiltration_base"]; !ok {
		t.Fatal("fallback block missing expected fallback ranges")
	}
}

func TestGetSubsystemBlockUnknownScenarioFallsBack(t *testing.T) {
	s := writeLookup(t, fixture)
	b := s.GetSubsystemBlock("no_such_scenario", "pre_calibration", "ventilation", "residential", "corner_house", "1992 - 2005")
	if b == nil {
		t.Fatal("GetSubsystemBlock returned nil")
	}
	// Falls back to the only available scenario, so the known range
	// is still present.
	if _, ok := b.Ranges["infiltration_base"]; !ok {
		t.Fatal("fallback block missing expected fallback ranges")
	}
}
