package deck

import (
	"errors"
	"math"
	"testing"

	"github.com/bldgsim/beosim/log"
	"github.com/bldgsim/beosim/paramassign"
)

func TestAddRefusesDuplicateName(t *testing.T) {
	d := New()
	if err := d.Add(NewObject("ZONE", "Zone1")); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := d.Add(NewObject("ZONE", "zone1")); err == nil {
		t.Fatal("Add duplicate (case-insensitive) name = nil, want error")
	}
	// Different type, same name is fine.
	if err := d.Add(NewObject("MATERIAL", "Zone1")); err != nil {
		t.Fatalf("Add same name different type: %v", err)
	}
}

func TestGetCaseInsensitiveCasePreservingWrite(t *testing.T) {
	d := New()
	o := NewObject("ZONE", "NorthZone")
	d.Add(o)
	got, ok := d.Get("ZONE", "northzone")
	if !ok {
		t.Fatal("Get with different case did not find object")
	}
	if got.Name != "NorthZone" {
		t.Errorf("Name = %q, want case-preserved NorthZone", got.Name)
	}
}

func TestParseWriteRoundTrip(t *testing.T) {
	text := "ZONE,\n    Zone1,\n    Direction: 1.0;\n\nMATERIAL,\n    Insulation;\n\n"
	d, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.AllObjects()) != 2 {
		t.Fatalf("parsed %d objects, want 2", len(d.AllObjects()))
	}
	zone, ok := d.Get("ZONE", "Zone1")
	if !ok {
		t.Fatal("missing Zone1")
	}
	if v, _ := zone.Field("Direction"); v != "1.0" {
		t.Errorf("Direction field = %q, want 1.0", v)
	}

	out := Write(d)
	reparsed, err := Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(reparsed.AllObjects()) != len(d.AllObjects()) {
		t.Errorf("round-trip object count %d != %d", len(reparsed.AllObjects()), len(d.AllObjects()))
	}
}

func TestMustGetDependencyUnresolved(t *testing.T) {
	d := New()
	if _, err := d.MustGet("ZONE", "NoSuchZone"); err == nil {
		t.Fatal("MustGet on missing object = nil error, want error")
	}
}

// Scenario 1 from spec.md §8.
func TestInfiltrationRateWorkedExample(t *testing.T) {
	got := InfiltrationRateAt1PaPerM2(1.3, 1.2, 0.67)
	want := 0.3335 // 1.3 * 1.2 * 0.1^0.67 = 0.33352...
	if math.Abs(got-want) > 1e-4 {
		t.Errorf("InfiltrationRateAt1PaPerM2(1.3,1.2,0.67) = %v, want ≈%v", got, want)
	}
}

// Scenario 2 from spec.md §8.
func TestRequiredVentilationFlowOfficeWorkedExample(t *testing.T) {
	got := RequiredVentilationFlowM3S("non_residential", 0.65, 500, "office_area_based")
	want := 0.325
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("RequiredVentilationFlowM3S = %v, want %v", got, want)
	}
}

func TestRequiredVentilationFlowResidentialFloor(t *testing.T) {
	// Small floor area keeps the computed flow under the 126 m3/h
	// floor, so the floor should win.
	got := RequiredVentilationFlowM3S("residential", 1.0, 10, "")
	floorM3S := 126.0 / 3600.0
	if math.Abs(got-floorM3S) > 1e-9 {
		t.Errorf("RequiredVentilationFlowM3S = %v, want floor %v", got, floorM3S)
	}
}

func TestFanPowerWorkedFormula(t *testing.T) {
	got := FanPowerWatts(150, 0.6, 0.325)
	want := (150.0 * 0.325) / 0.6
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("FanPowerWatts = %v, want %v", got, want)
	}
	if FanPowerWatts(150, 0, 0.325) != 0 {
		t.Error("FanPowerWatts with zero efficiency should return 0")
	}
	if FanPowerWatts(150, 0.6, 0) != 0 {
		t.Error("FanPowerWatts with zero flow should return 0")
	}
}

func resolvedVentilation() *paramassign.ResolvedSubsystem {
	return &paramassign.ResolvedSubsystem{
		Values: map[string]paramassign.ResolvedParameter{
			"infiltration_base":     {ChosenValue: 1.3},
			"year_factor":           {ChosenValue: 1.2},
			"f_ctrl":                {ChosenValue: 0.95},
			"fan_total_efficiency":  {ChosenValue: 0.6},
			"fan_pressure":          {ChosenValue: 100},
		},
		Discrete: map[string]string{"system_type": "A"},
	}
}

func TestComposeVentilationCoreZoneGetsZeroInfiltration(t *testing.T) {
	d := New()
	zones := []ZoneInfo{
		{Name: "Perim1", ExteriorExposed: true, FloorAreaM2: 50},
		{Name: "Core", ExteriorExposed: false, FloorAreaM2: 30},
	}
	err := ComposeVentilation(d, zones, resolvedVentilation(), "residential", "", 0.67, log.Default())
	if err != nil {
		t.Fatalf("ComposeVentilation: %v", err)
	}
	core, ok := d.Get("ZONEINFILTRATION:DESIGNFLOWRATE", "Core_Infiltration")
	if !ok {
		t.Fatal("missing Core_Infiltration object")
	}
	if v, _ := core.Field("Design Flow Rate"); v != "0" {
		t.Errorf("core infiltration = %q, want 0", v)
	}
	perim, ok := d.Get("ZONEINFILTRATION:DESIGNFLOWRATE", "Perim1_Infiltration")
	if !ok {
		t.Fatal("missing Perim1_Infiltration object")
	}
	if v, _ := perim.Field("Design Flow Rate"); v == "0" {
		t.Errorf("perimeter infiltration = %q, want nonzero", v)
	}
}

func TestComposeVentilationSystemDWritesOnlySharedDSOA(t *testing.T) {
	d := New()
	resolved := resolvedVentilation()
	resolved.Discrete["system_type"] = "D"
	zones := []ZoneInfo{{Name: "Z1", ExteriorExposed: true, FloorAreaM2: 100}}
	if err := ComposeVentilation(d, zones, resolved, "residential", "", 0.67, log.Default()); err != nil {
		t.Fatalf("ComposeVentilation: %v", err)
	}
	if _, ok := d.Get("DESIGNSPECIFICATION:OUTDOORAIR", "Shared_DSOA"); !ok {
		t.Fatal("system_type D did not write shared DSOA")
	}
	if _, ok := d.Get("ZONEVENTILATION:DESIGNFLOWRATE", "Z1_Ventilation"); ok {
		t.Error("system_type D should not write per-zone ZoneVentilation objects")
	}
}

func TestNumericFieldErrors(t *testing.T) {
	o := NewObject("ZONE", "Z1")
	o.SetField("Direction", "15")
	o.SetField("Name Ref", "OtherZone")

	if v, err := o.NumericField("Direction"); err != nil || v != 15 {
		t.Errorf("NumericField(Direction) = %v, %v, want 15", v, err)
	}

	var fe *FieldError
	if _, err := o.NumericField("Missing"); err == nil {
		t.Error("NumericField(missing) = nil error, want UnknownField")
	} else if !errors.As(err, &fe) || fe.Kind != UnknownField {
		t.Errorf("NumericField(missing) error = %v, want UnknownField", err)
	}
	if _, err := o.NumericField("Name Ref"); err == nil {
		t.Error("NumericField(non-numeric) = nil error, want TypeMismatch")
	} else if !errors.As(err, &fe) || fe.Kind != TypeMismatch {
		t.Errorf("NumericField(non-numeric) error = %v, want TypeMismatch", err)
	}
}

func TestSetNumericFieldBounds(t *testing.T) {
	o := NewObject("LIGHTS", "L1")
	min, max := 0.0, 30.0

	if err := o.SetNumericField("Watts per Zone Floor Area", 12.5, &min, &max); err != nil {
		t.Fatalf("SetNumericField in bounds: %v", err)
	}
	if v, _ := o.Field("Watts per Zone Floor Area"); v != "12.5" {
		t.Errorf("field = %q, want 12.5", v)
	}

	var fe *FieldError
	err := o.SetNumericField("Watts per Zone Floor Area", 99, &min, &max)
	if err == nil {
		t.Fatal("SetNumericField above max = nil error, want OutOfBounds")
	}
	if !errors.As(err, &fe) || fe.Kind != OutOfBounds {
		t.Errorf("error = %v, want OutOfBounds", err)
	}
	if v, _ := o.Field("Watts per Zone Floor Area"); v != "12.5" {
		t.Errorf("refused write still changed the field: %q", v)
	}
}

func TestComposeHVACSystemDTakesHeatRecoveryFromVentilation(t *testing.T) {
	d := New()
	vent := resolvedVentilation()
	vent.Discrete["system_type"] = "D"
	vent.Values["hrv_eff"] = paramassign.ResolvedParameter{ChosenValue: 0.75}
	zones := []ZoneInfo{{Name: "Z1", ExteriorExposed: true, FloorAreaM2: 100}}
	if err := ComposeVentilation(d, zones, vent, "residential", "", 0.67, log.Default()); err != nil {
		t.Fatalf("ComposeVentilation: %v", err)
	}

	hvac := &paramassign.ResolvedSubsystem{
		Values: map[string]paramassign.ResolvedParameter{
			"supply_air_temp_heating": {ChosenValue: 50},
			"supply_air_temp_cooling": {ChosenValue: 13},
		},
		Discrete: map[string]string{},
	}
	if err := ComposeHVAC(d, zones, hvac, vent, "AlwaysOn", log.Default()); err != nil {
		t.Fatalf("ComposeHVAC: %v", err)
	}

	ideal, ok := d.Get("ZONEHVAC:IDEALLOADSAIRSYSTEM", "Z1_IdealLoads")
	if !ok {
		t.Fatal("missing ideal loads object")
	}
	if v, _ := ideal.Field("Heat Recovery Type"); v != "Sensible" {
		t.Errorf("Heat Recovery Type = %q, want Sensible for ventilation system D", v)
	}
	if v, _ := ideal.Field("Sensible Heat Recovery Effectiveness"); v != "0.75" {
		t.Errorf("effectiveness = %q, want 0.75 from ventilation hrv_eff", v)
	}
	if v, _ := ideal.Field("Design Specification Outdoor Air Object Name"); v != "Shared_DSOA" {
		t.Errorf("DSOA link = %q, want Shared_DSOA", v)
	}
}

func TestComposeHVACNonDGetsNoHeatRecovery(t *testing.T) {
	d := New()
	vent := resolvedVentilation()
	zones := []ZoneInfo{{Name: "Z1", ExteriorExposed: true, FloorAreaM2: 100}}
	hvac := &paramassign.ResolvedSubsystem{
		Values: map[string]paramassign.ResolvedParameter{
			"supply_air_temp_heating": {ChosenValue: 50},
			"supply_air_temp_cooling": {ChosenValue: 13},
		},
		Discrete: map[string]string{},
	}
	if err := ComposeHVAC(d, zones, hvac, vent, "AlwaysOn", log.Default()); err != nil {
		t.Fatalf("ComposeHVAC: %v", err)
	}
	ideal, _ := d.Get("ZONEHVAC:IDEALLOADSAIRSYSTEM", "Z1_IdealLoads")
	if v, _ := ideal.Field("Heat Recovery Type"); v != "None" {
		t.Errorf("Heat Recovery Type = %q, want None for ventilation system A", v)
	}
	if _, present := ideal.Field("Design Specification Outdoor Air Object Name"); present {
		t.Error("non-D system should not link a DSOA object")
	}
}

func TestCheckNameUniquenessPasses(t *testing.T) {
	d := New()
	d.Add(NewObject("ZONE", "A"))
	d.Add(NewObject("ZONE", "B"))
	if err := d.CheckNameUniqueness(); err != nil {
		t.Errorf("CheckNameUniqueness() = %v, want nil", err)
	}
}
