package variant

import (
	"testing"

	"github.com/bldgsim/beosim/deck"
	"github.com/bldgsim/beosim/log"
	"github.com/bldgsim/beosim/registry"
)

func baseDeckFixture() *deck.Deck {
	d := deck.New()
	equip := deck.NewObject("ELECTRICEQUIPMENT", "Equip_ALL_ZONES")
	equip.SetField("Watts per Zone Floor Area", "10.0")
	_ = d.Add(equip)
	return d
}

func TestApplyMethodsAbsoluteMultiplierPercentage(t *testing.T) {
	if v := applyMethod(10, Absolute, 5); v != 5 {
		t.Errorf("Absolute = %v, want 5", v)
	}
	if v := applyMethod(10, Multiplier, 1.5); v != 15 {
		t.Errorf("Multiplier = %v, want 15", v)
	}
	if v := applyMethod(10, Percentage, -20); v != 8 {
		t.Errorf("Percentage(-20) = %v, want 8", v)
	}
}

func TestApplyVariantWritesFieldAndRecord(t *testing.T) {
	reg := registry.New()
	g := New(reg, nil, log.Default())
	base := baseDeckFixture()

	variant, err := g.ApplyVariant("bldg1", 1, base, []Edit{
		{Category: "equipment", ObjectType: "ELECTRICEQUIPMENT", ObjectName: "Equip_ALL_ZONES", Field: "Watts per Zone Floor Area", Method: Absolute, Value: 5.0},
	})
	if err != nil {
		t.Fatalf("ApplyVariant: %v", err)
	}
	obj, ok := variant.Deck.Get("ELECTRICEQUIPMENT", "Equip_ALL_ZONES")
	if !ok {
		t.Fatal("missing equipment object in variant deck")
	}
	if v, _ := obj.Field("Watts per Zone Floor Area"); v != "5" {
		t.Errorf("field = %q, want 5", v)
	}
	// base deck must be untouched (clone, not mutate in place).
	origObj, _ := base.Get("ELECTRICEQUIPMENT", "Equip_ALL_ZONES")
	if v, _ := origObj.Field("Watts per Zone Floor Area"); v != "10.0" {
		t.Errorf("base deck mutated: field = %q, want unchanged 10.0", v)
	}
	if len(variant.Modifications) != 1 || !variant.Modifications[0].Success {
		t.Fatalf("Modifications = %+v, want one successful record", variant.Modifications)
	}
	if variant.Modifications[0].NewValue != 5.0 {
		t.Errorf("NewValue = %v, want 5.0", variant.Modifications[0].NewValue)
	}
}

func TestApplyVariantRejectsOutOfBoundsEdit(t *testing.T) {
	reg := registry.New()
	maxV := 50.0
	reg.Register(registry.Param{
		Category: "equipment", ObjectType: "ELECTRICEQUIPMENT", FieldName: "Watts per Zone Floor Area",
		MaxValue: &maxV,
	})
	g := New(reg, nil, log.Default())
	base := baseDeckFixture()

	variant, err := g.ApplyVariant("bldg1", 1, base, []Edit{
		{Category: "equipment", ObjectType: "ELECTRICEQUIPMENT", ObjectName: "Equip_ALL_ZONES", Field: "Watts per Zone Floor Area", Method: Absolute, Value: 999},
	})
	if err != nil {
		t.Fatalf("ApplyVariant: %v", err)
	}
	if variant.Modifications[0].Success {
		t.Error("out-of-bounds edit recorded as Success=true")
	}
	obj, _ := variant.Deck.Get("ELECTRICEQUIPMENT", "Equip_ALL_ZONES")
	if v, _ := obj.Field("Watts per Zone Floor Area"); v != "10.0" {
		t.Errorf("rejected edit still wrote field: %q", v)
	}
}

func TestDetectConflictsExcludesRule(t *testing.T) {
	edits := []Edit{
		{Category: "hvac", ObjectType: "ZONEHVAC:IDEALLOADSAIRSYSTEM", ObjectName: "Z1", Field: "Heat Recovery Type", Method: Absolute, Value: 1},
		{Category: "ventilation", ObjectType: "ZONEVENTILATION:DESIGNFLOWRATE", ObjectName: "Z1", Field: "Design Flow Rate", Method: Absolute, Value: 2},
	}
	rule := DependencyRule{
		Name: "no_hrv_with_natural_vent", Relation: Excludes,
		Primary:    editKey(edits[0]),
		Dependents: []string{editKey(edits[1])},
	}
	eng := NewDependencyEngine([]DependencyRule{rule})
	if msg := eng.DetectConflicts(edits); msg == "" {
		t.Error("DetectConflicts() = \"\", want a conflict message")
	}
}

func TestDetectConflictsPassesWhenNoRuleFires(t *testing.T) {
	edits := []Edit{
		{Category: "hvac", ObjectType: "ZONEHVAC:IDEALLOADSAIRSYSTEM", ObjectName: "Z1", Field: "Heat Recovery Type", Method: Absolute, Value: 1},
	}
	eng := NewDependencyEngine(nil)
	if msg := eng.DetectConflicts(edits); msg != "" {
		t.Errorf("DetectConflicts() = %q, want empty", msg)
	}
}

func TestInjectCompanionsProportional(t *testing.T) {
	primary := Edit{Category: "hvac", ObjectType: "FAN:SYSTEMMODEL", ObjectName: "Fan1", Field: "Design Electric Power Consumption", Method: Absolute, Value: 1000}
	dependentKey := ParamKey("hvac", "FAN:SYSTEMMODEL", "Fan1", "Motor Efficiency")
	rule := DependencyRule{
		Name: "fan_power_motor_eff", Relation: Proportional,
		Primary: editKey(primary), Dependents: []string{dependentKey}, Ratio: 0.9,
	}
	eng := NewDependencyEngine([]DependencyRule{rule})

	out := eng.InjectCompanions([]Edit{primary}, nil, log.Default())
	if len(out) != 2 {
		t.Fatalf("InjectCompanions returned %d edits, want 2", len(out))
	}
	companion := out[1]
	if companion.Method != Multiplier || companion.Value != 0.9 {
		t.Errorf("companion edit = %+v, want Multiplier 0.9", companion)
	}
	if companion.RuleApplied != rule.Name {
		t.Errorf("companion.RuleApplied = %q, want %q", companion.RuleApplied, rule.Name)
	}
}

// The spec's worked dependency example: enabling demand-controlled
// ventilation requires a CO2 sensor setpoint, which must be injected
// at its registry default when the caller omitted it.
func TestInjectCompanionsRequiresInjectsRegistryDefault(t *testing.T) {
	primary := Edit{Category: "ventilation", ObjectType: "ZONEVENTILATION:DESIGNFLOWRATE", ObjectName: "Z1", Field: "Ventilation Control Mode", Method: Absolute, Value: 1}
	dependentKey := ParamKey("ventilation", "ZONECONTROL:CONTAMINANTCONTROLLER", "Z1", "Carbon Dioxide Setpoint")
	rule := DependencyRule{
		Name: "dcv_requires_co2_setpoint", Relation: Requires,
		Primary: editKey(primary), Dependents: []string{dependentKey},
	}
	eng := NewDependencyEngine([]DependencyRule{rule})

	reg := registry.New()
	reg.Register(registry.Param{
		Category: "ventilation", ObjectType: "ZONECONTROL:CONTAMINANTCONTROLLER", FieldName: "Carbon Dioxide Setpoint",
		DataType: "float", Units: "ppm", DefaultValue: 900.0,
	})

	out := eng.InjectCompanions([]Edit{primary}, reg, log.Default())
	if len(out) != 2 {
		t.Fatalf("InjectCompanions returned %d edits, want 2", len(out))
	}
	companion := out[1]
	if companion.Method != Absolute || companion.Value != 900.0 {
		t.Errorf("companion edit = %+v, want Absolute at registry default 900.0", companion)
	}
	if companion.RuleApplied != rule.Name {
		t.Errorf("companion.RuleApplied = %q, want %q", companion.RuleApplied, rule.Name)
	}

	// An explicitly supplied dependent must not be duplicated.
	explicit := Edit{Category: "ventilation", ObjectType: "ZONECONTROL:CONTAMINANTCONTROLLER", ObjectName: "Z1", Field: "Carbon Dioxide Setpoint", Method: Absolute, Value: 1000}
	out = eng.InjectCompanions([]Edit{primary, explicit}, reg, log.Default())
	if len(out) != 2 {
		t.Fatalf("explicit dependent was duplicated: %d edits, want 2", len(out))
	}
}

func TestApplyVariantAbortsOnConflict(t *testing.T) {
	edits := []Edit{
		{Category: "a", ObjectType: "T", ObjectName: "N", Field: "F1", Method: Absolute, Value: 1},
		{Category: "a", ObjectType: "T", ObjectName: "N", Field: "F2", Method: Absolute, Value: 2},
	}
	rule := DependencyRule{
		Name: "mutually_exclusive", Relation: Excludes,
		Primary: editKey(edits[0]), Dependents: []string{editKey(edits[1])},
	}
	eng := NewDependencyEngine([]DependencyRule{rule})
	g := New(registry.New(), eng, log.Default())

	_, err := g.ApplyVariant("bldg1", 1, deck.New(), edits)
	if err == nil {
		t.Fatal("ApplyVariant with conflicting edits = nil error, want error")
	}
}

// Scenario 5 from spec.md §8: three variants editing the same field
// from 10.0 to 5.0/15.0/20.0, pivoted into a single wide row and back.
func TestProvenanceLongWideRoundTrip(t *testing.T) {
	key := ParamKey("equipment", "ELECTRICEQUIPMENT", "Equip_ALL_ZONES", "Watts_per_Zone_Floor_Area")
	mods := []ModificationRecord{
		{BuildingID: "bldg1", VariantID: 0, Category: "equipment", ObjectType: "ELECTRICEQUIPMENT", ObjectName: "Equip_ALL_ZONES", Field: "Watts_per_Zone_Floor_Area", OriginalValue: 10.0, NewValue: 5.0, ChangeType: Absolute, Success: true},
		{BuildingID: "bldg1", VariantID: 1, Category: "equipment", ObjectType: "ELECTRICEQUIPMENT", ObjectName: "Equip_ALL_ZONES", Field: "Watts_per_Zone_Floor_Area", OriginalValue: 10.0, NewValue: 15.0, ChangeType: Absolute, Success: true},
		{BuildingID: "bldg1", VariantID: 2, Category: "equipment", ObjectType: "ELECTRICEQUIPMENT", ObjectName: "Equip_ALL_ZONES", Field: "Watts_per_Zone_Floor_Area", OriginalValue: 10.0, NewValue: 20.0, ChangeType: Absolute, Success: true},
	}
	long := RecordsToLong(mods)
	if len(long) != 3 {
		t.Fatalf("RecordsToLong returned %d rows, want 3", len(long))
	}
	for _, rec := range long {
		if rec.ParamKey != key {
			t.Errorf("ParamKey = %q, want %q", rec.ParamKey, key)
		}
	}

	wide := LongToWide(long)
	if len(wide) != 1 {
		t.Fatalf("LongToWide returned %d rows, want 1 (one row per modified parameter)", len(wide))
	}
	row := wide[0]
	if row.Original != 10.0 {
		t.Errorf("row.Original = %v, want 10.0", row.Original)
	}
	if row.Variants[0].NewValue != 5.0 || row.Variants[1].NewValue != 15.0 || row.Variants[2].NewValue != 20.0 {
		t.Errorf("row.Variants = %+v, want {0:5.0, 1:15.0, 2:20.0}", row.Variants)
	}

	roundTripped := WideToLong(wide)
	if len(roundTripped) != len(long) {
		t.Fatalf("round trip produced %d rows, want %d", len(roundTripped), len(long))
	}
	longSet := make(map[LongRecord]bool, len(long))
	for _, r := range long {
		longSet[r] = true
	}
	for _, r := range roundTripped {
		if !longSet[r] {
			t.Errorf("round trip produced unexpected row %+v", r)
		}
	}
	if r := roundTripped[1]; r.ChangeType != Absolute {
		t.Errorf("round trip row ChangeType = %v, want preserved Absolute", r.ChangeType)
	}
}

func TestPermuteFactorialCartesianProduct(t *testing.T) {
	specs := []ParameterSpec{
		{Field: "a", Levels: []float64{1, 2}},
		{Field: "b", Levels: []float64{10, 20, 30}},
	}
	rows := Permute(specs)
	if len(rows) != 6 {
		t.Fatalf("Permute returned %d rows, want 6", len(rows))
	}
	seen := make(map[[2]float64]bool)
	for _, r := range rows {
		seen[[2]float64{r[0], r[1]}] = true
	}
	if len(seen) != 6 {
		t.Errorf("Permute produced %d distinct combinations, want 6", len(seen))
	}
}

func TestSampleUniformValuesDeterministicGivenSeed(t *testing.T) {
	a := SampleUniformValues(0, 10, 5, 42)
	b := SampleUniformValues(0, 10, 5, 42)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different draws at %d: %v vs %v", i, a[i], b[i])
		}
		if a[i] < 0 || a[i] > 10 {
			t.Errorf("draw %v out of bounds [0,10]", a[i])
		}
	}
}

func TestExpandTemplateOneVariantPerEntry(t *testing.T) {
	plan := Plan{
		Kind: PlanTemplate,
		Templates: map[string][]TemplateEdit{
			"high_performance": {{Category: "c", ObjectType: "T", ObjectName: "N", Field: "F", Method: Absolute, Value: 1}},
		},
	}
	out, err := Expand(plan)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != 1 || out[0].Label != "high_performance" {
		t.Fatalf("Expand(template) = %+v, want one high_performance entry", out)
	}
}

func TestExpandParametricUniformProducesNSamples(t *testing.T) {
	plan := Plan{
		Kind:     PlanParametric,
		Method:   SampleUniform,
		NSamples: 4,
		Seed:     1,
		Specs: []ParameterSpec{
			{Category: "c", ObjectType: "T", ObjectName: "N", Field: "F", Min: 0, Max: 1},
		},
	}
	out, err := Expand(plan)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("Expand(parametric) produced %d variants, want 4", len(out))
	}
	for _, ne := range out {
		if len(ne.Edits) != 1 {
			t.Errorf("variant %s has %d edits, want 1", ne.Label, len(ne.Edits))
		}
	}
}

func TestExpandSensitivityOATOneVariantPerLevel(t *testing.T) {
	plan := Plan{
		Kind: PlanSensitivityOAT,
		Specs: []ParameterSpec{
			{Category: "c", ObjectType: "T", ObjectName: "N", Field: "F", Min: 0, Max: 10},
		},
	}
	out, err := Expand(plan)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Expand(sensitivity_oat) produced %d variants, want 2 (min,max)", len(out))
	}
}

func TestExpandUnknownKindErrors(t *testing.T) {
	if _, err := Expand(Plan{Kind: "bogus"}); err == nil {
		t.Fatal("Expand with unknown kind = nil error, want error")
	}
}
