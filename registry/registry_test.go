package registry

import (
	"path/filepath"
	"testing"
)

func TestRegisterIndexes(t *testing.T) {
	r := New()
	key := r.Register(Param{
		Category: "hvac", ObjectType: "COIL:HEATING:ELECTRIC", FieldName: "Efficiency",
		DataType: "float", MinValue: f64(0.8), MaxValue: f64(1.0), DefaultValue: 1.0,
		PerformanceImpact: "heating_efficiency",
		Tags:              []string{"efficiency", "heating"},
	})
	if key != "hvac.COIL:HEATING:ELECTRIC.Efficiency" {
		t.Fatalf("unexpected key %q", key)
	}
	if p, ok := r.Get(key); !ok || p.Category != "hvac" {
		t.Fatalf("Get(%q) = %v, %v", key, p, ok)
	}
	if got := r.ByCategory("hvac"); len(got) != 1 {
		t.Fatalf("ByCategory(hvac) = %d params, want 1", len(got))
	}
	if got := r.ByObject("COIL:HEATING:ELECTRIC"); len(got) != 1 {
		t.Fatalf("ByObject = %d params, want 1", len(got))
	}
	if got := r.ByImpact("heating_efficiency"); len(got) != 1 {
		t.Fatalf("ByImpact = %d params, want 1", len(got))
	}
	if got := r.ByTag("efficiency"); len(got) != 1 {
		t.Fatalf("ByTag(efficiency) = %d params, want 1", len(got))
	}
}

func TestValidateBounds(t *testing.T) {
	r := Default()
	key := Key("lighting", "LIGHTS", "Watts per Zone Floor Area")
	if err := r.Validate(key, 15.0); err != nil {
		t.Fatalf("Validate(15.0) = %v, want nil", err)
	}
	if err := r.Validate(key, 40.0); err == nil {
		t.Fatal("Validate(40.0) = nil, want error (above max)")
	}
	if err := r.Validate(key, -1.0); err == nil {
		t.Fatal("Validate(-1.0) = nil, want error (below min)")
	}
	if err := r.Validate("nonexistent.key", 1.0); err == nil {
		t.Fatal("Validate(unknown key) = nil, want error")
	}
}

func TestSearchMultiCriteria(t *testing.T) {
	r := Default()
	got := r.Search(SearchQuery{Category: "ventilation", Tags: []string{"control"}})
	if len(got) != 1 || got[0].FieldName != "f_ctrl" {
		t.Fatalf("Search(ventilation, control) = %v", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	r := Default()
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.json")
	if err := r.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	key := Key("lighting", "LIGHTS", "Watts per Zone Floor Area")
	orig, ok := r.Get(key)
	if !ok {
		t.Fatalf("original registry missing %q", key)
	}
	got, ok := loaded.Get(key)
	if !ok {
		t.Fatalf("loaded registry missing %q", key)
	}
	if got.Units != orig.Units || *got.MaxValue != *orig.MaxValue {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, orig)
	}
	if len(loaded.ByCategory("lighting")) != len(r.ByCategory("lighting")) {
		t.Fatal("loaded registry did not rebuild category index")
	}
}

func TestMarkdownCoversCategories(t *testing.T) {
	r := Default()
	doc := r.Markdown()
	for _, want := range []string{"## Hvac", "## Lighting", "## Ventilation"} {
		if !contains(doc, want) {
			t.Errorf("Markdown() missing section %q", want)
		}
	}
}

func TestUsageVentilationRates(t *testing.T) {
	v, ok := UsageVentilationRate("office_area_based")
	if !ok || v != 1.0 {
		t.Fatalf("UsageVentilationRate(office_area_based) = %v, %v", v, ok)
	}
	if _, ok := UsageVentilationRate("not_a_usage"); ok {
		t.Fatal("UsageVentilationRate(not_a_usage) = ok, want not found")
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}
