package schedule

import (
	"strings"
	"testing"

	"github.com/bldgsim/beosim/log"
)

// Scenario 3 from spec.md §8.
func TestSetpointThreeBlockPattern(t *testing.T) {
	s := New(log.Default())
	sched, err := s.Setpoint(SetpointSpec{
		Name: "Heating_SP", DayStart: "07:00", DayEnd: "19:00",
		DayValue: 20.0, NightValue: 16.0,
	})
	if err != nil {
		t.Fatalf("Setpoint: %v", err)
	}
	blocks := sched.Rules[0].Blocks
	want := []UntilBlock{
		{Until: "07:00", Value: 16.0},
		{Until: "19:00", Value: 20.0},
		{Until: "24:00", Value: 16.0},
	}
	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d", len(blocks), len(want))
	}
	for i := range want {
		if blocks[i] != want[i] {
			t.Errorf("block %d = %+v, want %+v", i, blocks[i], want[i])
		}
	}

	text := EmitText("Heating_SP", sched)
	if !strings.Contains(text, "Until: 19:00,20.0") {
		t.Errorf("EmitText missing expected field, got:\n%s", text)
	}
	if !strings.HasSuffix(strings.TrimSpace(text), ";") {
		t.Error("EmitText does not end with a single trailing semicolon")
	}
	if strings.Count(text, ";") != 1 {
		t.Errorf("EmitText has %d semicolons, want exactly 1", strings.Count(text, ";"))
	}
}

func TestSetpointDegenerateCollapsesToNight(t *testing.T) {
	s := New(log.Default())
	sched, err := s.Setpoint(SetpointSpec{
		Name: "Bad_SP", DayStart: "19:00", DayEnd: "07:00",
		DayValue: 20.0, NightValue: 16.0,
	})
	if err != nil {
		t.Fatalf("Setpoint: %v", err)
	}
	blocks := sched.Rules[0].Blocks
	if len(blocks) != 1 || blocks[0].Value != 16.0 {
		t.Errorf("degenerate setpoint = %+v, want single night-all-day block", blocks)
	}
}

func TestSynthesizeAppendsAllOtherDaysFallback(t *testing.T) {
	s := New(log.Default())
	sched, err := s.Synthesize(Spec{
		Name:       "Occ",
		TypeLimits: FractionLimits,
		DayPatterns: []DayPattern{
			{AppliesTo: []DayType{Weekday}, Explicit: []UntilBlock{{Until: "24:00", Value: 1.0}}},
		},
		PickStrategy: "midpoint",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	foundFallback := false
	for _, r := range sched.Rules {
		for _, dt := range r.AppliesTo {
			if dt == AllOtherDays {
				foundFallback = true
			}
		}
	}
	if !foundFallback {
		t.Error("Synthesize did not append an AllOtherDays fallback for uncovered day-types")
	}
}

func TestSynthesizeExtrapolatesTo2400(t *testing.T) {
	s := New(log.Default())
	sched, err := s.Synthesize(Spec{
		Name:       "Short",
		TypeLimits: FractionLimits,
		DayPatterns: []DayPattern{
			{
				AppliesTo: []DayType{Weekday, Saturday, Sunday, Holiday, SummerDesignDay, WinterDesignDay},
				Explicit:  []UntilBlock{{Until: "18:00", Value: 0.5}},
			},
		},
		PickStrategy: "midpoint",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	blocks := sched.Rules[0].Blocks
	last := blocks[len(blocks)-1]
	if last.Until != "24:00" || last.Value != 0.5 {
		t.Errorf("last block = %+v, want extrapolated 24:00 at last value", last)
	}
}

func TestWeekendExpandsUnlessExplicitlyOverridden(t *testing.T) {
	s := New(log.Default())
	sched, err := s.Synthesize(Spec{
		Name:       "Occ",
		TypeLimits: FractionLimits,
		DayPatterns: []DayPattern{
			{AppliesTo: []DayType{Weekend}, Explicit: []UntilBlock{{Until: "24:00", Value: 0.2}}},
			{AppliesTo: []DayType{Saturday}, Explicit: []UntilBlock{{Until: "24:00", Value: 0.8}}},
		},
		PickStrategy: "midpoint",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	var satValue, sunValue float64
	for _, r := range sched.Rules {
		for _, dt := range r.AppliesTo {
			if dt == Saturday {
				satValue = r.Blocks[0].Value
			}
			if dt == Sunday {
				sunValue = r.Blocks[0].Value
			}
		}
	}
	if satValue != 0.8 {
		t.Errorf("Saturday value = %v, want explicit override 0.8", satValue)
	}
	if sunValue != 0.2 {
		t.Errorf("Sunday value = %v, want weekend-expanded 0.2", sunValue)
	}
}

func TestUniformPickClampedToTypeLimits(t *testing.T) {
	s := New(log.Default())
	sched, err := s.Synthesize(Spec{
		Name:       "Ranged",
		TypeLimits: FractionLimits,
		DayPatterns: []DayPattern{
			{
				AppliesTo: []DayType{Weekday, Saturday, Sunday, Holiday, SummerDesignDay, WinterDesignDay},
				Ranged:    []RangedBlock{{Until: "24:00", Range: [2]float64{0.0, 1.0}}},
			},
		},
		PickStrategy: "uniform",
		Seed:         1,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	v := sched.Rules[0].Blocks[0].Value
	if v < 0.0 || v > 1.0 {
		t.Errorf("picked value %v outside [0,1]", v)
	}
}
