package calibration

import (
	"testing"

	"github.com/bldgsim/beosim/paramassign"
)

func TestSaveAndLoadIterationRoundTrips(t *testing.T) {
	root := t.TempDir()
	state := IterationState{
		Iteration:         2,
		SelectedBuildings: []string{"b1", "b2"},
		ValidationResults: []ValidationResult{{BuildingID: "b1", Variable: "Energy", CVRMSE: 12.5}},
		BestParameters:    map[string]float64{"hvac*setpoint": 21.0},
		Decision:          Continue,
	}
	if err := SaveIteration(root, state); err != nil {
		t.Fatalf("SaveIteration: %v", err)
	}
	got, err := LoadIteration(root, 2)
	if err != nil {
		t.Fatalf("LoadIteration: %v", err)
	}
	if got.Iteration != 2 || len(got.SelectedBuildings) != 2 || got.BestParameters["hvac*setpoint"] != 21.0 {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestHighestIterationFindsLargestIndex(t *testing.T) {
	root := t.TempDir()
	for _, i := range []int{1, 2, 5} {
		if err := SaveIteration(root, IterationState{Iteration: i}); err != nil {
			t.Fatalf("SaveIteration(%d): %v", i, err)
		}
	}
	highest, err := HighestIteration(root)
	if err != nil {
		t.Fatalf("HighestIteration: %v", err)
	}
	if highest != 5 {
		t.Fatalf("expected highest 5, got %d", highest)
	}
}

func TestHighestIterationEmptyDirReturnsNegativeOne(t *testing.T) {
	root := t.TempDir()
	highest, err := HighestIteration(root)
	if err != nil {
		t.Fatalf("HighestIteration: %v", err)
	}
	if highest != -1 {
		t.Fatalf("expected -1 for empty root, got %d", highest)
	}
}

func TestSelectBuildingsIteration1UsesExplicitList(t *testing.T) {
	explicit := []string{"b1", "b2", "b3"}
	got := SelectBuildings(1, explicit, nil, 2)
	if len(got) != 2 || got[0] != "b1" || got[1] != "b2" {
		t.Fatalf("expected truncated explicit list, got %v", got)
	}
}

func TestSelectBuildingsRanksByResidualMagnitude(t *testing.T) {
	previous := []ValidationResult{
		{BuildingID: "low", CVRMSE: 2, PassCVRMSE: false, PassNMBE: true},
		{BuildingID: "high", CVRMSE: 20, PassCVRMSE: false, PassNMBE: true},
		{BuildingID: "passing", CVRMSE: 50, PassCVRMSE: true, PassNMBE: true},
	}
	got := SelectBuildings(2, nil, previous, 10)
	if len(got) != 2 {
		t.Fatalf("expected passing building excluded, got %v", got)
	}
	if got[0] != "high" || got[1] != "low" {
		t.Fatalf("expected worst-first ranking [high low], got %v", got)
	}
}

func TestDecideConvergesBelowThreshold(t *testing.T) {
	cfg := ConvergenceConfig{MetricThreshold: 10, MaxIterations: 20, Patience: 3, MinImprovement: 0.5}
	got := Decide(cfg, 5, 9.9, []float64{15, 14, 12})
	if got != Converged {
		t.Fatalf("expected Converged, got %v", got)
	}
}

func TestDecideMaxIterWhenExhausted(t *testing.T) {
	cfg := ConvergenceConfig{MetricThreshold: 1, MaxIterations: 5, Patience: 10, MinImprovement: 0.5}
	got := Decide(cfg, 5, 50, []float64{60, 58, 56, 55})
	if got != MaxIter {
		t.Fatalf("expected MaxIter, got %v", got)
	}
}

func TestDecideStallsOnInsufficientImprovement(t *testing.T) {
	cfg := ConvergenceConfig{MetricThreshold: 1, MaxIterations: 100, Patience: 3, MinImprovement: 1.0}
	// flat history: no iteration improves by >= 1.0
	got := Decide(cfg, 4, 50.1, []float64{50.4, 50.3, 50.2})
	if got != Stall {
		t.Fatalf("expected Stall, got %v", got)
	}
}

func TestDecideContinuesWhenImproving(t *testing.T) {
	cfg := ConvergenceConfig{MetricThreshold: 1, MaxIterations: 100, Patience: 3, MinImprovement: 1.0}
	got := Decide(cfg, 4, 40, []float64{55, 50, 45})
	if got != Continue {
		t.Fatalf("expected Continue, got %v", got)
	}
}

func TestApplyFeedbackAppendsScopedOverrides(t *testing.T) {
	best := map[string]float64{"hvac*SYS*COP*Value": 3.2}
	out := ApplyFeedback(nil, best, "iteration_3")
	if len(out) != 1 {
		t.Fatalf("expected 1 override, got %d", len(out))
	}
	o := out[0]
	if o.Kind != paramassign.NumericFixed || o.CalibrationStage != "iteration_3" || o.ParamName != "hvac*SYS*COP*Value" {
		t.Fatalf("unexpected override: %+v", o)
	}
	if o.FixedValue == nil || *o.FixedValue != 3.2 {
		t.Fatalf("expected fixed value 3.2, got %v", o.FixedValue)
	}
}

// TestControllerMonotoneState verifies CC's testable property (spec.md
// §8): iteration i+1 reads only iteration <= i artefacts and never
// mutates earlier iterations' files.
func TestControllerMonotoneStateNeverMutatesEarlierIterations(t *testing.T) {
	root := t.TempDir()
	stages := Stages{
		Build:    func(_ string, ids []string, _ []paramassign.Override) ([]string, error) { return ids, nil },
		Simulate: func(ids []string) error { return nil },
		Extract:  func(ids []string) error { return nil },
		Validate: func(ids []string) ([]ValidationResult, map[string]float64, error) {
			results := make([]ValidationResult, len(ids))
			for i, id := range ids {
				results[i] = ValidationResult{BuildingID: id, CVRMSE: 50 - float64(i), PassCVRMSE: false, PassNMBE: true}
			}
			return results, map[string]float64{"hvac*setpoint": 21.0}, nil
		},
	}
	cfg := ConvergenceConfig{MetricThreshold: 0, MaxIterations: 10, Patience: 10, MinImprovement: 0.01}

	c, next, err := NewController(root, cfg, []string{"b1", "b2"}, 5, stages, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	if next != 1 {
		t.Fatalf("expected to start at iteration 1, got %d", next)
	}

	if _, err := c.RunIteration(1); err != nil {
		t.Fatalf("RunIteration(1): %v", err)
	}
	first, err := LoadIteration(root, 1)
	if err != nil {
		t.Fatalf("LoadIteration(1): %v", err)
	}

	if _, err := c.RunIteration(2); err != nil {
		t.Fatalf("RunIteration(2): %v", err)
	}

	// iteration 1's persisted state must be byte-for-byte unchanged by
	// running iteration 2.
	again, err := LoadIteration(root, 1)
	if err != nil {
		t.Fatalf("LoadIteration(1) after iteration 2: %v", err)
	}
	if len(again.SelectedBuildings) != len(first.SelectedBuildings) {
		t.Fatalf("iteration 1 state mutated by iteration 2's run")
	}
}

func TestControllerResumeRebuildsOverrideHistory(t *testing.T) {
	root := t.TempDir()
	if err := SaveIteration(root, IterationState{
		Iteration:         1,
		ValidationResults: []ValidationResult{{BuildingID: "b1", CVRMSE: 40}},
		BestParameters:    map[string]float64{"hvac*setpoint": 20.0},
	}); err != nil {
		t.Fatalf("seed iteration 1: %v", err)
	}

	stages := Stages{}
	cfg := ConvergenceConfig{MetricThreshold: 1, MaxIterations: 10}
	c, next, err := NewController(root, cfg, nil, 5, stages, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	if next != 2 {
		t.Fatalf("expected to resume at iteration 2, got %d", next)
	}
	if len(c.overrides) != 1 {
		t.Fatalf("expected 1 override rebuilt from iteration 1's best parameters, got %d", len(c.overrides))
	}
	if len(c.history) != 1 || c.history[0] != 40 {
		t.Fatalf("expected history [40], got %v", c.history)
	}
}
