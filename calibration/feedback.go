package calibration

import (
	"sort"

	"github.com/bldgsim/beosim/paramassign"
)

// ApplyFeedback translates one iteration's best parameters (a black-box
// {canonical_parameter_key: value} map produced by an external
// calibration routine) into NumericFixed override records scoped to
// stage, and appends them to the running override list PA consumes
// (spec.md §4.9 step 2). Keys are sorted for deterministic override
// ordering across runs given the same bestParameters map.
func ApplyFeedback(existing []paramassign.Override, bestParameters map[string]float64, stage string) []paramassign.Override {
	keys := make([]string, 0, len(bestParameters))
	for k := range bestParameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := append([]paramassign.Override{}, existing...)
	for _, key := range keys {
		value := bestParameters[key]
		out = append(out, paramassign.Override{
			Kind:             paramassign.NumericFixed,
			CalibrationStage: stage,
			ParamName:        key,
			FixedValue:       &value,
		})
	}
	return out
}
