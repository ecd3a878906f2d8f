package paramassign

import "github.com/bldgsim/beosim/archetype"

// OverrideKind discriminates the three override payload shapes a
// user-config record can carry (spec.md §9: "message-passing, not
// monkey-patching").
type OverrideKind int

const (
	NumericFixed OverrideKind = iota
	NumericRange
	ScheduleBlocksKind
)

// Override is a scope-matched mutation applied to an in-progress
// parameter range or schedule day-pattern. Scope fields left at their
// zero value are not checked (spec.md §3's "any subset" semantics).
// FixedValue and Min/Max may both be set on the same record; per
// spec.md §4.2, fixed_value wins in that case.
type Override struct {
	Kind OverrideKind

	// Scope
	BuildingID       string
	Function         string
	SubType          string
	AgeRange         string
	Scenario         string
	CalibrationStage string

	// Payload
	ParamName  string
	FixedValue *float64
	Min        *float64
	Max        *float64
	Blocks     any
}

// Matches reports whether every scope field this override sets equals
// the corresponding field of q. An override with no scope fields set
// matches every query (spec.md §3: "matches a PA query iff every
// scope field present equals the query's").
func (o Override) Matches(q Query) bool {
	if o.BuildingID != "" && o.BuildingID != q.BuildingID {
		return false
	}
	if o.Function != "" && o.Function != q.Function {
		return false
	}
	if o.SubType != "" && o.SubType != q.SubType {
		return false
	}
	if o.AgeRange != "" && o.AgeRange != q.AgeRange {
		return false
	}
	if o.Scenario != "" && o.Scenario != q.Scenario {
		return false
	}
	if o.CalibrationStage != "" && o.CalibrationStage != q.CalibrationStage {
		return false
	}
	return true
}

// applyNumeric mutates the current range table for a NumericFixed or
// NumericRange override, reporting the parameter name it touched.
// A fixed_value together with min/max present resolves in favor of
// fixed_value, per spec.md §4.2's failure-mode rule.
func (o Override) applyNumeric(ranges map[string]archetype.ParameterRange) (archetype.ParameterRange, string, bool) {
	if o.ParamName == "" {
		return archetype.ParameterRange{}, "", false
	}
	if _, ok := ranges[o.ParamName]; !ok {
		return archetype.ParameterRange{}, "", false
	}
	if o.FixedValue != nil {
		return archetype.ParameterRange{Min: *o.FixedValue, Max: *o.FixedValue}, o.ParamName, true
	}
	if o.Min != nil && o.Max != nil {
		return archetype.ParameterRange{Min: *o.Min, Max: *o.Max}, o.ParamName, true
	}
	return archetype.ParameterRange{}, "", false
}

// applySchedule extracts a schedule-block override payload, to be
// consumed by the schedule synthesizer rather than paramassign
// itself.
func (o Override) applySchedule() (ScheduleBlockOverride, string, bool) {
	if o.Kind != ScheduleBlocksKind || o.ParamName == "" {
		return ScheduleBlockOverride{}, "", false
	}
	return ScheduleBlockOverride{ParamName: o.ParamName, Blocks: o.Blocks}, o.ParamName, true
}
