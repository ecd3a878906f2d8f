// Package paramassign resolves per-subsystem parameter ranges from
// the archetype store and registry defaults, applies an override
// list, and picks concrete values (midpoint / uniform / min).
package paramassign

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/bldgsim/beosim/archetype"
	"github.com/bldgsim/beosim/log"
	"github.com/bldgsim/beosim/registry"
)

// PickStrategy selects how a ParameterRange collapses to one value.
type PickStrategy string

const (
	Midpoint PickStrategy = "midpoint"
	Uniform  PickStrategy = "uniform"
	Min      PickStrategy = "min"
)

// Query describes one subsystem resolution request.
type Query struct {
	BuildingID       string
	Function         string
	SubType          string
	AgeRange         string
	Scenario         string
	CalibrationStage string
	Subsystem        string
	PickStrategy     PickStrategy
	Seed             int64
	Overrides        []Override
}

// ResolvedParameter is a concrete value paired with the final range it
// was picked from, for provenance.
type ResolvedParameter struct {
	ParamKey     string
	Range        archetype.ParameterRange
	ChosenValue  float64
	PickStrategy PickStrategy
}

// ResolvedSubsystem is PA's output: concrete numeric values with
// provenance, discrete choices, and any schedule-block overrides.
type ResolvedSubsystem struct {
	Values             map[string]ResolvedParameter
	Discrete           map[string]string
	ScheduleBlocks     map[string]ScheduleBlockOverride
	UnmatchedOverrides []int
}

// ScheduleBlockOverride carries a raw day-pattern override destined
// for the schedule synthesizer; paramassign only stashes it.
type ScheduleBlockOverride struct {
	ParamName string
	Blocks    any
}

// Assigner resolves queries against a fixed archetype store and
// registry. Both are read-only and safe to share across workers.
type Assigner struct {
	store *archetype.Store
	reg   *registry.Registry
	log   *log.Logger
}

func New(store *archetype.Store, reg *registry.Registry, logger *log.Logger) *Assigner {
	if logger == nil {
		logger = log.Default()
	}
	return &Assigner{store: store, reg: reg, log: logger}
}

// subsystemParamKeys lists every parameter name a subsystem is
// expected to recognize, used to backfill registry defaults for keys
// ALS didn't supply.
var subsystemParamKeys = map[string][]string{
	"ventilation":   {"infiltration_base", "year_factor", "f_ctrl", "hrv_eff", "fan_total_efficiency", "fan_pressure"},
	"hvac":          {"cooling_cop", "heating_efficiency", "supply_air_temp_heating", "supply_air_temp_cooling"},
	"lighting":      {"lighting_power_density"},
	"equipment":     {"equipment_power_density"},
	"dhw":           {"dhw_efficiency"},
	"fenestration":  {"window_u_factor"},
	"shading":       {"shading_setpoint"},
	"infiltration":  {"infiltration_base", "year_factor"},
}

// Resolve executes the full PA operation for one subsystem query.
func (a *Assigner) Resolve(q Query) (*ResolvedSubsystem, error) {
	keys, ok := subsystemParamKeys[q.Subsystem]
	if !ok {
		return nil, fmt.Errorf("paramassign: unknown subsystem %q", q.Subsystem)
	}

	block := a.store.GetSubsystemBlock(q.Scenario, q.CalibrationStage, q.Subsystem, q.Function, q.SubType, q.AgeRange)

	ranges := make(map[string]archetype.ParameterRange, len(keys))
	for _, k := range keys {
		if r, ok := block.Ranges[k]; ok {
			ranges[k] = r
			continue
		}
		ranges[k] = a.registryDefaultRange(q.Subsystem, k)
	}

	result := &ResolvedSubsystem{
		Values:         make(map[string]ResolvedParameter, len(ranges)),
		Discrete:       make(map[string]string),
		ScheduleBlocks: make(map[string]ScheduleBlockOverride),
	}
	if sysType, ok := block.SystemTypeMap[q.SubType]; ok {
		result.Discrete["system_type"] = sysType
	}

	for i, ov := range q.Overrides {
		if !ov.Matches(q) {
			continue
		}
		matched := false
		if nr, pname, ok := ov.applyNumeric(ranges); ok {
			ranges[pname] = nr
			matched = true
		}
		if sb, pname, ok := ov.applySchedule(); ok {
			result.ScheduleBlocks[pname] = sb
			matched = true
		}
		if !matched {
			a.log.Warn("paramassign: override matched scope but no parameter", map[string]any{
				"index": i, "param": ov.ParamName,
			})
			result.UnmatchedOverrides = append(result.UnmatchedOverrides, i)
		}
	}

	strategy := q.PickStrategy
	if strategy != Midpoint && strategy != Uniform && strategy != Min {
		a.log.Warn("paramassign: unknown pick strategy, defaulting to midpoint", map[string]any{
			"strategy": string(strategy),
		})
		strategy = Midpoint
	}

	// Draws consume the seeded RNG in sorted parameter order so the
	// same (query, seed) always yields the same picks.
	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)

	rng := rand.New(rand.NewSource(uint64(q.Seed)))
	for _, name := range names {
		r := sanitizeRange(ranges[name], name, a.log)
		chosen := pick(r, strategy, rng)
		result.Values[name] = ResolvedParameter{
			ParamKey:     name,
			Range:        r,
			ChosenValue:  clamp(chosen, r.Min, r.Max),
			PickStrategy: strategy,
		}
	}
	return result, nil
}

func (a *Assigner) registryDefaultRange(subsystem, paramName string) archetype.ParameterRange {
	key := registry.Key(subsystem, "ARCHETYPE", paramName)
	if p, ok := a.reg.Get(key); ok {
		d, ok := p.DefaultValue.(float64)
		if !ok {
			d = 0
		}
		return archetype.ParameterRange{Min: d, Max: d}
	}
	return archetype.ParameterRange{Min: 0, Max: 0}
}

// sanitizeRange implements the RangeInvalid contract: NaN collapses
// to a zero-range and warns; min > max collapses to min for both.
func sanitizeRange(r archetype.ParameterRange, name string, logger *log.Logger) archetype.ParameterRange {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
		logger.Warn("paramassign: NaN range collapsed to zero", map[string]any{"param": name})
		return archetype.ParameterRange{Min: 0, Max: 0}
	}
	if r.Min > r.Max {
		logger.Warn("paramassign: min > max, using min for both", map[string]any{"param": name})
		return archetype.ParameterRange{Min: r.Min, Max: r.Min}
	}
	return r
}

func pick(r archetype.ParameterRange, strategy PickStrategy, rng *rand.Rand) float64 {
	switch strategy {
	case Midpoint:
		return (r.Min + r.Max) / 2.0
	case Uniform:
		if r.Min == r.Max {
			return r.Min
		}
		u := distuv.Uniform{Min: r.Min, Max: r.Max, Src: rng}
		return u.Rand()
	case Min:
		return r.Min
	default:
		return r.Min
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
