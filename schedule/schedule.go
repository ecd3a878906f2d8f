// Package schedule synthesizes compact, day-typed schedule objects
// (availability, occupancy, setpoints, infiltration, equipment) from
// ranged or explicit archetype day-patterns, following the same
// pick_strategy collapse rule as paramassign (spec.md §4.3).
package schedule

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/bldgsim/beosim/log"
)

// DayType is one of the recognized day classes a DayRule applies to.
type DayType string

const (
	Weekday        DayType = "Weekday"
	Saturday       DayType = "Saturday"
	Sunday         DayType = "Sunday"
	Weekend        DayType = "Weekend"
	Holiday        DayType = "Holiday"
	SummerDesignDay DayType = "SummerDesignDay"
	WinterDesignDay DayType = "WinterDesignDay"
	AllOtherDays   DayType = "AllOtherDays"
)

// recognizedDayTypes is every day-type SS must guarantee coverage for
// via an AllOtherDays fallback when no rule addresses it.
var recognizedDayTypes = []DayType{Weekday, Saturday, Sunday, Holiday, SummerDesignDay, WinterDesignDay}

// TypeLimits bounds the legal value range for a schedule's numeric
// field and its EnergyPlus-facing name.
type TypeLimits struct {
	Name string // "fraction" | "temperature" | "control_type"
	Min  float64
	Max  float64
}

var (
	FractionLimits    = TypeLimits{Name: "fraction", Min: 0.0, Max: 1.0}
	TemperatureLimits = TypeLimits{Name: "temperature", Min: -60.0, Max: 70.0}
	ControlTypeLimits = TypeLimits{Name: "control_type", Min: 0, Max: 4}
)

// UntilBlock is a (time, value) pair; times are "HH:MM" strings,
// strictly increasing within a DayRule and reaching at least 24:00.
type UntilBlock struct {
	Until string
	Value float64
}

// RangedBlock is an UntilBlock whose value has not yet been picked
// from a range.
type RangedBlock struct {
	Until string
	Range [2]float64
}

// DayPattern is either a list of explicit UntilBlocks or a list of
// RangedBlocks to be collapsed with a pick strategy; exactly one is
// populated.
type DayPattern struct {
	AppliesTo []DayType
	Explicit  []UntilBlock
	Ranged    []RangedBlock
}

func (p DayPattern) isRanged() bool { return p.Ranged != nil }

// Spec is SS's input: a named schedule with type limits and its day
// patterns (spec.md §4.3).
type Spec struct {
	Name         string
	TypeLimits   TypeLimits
	DayPatterns  []DayPattern
	PickStrategy string // "midpoint" | "uniform" | "min"
	Seed         int64
}

// Schedule is SS's output: a resolved, fully-numeric set of day rules
// ready for text emission.
type Schedule struct {
	Name       string
	TypeLimits TypeLimits
	Rules      []DayRule
}

// DayRule pairs a set of day-types with its resolved, strictly
// increasing block sequence.
type DayRule struct {
	AppliesTo []DayType
	Blocks    []UntilBlock
}

// Synthesizer builds schedules; it owns no state but groups the
// operation the way paramassign.Assigner groups PA's.
type Synthesizer struct {
	log *log.Logger
}

func New(logger *log.Logger) *Synthesizer {
	if logger == nil {
		logger = log.Default()
	}
	return &Synthesizer{log: logger}
}

// Synthesize resolves every day pattern in spec into numeric blocks,
// expands "weekend" into Saturday+Sunday (overridable by a later
// explicit Saturday/Sunday rule per spec.md §9), ensures every pattern
// reaches 24:00, and synthesizes an AllOtherDays fallback for any
// day-type no rule addresses.
func (s *Synthesizer) Synthesize(spec Spec) (*Schedule, error) {
	rng := rand.New(rand.NewSource(uint64(spec.Seed)))
	strategy := normalizeStrategy(spec.PickStrategy, s.log)

	expanded := expandWeekend(spec.DayPatterns)

	rules := make([]DayRule, 0, len(expanded))
	covered := map[DayType]bool{}
	for _, dp := range expanded {
		blocks, err := resolvePattern(dp, strategy, rng, spec.TypeLimits)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", spec.Name, err)
		}
		blocks = ensureReaches2400(blocks)
		rules = append(rules, DayRule{AppliesTo: dp.AppliesTo, Blocks: blocks})
		for _, dt := range dp.AppliesTo {
			covered[dt] = true
		}
	}

	var missing []DayType
	for _, dt := range recognizedDayTypes {
		if !covered[dt] {
			missing = append(missing, dt)
		}
	}
	if len(missing) > 0 {
		def := defaultValue(spec.TypeLimits)
		rules = append(rules, DayRule{
			AppliesTo: []DayType{AllOtherDays},
			Blocks:    []UntilBlock{{Until: "24:00", Value: def}},
		})
	}

	return &Schedule{Name: spec.Name, TypeLimits: spec.TypeLimits, Rules: rules}, nil
}

func normalizeStrategy(strategy string, logger *log.Logger) string {
	switch strategy {
	case "midpoint", "uniform", "min":
		return strategy
	default:
		logger.Warn("schedule: unknown pick strategy, defaulting to midpoint", map[string]any{"strategy": strategy})
		return "midpoint"
	}
}

// expandWeekend turns a "Weekend" applies_to entry into Saturday +
// Sunday, unless a later pattern explicitly names Saturday or Sunday,
// in which case that later rule wins for that day (spec.md §9).
func expandWeekend(patterns []DayPattern) []DayPattern {
	explicitSat, explicitSun := false, false
	for _, p := range patterns {
		for _, dt := range p.AppliesTo {
			if dt == Saturday {
				explicitSat = true
			}
			if dt == Sunday {
				explicitSun = true
			}
		}
	}

	out := make([]DayPattern, 0, len(patterns))
	for _, p := range patterns {
		hasWeekend := false
		rest := p.AppliesTo[:0:0]
		for _, dt := range p.AppliesTo {
			if dt == Weekend {
				hasWeekend = true
				continue
			}
			rest = append(rest, dt)
		}
		if hasWeekend {
			if !explicitSat {
				rest = append(rest, Saturday)
			}
			if !explicitSun {
				rest = append(rest, Sunday)
			}
		}
		if len(rest) == 0 {
			continue
		}
		np := p
		np.AppliesTo = rest
		out = append(out, np)
	}
	return out
}

func resolvePattern(dp DayPattern, strategy string, rng *rand.Rand, limits TypeLimits) ([]UntilBlock, error) {
	if !dp.isRanged() {
		return append([]UntilBlock(nil), dp.Explicit...), nil
	}
	blocks := make([]UntilBlock, len(dp.Ranged))
	for i, rb := range dp.Ranged {
		v := pickRange(rb.Range[0], rb.Range[1], strategy, rng)
		blocks[i] = UntilBlock{Until: rb.Until, Value: clamp(v, limits.Min, limits.Max)}
	}
	return blocks, nil
}

func pickRange(min, max float64, strategy string, rng *rand.Rand) float64 {
	if min > max {
		max = min
	}
	switch strategy {
	case "midpoint":
		return (min + max) / 2.0
	case "uniform":
		if min == max {
			return min
		}
		u := distuv.Uniform{Min: min, Max: max, Src: rng}
		return u.Rand()
	case "min":
		return min
	default:
		return min
	}
}

func ensureReaches2400(blocks []UntilBlock) []UntilBlock {
	if len(blocks) == 0 {
		return []UntilBlock{{Until: "24:00", Value: 0}}
	}
	last := blocks[len(blocks)-1]
	if last.Until != "24:00" {
		blocks = append(blocks, UntilBlock{Until: "24:00", Value: last.Value})
	}
	return blocks
}

func defaultValue(limits TypeLimits) float64 {
	switch limits.Name {
	case "temperature":
		return limits.Max
	default:
		return 0
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

// SetpointSpec describes the three-block day/night setpoint special
// case (spec.md §4.3): two transitions bracketing an occupied "day"
// period between night setbacks.
type SetpointSpec struct {
	Name      string
	DayStart  string
	DayEnd    string
	DayValue  float64
	NightValue float64
}

// Setpoint builds the three-block day/night pattern
// [(day_start,'night'),(day_end,'day'),(24:00,'night')]. A degenerate
// day_start >= day_end collapses to night-all-day and warns.
func (s *Synthesizer) Setpoint(spec SetpointSpec) (*Schedule, error) {
	if minutesOf(spec.DayStart) >= minutesOf(spec.DayEnd) {
		s.log.Warn("schedule: setpoint day_start >= day_end, collapsing to night-all-day", map[string]any{
			"schedule": spec.Name, "day_start": spec.DayStart, "day_end": spec.DayEnd,
		})
		return &Schedule{
			Name:       spec.Name,
			TypeLimits: TemperatureLimits,
			Rules: []DayRule{{
				AppliesTo: []DayType{Weekday, Saturday, Sunday, Holiday, SummerDesignDay, WinterDesignDay},
				Blocks:    []UntilBlock{{Until: "24:00", Value: spec.NightValue}},
			}},
		}, nil
	}
	blocks := []UntilBlock{
		{Until: spec.DayStart, Value: spec.NightValue},
		{Until: spec.DayEnd, Value: spec.DayValue},
		{Until: "24:00", Value: spec.NightValue},
	}
	return &Schedule{
		Name:       spec.Name,
		TypeLimits: TemperatureLimits,
		Rules: []DayRule{{
			AppliesTo: []DayType{Weekday, Saturday, Sunday, Holiday, SummerDesignDay, WinterDesignDay},
			Blocks:    blocks,
		}},
	}, nil
}

func minutesOf(hhmm string) int {
	var h, m int
	fmt.Sscanf(hhmm, "%d:%d", &h, &m)
	return h*60 + m
}

// DaySetString renders a DayRule's AppliesTo list the way a For: field
// expects, e.g. "Weekday" or "Saturday Sunday".
func DaySetString(days []DayType) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = string(d)
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
