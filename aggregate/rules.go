// Package aggregate upsamples already-parsed columnar time-series
// output across reporting frequencies (timestep < hourly < daily <
// monthly < yearly), driven by a variable-name rule table, grounded on
// aggregation_utils.py's SmartAggregator (spec.md §4.8).
package aggregate

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Method is a reduction applied across one frequency period.
type Method string

const (
	Sum  Method = "sum"
	Mean Method = "mean"
	Max  Method = "max"
	Min  Method = "min"
	Last Method = "last"
)

// Frequency is one of the five recognized reporting granularities, in
// coarsening order.
type Frequency string

const (
	Timestep Frequency = "timestep"
	Hourly   Frequency = "hourly"
	Daily    Frequency = "daily"
	Monthly  Frequency = "monthly"
	Yearly   Frequency = "yearly"
)

var frequencyRank = map[Frequency]int{
	Timestep: 0,
	Hourly:   1,
	Daily:    2,
	Monthly:  3,
	Yearly:   4,
}

// CanAggregate reports whether target is strictly coarser than source,
// the only direction TSA is allowed to run.
func CanAggregate(source, target Frequency) bool {
	from, fok := frequencyRank[source]
	to, tok := frequencyRank[target]
	return fok && tok && from < to
}

// Rule is one (pattern, method) entry of the resolution table. Pattern
// is matched case-insensitively as a substring of the variable name
// unless Exact is set, in which case it must match the full name.
type Rule struct {
	Pattern string
	Method  Method
	Exact   bool
}

// defaultRules mirrors aggregation_utils.py's aggregation_rules dict,
// flattened to (pattern, method) pairs. Peak/extreme patterns precede
// the averaged-quantity patterns so a name like "Zone Air Temperature
// Maximum" resolves to its extreme rather than its base quantity.
var defaultRules = []Rule{
	{Pattern: "Energy", Method: Sum},
	{Pattern: "Consumption", Method: Sum},
	{Pattern: "Total", Method: Sum},
	{Pattern: "Volume", Method: Sum},
	{Pattern: "Peak", Method: Max},
	{Pattern: "Maximum", Method: Max},
	{Pattern: "Minimum", Method: Min},
	{Pattern: "Temperature", Method: Mean},
	{Pattern: "Rate", Method: Mean},
	{Pattern: "Power", Method: Mean},
	{Pattern: "Humidity", Method: Mean},
	{Pattern: "Pressure", Method: Mean},
	{Pattern: "Setpoint", Method: Mean},
	{Pattern: "Fraction", Method: Mean},
	{Pattern: "Coefficient", Method: Mean},
	{Pattern: "Status", Method: Last},
	{Pattern: "Mode", Method: Last},
	{Pattern: "State", Method: Last},
}

// DefaultMethod is used when no rule, exact or pattern, matches.
const DefaultMethod Method = Mean

// RuleTable resolves a variable name to an aggregation method: exact
// match wins, else the first substring-pattern match in declaration
// order, else DefaultMethod (spec.md §4.8 "Method resolution").
type RuleTable struct {
	rules []Rule
}

// NewRuleTable builds a table from caller rules, falling back to
// defaultRules when none are supplied.
func NewRuleTable(rules []Rule) *RuleTable {
	if len(rules) == 0 {
		rules = defaultRules
	}
	return &RuleTable{rules: rules}
}

// Resolve returns the aggregation method for variableName.
func (t *RuleTable) Resolve(variableName string) Method {
	lower := strings.ToLower(variableName)

	for _, r := range t.rules {
		if r.Exact && strings.ToLower(r.Pattern) == lower {
			return r.Method
		}
	}
	for _, r := range t.rules {
		if !r.Exact && strings.Contains(lower, strings.ToLower(r.Pattern)) {
			return r.Method
		}
	}
	return DefaultMethod
}

// Reduce applies a method to a slice of values, dropping NaNs first.
// An all-NaN (or empty) input yields NaN, per spec.md §4.8.
func Reduce(method Method, values []float64) float64 {
	kept := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return math.NaN()
	}
	switch method {
	case Sum:
		return floats.Sum(kept)
	case Max:
		return floats.Max(kept)
	case Min:
		return floats.Min(kept)
	case Last:
		return kept[len(kept)-1]
	default: // Mean
		return floats.Sum(kept) / float64(len(kept))
	}
}
