package aggregate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bldgsim/beosim/log"
	"github.com/bldgsim/beosim/results"
)

// Job describes one TSA invocation over a previously-parsed semi-wide
// file: read path, source/target frequency, an optional variable
// filter, and whether an existing target output is left untouched.
type Job struct {
	InputPath    string
	OutputDir    string
	Scope        string // "all" or "selected", spec.md §6 filename convention
	Source       Frequency
	Target       Frequency
	Include      []string // exact-name or glob variable filters; empty means all
	Exclude      []string
	SkipExisting bool
	Rules        *RuleTable
}

// OutputPath renders the provenance-encoding filename spec.md §6
// requires: "base_<scope>_<target>_from_<source>.parquet".
func (j Job) OutputPath() string {
	name := fmt.Sprintf("base_%s_%s_from_%s.parquet", j.Scope, j.Target, j.Source)
	return filepath.Join(j.OutputDir, name)
}

// Run executes one TSA job: reads the semi-wide parquet input, filters
// variables, aggregates, and writes the target file. A target that
// already exists with SkipExisting set is a no-op (spec.md §4.8).
// Re-running over an unchanged input is idempotent since Aggregate is a
// pure function of (rows, rules, source, target).
func Run(j Job, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	if !CanAggregate(j.Source, j.Target) {
		return fmt.Errorf("aggregate: refused: target %q is not strictly coarser than source %q", j.Target, j.Source)
	}

	out := j.OutputPath()
	if j.SkipExisting {
		if _, err := os.Stat(out); err == nil {
			logger.Debug("aggregate: skip_existing: output already present", map[string]any{"path": out})
			return nil
		}
	}

	rawRows, err := results.ReadParquet[flatPeriod](j.InputPath)
	if err != nil {
		return fmt.Errorf("aggregate: read %s: %w", j.InputPath, err)
	}
	table := fromFlat(rawRows)
	table.Rows = filterVariables(table.Rows, j.Include, j.Exclude)

	rules := j.Rules
	if rules == nil {
		rules = NewRuleTable(nil)
	}

	aggregated, err := Aggregate(table, j.Source, j.Target, rules)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(j.OutputDir, 0o755); err != nil {
		return fmt.Errorf("aggregate: mkdir %s: %w", j.OutputDir, err)
	}
	flat := toFlat(aggregated)
	if err := results.WriteParquet(out, flat); err != nil {
		return fmt.Errorf("aggregate: write %s: %w", out, err)
	}
	return nil
}

// filterVariables keeps rows whose Variable matches an Include entry
// (or Include is empty) and does not match any Exclude entry. Patterns
// ending in "*" are treated as a prefix glob; anything else is an
// exact, case-sensitive match.
func filterVariables(rows []SemiWideRow, include, exclude []string) []SemiWideRow {
	matches := func(name string, patterns []string) bool {
		for _, p := range patterns {
			if strings.HasSuffix(p, "*") {
				if strings.HasPrefix(name, strings.TrimSuffix(p, "*")) {
					return true
				}
			} else if p == name {
				return true
			}
		}
		return false
	}

	out := make([]SemiWideRow, 0, len(rows))
	for _, r := range rows {
		if len(include) > 0 && !matches(r.Variable, include) {
			continue
		}
		if matches(r.Variable, exclude) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// flatPeriod is the row-major parquet encoding results.writeSemiWide
// produces: one row per (variable, zone, units, period) cell.
type flatPeriod struct {
	BuildingID string
	VariantID  string
	Variable   string
	Category   string
	Zone       string
	Units      string
	Period     string
	Value      float64
}

func fromFlat(flat []flatPeriod) SemiWideTable {
	type key struct{ variable, zone, units string }
	index := make(map[key]*SemiWideRow)
	order := make([]key, 0)

	for _, f := range flat {
		k := key{f.Variable, f.Zone, f.Units}
		row, ok := index[k]
		if !ok {
			row = &SemiWideRow{Variable: f.Variable, Zone: f.Zone, Units: f.Units, Periods: make(map[string]float64)}
			index[k] = row
			order = append(order, k)
		}
		row.Periods[f.Period] = f.Value
	}

	rows := make([]SemiWideRow, len(order))
	for i, k := range order {
		rows[i] = *index[k]
	}
	return SemiWideTable{Rows: rows}
}

func toFlat(table SemiWideTable) []flatPeriod {
	var out []flatPeriod
	for _, r := range table.Rows {
		for _, p := range r.SortedPeriods() {
			out = append(out, flatPeriod{
				Variable: r.Variable, Zone: r.Zone, Units: r.Units,
				Period: p, Value: r.Periods[p],
			})
		}
	}
	return out
}
