package aggregate

import (
	"fmt"
	"sort"
	"strings"
)

// SemiWideTable is the in-memory shape of a parsed semi-wide
// time-series file: one row per (variable, ...) key, with Periods
// holding the file's date-string columns.
type SemiWideTable struct {
	Rows []SemiWideRow
}

// SemiWideRow mirrors results.SemiWideRow's shape locally so this
// package has no import-time dependency on the extractor; TSA operates
// on any row type that carries a variable name and a period->value map.
type SemiWideRow struct {
	Variable string
	Zone     string
	Units    string
	Periods  map[string]float64
}

// Aggregate upsamples one semi-wide table from source to target
// frequency using table's per-variable method resolution. It refuses
// (spec.md's AggregationRefused) whenever target is not strictly
// coarser than source.
func Aggregate(table SemiWideTable, source, target Frequency, rules *RuleTable) (SemiWideTable, error) {
	if !CanAggregate(source, target) {
		return SemiWideTable{}, fmt.Errorf("aggregate: refused: target %q is not strictly coarser than source %q", target, source)
	}

	out := make([]SemiWideRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		groups := groupPeriods(row.Periods, target)
		method := rules.Resolve(row.Variable)

		newPeriods := make(map[string]float64, len(groups))
		for period, values := range groups {
			newPeriods[period] = Reduce(method, values)
		}

		out = append(out, SemiWideRow{
			Variable: row.Variable,
			Zone:     row.Zone,
			Units:    row.Units,
			Periods:  newPeriods,
		})
	}
	return SemiWideTable{Rows: out}, nil
}

// groupPeriods buckets a row's source period columns by the coarser
// target period they fall under (e.g. every "2013-06-*" daily column
// under "2013-06"), grounded on aggregation_utils.py's pandas
// groupby+resample pattern, re-expressed as an explicit string-prefix
// group since Go has no datetime-index resampler. Source periods are
// visited in ascending order so each group's value list is
// chronological: Last means last-in-period, and float sums are
// reproducible run to run.
func groupPeriods(periods map[string]float64, target Frequency) map[string][]float64 {
	keys := make([]string, 0, len(periods))
	for period := range periods {
		keys = append(keys, period)
	}
	sort.Strings(keys)

	groups := make(map[string][]float64)
	for _, period := range keys {
		key := periodFloor(period, target)
		groups[key] = append(groups[key], periods[period])
	}
	return groups
}

// periodFloor derives the coarser period string a finer-grained period
// column belongs to, by truncating to the target frequency's date
// format (spec.md §4.7's per-frequency date format: YYYY yearly,
// YYYY-MM monthly, YYYY-MM-DD daily, YYYY-MM-DD_HH hourly).
func periodFloor(period string, target Frequency) string {
	// period is one of YYYY, YYYY-MM, YYYY-MM-DD, YYYY-MM-DD_HH, or
	// YYYY-MM-DD_HH:MM (timestep); once the time-of-day suffix is
	// stripped, what remains is a YYYY, YYYY-MM or YYYY-MM-DD date part.
	datePart := period
	if idx := strings.IndexByte(period, '_'); idx >= 0 {
		datePart = period[:idx]
	}

	switch target {
	case Yearly:
		return datePart[:4]
	case Monthly:
		if len(datePart) >= 7 {
			return datePart[:7]
		}
		return datePart
	case Daily:
		if len(datePart) >= 10 {
			return datePart[:10]
		}
		return datePart
	case Hourly:
		// hourly target from timestep source: keep the hour suffix.
		if idx := strings.IndexByte(period, '_'); idx >= 0 {
			hourPart := period[idx+1:]
			if len(hourPart) >= 2 {
				return fmt.Sprintf("%s_%s", datePart, hourPart[:2])
			}
		}
		return period
	default:
		return period
	}
}

// SortedPeriods returns a row's period keys in ascending order for
// deterministic output.
func (r SemiWideRow) SortedPeriods() []string {
	keys := make([]string, 0, len(r.Periods))
	for k := range r.Periods {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
