package aggregate

import (
	"fmt"
	"sort"
	"time"
)

// LongRow is one row of a comparison table keyed by an integer
// millisecond timestamp plus a set of named value columns
// (spec.md §4.8's long path: "for comparison tables with a timestamp
// column ... apply the chosen reducer per value-column").
type LongRow struct {
	TimestampMillis int64
	Keys            map[string]string // grouping keys, e.g. building_id/variant_id
	Values          map[string]float64
}

// AggregateLong upsamples a long-form table from source to target
// frequency: groups rows by (Keys, period-floor(TimestampMillis)),
// reduces each value column independently per its resolved method, and
// re-encodes TimestampMillis as the period-start.
func AggregateLong(rows []LongRow, source, target Frequency, rules *RuleTable) ([]LongRow, error) {
	if !CanAggregate(source, target) {
		return nil, fmt.Errorf("aggregate: refused: target %q is not strictly coarser than source %q", target, source)
	}

	type groupKey struct {
		keysSig     string
		periodStart int64
	}
	type group struct {
		keys        map[string]string
		periodStart int64
		values      map[string][]float64
	}
	groups := make(map[groupKey]*group)
	order := make([]groupKey, 0)

	for _, row := range rows {
		start := periodStartMillis(row.TimestampMillis, target)
		gk := groupKey{keysSig: keysSignature(row.Keys), periodStart: start}
		g, ok := groups[gk]
		if !ok {
			g = &group{keys: row.Keys, periodStart: start, values: make(map[string][]float64)}
			groups[gk] = g
			order = append(order, gk)
		}
		for col, val := range row.Values {
			g.values[col] = append(g.values[col], val)
		}
	}

	out := make([]LongRow, 0, len(order))
	for _, gk := range order {
		g := groups[gk]
		values := make(map[string]float64, len(g.values))
		for col, vals := range g.values {
			values[col] = Reduce(rules.Resolve(col), vals)
		}
		out = append(out, LongRow{TimestampMillis: g.periodStart, Keys: g.keys, Values: values})
	}
	return out, nil
}

// periodStartMillis floors a millisecond timestamp to the start of its
// target-frequency period, in UTC.
func periodStartMillis(ms int64, target Frequency) int64 {
	t := time.UnixMilli(ms).UTC()
	var floored time.Time
	switch target {
	case Yearly:
		floored = time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case Monthly:
		floored = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Daily:
		floored = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Hourly:
		floored = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	default:
		floored = t
	}
	return floored.UnixMilli()
}

// keysSignature builds a stable map signature for grouping; Go maps
// cannot be compared or hashed directly, so the signature is built by
// concatenating sorted key=value pairs.
func keysSignature(keys map[string]string) string {
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)
	sig := ""
	for _, k := range names {
		sig += k + "=" + keys[k] + ";"
	}
	return sig
}
