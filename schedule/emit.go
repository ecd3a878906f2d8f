package schedule

import "strconv"

// Emit renders a Schedule as the engine's Schedule:Compact field
// sequence: "Through: 12/31", then repeated "For: <day_set>" followed
// by one "Until: HH:MM,value" per block. The fields carry no trailing
// punctuation; EmitText adds the separating commas and the final
// semicolon (spec.md §6).
func Emit(name string, sched *Schedule) []string {
	fields := make([]string, 0, 2+4*len(sched.Rules))
	fields = append(fields, "Through: 12/31")
	for _, rule := range sched.Rules {
		fields = append(fields, "For: "+DaySetString(rule.AppliesTo))
		for _, b := range rule.Blocks {
			fields = append(fields, formatUntil(b))
		}
	}
	return fields
}

// EmitText renders a full Schedule:Compact object body: the object
// type and name, then every field from Emit, comma-separated, with no
// trailing punctuation on intermediate fields and exactly one
// trailing semicolon on the last.
func EmitText(name string, sched *Schedule) string {
	fields := Emit(name, sched)
	out := "Schedule:Compact,\n    " + name
	for i, f := range fields {
		out += ",\n    " + f
		if i == len(fields)-1 {
			out += ";"
		}
	}
	return out
}

func formatUntil(b UntilBlock) string {
	return "Until: " + b.Until + "," + formatValue(b.Value)
}

// formatValue renders a value with at least one decimal digit
// ("16.0", never "16"), matching the engine's numeric field style.
func formatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}
