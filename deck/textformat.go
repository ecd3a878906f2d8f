package deck

import (
	"fmt"
	"strings"
)

// Parse reads the engine's object-dump text format: comma-separated
// fields, one object per semicolon-terminated run, comment lines
// starting with "!". Fields of the form "Name: value" keep the name
// for lookup; schedule grammar fields (Through:/For:/Until:) and bare
// values are stored positionally with their text verbatim, since
// Schedule:Compact encodes semantics in the field text itself and the
// same keyword repeats many times within one object.
func Parse(text string) (*Deck, error) {
	d := New()

	var clean strings.Builder
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "!") {
			continue
		}
		clean.WriteString(trimmed)
		clean.WriteString(" ")
	}

	for _, chunk := range strings.Split(clean.String(), ";") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		parts := strings.Split(chunk, ",")
		if len(parts) < 2 {
			continue
		}
		objType := strings.TrimSpace(parts[0])
		if objType == "" {
			continue
		}
		name := strings.TrimSpace(parts[1])
		obj := NewObject(objType, name)
		for i := 2; i < len(parts); i++ {
			raw := strings.TrimSpace(parts[i])
			if raw == "" {
				continue
			}
			fieldName, value := splitField(raw, i-1)
			if err := obj.SetField(fieldName, value); err != nil {
				return nil, err
			}
		}
		if err := d.Add(obj); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// scheduleKeywords are field prefixes whose text must survive verbatim
// and may repeat within one object; they get positional names instead
// of a name split on the colon.
var scheduleKeywords = []string{"Through:", "For:", "Until:"}

func splitField(raw string, index int) (name, value string) {
	for _, kw := range scheduleKeywords {
		if strings.HasPrefix(raw, kw) {
			return fmt.Sprintf("field_%d", index), raw
		}
	}
	if i := strings.Index(raw, ":"); i >= 0 {
		return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+1:])
	}
	return fmt.Sprintf("field_%d", index), raw
}

// Write renders a Deck back to the engine's object-dump text format,
// objects in insertion order, fields in declaration order. Positional
// fields (parsed schedule grammar and bare values) are written as
// their raw text; named fields as "Name: value".
func Write(d *Deck) string {
	var b strings.Builder
	for _, o := range d.AllObjects() {
		b.WriteString(o.Type)
		b.WriteString(",\n")
		fields := o.Fields()
		b.WriteString("    " + o.Name)
		if len(fields) == 0 {
			b.WriteString(";\n\n")
			continue
		}
		b.WriteString(",\n")
		for i, f := range fields {
			if strings.HasPrefix(f.Name, "field_") {
				b.WriteString("    " + f.Value)
			} else {
				b.WriteString("    " + f.Name + ": " + f.Value)
			}
			if i == len(fields)-1 {
				b.WriteString(";\n\n")
			} else {
				b.WriteString(",\n")
			}
		}
	}
	return b.String()
}
