// Package deck models the engine's textual input object graph as a
// typed object store: each object has a type, a unique (per-type,
// case-insensitive) name, and an ordered list of fields addressed by
// name rather than by string-typed attribute access (spec.md §9
// "Dynamic object-field writes").
package deck

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FieldErrorKind is the open enum of ways a set_field call can fail.
type FieldErrorKind int

const (
	UnknownField FieldErrorKind = iota
	TypeMismatch
	OutOfBounds
)

// FieldError reports a failed field write against a deck object.
type FieldError struct {
	Kind       FieldErrorKind
	ObjectType string
	ObjectName string
	Field      string
	Detail     string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("deck: %s.%s field %q: %s", e.ObjectType, e.ObjectName, e.Field, e.Detail)
}

// Field is one named value on an Object, in declaration order.
type Field struct {
	Name  string
	Value string
}

// Object is one typed entity in the deck, e.g. a Zone or a
// Schedule:Compact. Names are unique within a type, case-insensitive
// for lookup and case-preserving on write.
type Object struct {
	Type   string
	Name   string
	fields []Field
	index  map[string]int
}

func NewObject(objType, name string) *Object {
	return &Object{Type: objType, Name: name, index: make(map[string]int)}
}

// SetField sets (or appends) a field by name. Deck objects are an
// open schema, so any non-empty name is accepted; an empty name is an
// UnknownField error. Typed and bounded writes go through
// SetNumericField.
func (o *Object) SetField(name, value string) error {
	if strings.TrimSpace(name) == "" {
		return &FieldError{Kind: UnknownField, ObjectType: o.Type, ObjectName: o.Name, Field: name, Detail: "empty field name"}
	}
	if i, ok := o.index[strings.ToLower(name)]; ok {
		o.fields[i].Value = value
		return nil
	}
	o.fields = append(o.fields, Field{Name: name, Value: value})
	o.index[strings.ToLower(name)] = len(o.fields) - 1
	return nil
}

// Field returns a field's current value and whether it exists.
func (o *Object) Field(name string) (string, bool) {
	i, ok := o.index[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return o.fields[i].Value, true
}

// NumericField parses a field's current value as a float. An absent
// field is an UnknownField error; a present but non-numeric value is a
// TypeMismatch.
func (o *Object) NumericField(name string) (float64, error) {
	raw, ok := o.Field(name)
	if !ok {
		return 0, &FieldError{Kind: UnknownField, ObjectType: o.Type, ObjectName: o.Name, Field: name, Detail: "no such field"}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &FieldError{Kind: TypeMismatch, ObjectType: o.Type, ObjectName: o.Name, Field: name, Detail: fmt.Sprintf("value %q is not numeric", raw)}
	}
	return v, nil
}

// SetNumericField formats and writes a float value, refusing with an
// OutOfBounds error when a supplied bound is violated. Nil bounds are
// not checked.
func (o *Object) SetNumericField(name string, v float64, min, max *float64) error {
	if min != nil && v < *min {
		return &FieldError{Kind: OutOfBounds, ObjectType: o.Type, ObjectName: o.Name, Field: name, Detail: fmt.Sprintf("value %g below minimum %g", v, *min)}
	}
	if max != nil && v > *max {
		return &FieldError{Kind: OutOfBounds, ObjectType: o.Type, ObjectName: o.Name, Field: name, Detail: fmt.Sprintf("value %g above maximum %g", v, *max)}
	}
	return o.SetField(name, strconv.FormatFloat(v, 'g', -1, 64))
}

// Fields returns every field in declaration order.
func (o *Object) Fields() []Field { return o.fields }

// Deck is a collection of objects, keyed by (type, lowercased name).
// It is mutated in place during composition (spec.md §3).
type Deck struct {
	objects map[string]map[string]*Object // type -> lowercase name -> object
	order   []objKey
}

type objKey struct {
	typ  string
	name string
}

func New() *Deck {
	return &Deck{objects: make(map[string]map[string]*Object)}
}

// Add inserts a new object, refusing to create a duplicate name
// within a type (spec.md §8 "Name uniqueness").
func (d *Deck) Add(o *Object) error {
	key := strings.ToLower(o.Name)
	byName, ok := d.objects[o.Type]
	if !ok {
		byName = make(map[string]*Object)
		d.objects[o.Type] = byName
	}
	if _, exists := byName[key]; exists {
		return fmt.Errorf("deck: duplicate object name %q for type %q", o.Name, o.Type)
	}
	byName[key] = o
	d.order = append(d.order, objKey{typ: o.Type, name: key})
	return nil
}

// Get looks up an object by type and case-insensitive name.
func (d *Deck) Get(objType, name string) (*Object, bool) {
	byName, ok := d.objects[objType]
	if !ok {
		return nil, false
	}
	o, ok := byName[strings.ToLower(name)]
	return o, ok
}

// MustGet looks up an object, returning a DependencyUnresolved-style
// error the caller can use to skip the dependent write instead of
// writing a broken deck (spec.md §4.4, §7).
func (d *Deck) MustGet(objType, name string) (*Object, error) {
	o, ok := d.Get(objType, name)
	if !ok {
		return nil, fmt.Errorf("deck: dependency unresolved: no %s named %q", objType, name)
	}
	return o, nil
}

// ByType returns every object of a given type, in insertion order.
func (d *Deck) ByType(objType string) []*Object {
	byName, ok := d.objects[objType]
	if !ok {
		return nil
	}
	out := make([]*Object, 0, len(byName))
	for _, key := range d.order {
		if key.typ != objType {
			continue
		}
		out = append(out, byName[key.name])
	}
	return out
}

// Types returns the set of object types present, sorted.
func (d *Deck) Types() []string {
	types := make([]string, 0, len(d.objects))
	for t := range d.objects {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// AllObjects returns every object in insertion order.
func (d *Deck) AllObjects() []*Object {
	out := make([]*Object, 0, len(d.order))
	for _, key := range d.order {
		out = append(out, d.objects[key.typ][key.name])
	}
	return out
}

// CheckNameUniqueness verifies the invariant that every composed deck
// maintains by construction; exposed for tests exercising the
// testable property directly (spec.md §8).
func (d *Deck) CheckNameUniqueness() error {
	for typ, byName := range d.objects {
		seen := make(map[string]bool, len(byName))
		for _, o := range byName {
			key := strings.ToLower(o.Name)
			if seen[key] {
				return fmt.Errorf("deck: duplicate name %q in type %q", o.Name, typ)
			}
			seen[key] = true
		}
	}
	return nil
}
