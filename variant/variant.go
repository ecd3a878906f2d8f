// Package variant produces N parameterized deck copies from a base
// deck via rule-driven or sampled modifications, preserving
// provenance as a relational triple-store with two derived views
// (spec.md §4.5, §9 "Variant provenance as a relational triple-store").
package variant

import (
	"errors"
	"fmt"

	"github.com/bldgsim/beosim/deck"
	"github.com/bldgsim/beosim/log"
	"github.com/bldgsim/beosim/registry"
)

// EditMethod is how a modification's new value is derived from its
// current value.
type EditMethod string

const (
	Absolute   EditMethod = "absolute"
	Multiplier EditMethod = "multiplier"
	Percentage EditMethod = "percentage"
)

// Edit is one requested field change, prior to validation against the
// registry.
type Edit struct {
	Category   string
	ObjectType string
	ObjectName string
	Field      string
	Method     EditMethod
	Value      float64 // absolute target, multiplier factor, or signed percent
	RuleApplied string
}

// ModificationRecord is the canonical provenance tuple for one edit
// (spec.md §3).
type ModificationRecord struct {
	BuildingID    string
	VariantID     int
	Category      string
	ObjectType    string
	ObjectName    string
	Field         string
	OriginalValue float64
	NewValue      float64
	ChangeType    EditMethod
	RuleApplied   string
	Success       bool
	Message       string
}

// ParamKey builds the canonical "<category>*<object_type>*<object_name>*<field>"
// key used in long/wide modification exports (spec.md §6). Components
// must never contain "*"; ParamKey does not itself enforce that since
// PR-registered names never contain one.
func ParamKey(category, objectType, objectName, field string) string {
	return fmt.Sprintf("%s*%s*%s*%s", category, objectType, objectName, field)
}

// Variant is one numbered, materialized result of applying a list of
// edits to a cloned base deck.
type Variant struct {
	ID           int
	Deck         *deck.Deck
	Modifications []ModificationRecord
}

// Generator applies scenario plans against a base deck, validating
// every edit against the parameter registry and the dependency rule
// engine before it is written.
type Generator struct {
	reg  *registry.Registry
	deps *DependencyEngine
	log  *log.Logger
}

func New(reg *registry.Registry, deps *DependencyEngine, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{reg: reg, deps: deps, log: logger}
}

// ApplyVariant clones base, applies edits in order, and returns the
// materialized Variant plus its modification records. Edits that
// violate registry bounds or type are skipped, logged, and recorded
// with Success=false rather than aborting the variant (spec.md §4.5).
// A hard ConflictingMods validation error aborts the whole variant
// before any edit is written.
func (g *Generator) ApplyVariant(buildingID string, variantID int, base *deck.Deck, edits []Edit) (*Variant, error) {
	if g.deps != nil {
		if conflict := g.deps.DetectConflicts(edits); conflict != "" {
			return nil, fmt.Errorf("variant: conflicting modifications: %s", conflict)
		}
	}

	cloned := cloneDeck(base)
	records := make([]ModificationRecord, 0, len(edits))

	augmented := edits
	if g.deps != nil {
		augmented = g.deps.InjectCompanions(edits, g.reg, g.log)
	}

	for _, e := range augmented {
		rec := g.applyOne(cloned, buildingID, variantID, e)
		records = append(records, rec)
	}

	return &Variant{ID: variantID, Deck: cloned, Modifications: records}, nil
}

func (g *Generator) applyOne(d *deck.Deck, buildingID string, variantID int, e Edit) ModificationRecord {
	rec := ModificationRecord{
		BuildingID: buildingID, VariantID: variantID,
		Category: e.Category, ObjectType: e.ObjectType, ObjectName: e.ObjectName,
		Field: e.Field, ChangeType: e.Method, RuleApplied: e.RuleApplied,
	}

	obj, ok := d.Get(e.ObjectType, e.ObjectName)
	if !ok {
		rec.Success = false
		rec.Message = fmt.Sprintf("object %s/%s not found", e.ObjectType, e.ObjectName)
		return rec
	}

	// An absent field reads as zero and is appended on write; a present
	// but non-numeric value is a type violation and skips the edit.
	current, err := obj.NumericField(e.Field)
	if err != nil {
		var fe *deck.FieldError
		if errors.As(err, &fe) && fe.Kind == deck.TypeMismatch {
			rec.Success = false
			rec.Message = err.Error()
			return rec
		}
		current = 0
	}
	rec.OriginalValue = current

	newValue := applyMethod(current, e.Method, e.Value)

	key := registry.Key(e.Category, e.ObjectType, e.Field)
	var min, max *float64
	if _, ok := g.reg.Get(key); ok {
		min, max, _ = g.reg.Bounds(key)
	}
	if err := obj.SetNumericField(e.Field, newValue, min, max); err != nil {
		rec.Success = false
		rec.Message = err.Error()
		return rec
	}
	rec.NewValue = newValue
	rec.Success = true
	return rec
}

func applyMethod(current float64, method EditMethod, value float64) float64 {
	switch method {
	case Absolute:
		return value
	case Multiplier:
		return current * value
	case Percentage:
		return current * (1.0 + value/100.0)
	default:
		return current
	}
}

func cloneDeck(base *deck.Deck) *deck.Deck {
	cloned := deck.New()
	for _, o := range base.AllObjects() {
		no := deck.NewObject(o.Type, o.Name)
		for _, f := range o.Fields() {
			_ = no.SetField(f.Name, f.Value)
		}
		_ = cloned.Add(no)
	}
	return cloned
}

