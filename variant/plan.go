package variant

import (
	"fmt"
	"sort"
)

// PlanKind is the scenario-generation strategy requested for a batch
// of variants (spec.md §4.5).
type PlanKind string

const (
	PlanTemplate      PlanKind = "template"
	PlanParametric    PlanKind = "parametric"
	PlanOptimization  PlanKind = "optimization_weights"
	PlanSensitivityOAT PlanKind = "sensitivity_oat"
	PlanRetrofitPackage PlanKind = "retrofit_package"
)

// TemplateEdit is one fixed edit belonging to a named template
// variant (e.g. a standard "high performance" package).
type TemplateEdit = Edit

// Plan describes one variant-generation request. Only the field(s)
// relevant to Kind are consulted.
type Plan struct {
	Kind PlanKind

	// PlanTemplate: one fixed edit set per named template.
	Templates map[string][]TemplateEdit

	// PlanParametric / PlanSensitivityOAT: dimensions to vary.
	Specs    []ParameterSpec
	Method   SamplingMethod
	NSamples int
	Seed     int64

	// PlanSensitivityOAT: the baseline value each spec's field holds
	// before the single swept field is perturbed; every other field
	// stays at this baseline for that variant (one-at-a-time).
	Baseline map[string]float64

	// PlanOptimization: each row is one objective-weight vector,
	// expressed as absolute edits against named "weight" fields.
	Weights []map[string]float64
	WeightTarget ParameterSpec // Category/ObjectType/ObjectName shared by all weight fields; Field is ignored

	// PlanRetrofitPackage: named bundles of edits applied together,
	// e.g. "envelope_upgrade" = [wall U-factor edit, window U-factor edit].
	Packages map[string][]Edit
}

// Expand turns a Plan into the ordered list of (variant label, edits)
// pairs a Generator.ApplyVariant call consumes, one per produced
// variant. variant_0 is reserved for an unmodified baseline whenever
// the caller includes it explicitly via Templates["baseline"] = nil
// or an empty Packages/Specs entry; Expand itself never synthesizes
// one on its own.
func Expand(p Plan) ([]NamedEdits, error) {
	switch p.Kind {
	case PlanTemplate:
		return expandTemplate(p)
	case PlanParametric:
		return expandParametric(p)
	case PlanSensitivityOAT:
		return expandSensitivityOAT(p)
	case PlanOptimization:
		return expandOptimizationWeights(p)
	case PlanRetrofitPackage:
		return expandRetrofitPackage(p)
	default:
		return nil, fmt.Errorf("variant: unknown plan kind %q", p.Kind)
	}
}

// NamedEdits pairs a human-readable variant label with the edit list
// that produces it.
type NamedEdits struct {
	Label string
	Edits []Edit
}

func expandTemplate(p Plan) ([]NamedEdits, error) {
	out := make([]NamedEdits, 0, len(p.Templates))
	for _, name := range sortedKeys(p.Templates) {
		out = append(out, NamedEdits{Label: name, Edits: p.Templates[name]})
	}
	return out, nil
}

// sortedKeys gives plan expansion a stable variant order: variant ids
// are assigned by position, so map iteration order must never leak
// into the numbering.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func expandParametric(p Plan) ([]NamedEdits, error) {
	if p.NSamples <= 0 {
		return nil, fmt.Errorf("variant: parametric plan requires NSamples > 0")
	}
	var rows [][]float64
	switch p.Method {
	case SampleLHS:
		rows = SampleLatinHypercube(p.Specs, p.NSamples, p.Seed)
	case SampleFactorial:
		rows = Permute(p.Specs)
	default: // SampleUniform and unset both default to independent uniform draws
		rows = make([][]float64, p.NSamples)
		for i := range rows {
			rows[i] = make([]float64, len(p.Specs))
		}
		for d, spec := range p.Specs {
			vals := SampleUniformValues(spec.Min, spec.Max, p.NSamples, p.Seed+int64(d))
			for i, v := range vals {
				rows[i][d] = v
			}
		}
	}

	out := make([]NamedEdits, len(rows))
	for i, row := range rows {
		edits := make([]Edit, len(p.Specs))
		for d, spec := range p.Specs {
			edits[d] = Edit{
				Category: spec.Category, ObjectType: spec.ObjectType,
				ObjectName: spec.ObjectName, Field: spec.Field,
				Method: Absolute, Value: row[d],
			}
		}
		out[i] = NamedEdits{Label: fmt.Sprintf("variant_%d", i+1), Edits: edits}
	}
	return out, nil
}

func expandSensitivityOAT(p Plan) ([]NamedEdits, error) {
	out := make([]NamedEdits, 0)
	for _, spec := range p.Specs {
		key := ParamKey(spec.Category, spec.ObjectType, spec.ObjectName, spec.Field)
		levels := spec.Levels
		if levels == nil {
			levels = []float64{spec.Min, spec.Max}
		}
		for _, v := range levels {
			edits := make([]Edit, 0, len(p.Baseline)+1)
			for _, bkey := range sortedKeys(p.Baseline) {
				if bkey == key {
					continue
				}
				be, ok := splitParamKey(bkey)
				if !ok {
					continue
				}
				be.Method = Absolute
				be.Value = p.Baseline[bkey]
				edits = append(edits, be)
			}
			edits = append(edits, Edit{
				Category: spec.Category, ObjectType: spec.ObjectType,
				ObjectName: spec.ObjectName, Field: spec.Field,
				Method: Absolute, Value: v,
			})
			out = append(out, NamedEdits{Label: fmt.Sprintf("oat_%s_%g", spec.Field, v), Edits: edits})
		}
	}
	return out, nil
}

func expandOptimizationWeights(p Plan) ([]NamedEdits, error) {
	out := make([]NamedEdits, len(p.Weights))
	for i, weights := range p.Weights {
		edits := make([]Edit, 0, len(weights))
		for _, field := range sortedKeys(weights) {
			edits = append(edits, Edit{
				Category:   p.WeightTarget.Category,
				ObjectType: p.WeightTarget.ObjectType,
				ObjectName: p.WeightTarget.ObjectName,
				Field:      field,
				Method:     Absolute,
				Value:      weights[field],
			})
		}
		out[i] = NamedEdits{Label: fmt.Sprintf("weights_%d", i+1), Edits: edits}
	}
	return out, nil
}

func expandRetrofitPackage(p Plan) ([]NamedEdits, error) {
	out := make([]NamedEdits, 0, len(p.Packages))
	for _, name := range sortedKeys(p.Packages) {
		out = append(out, NamedEdits{Label: name, Edits: p.Packages[name]})
	}
	return out, nil
}
