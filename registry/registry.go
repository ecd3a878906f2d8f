// Package registry is the canonical catalog of modifiable deck
// parameter keys: their object type, field position, units, bounds,
// code-minimum values, and search tags. It answers membership checks,
// value validation, and bounds lookups for paramassign and variant.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Param describes one modifiable field on one deck object type.
type Param struct {
	Key               string             `json:"key"`
	Category          string             `json:"category"`
	ObjectType        string             `json:"object_type"`
	FieldName         string             `json:"field_name"`
	FieldIndex        int                `json:"field_index"`
	DataType          string             `json:"data_type"`
	Units             string             `json:"units,omitempty"`
	MinValue          *float64           `json:"min_value,omitempty"`
	MaxValue          *float64           `json:"max_value,omitempty"`
	DefaultValue      any                `json:"default_value,omitempty"`
	AllowedValues     []any              `json:"allowed_values,omitempty"`
	Description       string             `json:"description,omitempty"`
	PerformanceImpact string             `json:"performance_impact,omitempty"`
	Dependencies      []string           `json:"dependencies,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
	CodeRequirements  map[string]map[string]float64 `json:"code_requirements,omitempty"`
}

// Key builds the canonical "category.object_type.field_name" lookup
// key for a parameter, matching the registry's own registration rule.
func Key(category, objectType, fieldName string) string {
	return fmt.Sprintf("%s.%s.%s", category, objectType, fieldName)
}

// Registry is the in-memory secondary-indexed parameter catalog.
type Registry struct {
	params        map[string]*Param
	byCategory    map[string][]string
	byObject      map[string][]string
	byImpact      map[string][]string
	byTag         map[string][]string
}

func New() *Registry {
	return &Registry{
		params:     make(map[string]*Param),
		byCategory: make(map[string][]string),
		byObject:   make(map[string][]string),
		byImpact:   make(map[string][]string),
		byTag:      make(map[string][]string),
	}
}

// Register adds a parameter to the catalog and updates all four
// secondary indexes, mirroring register_parameter's index maintenance.
func (r *Registry) Register(p Param) string {
	if p.Key == "" {
		p.Key = Key(p.Category, p.ObjectType, p.FieldName)
	}
	pc := p
	r.params[p.Key] = &pc

	r.byCategory[p.Category] = append(r.byCategory[p.Category], p.Key)
	r.byObject[p.ObjectType] = append(r.byObject[p.ObjectType], p.Key)
	if p.PerformanceImpact != "" {
		r.byImpact[p.PerformanceImpact] = append(r.byImpact[p.PerformanceImpact], p.Key)
	}
	for _, tag := range p.Tags {
		r.byTag[tag] = append(r.byTag[tag], p.Key)
	}
	return p.Key
}

func (r *Registry) Get(key string) (*Param, bool) {
	p, ok := r.params[key]
	return p, ok
}

func (r *Registry) ByCategory(category string) []*Param { return r.lookup(r.byCategory[category]) }
func (r *Registry) ByObject(objectType string) []*Param  { return r.lookup(r.byObject[objectType]) }
func (r *Registry) ByImpact(impact string) []*Param      { return r.lookup(r.byImpact[impact]) }
func (r *Registry) ByTag(tag string) []*Param            { return r.lookup(r.byTag[tag]) }

func (r *Registry) lookup(keys []string) []*Param {
	out := make([]*Param, 0, len(keys))
	for _, k := range keys {
		if p, ok := r.params[k]; ok {
			out = append(out, p)
		}
	}
	return out
}

// SearchQuery holds the multi-criteria search fields; zero-valued
// fields are not applied as filters.
type SearchQuery struct {
	Category   string
	ObjectType string
	FieldName  string
	Tags       []string
	Impact     string
}

// Search applies every non-empty criterion in turn, mirroring
// search_parameters's sequential filtering.
func (r *Registry) Search(q SearchQuery) []*Param {
	results := make([]*Param, 0, len(r.params))
	for _, p := range r.params {
		results = append(results, p)
	}
	if q.Category != "" {
		results = filterParams(results, func(p *Param) bool { return p.Category == q.Category })
	}
	if q.ObjectType != "" {
		results = filterParams(results, func(p *Param) bool { return p.ObjectType == q.ObjectType })
	}
	if q.FieldName != "" {
		needle := strings.ToLower(q.FieldName)
		results = filterParams(results, func(p *Param) bool {
			return strings.Contains(strings.ToLower(p.FieldName), needle)
		})
	}
	if len(q.Tags) > 0 {
		results = filterParams(results, func(p *Param) bool {
			for _, want := range q.Tags {
				for _, have := range p.Tags {
					if want == have {
						return true
					}
				}
			}
			return false
		})
	}
	if q.Impact != "" {
		results = filterParams(results, func(p *Param) bool { return p.PerformanceImpact == q.Impact })
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Key < results[j].Key })
	return results
}

func filterParams(in []*Param, keep func(*Param) bool) []*Param {
	out := in[:0:0]
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// CodeRequirement returns the code-minimum value for a parameter under
// a given standard and version, if one is registered.
func (r *Registry) CodeRequirement(key, standard, version string) (float64, bool) {
	p, ok := r.params[key]
	if !ok {
		return 0, false
	}
	byVersion, ok := p.CodeRequirements[standard]
	if !ok {
		return 0, false
	}
	v, ok := byVersion[version]
	return v, ok
}

// Bounds returns a parameter's (min, max); either may be nil if unset.
func (r *Registry) Bounds(key string) (min, max *float64, ok bool) {
	p, found := r.params[key]
	if !found {
		return nil, nil, false
	}
	return p.MinValue, p.MaxValue, true
}

// Validate checks a candidate value against a parameter's declared
// type, bounds, and allowed-value set.
func (r *Registry) Validate(key string, value float64) error {
	p, ok := r.params[key]
	if !ok {
		return fmt.Errorf("registry: unknown parameter %q", key)
	}
	if p.MinValue != nil && value < *p.MinValue {
		return fmt.Errorf("registry: value %g below minimum %g for %q", value, *p.MinValue, key)
	}
	if p.MaxValue != nil && value > *p.MaxValue {
		return fmt.Errorf("registry: value %g above maximum %g for %q", value, *p.MaxValue, key)
	}
	if len(p.AllowedValues) > 0 {
		for _, allowed := range p.AllowedValues {
			if af, ok := allowed.(float64); ok && af == value {
				return nil
			}
		}
		return fmt.Errorf("registry: value %g not in allowed values for %q", value, key)
	}
	return nil
}

// Save writes the registry to a JSON file keyed by parameter key,
// mirroring save_registry.
func (r *Registry) Save(path string) error {
	data, err := json.MarshalIndent(r.params, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("registry: write %s: %w", path, err)
	}
	return nil
}

// Load replaces the registry's contents from a JSON file, rebuilding
// every secondary index, mirroring load_registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	var raw map[string]Param
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("registry: parse %s: %w", path, err)
	}
	r := New()
	for key, p := range raw {
		p.Key = key
		r.Register(p)
	}
	return r, nil
}

// Markdown generates grouped documentation of every registered
// parameter, mirroring generate_documentation's category grouping.
func (r *Registry) Markdown() string {
	var b strings.Builder
	b.WriteString("# Parameter Registry\n")

	categories := make([]string, 0, len(r.byCategory))
	for c := range r.byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		fmt.Fprintf(&b, "\n## %s\n", strings.Title(category))
		params := r.ByCategory(category)
		sort.Slice(params, func(i, j int) bool { return params[i].ObjectType < params[j].ObjectType })
		for _, p := range params {
			fmt.Fprintf(&b, "\n### %s - %s\n", p.ObjectType, p.FieldName)
			fmt.Fprintf(&b, "- Field Index: %d\n", p.FieldIndex)
			fmt.Fprintf(&b, "- Data Type: %s\n", p.DataType)
			if p.Units != "" {
				fmt.Fprintf(&b, "- Units: %s\n", p.Units)
			}
			if p.MinValue != nil {
				fmt.Fprintf(&b, "- Min Value: %g\n", *p.MinValue)
			}
			if p.MaxValue != nil {
				fmt.Fprintf(&b, "- Max Value: %g\n", *p.MaxValue)
			}
			if p.Description != "" {
				fmt.Fprintf(&b, "- Description: %s\n", p.Description)
			}
			if p.PerformanceImpact != "" {
				fmt.Fprintf(&b, "- Performance Impact: %s\n", p.PerformanceImpact)
			}
			if len(p.Tags) > 0 {
				fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(p.Tags, ", "))
			}
		}
	}
	return b.String()
}
