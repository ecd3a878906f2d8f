package variant

import (
	"fmt"
	"strings"

	"github.com/bldgsim/beosim/log"
	"github.com/bldgsim/beosim/registry"
)

// RelationType is the kind of relationship a DependencyRule declares
// between a primary parameter and its dependents, grounded on
// dependency_rules.py's DependencyRule.relationship_type.
type RelationType string

const (
	Requires    RelationType = "requires"
	Excludes    RelationType = "excludes"
	Proportional RelationType = "proportional"
	Conditional RelationType = "conditional"
)

// DependencyRule mirrors one entry of the Python rule engine's
// dependency table: a primary parameter and how its presence in an
// edit set constrains or implies others.
type DependencyRule struct {
	Name        string
	Description string
	Primary     string // canonical ParamKey of the primary parameter
	Dependents  []string
	Relation    RelationType
	// Ratio is consulted only for Proportional rules: the dependent is
	// injected as a Multiplier edit of Ratio on its own current value.
	Ratio float64
	// For Conditional rules, the rule fires when the primary Edit's
	// Value equals ConditionValue. Condition is a descriptive label and
	// is not consulted when deciding whether the rule fires.
	Condition      string
	ConditionValue float64
}

// DependencyEngine holds the full set of registered rules and answers
// conflict-detection and companion-injection queries for a batch of
// edits, grounded on dependency_rules.py's DependencyRuleEngine.
type DependencyEngine struct {
	rules []DependencyRule
}

func NewDependencyEngine(rules []DependencyRule) *DependencyEngine {
	return &DependencyEngine{rules: rules}
}

func (e *DependencyEngine) rulesFor(key string) []DependencyRule {
	out := make([]DependencyRule, 0)
	for _, r := range e.rules {
		if r.Primary == key {
			out = append(out, r)
		}
	}
	return out
}

func editKey(e Edit) string {
	return ParamKey(e.Category, e.ObjectType, e.ObjectName, e.Field)
}

// DetectConflicts returns a non-empty description of the first
// Excludes violation found: a primary edit present alongside an edit
// touching one of its excluded dependents. An empty return means the
// batch is consistent. This implements the hard-abort half of
// check_dependencies; requires/proportional are soft (handled by
// InjectCompanions) since they add rather than forbid.
func (e *DependencyEngine) DetectConflicts(edits []Edit) string {
	present := make(map[string]bool, len(edits))
	for _, ed := range edits {
		present[editKey(ed)] = true
	}
	for _, ed := range edits {
		for _, rule := range e.rulesFor(editKey(ed)) {
			if rule.Relation != Excludes {
				continue
			}
			for _, dep := range rule.Dependents {
				if present[dep] {
					return fmt.Sprintf("rule %q: %s excludes %s but both are present", rule.Name, rule.Primary, dep)
				}
			}
		}
	}
	return ""
}

// InjectCompanions appends the companion edits implied by the
// Requires/Proportional/Conditional rules attached to any edit already
// in the batch, so a caller does not have to enumerate companion
// parameters by hand. A Requires dependent that is absent is injected
// at its registry default (spec.md §4.5: "injects the missing
// companion with its default, and notes the auto-insertion"). Edits
// whose dependent key is already present are left untouched (explicit
// user edits always win).
func (e *DependencyEngine) InjectCompanions(edits []Edit, reg *registry.Registry, logger *log.Logger) []Edit {
	if logger == nil {
		logger = log.Default()
	}
	present := make(map[string]bool, len(edits))
	for _, ed := range edits {
		present[editKey(ed)] = true
	}

	out := make([]Edit, len(edits))
	copy(out, edits)

	for _, ed := range edits {
		for _, rule := range e.rulesFor(editKey(ed)) {
			switch rule.Relation {
			case Proportional:
				for _, depKey := range rule.Dependents {
					if present[depKey] {
						continue
					}
					companion, ok := splitParamKey(depKey)
					if !ok {
						continue
					}
					companion.Method = Multiplier
					companion.Value = rule.Ratio
					companion.RuleApplied = rule.Name
					out = append(out, companion)
					present[depKey] = true
					logger.Debug("variant: injected proportional companion edit", map[string]any{
						"rule": rule.Name, "dependent": depKey,
					})
				}
			case Requires:
				for _, depKey := range rule.Dependents {
					if present[depKey] {
						continue
					}
					companion, ok := splitParamKey(depKey)
					if !ok {
						continue
					}
					companion.Method = Absolute
					companion.Value = registryDefault(reg, companion)
					companion.RuleApplied = rule.Name
					out = append(out, companion)
					present[depKey] = true
					logger.Debug("variant: injected required companion edit at its registry default", map[string]any{
						"rule": rule.Name, "dependent": depKey, "value": companion.Value,
					})
				}
			case Conditional:
				if ed.Value != rule.ConditionValue {
					continue
				}
				for _, depKey := range rule.Dependents {
					if present[depKey] {
						continue
					}
					companion, ok := splitParamKey(depKey)
					if !ok {
						continue
					}
					companion.Method = ed.Method
					companion.Value = ed.Value
					companion.RuleApplied = rule.Name
					out = append(out, companion)
					present[depKey] = true
				}
			}
		}
	}
	return out
}

// registryDefault looks up an edit's registered default value; a
// missing registry entry or non-numeric default yields 0.
func registryDefault(reg *registry.Registry, e Edit) float64 {
	if reg == nil {
		return 0
	}
	p, ok := reg.Get(registry.Key(e.Category, e.ObjectType, e.Field))
	if !ok {
		return 0
	}
	if d, ok := p.DefaultValue.(float64); ok {
		return d
	}
	return 0
}

// splitParamKey reverses ParamKey, recovering the Category/ObjectType/
// ObjectName/Field quadruple so a dependent key can become an Edit.
func splitParamKey(key string) (Edit, bool) {
	parts := strings.SplitN(key, "*", 4)
	if len(parts) != 4 {
		return Edit{}, false
	}
	return Edit{Category: parts[0], ObjectType: parts[1], ObjectName: parts[2], Field: parts[3]}, true
}
