package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bldgsim/beosim/deck"
	"github.com/bldgsim/beosim/registry"
	"github.com/bldgsim/beosim/results"
	"github.com/bldgsim/beosim/variant"
)

var variantCmd = &cobra.Command{
	Use:   "variant",
	Short: "Expand a scenario plan and apply it to a base deck",
	Long:  `Expands a template/parametric/sensitivity/optimization/retrofit plan into named edit sets, applies each against a cloned base deck, and writes the resulting decks plus long/wide modification provenance (spec.md §4.5).`,
	RunE:  runVariant,
}

func init() {
	variantCmd.Flags().String("plan", "", "JSON plan request (required)")
	variantCmd.Flags().String("base-deck", "", "base deck text file (required)")
	variantCmd.Flags().String("registry", "", "parameter registry JSON catalog (default: built-in)")
	variantCmd.Flags().String("rules", "", "JSON dependency rules file")
	variantCmd.Flags().String("building-id", "", "building id stamped into provenance records (required)")
	variantCmd.Flags().String("out-dir", "", "output directory for variant decks and provenance (required)")
	variantCmd.MarkFlagRequired("plan")
	variantCmd.MarkFlagRequired("base-deck")
	variantCmd.MarkFlagRequired("building-id")
	variantCmd.MarkFlagRequired("out-dir")
}

type edit struct {
	Category   string  `json:"category"`
	ObjectType string  `json:"object_type"`
	ObjectName string  `json:"object_name"`
	Field      string  `json:"field"`
	Method     string  `json:"method"`
	Value      float64 `json:"value"`
}

func (e edit) toEdit() variant.Edit {
	return variant.Edit{
		Category: e.Category, ObjectType: e.ObjectType, ObjectName: e.ObjectName, Field: e.Field,
		Method: variant.EditMethod(e.Method), Value: e.Value,
	}
}

func toEdits(es []edit) []variant.Edit {
	out := make([]variant.Edit, len(es))
	for i, e := range es {
		out[i] = e.toEdit()
	}
	return out
}

type parameterSpecRequest struct {
	Category   string    `json:"category"`
	ObjectType string    `json:"object_type"`
	ObjectName string    `json:"object_name"`
	Field      string    `json:"field"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Levels     []float64 `json:"levels,omitempty"`
}

func (r parameterSpecRequest) toSpec() variant.ParameterSpec {
	return variant.ParameterSpec{
		Category: r.Category, ObjectType: r.ObjectType, ObjectName: r.ObjectName, Field: r.Field,
		Min: r.Min, Max: r.Max, Levels: r.Levels,
	}
}

type planRequest struct {
	Kind     string                    `json:"kind"`
	Templates map[string][]edit        `json:"templates,omitempty"`
	Specs    []parameterSpecRequest    `json:"specs,omitempty"`
	Method   string                    `json:"method,omitempty"`
	NSamples int                       `json:"n_samples,omitempty"`
	Seed     int64                     `json:"seed,omitempty"`
	Baseline map[string]float64        `json:"baseline,omitempty"`
	Weights  []map[string]float64      `json:"weights,omitempty"`
	WeightTarget parameterSpecRequest  `json:"weight_target,omitempty"`
	Packages map[string][]edit         `json:"packages,omitempty"`
}

func (r planRequest) toPlan() variant.Plan {
	specs := make([]variant.ParameterSpec, len(r.Specs))
	for i, s := range r.Specs {
		specs[i] = s.toSpec()
	}
	templates := make(map[string][]variant.TemplateEdit, len(r.Templates))
	for k, v := range r.Templates {
		templates[k] = toEdits(v)
	}
	packages := make(map[string][]variant.Edit, len(r.Packages))
	for k, v := range r.Packages {
		packages[k] = toEdits(v)
	}
	return variant.Plan{
		Kind:         variant.PlanKind(r.Kind),
		Templates:    templates,
		Specs:        specs,
		Method:       variant.SamplingMethod(r.Method),
		NSamples:     r.NSamples,
		Seed:         r.Seed,
		Baseline:     r.Baseline,
		Weights:      r.Weights,
		WeightTarget: r.WeightTarget.toSpec(),
		Packages:     packages,
	}
}

type dependencyRuleRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Primary        string   `json:"primary"`
	Dependents     []string `json:"dependents"`
	Relation       string   `json:"relation"`
	Ratio          float64  `json:"ratio,omitempty"`
	Condition      string   `json:"condition,omitempty"`
	ConditionValue float64  `json:"condition_value,omitempty"`
}

// flatWideRow is WideRow flattened for parquet-go's generic writer,
// which cannot encode the map[int]WideCell Variants field directly.
type flatWideRow struct {
	BuildingID string
	ParamKey   string
	Original   float64
	VariantID  int
	NewValue   float64
	ChangeType string
}

func flattenWideRows(rows []variant.WideRow) []flatWideRow {
	var out []flatWideRow
	for _, row := range rows {
		ids := make([]int, 0, len(row.Variants))
		for id := range row.Variants {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			cell := row.Variants[id]
			out = append(out, flatWideRow{
				BuildingID: row.BuildingID, ParamKey: row.ParamKey, Original: row.Original,
				VariantID: id, NewValue: cell.NewValue, ChangeType: string(cell.ChangeType),
			})
		}
	}
	return out
}

func runVariant(cmd *cobra.Command, args []string) error {
	planPath, _ := cmd.Flags().GetString("plan")
	baseDeckPath, _ := cmd.Flags().GetString("base-deck")
	registryPath, _ := cmd.Flags().GetString("registry")
	rulesPath, _ := cmd.Flags().GetString("rules")
	buildingID, _ := cmd.Flags().GetString("building-id")
	outDir, _ := cmd.Flags().GetString("out-dir")

	planReq, err := loadJSON[planRequest](planPath)
	if err != nil {
		return err
	}
	plan := planReq.toPlan()

	named, err := variant.Expand(plan)
	if err != nil {
		return err
	}

	reg := registry.Default()
	if registryPath != "" {
		reg, err = registry.Load(registryPath)
		if err != nil {
			return err
		}
	}

	var deps *variant.DependencyEngine
	if rulesPath != "" {
		ruleReqs, err := loadJSON[[]dependencyRuleRequest](rulesPath)
		if err != nil {
			return err
		}
		rules := make([]variant.DependencyRule, len(ruleReqs))
		for i, r := range ruleReqs {
			rules[i] = variant.DependencyRule{
				Name: r.Name, Description: r.Description, Primary: r.Primary, Dependents: r.Dependents,
				Relation: variant.RelationType(r.Relation), Ratio: r.Ratio,
				Condition: r.Condition, ConditionValue: r.ConditionValue,
			}
		}
		deps = variant.NewDependencyEngine(rules)
	}

	baseText, err := os.ReadFile(baseDeckPath)
	if err != nil {
		return err
	}
	baseDeck, err := deck.Parse(string(baseText))
	if err != nil {
		return fmt.Errorf("variant: parse base deck: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	gen := variant.New(reg, deps, logger)
	var allMods []variant.ModificationRecord
	for i, ne := range named {
		v, err := gen.ApplyVariant(buildingID, i, baseDeck, ne.Edits)
		if err != nil {
			logger.Error("variant: skipping", err, map[string]any{"label": ne.Label, "variant_id": i})
			continue
		}
		allMods = append(allMods, v.Modifications...)
		deckPath := filepath.Join(outDir, fmt.Sprintf("variant_%d_%s.idf", v.ID, ne.Label))
		if err := os.WriteFile(deckPath, []byte(deck.Write(v.Deck)), 0o644); err != nil {
			return err
		}
	}

	longRecords := variant.RecordsToLong(allMods)
	wideRows := variant.LongToWide(longRecords)

	if err := results.WriteParquet(filepath.Join(outDir, "modifications_detail_long.parquet"), longRecords); err != nil {
		return err
	}
	if err := results.WriteParquet(filepath.Join(outDir, "modifications_detail_wide.parquet"), flattenWideRows(wideRows)); err != nil {
		return err
	}

	logger.Info("variant: applied plan", map[string]any{"variants": len(named), "modifications": len(allMods)})
	return nil
}
