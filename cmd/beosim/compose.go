package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bldgsim/beosim/deck"
	"github.com/bldgsim/beosim/paramassign"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose a full deck from a base template and resolved subsystems",
	Long:  `Parses a base deck, merges synthesized schedule fragments, and writes ventilation, HVAC, and loads objects in the dependency order DC requires (spec.md §4.4).`,
	RunE:  runCompose,
}

func init() {
	composeCmd.Flags().String("base-deck", "", "base deck text template (required)")
	composeCmd.Flags().String("schedules-dir", "", "directory of synthesized Schedule:Compact fragments")
	composeCmd.Flags().String("resolved", "", "JSON file of {subsystem: ResolvedSubsystem} from 'assign' (required)")
	composeCmd.Flags().String("zones", "", "JSON file of zone geometry (required)")
	composeCmd.Flags().String("building-function", "", "building function key")
	composeCmd.Flags().String("usage-key", "", "ventilation usage-rate key")
	composeCmd.Flags().Float64("flow-exponent", 0.67, "infiltration flow exponent")
	composeCmd.Flags().String("avail-schedule", "AlwaysOn", "HVAC availability schedule name")
	composeCmd.Flags().String("out", "", "output deck path (required)")
	composeCmd.MarkFlagRequired("base-deck")
	composeCmd.MarkFlagRequired("resolved")
	composeCmd.MarkFlagRequired("zones")
	composeCmd.MarkFlagRequired("out")
}

type zoneRequest struct {
	Name            string  `json:"name"`
	ExteriorExposed bool    `json:"exterior_exposed"`
	FloorAreaM2     float64 `json:"floor_area_m2"`
}

func toZoneInfos(zs []zoneRequest) []deck.ZoneInfo {
	out := make([]deck.ZoneInfo, len(zs))
	for i, z := range zs {
		out[i] = deck.ZoneInfo{Name: z.Name, ExteriorExposed: z.ExteriorExposed, FloorAreaM2: z.FloorAreaM2}
	}
	return out
}

// composeDeck runs DC's full per-subsystem sequence against an
// already-parsed base deck, in the order §4.4 requires: ventilation
// (which writes the shared DSOA) before HVAC (which references it),
// then loads last.
func composeDeck(d *deck.Deck, zones []deck.ZoneInfo, resolved map[string]*paramassign.ResolvedSubsystem, buildingFunction, usageKey string, flowExponent float64, availScheduleName string) error {
	if r := resolved["ventilation"]; r != nil {
		if err := deck.ComposeVentilation(d, zones, r, buildingFunction, usageKey, flowExponent, logger); err != nil {
			return fmt.Errorf("compose ventilation: %w", err)
		}
	}
	if r := resolved["hvac"]; r != nil {
		if err := deck.ComposeHVAC(d, zones, r, resolved["ventilation"], availScheduleName, logger); err != nil {
			return fmt.Errorf("compose hvac: %w", err)
		}
	}
	if err := deck.ComposeLoads(d, zones, resolved["lighting"], resolved["equipment"], resolved["dhw"], resolved["fenestration"], resolved["shading"]); err != nil {
		return fmt.Errorf("compose loads: %w", err)
	}
	return nil
}

func mergeScheduleFragments(d *deck.Deck, dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("compose: read schedules dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		text, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		fragment, err := deck.Parse(string(text))
		if err != nil {
			return fmt.Errorf("compose: parse schedule fragment %s: %w", path, err)
		}
		for _, objType := range fragment.Types() {
			for _, obj := range fragment.ByType(objType) {
				if err := d.Add(obj); err != nil {
					return fmt.Errorf("compose: merge %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

func runCompose(cmd *cobra.Command, args []string) error {
	baseDeckPath, _ := cmd.Flags().GetString("base-deck")
	schedulesDir, _ := cmd.Flags().GetString("schedules-dir")
	resolvedPath, _ := cmd.Flags().GetString("resolved")
	zonesPath, _ := cmd.Flags().GetString("zones")
	buildingFunction, _ := cmd.Flags().GetString("building-function")
	usageKey, _ := cmd.Flags().GetString("usage-key")
	flowExponent, _ := cmd.Flags().GetFloat64("flow-exponent")
	availSchedule, _ := cmd.Flags().GetString("avail-schedule")
	outPath, _ := cmd.Flags().GetString("out")

	baseText, err := os.ReadFile(baseDeckPath)
	if err != nil {
		return err
	}
	d, err := deck.Parse(string(baseText))
	if err != nil {
		return fmt.Errorf("compose: parse base deck: %w", err)
	}

	if err := mergeScheduleFragments(d, schedulesDir); err != nil {
		return err
	}

	resolved, err := loadJSON[map[string]*paramassign.ResolvedSubsystem](resolvedPath)
	if err != nil {
		return err
	}
	zoneReqs, err := loadJSON[[]zoneRequest](zonesPath)
	if err != nil {
		return err
	}
	zones := toZoneInfos(zoneReqs)

	if err := composeDeck(d, zones, resolved, buildingFunction, usageKey, flowExponent, availSchedule); err != nil {
		return err
	}
	if err := d.CheckNameUniqueness(); err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	if err := os.WriteFile(outPath, []byte(deck.Write(d)), 0o644); err != nil {
		return err
	}
	logger.Info("compose: wrote deck", map[string]any{"out": outPath, "zones": len(zones)})
	return nil
}
