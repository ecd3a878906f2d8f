package main

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gonum.org/v1/gonum/stat"

	"github.com/bldgsim/beosim/archetype"
	"github.com/bldgsim/beosim/calibration"
	"github.com/bldgsim/beosim/deck"
	"github.com/bldgsim/beosim/paramassign"
	"github.com/bldgsim/beosim/registry"
	"github.com/bldgsim/beosim/results"
	"github.com/bldgsim/beosim/simrun"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Run the iterative calibration loop",
	Long:  `Drives up to max_iterations rounds of building selection, parameter feedback, deck build, simulate, extract, and validate against measured data, checkpointing per-iteration state under --root (spec.md §4.9).`,
	RunE:  runCalibrate,
}

func init() {
	calibrateCmd.Flags().String("root", "", "calibration job root (required)")
	calibrateCmd.Flags().String("job", "", "JSON calibration job description (required)")
	calibrateCmd.MarkFlagRequired("root")
	calibrateCmd.MarkFlagRequired("job")
}

// buildingCalibConfig is one building's static inputs for the
// calibration loop: geometry, scenario scope, and its measured
// comparison point. The parameter CC's feedback loop adjusts is the
// job-level CalibrationParamKey. Treating the external calibration
// routine's parameter feedback as a single scalar per iteration,
// shared across the validated buildings, is a deliberate simplification of
// spec.md §4.9's "external calibration routine, treated as a black
// box producing {canonical_parameter_key: value}": this wiring is the
// black box's stand-in, not the production implementation.
type buildingCalibConfig struct {
	Function        string        `json:"function"`
	SubType         string        `json:"sub_type"`
	AgeRange        string        `json:"age_range"`
	Scenario        string        `json:"scenario"`
	UsageKey        string        `json:"usage_key"`
	FlowExponent    float64       `json:"flow_exponent"`
	AvailSchedule   string        `json:"avail_schedule"`
	Zones           []zoneRequest `json:"zones"`
	EnginePath      string        `json:"engine_path"`
	WorkDir         string        `json:"work_dir"`
	ResultFile      string        `json:"result_file"`
	TimeoutSeconds  int           `json:"timeout_seconds"`
	MeasuredVariable string       `json:"measured_variable"`
	MeasuredValue   float64       `json:"measured_value"`
	SimulatedColumn string        `json:"simulated_column"` // TabularRecord.RowName to read as the simulated counterpart
}

type calibrationJobConfig struct {
	ArchetypePath       string                         `json:"archetype_path"`
	RegistryPath        string                         `json:"registry_path"`
	BaseDeckPath        string                         `json:"base_deck_path"`
	Subsystems          []string                       `json:"subsystems"`
	CalibrationParamKey string                         `json:"calibration_param_key"`
	CalibrationSensitivity float64                     `json:"calibration_sensitivity"`
	Buildings           map[string]buildingCalibConfig `json:"buildings"`
	ExplicitBuildings   []string                       `json:"explicit_buildings"`
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	root, _ := cmd.Flags().GetString("root")
	jobPath, _ := cmd.Flags().GetString("job")

	job, err := loadJSON[calibrationJobConfig](jobPath)
	if err != nil {
		return err
	}

	store, err := archetype.Load(job.ArchetypePath, logger)
	if err != nil {
		return err
	}
	reg := registry.Default()
	if job.RegistryPath != "" {
		reg, err = registry.Load(job.RegistryPath)
		if err != nil {
			return err
		}
	}
	assigner := paramassign.New(store, reg, logger)

	// extracted results from the most recent Extract call, keyed by
	// building id, so Validate can read them without threading data
	// through the string deckIDs Stages passes between calls.
	lastExtracted := map[string]*results.Extracted{}
	lastSimOK := map[string]bool{}

	baseDeckText, err := readFile(job.BaseDeckPath)
	if err != nil {
		return err
	}

	stages := calibration.Stages{
		Build: func(stage string, buildingIDs []string, overrides []paramassign.Override) ([]string, error) {
			var deckIDs []string
			for _, id := range buildingIDs {
				bc, ok := job.Buildings[id]
				if !ok {
					return nil, fmt.Errorf("calibrate: unknown building %q", id)
				}
				resolved := map[string]*paramassign.ResolvedSubsystem{}
				for _, subsystem := range job.Subsystems {
					q := paramassign.Query{
						BuildingID: id, Function: bc.Function, SubType: bc.SubType, AgeRange: bc.AgeRange,
						Scenario: bc.Scenario, CalibrationStage: stage,
						Subsystem: subsystem, PickStrategy: paramassign.Midpoint,
						Overrides: overrides,
					}
					r, err := assigner.Resolve(q)
					if err != nil {
						return nil, fmt.Errorf("calibrate: resolve %s/%s: %w", id, subsystem, err)
					}
					resolved[subsystem] = r
				}

				d, err := deck.Parse(baseDeckText)
				if err != nil {
					return nil, fmt.Errorf("calibrate: parse base deck: %w", err)
				}
				zones := toZoneInfos(bc.Zones)
				if err := composeDeck(d, zones, resolved, bc.Function, bc.UsageKey, bc.FlowExponent, bc.AvailSchedule); err != nil {
					return nil, fmt.Errorf("calibrate: compose %s: %w", id, err)
				}

				deckPath := filepath.Join(root, "decks", id+".idf")
				if err := writeFile(deckPath, deck.Write(d)); err != nil {
					return nil, err
				}
				deckIDs = append(deckIDs, id)
			}
			return deckIDs, nil
		},

		Simulate: func(deckIDs []string) error {
			rstore, err := simrun.OpenRunStore("")
			if err != nil {
				return err
			}
			defer rstore.Close()

			jobs := make([]*simrun.SimJob, len(deckIDs))
			for i, id := range deckIDs {
				bc := job.Buildings[id]
				timeout := time.Duration(bc.TimeoutSeconds) * time.Second
				if timeout <= 0 {
					timeout = time.Hour
				}
				deckPath := filepath.Join(root, "decks", id+".idf")
				jobs[i] = simrun.NewSimJob(id, 0, bc.EnginePath, deckPath, bc.WorkDir, bc.ResultFile, timeout)
			}
			dispatcher := simrun.NewDispatcher(len(jobs), rstore, logger)
			done := dispatcher.RunAll(context.Background(), jobs)
			for _, j := range done {
				lastSimOK[j.BuildingID] = j.Status == simrun.StatusComplete
			}
			return nil
		},

		Extract: func(deckIDs []string) error {
			for _, id := range deckIDs {
				if !lastSimOK[id] {
					continue
				}
				bc := job.Buildings[id]
				source, err := results.Open(bc.ResultFile, id, "0")
				if err != nil {
					logger.Error("calibrate: extract open failed", err, map[string]any{"building_id": id})
					continue
				}
				extracted, err := source.Run()
				source.Close()
				if err != nil {
					logger.Error("calibrate: extract failed", err, map[string]any{"building_id": id})
					continue
				}
				lastExtracted[id] = extracted
			}
			return nil
		},

		Validate: func(deckIDs []string) ([]calibration.ValidationResult, map[string]float64, error) {
			var validation []calibration.ValidationResult
			var residuals []float64
			for _, id := range deckIDs {
				extracted, ok := lastExtracted[id]
				if !ok {
					continue
				}
				bc := job.Buildings[id]
				simValue, found := lookupTabularValue(extracted.TabularRaw, bc.SimulatedColumn)
				if !found {
					continue
				}
				residual := simValue - bc.MeasuredValue
				nmbe := residual / bc.MeasuredValue * 100
				cvrmse := math.Abs(residual) / bc.MeasuredValue * 100
				validation = append(validation, calibration.ValidationResult{
					BuildingID: id, Variable: bc.MeasuredVariable,
					CVRMSE: cvrmse, NMBE: nmbe,
					PassCVRMSE: cvrmse < 30, PassNMBE: nmbe > -10 && nmbe < 10,
				})
				residuals = append(residuals, nmbe)
			}
			best := map[string]float64{}
			if job.CalibrationParamKey != "" && len(residuals) > 0 {
				meanResidual := stat.Mean(residuals, nil)
				best[job.CalibrationParamKey] = -meanResidual * job.CalibrationSensitivity
			}
			return validation, best, nil
		},
	}

	explicit := job.ExplicitBuildings
	if len(explicit) == 0 {
		for id := range job.Buildings {
			explicit = append(explicit, id)
		}
		sort.Strings(explicit)
	}

	convergence := calibration.ConvergenceConfig{
		MetricThreshold: cfg.Calibration.ConvergenceThresh,
		MinImprovement:  cfg.Calibration.MinImprovement,
		Patience:        cfg.Calibration.Patience,
		MaxIterations:   cfg.Calibration.MaxIterations,
	}

	ctrl, next, err := calibration.NewController(root, convergence, explicit, cfg.Calibration.MaxBuildings, stages, logger)
	if err != nil {
		return err
	}

	for iteration := next; ; iteration++ {
		decision, err := ctrl.RunIteration(iteration)
		if err != nil {
			return fmt.Errorf("calibrate: iteration %d: %w", iteration, err)
		}
		logger.Info("calibrate: iteration complete", map[string]any{"iteration": iteration, "decision": string(decision)})
		if decision != calibration.Continue {
			break
		}
	}
	return nil
}

func lookupTabularValue(rows []results.TabularRecord, rowName string) (float64, bool) {
	for _, r := range rows {
		if r.RowName == rowName {
			v, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
			if err != nil {
				continue
			}
			return v, true
		}
	}
	return 0, false
}
