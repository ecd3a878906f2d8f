// Package calibration drives the iterative calibration loop: building
// selection, parameter feedback, deck build, simulate, extract,
// validate, and a convergence decision, persisted per iteration
// (spec.md §4.9).
package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// ValidationResult is one (building, variable) residual from the
// external validator, grounded on validation_aggregator.py's
// validation_results records.
type ValidationResult struct {
	BuildingID string  `json:"building_id"`
	Variable   string  `json:"real_variable"`
	CVRMSE     float64 `json:"cvrmse"`
	NMBE       float64 `json:"nmbe"`
	PassCVRMSE bool    `json:"pass_cvrmse"`
	PassNMBE   bool    `json:"pass_nmbe"`
}

// IterationState is the JSON state file CC persists once per
// iteration (spec.md §4.9: "persists, per iteration, a JSON state file
// ... containing the iteration's validation results and best
// parameters").
type IterationState struct {
	Iteration         int                `json:"iteration_index"`
	SelectedBuildings []string           `json:"selected_building_ids"`
	ValidationResults []ValidationResult `json:"validation_metrics"`
	BestParameters    map[string]float64 `json:"best_parameters"`
	Degraded          bool               `json:"degraded"`
	CoverageFraction  float64            `json:"coverage_fraction"`
	Decision          Decision           `json:"decision"`
}

var iterDirPattern = regexp.MustCompile(`^iteration_(\d+)$`)

// iterationDir returns the per-iteration subdirectory path under root.
func iterationDir(root string, iteration int) string {
	return filepath.Join(root, fmt.Sprintf("iteration_%04d", iteration))
}

// statePath returns the JSON state file path for one iteration.
func statePath(root string, iteration int) string {
	return filepath.Join(iterationDir(root, iteration), "state.json")
}

// SaveIteration persists one iteration's state under root, creating
// the per-iteration subdirectory if needed.
func SaveIteration(root string, state IterationState) error {
	dir := iterationDir(root, state.Iteration)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("calibration: mkdir %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("calibration: marshal iteration %d state: %w", state.Iteration, err)
	}
	if err := os.WriteFile(statePath(root, state.Iteration), data, 0o644); err != nil {
		return fmt.Errorf("calibration: write iteration %d state: %w", state.Iteration, err)
	}
	return nil
}

// LoadIteration reads back one iteration's persisted state.
func LoadIteration(root string, iteration int) (*IterationState, error) {
	data, err := os.ReadFile(statePath(root, iteration))
	if err != nil {
		return nil, fmt.Errorf("calibration: read iteration %d state: %w", iteration, err)
	}
	var state IterationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("calibration: unmarshal iteration %d state: %w", iteration, err)
	}
	return &state, nil
}

// HighestIteration scans root for iteration_NNNN subdirectories and
// returns the largest index found, or -1 if none exist. This is the
// resume entry point: CC reads the highest-numbered iteration
// directory and continues (spec.md §4.9).
func HighestIteration(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return -1, nil
		}
		return -1, fmt.Errorf("calibration: read %s: %w", root, err)
	}

	found := make([]int, 0)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := iterDirPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, n)
	}
	if len(found) == 0 {
		return -1, nil
	}
	sort.Ints(found)
	return found[len(found)-1], nil
}

// Resume loads the highest-numbered iteration's state, or returns nil
// (with iteration -1) if no prior iteration exists.
func Resume(root string) (*IterationState, int, error) {
	highest, err := HighestIteration(root)
	if err != nil {
		return nil, -1, err
	}
	if highest < 0 {
		return nil, -1, nil
	}
	state, err := LoadIteration(root, highest)
	if err != nil {
		return nil, -1, err
	}
	return state, highest, nil
}
