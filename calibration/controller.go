package calibration

import (
	"fmt"

	"github.com/bldgsim/beosim/log"
	"github.com/bldgsim/beosim/paramassign"
)

// StageLog is one recorded transition of the iteration state machine,
// grounded on workflow_tracker.py's per-step execution_status tracking
// (kept here as a flat append-only log rather than the Python source's
// dict-of-steps, since Go's state machine is a fixed linear sequence
// per iteration rather than a dependency graph of optional steps).
type StageLog struct {
	Stage     string
	Iteration int
	Err       string
}

// Stages drives the seven named states spec.md §9 requires CC to move
// through as an explicit state machine, not recursion:
// SelectBuildings -> ApplyFeedback -> Build -> Simulate -> Extract ->
// Validate -> Decide. Build/Simulate/Extract/Validate are supplied by
// the caller since they depend on the deck/simrun/results packages and
// the job's filesystem layout; Controller owns only the sequencing,
// persistence, and convergence decision.
type Stages struct {
	// Build composes and clones decks for the selected buildings under
	// the current override list, returning deck identifiers SD can run.
	// stage is the iteration's calibration_stage label; PA queries built
	// here must carry it so feedback overrides scoped to the stage match.
	Build func(stage string, buildingIDs []string, overrides []paramassign.Override) ([]string, error)
	// Simulate drives the engine across the built decks.
	Simulate func(deckIDs []string) error
	// Extract runs the result extractor over each completed run.
	Extract func(deckIDs []string) error
	// Validate runs the external validator, producing one
	// ValidationResult per (building, variable) and the best-parameter
	// feedback dict for the next iteration.
	Validate func(deckIDs []string) ([]ValidationResult, map[string]float64, error)
}

// Controller runs CC's iteration loop against a job root directory.
type Controller struct {
	Root         string
	Config       ConvergenceConfig
	Explicit     []string // iteration-1 building list
	MaxBuildings int
	Stages       Stages
	StageLog     []StageLog

	log       *log.Logger
	history   []float64 // prior iterations' mean-CVRMSE, oldest first
	overrides []paramassign.Override
}

func (c *Controller) record(stage string, iteration int, err error) error {
	entry := StageLog{Stage: stage, Iteration: iteration}
	if err != nil {
		entry.Err = err.Error()
	}
	c.StageLog = append(c.StageLog, entry)
	return err
}

// NewController builds a Controller, optionally resuming from the
// highest-numbered iteration directory already present under root.
func NewController(root string, cfg ConvergenceConfig, explicit []string, maxBuildings int, stages Stages, logger *log.Logger) (*Controller, int, error) {
	if logger == nil {
		logger = log.Default()
	}
	c := &Controller{
		Root: root, Config: cfg, Explicit: explicit, MaxBuildings: maxBuildings,
		Stages: stages, log: logger,
	}

	_, highest, err := Resume(root)
	if err != nil {
		return nil, -1, err
	}
	if highest < 0 {
		return c, 1, nil
	}
	for i := 1; i <= highest; i++ {
		prior, err := LoadIteration(root, i)
		if err != nil {
			return nil, -1, err
		}
		c.history = append(c.history, MeanCVRMSE(prior.ValidationResults))
		c.overrides = rebuildOverrides(prior, c.overrides)
	}
	return c, highest + 1, nil
}

// RunIteration executes one full pass of the state machine for
// iteration i, persists its state, and returns the resulting Decision.
// Feedback from the previous iteration must already be folded into
// c.overrides, either by a prior call to RunIteration or by
// NewController's resume path.
func (c *Controller) RunIteration(iteration int) (Decision, error) {
	var previousResults []ValidationResult
	if iteration > 1 {
		prior, err := LoadIteration(c.Root, iteration-1)
		if err != nil {
			return "", fmt.Errorf("calibration: load prior iteration: %w", err)
		}
		previousResults = prior.ValidationResults
	}

	selected := SelectBuildings(iteration, c.Explicit, previousResults, c.MaxBuildings)
	c.log.Debug("calibration: selected buildings", map[string]any{"iteration": iteration, "count": len(selected)})
	c.record("select_buildings", iteration, nil)

	stage := fmt.Sprintf("iteration_%d", iteration)
	deckIDs, err := c.Stages.Build(stage, selected, c.overrides)
	c.record("build", iteration, err)
	if err != nil {
		return "", fmt.Errorf("calibration: build stage: %w", err)
	}

	err = c.Stages.Simulate(deckIDs)
	c.record("simulate", iteration, err)
	if err != nil {
		return "", fmt.Errorf("calibration: simulate stage: %w", err)
	}

	err = c.Stages.Extract(deckIDs)
	c.record("extract", iteration, err)
	if err != nil {
		return "", fmt.Errorf("calibration: extract stage: %w", err)
	}

	results, bestParams, err := c.Stages.Validate(deckIDs)
	c.record("validate", iteration, err)
	if err != nil {
		return "", fmt.Errorf("calibration: validate stage: %w", err)
	}

	coverage := coverageFraction(len(deckIDs), results)
	degraded := coverage < minCoverageFraction

	metric := MeanCVRMSE(results)
	decision := Decide(c.Config, iteration, metric, c.history)
	c.record("decide", iteration, nil)

	state := IterationState{
		Iteration:         iteration,
		SelectedBuildings: selected,
		ValidationResults: results,
		BestParameters:    bestParams,
		Degraded:          degraded,
		CoverageFraction:  coverage,
		Decision:          decision,
	}
	if err := SaveIteration(c.Root, state); err != nil {
		return "", err
	}

	// Feedback produced by this iteration is consumed by the next one,
	// so the override records carry the next iteration's stage label.
	c.overrides = ApplyFeedback(c.overrides, bestParams, fmt.Sprintf("iteration_%d", iteration+1))
	c.history = append(c.history, metric)
	return decision, nil
}

// minCoverageFraction is the minimum share of selected buildings that
// must have produced a validation result for an iteration to be
// considered non-degraded. It is a fixed package constant: the
// calibration config's min_coverage_pct is not read by the Controller,
// and no Controller field or option changes this threshold.
const minCoverageFraction = 0.5

func coverageFraction(selectedCount int, results []ValidationResult) float64 {
	if selectedCount == 0 {
		return 1
	}
	covered := make(map[string]bool, len(results))
	for _, r := range results {
		covered[r.BuildingID] = true
	}
	return float64(len(covered)) / float64(selectedCount)
}

// rebuildOverrides re-derives the override list from the prior
// iteration's persisted best parameters, so resuming from disk
// reconstructs the same override list RunIteration would have built in
// a single continuous run.
func rebuildOverrides(prior *IterationState, existing []paramassign.Override) []paramassign.Override {
	stage := fmt.Sprintf("iteration_%d", prior.Iteration+1)
	return ApplyFeedback(existing, prior.BestParameters, stage)
}
