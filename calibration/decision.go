package calibration

import "gonum.org/v1/gonum/stat"

// Decision is CC's convergence sum type (spec.md §9: "use a
// Decision::{Continue, Converged, Stall, MaxIter} sum type" rather than
// exception-driven flow).
type Decision string

const (
	Continue  Decision = "continue"
	Converged Decision = "converged"
	Stall     Decision = "stall"
	MaxIter   Decision = "max_iter"
)

// ConvergenceConfig bounds CC's loop (spec.md §4.9 step 4).
type ConvergenceConfig struct {
	MetricThreshold float64 // converged when the configured metric (mean CVRMSE) drops below this
	MinImprovement  float64 // below this, an iteration counts as non-improving
	Patience        int     // consecutive non-improving iterations before Stall
	MaxIterations   int
}

// MeanCVRMSE is the configured convergence metric: the unweighted mean
// CVRMSE across all validation results in an iteration.
func MeanCVRMSE(results []ValidationResult) float64 {
	if len(results) == 0 {
		return 0
	}
	values := make([]float64, len(results))
	for i, r := range results {
		values[i] = r.CVRMSE
	}
	return stat.Mean(values, nil)
}

// MeanNMBE is the same aggregate for NMBE, used alongside CVRMSE in
// per-iteration reporting.
func MeanNMBE(results []ValidationResult) float64 {
	if len(results) == 0 {
		return 0
	}
	values := make([]float64, len(results))
	for i, r := range results {
		values[i] = r.NMBE
	}
	return stat.Mean(values, nil)
}

// Decide applies spec.md §4.9 step 4's three convergence rules, in
// order: metric threshold, then stall-by-patience, then max iterations.
// history is every prior iteration's mean-CVRMSE metric, oldest first,
// NOT including the current iteration.
func Decide(cfg ConvergenceConfig, iteration int, currentMetric float64, history []float64) Decision {
	if currentMetric < cfg.MetricThreshold {
		return Converged
	}
	if cfg.Patience > 0 && len(history) >= cfg.Patience {
		stalled := true
		window := append(append([]float64{}, history[len(history)-cfg.Patience:]...), currentMetric)
		for i := 1; i < len(window); i++ {
			improvement := window[i-1] - window[i]
			if improvement >= cfg.MinImprovement {
				stalled = false
				break
			}
		}
		if stalled {
			return Stall
		}
	}
	if iteration >= cfg.MaxIterations {
		return MaxIter
	}
	return Continue
}
