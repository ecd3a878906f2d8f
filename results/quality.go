package results

import (
	"fmt"
	"strings"
)

// ErrorType mirrors the engine's Errors.ErrorType encoding.
type ErrorType int

const (
	Warning ErrorType = 1
	Severe  ErrorType = 2
	Fatal   ErrorType = 3
)

// QualityReport tallies the engine's Errors table into a single
// derived quality score, grounded verbatim on
// sql_enhanced_analyzer.py's _extract_quality_metrics scoring rule
// (spec.md §4.7 step 6): "start at 100; subtract 0.1 per warning, 1 per
// severe, 10 per fatal, 5 per convergence issue; floored at 0".
type QualityReport struct {
	TotalWarnings          int
	TotalSevereErrors      int
	TotalFatalErrors       int
	HasConvergenceIssues   bool
	SimulationQualityScore float64
}

// Quality reads the Errors table and computes the quality score.
func (s *Source) Quality() (*QualityReport, error) {
	q := &QualityReport{SimulationQualityScore: 100}
	if !s.tableExists("Errors") {
		return q, nil
	}
	rows, err := s.db.Query(`SELECT ErrorType, COUNT(*), GROUP_CONCAT(ErrorMessage) FROM Errors GROUP BY ErrorType`)
	if err != nil {
		return nil, fmt.Errorf("results: query Errors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var errType int
		var count int
		var messages string
		if err := rows.Scan(&errType, &count, &messages); err != nil {
			return nil, fmt.Errorf("results: scan Errors row: %w", err)
		}
		switch ErrorType(errType) {
		case Warning:
			q.TotalWarnings += count
			q.SimulationQualityScore -= 0.1 * float64(count)
		case Severe:
			q.TotalSevereErrors += count
			q.SimulationQualityScore -= 1 * float64(count)
		case Fatal:
			q.TotalFatalErrors += count
			q.SimulationQualityScore -= 10 * float64(count)
		}
		if containsConvergenceWarning(messages) {
			q.HasConvergenceIssues = true
			q.SimulationQualityScore -= 5
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if q.SimulationQualityScore < 0 {
		q.SimulationQualityScore = 0
	}
	return q, nil
}

func containsConvergenceWarning(messages string) bool {
	lower := strings.ToLower(messages)
	return strings.Contains(lower, "did not converge") || strings.Contains(lower, "convergence")
}
