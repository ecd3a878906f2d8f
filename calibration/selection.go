package calibration

import (
	"math"
	"sort"
)

// SelectBuildings implements spec.md §4.9 step 1: iteration 1 uses the
// configured explicit list; iteration i>1 ranks the previous
// iteration's validation failures by residual magnitude (worst CVRMSE
// first, grounded on validation_aggregator.py's improvement-ranking
// pattern) and takes the top maxBuildings.
func SelectBuildings(iteration int, explicitList []string, previous []ValidationResult, maxBuildings int) []string {
	if iteration <= 1 {
		return truncate(explicitList, maxBuildings)
	}

	type residual struct {
		buildingID string
		worst      float64
	}
	byBuilding := make(map[string]float64)
	for _, r := range previous {
		if r.PassCVRMSE && r.PassNMBE {
			continue
		}
		mag := math.Abs(r.CVRMSE)
		if cur, ok := byBuilding[r.BuildingID]; !ok || mag > cur {
			byBuilding[r.BuildingID] = mag
		}
	}

	ranked := make([]residual, 0, len(byBuilding))
	for id, mag := range byBuilding {
		ranked = append(ranked, residual{id, mag})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].worst != ranked[j].worst {
			return ranked[i].worst > ranked[j].worst
		}
		return ranked[i].buildingID < ranked[j].buildingID
	})

	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.buildingID)
	}
	return truncate(out, maxBuildings)
}

func truncate(ids []string, max int) []string {
	if max <= 0 || max >= len(ids) {
		return ids
	}
	return ids[:max]
}
