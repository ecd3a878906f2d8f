package variant

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// SamplingMethod selects how ParameterSpec ranges are turned into
// concrete variant values.
type SamplingMethod string

const (
	SampleUniform  SamplingMethod = "uniform"
	SampleLHS      SamplingMethod = "lhs"
	SampleFactorial SamplingMethod = "factorial"
)

// ParameterSpec is one dimension of a parametric or sensitivity plan:
// a field to vary, between Min and Max (continuous methods) or across
// Levels (factorial).
type ParameterSpec struct {
	Category   string
	ObjectType string
	ObjectName string
	Field      string
	Min, Max   float64
	Levels     []float64 // used by SampleFactorial and, when set, by sensitivity_oat sweeps
}

// SampleUniformValues draws n independent uniform values in [min,max]
// using a seeded RNG, mirroring paramassign's deterministic-given-seed
// uniform pick strategy.
func SampleUniformValues(min, max float64, n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(uint64(seed)))
	dist := distuv.Uniform{Min: min, Max: max, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// SampleLatinHypercube draws n values per dimension via stratified
// Latin Hypercube sampling: each dimension's [0,1) interval is divided
// into n equal strata, one sample per stratum, strata independently
// shuffled per dimension so combinations are not axis-aligned.
func SampleLatinHypercube(specs []ParameterSpec, n int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(uint64(seed)))
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, len(specs))
	}
	for d, spec := range specs {
		perm := rng.Perm(n)
		for i := 0; i < n; i++ {
			stratum := perm[i]
			u := (float64(stratum) + rng.Float64()) / float64(n)
			out[i][d] = spec.Min + u*(spec.Max-spec.Min)
		}
	}
	return out
}

// Permute returns the full cartesian product of each spec's Levels,
// one combination per row, grounded in the factorial sweep precedent
// from the teacher's example sweep generator: build one index vector,
// incrementing the fastest-varying dimension first like an odometer.
func Permute(specs []ParameterSpec) [][]float64 {
	if len(specs) == 0 {
		return nil
	}
	sizes := make([]int, len(specs))
	total := 1
	for i, s := range specs {
		sizes[i] = len(s.Levels)
		if sizes[i] == 0 {
			return nil
		}
		total *= sizes[i]
	}
	out := make([][]float64, total)
	idx := make([]int, len(specs))
	for row := 0; row < total; row++ {
		combo := make([]float64, len(specs))
		for d, s := range specs {
			combo[d] = s.Levels[idx[d]]
		}
		out[row] = combo
		for d := len(specs) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < sizes[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}
