package engine

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"coltrane/internal/forcing"
	"coltrane/internal/model"
	"coltrane/internal/strategy"
)

// Config configures one case run.
type Config struct {
	Integrator Integrator
	// SaveMode selects the second-pass retention: fitness-only skips the
	// detailed rerun entirely and returns the landscape alone.
	SaveMode  Mode
	ChunkSize int
	Workers   int
	Progress  func(done, total int)
	// Logf receives observability lines (viable counts). Never gates the
	// result.
	Logf func(format string, args ...any)
}

// CaseResult is the output of one full case. F1 and F2 are copied from the
// full landscape restricted to the viable indices, never recomputed from
// the smaller second integration.
type CaseResult struct {
	SaveMode  Mode
	Landscape *Landscape

	T0               []float64
	Strategies       strategy.Set
	ViableStrategies []int
	ViableCohorts    []int
	F1, F2           *mat.Dense

	Fields  map[string]*FitnessArray
	Scalars map[string]float64
}

// ScalarFields returns every numeric scalar field of the result, the
// interface the ensemble driver builds its summary arrays from.
func (r CaseResult) ScalarFields() map[string]float64 {
	out := make(map[string]float64, len(r.Scalars)+8)
	for name, v := range r.Scalars {
		out[name] = v
	}
	out["viable_strategies"] = float64(len(r.ViableStrategies))
	out["viable_cohorts"] = float64(len(r.ViableCohorts))

	f1Max, f2Max := 0.0, 0.0
	bestC, bestS := -1, -1
	if r.Landscape != nil && r.Landscape.F2 != nil {
		nc, ns := r.Landscape.F2.Dims()
		for c := 0; c < nc; c++ {
			for s := 0; s < ns; s++ {
				if v := r.Landscape.F1.At(c, s); v > f1Max {
					f1Max = v
				}
				if v := r.Landscape.F2.At(c, s); v > f2Max {
					f2Max = v
					bestC, bestS = c, s
				}
			}
		}
	}
	out["f1_max"] = f1Max
	out["f2_max"] = f2Max
	if bestC >= 0 {
		out["best_cohort"] = float64(bestC)
		out["best_strategy"] = float64(bestS)
	}
	return out
}

type Runner struct {
	cfg Config
}

func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Integrator == nil {
		return nil, fmt.Errorf("integrator is required")
	}
	if cfg.SaveMode == "" {
		cfg.SaveMode = ModeEverything
	}
	if !ValidMode(cfg.SaveMode) {
		return nil, fmt.Errorf("unsupported save mode: %s", cfg.SaveMode)
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Runner{cfg: cfg}, nil
}

// Run executes one full case: grid construction, chunked fitness
// evaluation over the full strategy set and cohort range, landscape build,
// viability filtering, and the detailed second pass over the viable subset.
func (r *Runner) Run(ctx context.Context, f *forcing.Series, p model.Parameters) (CaseResult, error) {
	cohorts, err := strategy.BuildCohorts(p, f)
	if err != nil {
		return CaseResult{}, err
	}
	set, err := strategy.BuildGrid(p, f, cohorts)
	if err != nil {
		return CaseResult{}, err
	}

	result := CaseResult{SaveMode: r.cfg.SaveMode}
	if set.Len() == 0 || cohorts.Len() == 0 {
		// Degenerate zero-strategy case: valid, empty.
		result.Landscape = &Landscape{Forcing: f, Params: p}
		r.logf("case degenerate: strategies=%d cohorts=%d", set.Len(), cohorts.Len())
		return result, nil
	}

	dF, err := EvaluateChunked(ctx, r.cfg.Integrator, f, p, cohorts.T0, set, EvalConfig{
		ChunkSize: r.cfg.ChunkSize,
		Workers:   r.cfg.Workers,
		Progress:  r.cfg.Progress,
	})
	if err != nil {
		return CaseResult{}, err
	}
	result.Landscape = BuildLandscape(dF, f, p, cohorts, set)

	if r.cfg.SaveMode == ModeFitnessOnly {
		return result, nil
	}

	viable := FilterViable(result.Landscape, cohorts)
	result.ViableStrategies = viable.Strategies
	result.ViableCohorts = viable.Cohorts
	r.logf("case filtered: viable strategies=%d/%d cohorts=%d/%d",
		len(viable.Strategies), set.Len(), len(viable.Cohorts), cohorts.Len())

	if len(viable.Strategies) == 0 || len(viable.Cohorts) == 0 {
		return result, nil
	}

	subSet := set.Slice(viable.Strategies)
	subT0 := make([]float64, len(viable.Cohorts))
	for i, c := range viable.Cohorts {
		subT0[i] = cohorts.T0[c]
	}

	detail, err := r.cfg.Integrator.Integrate(ctx, f, p, subT0, subSet, r.cfg.SaveMode)
	if err != nil {
		return CaseResult{}, fmt.Errorf("detail pass: %w", err)
	}

	result.T0 = subT0
	result.Strategies = subSet
	result.F1 = sliceDense(result.Landscape.F1, viable.Cohorts, viable.Strategies)
	result.F2 = sliceDense(result.Landscape.F2, viable.Cohorts, viable.Strategies)
	result.Fields = detail.Fields
	result.Scalars = detail.Scalars
	return result, nil
}

func (r *Runner) logf(format string, args ...any) {
	if r.cfg.Logf != nil {
		r.cfg.Logf(format, args...)
	}
}

// sliceDense copies the (rows × cols) submatrix out of m.
func sliceDense(m *mat.Dense, rows, cols []int) *mat.Dense {
	out := mat.NewDense(len(rows), len(cols), nil)
	for i, r := range rows {
		for j, c := range cols {
			out.Set(i, j, m.At(r, c))
		}
	}
	return out
}
