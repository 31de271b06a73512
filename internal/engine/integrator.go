package engine

import (
	"context"

	"coltrane/internal/forcing"
	"coltrane/internal/model"
	"coltrane/internal/strategy"
)

// Mode selects how much of the integration output is retained.
type Mode string

const (
	// ModeFitnessOnly returns only the dense dF array needed for the
	// fitness landscape.
	ModeFitnessOnly Mode = "fitness only"
	// ModeEverything retains the full per-field time series.
	ModeEverything Mode = "everything"
	// ModeScalarsOnly retains only scalar summary fields.
	ModeScalarsOnly Mode = "scalars only"
)

func ValidMode(m Mode) bool {
	switch m {
	case ModeFitnessOnly, ModeEverything, ModeScalarsOnly:
		return true
	default:
		return false
	}
}

// Result is one Integrator invocation's output. DF is always populated in
// fitness-only mode; Fields only in everything mode; Scalars in everything
// and scalars-only modes.
type Result struct {
	DF      *FitnessArray
	Fields  map[string]*FitnessArray
	Scalars map[string]float64
}

// Integrator advances the biological state over the forcing for every
// (cohort, strategy) pair. Implementations must be deterministic given
// identical inputs and must not retain or mutate the forcing or parameters.
type Integrator interface {
	Integrate(ctx context.Context, f *forcing.Series, p model.Parameters, t0 []float64, set strategy.Set, mode Mode) (Result, error)
}
