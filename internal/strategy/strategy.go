// Package strategy builds the candidate life-history timing grid: diapause
// exit day, diapause entry day, and relative egg-production date, expanded
// over every combination, plus the cohort spawn-date axis.
package strategy

import (
	"fmt"

	"coltrane/internal/forcing"
	"coltrane/internal/model"
)

// Set is a vector of life-history strategies held as three parallel arrays.
// Index i across all three fields always refers to one strategy.
type Set struct {
	TdiaExit  []float64
	TdiaEnter []float64
	Dtegg     []float64
}

func (s Set) Len() int { return len(s.TdiaExit) }

// Row returns the (exit, enter, egg) tuple at index i.
func (s Set) Row(i int) (exit, enter, egg float64) {
	return s.TdiaExit[i], s.TdiaEnter[i], s.Dtegg[i]
}

// Slice returns a new Set holding the rows named by idx, preserving order
// and row alignment. The receiver is untouched.
func (s Set) Slice(idx []int) Set {
	out := Set{
		TdiaExit:  make([]float64, len(idx)),
		TdiaEnter: make([]float64, len(idx)),
		Dtegg:     make([]float64, len(idx)),
	}
	for i, src := range idx {
		out.TdiaExit[i] = s.TdiaExit[src]
		out.TdiaEnter[i] = s.TdiaEnter[src]
		out.Dtegg[i] = s.Dtegg[src]
	}
	return out
}

// Range returns the contiguous sub-set [lo, hi).
func (s Set) Range(lo, hi int) Set {
	return Set{
		TdiaExit:  s.TdiaExit[lo:hi:hi],
		TdiaEnter: s.TdiaEnter[lo:hi:hi],
		Dtegg:     s.Dtegg[lo:hi:hi],
	}
}

// Cohorts is the ordered sequence of spawn dates.
type Cohorts struct {
	T0 []float64
}

func (c Cohorts) Len() int { return len(c.T0) }

// BuildCohorts spaces spawn dates by dt_spawn from the forcing start to one
// year before the forcing end, so every cohort sees at least one full year
// of subsequent forcing.
func BuildCohorts(p model.Parameters, f *forcing.Series) (Cohorts, error) {
	dtSpawn := p.Scalar("dt_spawn", 30)
	if dtSpawn <= 0 {
		return Cohorts{}, fmt.Errorf("dt_spawn must be > 0, got %g: %w", dtSpawn, model.ErrConfiguration)
	}
	last := f.End() - forcing.DaysPerYear
	if last < f.Start() {
		return Cohorts{}, fmt.Errorf("forcing spans %g days, need at least one year past the first spawn date: %w",
			f.End()-f.Start(), model.ErrConfiguration)
	}
	var t0 []float64
	for t := f.Start(); t <= last; t += dtSpawn {
		t0 = append(t0, t)
	}
	return Cohorts{T0: t0}, nil
}

// BuildGrid produces the full outer-product strategy set. Explicit non-empty
// parameter vectors are used verbatim; absent dimensions follow the default
// generation rules. A generation-length range that closes to nothing yields
// an empty Set, which propagates as a degenerate zero-strategy case rather
// than an error.
func BuildGrid(p model.Parameters, f *forcing.Series, cohorts Cohorts) (Set, error) {
	dtDia := p.Scalar("dt_dia", 20)
	dtSpawn := p.Scalar("dt_spawn", 30)
	if dtDia <= 0 {
		return Set{}, fmt.Errorf("dt_dia must be > 0, got %g: %w", dtDia, model.ErrConfiguration)
	}
	if dtSpawn <= 0 {
		return Set{}, fmt.Errorf("dt_spawn must be > 0, got %g: %w", dtSpawn, model.ErrConfiguration)
	}

	exit := p.Vector("tdia_exit")
	if len(exit) == 0 {
		// Diapause may only end in the first half of the year.
		exit = stepped(0, forcing.DaysPerYear/2, dtDia)
	}

	enter := p.Vector("tdia_enter")
	if len(enter) == 0 {
		// Entry strictly follows the latest exit date.
		enter = stepped(maxOf(exit)+dtDia, forcing.DaysPerYear, dtDia)
	}

	egg := p.Vector("dtegg")
	if len(egg) == 0 {
		minGen := p.Scalar("min_genlength_years", 1)
		maxGen := p.Scalar("max_genlength_years", 3)
		lo := (minGen - 0.5) * forcing.DaysPerYear
		if lo < dtSpawn {
			lo = dtSpawn
		}
		hi := (maxGen + 0.5) * forcing.DaysPerYear
		if n := cohorts.Len(); n > 0 {
			if limit := f.End() - cohorts.T0[n-1]; limit < hi {
				hi = limit
			}
		}
		egg = stepped(lo, hi, dtSpawn)
	}

	return expand(exit, enter, egg), nil
}

// expand takes the full outer product, exit outermost and egg innermost.
func expand(exit, enter, egg []float64) Set {
	n := len(exit) * len(enter) * len(egg)
	out := Set{
		TdiaExit:  make([]float64, 0, n),
		TdiaEnter: make([]float64, 0, n),
		Dtegg:     make([]float64, 0, n),
	}
	for _, x := range exit {
		for _, e := range enter {
			for _, g := range egg {
				out.TdiaExit = append(out.TdiaExit, x)
				out.TdiaEnter = append(out.TdiaEnter, e)
				out.Dtegg = append(out.Dtegg, g)
			}
		}
	}
	return out
}

func stepped(lo, hi, step float64) []float64 {
	var out []float64
	for v := lo; v <= hi; v += step {
		out = append(out, v)
	}
	return out
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
