package engine

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"coltrane/internal/forcing"
	"coltrane/internal/model"
	"coltrane/internal/strategy"
)

// Landscape holds the one- and two-generation fitness per (cohort,
// strategy), with the forcing and parameters that produced it attached
// read-only for provenance.
type Landscape struct {
	F1, F2  *mat.Dense
	Forcing *forcing.Series
	Params  model.Parameters
}

// BuildLandscape time-integrates the raw dF array into F1 and F2.
//
// Egg production under strategy s begins dtegg[s] days after spawn, so one
// generation closes an onset interval later: F1[c,s] integrates dF over
// [t0[c], t0[c]+2*dtegg[s]). F2[c,s] compounds each day's egg output with
// the one-generation fitness of the cohort nearest that day, so a strategy
// only clears replacement when its offspring reproduce in turn.
func BuildLandscape(dF *FitnessArray, f *forcing.Series, p model.Parameters, cohorts strategy.Cohorts, set strategy.Set) *Landscape {
	l := &Landscape{Forcing: f, Params: p}
	nc := cohorts.Len()
	ns := set.Len()
	if nc == 0 || ns == 0 {
		return l
	}

	dt := f.Step()
	l.F1 = mat.NewDense(nc, ns, nil)
	l.F2 = mat.NewDense(nc, ns, nil)

	// Offspring spawned on day i join the cohort with the nearest t0.
	nearest := make([]int, f.Len())
	ci := 0
	for i, t := range f.T {
		for ci+1 < nc && cohorts.T0[ci+1]-t < t-cohorts.T0[ci] {
			ci++
		}
		nearest[i] = ci
	}

	scratch := make([]float64, f.Len())
	for c := 0; c < nc; c++ {
		i0 := f.IndexAtOrAfter(cohorts.T0[c])
		for s := 0; s < ns; s++ {
			i1 := f.IndexAtOrAfter(cohorts.T0[c] + 2*set.Dtegg[s])
			if i1 > f.Len() {
				i1 = f.Len()
			}
			window := scratch[:0]
			for i := i0; i < i1; i++ {
				window = append(window, dF.At(i, c, s))
			}
			l.F1.Set(c, s, floats.Sum(window)*dt)
		}
	}

	for c := 0; c < nc; c++ {
		i0 := f.IndexAtOrAfter(cohorts.T0[c])
		for s := 0; s < ns; s++ {
			i1 := f.IndexAtOrAfter(cohorts.T0[c] + 2*set.Dtegg[s])
			if i1 > f.Len() {
				i1 = f.Len()
			}
			window := scratch[:0]
			for i := i0; i < i1; i++ {
				window = append(window, dF.At(i, c, s)*l.F1.At(nearest[i], s))
			}
			l.F2.Set(c, s, floats.Sum(window)*dt)
		}
	}

	return l
}
