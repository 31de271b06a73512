package engine

import (
	"coltrane/internal/forcing"
	"coltrane/internal/strategy"
)

// ReplacementFitness is the two-generation threshold for self-sustaining
// strategies.
const ReplacementFitness = 1.0

// Viable holds the index sets selected for the detailed second pass, sorted
// ascending.
type Viable struct {
	Strategies []int
	Cohorts    []int
}

// FilterViable selects strategies whose F2 clears replacement for at least
// one cohort of any year, and cohorts that clear replacement for at least
// one strategy and spawn within the first forcing year. Later-year cohorts
// are excluded from the rerun even when fit; they duplicate equivalent
// first-year cohorts.
func FilterViable(l *Landscape, cohorts strategy.Cohorts) Viable {
	var v Viable
	if l.F2 == nil {
		return v
	}
	nc, ns := l.F2.Dims()

	for s := 0; s < ns; s++ {
		for c := 0; c < nc; c++ {
			if l.F2.At(c, s) >= ReplacementFitness {
				v.Strategies = append(v.Strategies, s)
				break
			}
		}
	}

	cutoff := cohorts.T0[0] + forcing.DaysPerYear
	for c := 0; c < nc; c++ {
		if cohorts.T0[c] > cutoff {
			continue
		}
		for s := 0; s < ns; s++ {
			if l.F2.At(c, s) >= ReplacementFitness {
				v.Cohorts = append(v.Cohorts, c)
				break
			}
		}
	}
	return v
}
