// Package integrate provides the biological integration capability the
// engine consumes: a deterministic population-dynamics model advancing
// development, survivorship, and egg production for every (cohort,
// strategy) pair over the forcing.
package integrate

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"coltrane/internal/engine"
	"coltrane/internal/forcing"
	"coltrane/internal/model"
	"coltrane/internal/strategy"
)

// Parameter names and defaults for the reference model. All overridable
// through the flat parameter map.
const (
	defaultDevRate      = 0.02  // relative development per day at reference conditions
	defaultQ10          = 2.5   // temperature sensitivity of rates
	defaultKs           = 30.0  // prey half-saturation, mg C m^-3
	defaultMortality    = 0.008 // baseline mortality per day
	defaultDiaMortFrac  = 0.25  // dormant mortality relative to active
	defaultEggRate      = 0.5   // egg output per survivor per day at saturation
	defaultRefTempC     = 0.0
	defaultPreyFallback = 100.0
	defaultTempFallback = 4.0
)

// Coltrane advances relative development q, survivorship phi, and egg
// production for each cohort and strategy. Activity is gated by the
// strategy's diapause window on yearday; egg production by maturity (q=1)
// and the strategy's onset date t0+dtegg. dF is egg production per unit
// founding biomass per day, phi-discounted.
type Coltrane struct{}

func (Coltrane) Integrate(ctx context.Context, f *forcing.Series, p model.Parameters, t0 []float64, set strategy.Set, mode engine.Mode) (engine.Result, error) {
	if !engine.ValidMode(mode) {
		return engine.Result{}, fmt.Errorf("unsupported integration mode: %s", mode)
	}
	if err := ctx.Err(); err != nil {
		return engine.Result{}, err
	}

	devRate := p.Scalar("dev_rate", defaultDevRate)
	q10 := p.Scalar("q10", defaultQ10)
	ks := p.Scalar("ks", defaultKs)
	m0 := p.Scalar("mortality", defaultMortality)
	diaFrac := p.Scalar("dia_mortality_frac", defaultDiaMortFrac)
	eggRate := p.Scalar("egg_rate", defaultEggRate)
	refTemp := p.Scalar("ref_temp", defaultRefTempC)
	if devRate <= 0 || q10 <= 0 || ks <= 0 || m0 < 0 || eggRate < 0 {
		return engine.Result{}, fmt.Errorf("non-physical rate parameters: dev_rate=%g q10=%g ks=%g mortality=%g egg_rate=%g: %w",
			devRate, q10, ks, m0, eggRate, model.ErrConfiguration)
	}

	nt := f.Len()
	nc := len(t0)
	ns := set.Len()
	dF := engine.NewFitnessArray(nt, nc, ns)
	var qOut, phiOut *engine.FitnessArray
	if mode == engine.ModeEverything {
		qOut = engine.NewFitnessArray(nt, nc, ns)
		phiOut = engine.NewFitnessArray(nt, nc, ns)
	}

	temp := f.Field("T")
	prey := f.Field("P")

	// Per-timestep environment, shared across cohorts and strategies.
	qT := make([]float64, nt)
	sigma := make([]float64, nt)
	for i := 0; i < nt; i++ {
		tc := defaultTempFallback
		if temp != nil {
			tc = temp[i]
		}
		qT[i] = math.Pow(q10, (tc-refTemp)/10)
		pc := defaultPreyFallback
		if prey != nil {
			pc = prey[i]
		}
		sigma[i] = pc / (ks + pc)
	}

	for c := 0; c < nc; c++ {
		if err := ctx.Err(); err != nil {
			return engine.Result{}, err
		}
		i0 := f.IndexAtOrAfter(t0[c])
		for s := 0; s < ns; s++ {
			exit, enter, dtegg := set.Row(s)
			onset := t0[c] + dtegg
			q, phi := 0.0, 1.0
			for i := i0; i < nt; i++ {
				dt := f.Step()
				if i+1 < nt {
					dt = f.T[i+1] - f.T[i]
				}
				yd := f.Yday[i] - 1
				active := yd >= exit && yd < enter

				m := m0 * qT[i]
				if !active {
					m *= diaFrac
				}
				if active {
					q += devRate * qT[i] * sigma[i] * dt
					if q > 1 {
						q = 1
					}
					if q >= 1 && f.T[i] >= onset {
						dF.Set(i, c, s, eggRate*sigma[i]*qT[i]*phi)
					}
				}
				phi *= math.Exp(-m * dt)

				if mode == engine.ModeEverything {
					qOut.Set(i, c, s, q)
					phiOut.Set(i, c, s, phi)
				}
			}
		}
	}

	switch mode {
	case engine.ModeFitnessOnly:
		return engine.Result{DF: dF}, nil
	case engine.ModeEverything:
		return engine.Result{
			DF: dF,
			Fields: map[string]*engine.FitnessArray{
				"dF":  dF,
				"q":   qOut,
				"phi": phiOut,
			},
			Scalars: summarize(dF),
		}, nil
	default:
		return engine.Result{Scalars: summarize(dF)}, nil
	}
}

func summarize(dF *engine.FitnessArray) map[string]float64 {
	out := map[string]float64{
		"df_total": 0,
		"df_peak":  0,
	}
	if len(dF.Data) == 0 {
		return out
	}
	out["df_total"] = floats.Sum(dF.Data)
	out["df_peak"] = floats.Max(dF.Data)
	return out
}
