package engine

import "fmt"

// FitnessArray is a dense [timestep, cohort, strategy] array. The strategy
// index varies fastest, so a contiguous chunk of strategies occupies a
// contiguous column range at every (t, c).
type FitnessArray struct {
	NT, NC, NS int
	Data       []float64
}

func NewFitnessArray(nt, nc, ns int) *FitnessArray {
	return &FitnessArray{NT: nt, NC: nc, NS: ns, Data: make([]float64, nt*nc*ns)}
}

func (a *FitnessArray) index(t, c, s int) int {
	return (t*a.NC+c)*a.NS + s
}

func (a *FitnessArray) At(t, c, s int) float64 {
	return a.Data[a.index(t, c, s)]
}

func (a *FitnessArray) Set(t, c, s int, v float64) {
	a.Data[a.index(t, c, s)] = v
}

// SetStrategyBlock copies block, evaluated for strategies [s0, s0+block.NS),
// into the matching column range. Reassembly is deterministic regardless of
// the order blocks arrive in.
func (a *FitnessArray) SetStrategyBlock(s0 int, block *FitnessArray) error {
	if block.NT != a.NT || block.NC != a.NC {
		return fmt.Errorf("block dims [%d,%d] do not match array [%d,%d]", block.NT, block.NC, a.NT, a.NC)
	}
	if s0 < 0 || s0+block.NS > a.NS {
		return fmt.Errorf("block columns [%d,%d) out of range [0,%d)", s0, s0+block.NS, a.NS)
	}
	for t := 0; t < a.NT; t++ {
		for c := 0; c < a.NC; c++ {
			dst := a.index(t, c, s0)
			src := block.index(t, c, 0)
			copy(a.Data[dst:dst+block.NS], block.Data[src:src+block.NS])
		}
	}
	return nil
}
