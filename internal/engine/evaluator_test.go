package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"coltrane/internal/forcing"
	"coltrane/internal/model"
	"coltrane/internal/strategy"
)

// stubIntegrator produces dF from the strategy values alone, so results are
// independent of how the set was chunked.
type stubIntegrator struct {
	gain float64
	// failEgg, when non-zero, fails any chunk containing that dtegg value.
	failEgg float64
	calls   atomic.Int64
}

func (si *stubIntegrator) Integrate(ctx context.Context, f *forcing.Series, p model.Parameters, t0 []float64, set strategy.Set, mode Mode) (Result, error) {
	si.calls.Add(1)
	for _, egg := range set.Dtegg {
		if si.failEgg != 0 && egg == si.failEgg {
			return Result{}, fmt.Errorf("diverged at dtegg=%g", egg)
		}
	}
	switch mode {
	case ModeFitnessOnly:
		dF := NewFitnessArray(f.Len(), len(t0), set.Len())
		for t := 0; t < f.Len(); t++ {
			for c := range t0 {
				for s := 0; s < set.Len(); s++ {
					dF.Set(t, c, s, si.gain*(f.T[t]*1e-4+t0[c]*1e-3+set.Dtegg[s]*1e-2))
				}
			}
		}
		return Result{DF: dF}, nil
	case ModeEverything:
		return Result{
			Fields:  map[string]*FitnessArray{"phi": NewFitnessArray(f.Len(), len(t0), set.Len())},
			Scalars: map[string]float64{"stub_scalar": 42},
		}, nil
	case ModeScalarsOnly:
		return Result{Scalars: map[string]float64{"stub_scalar": 42}}, nil
	}
	return Result{}, fmt.Errorf("unknown mode %q", mode)
}

func evalForcing(t *testing.T, days int) *forcing.Series {
	t.Helper()
	ts := make([]float64, days)
	for i := range ts {
		ts[i] = float64(i)
	}
	f, err := forcing.New(ts, nil)
	if err != nil {
		t.Fatalf("forcing: %v", err)
	}
	return f
}

func testSet(ns int) strategy.Set {
	set := strategy.Set{
		TdiaExit:  make([]float64, ns),
		TdiaEnter: make([]float64, ns),
		Dtegg:     make([]float64, ns),
	}
	for i := 0; i < ns; i++ {
		set.TdiaExit[i] = float64(10 * i)
		set.TdiaEnter[i] = float64(200 + 10*i)
		set.Dtegg[i] = float64(100 + 20*i)
	}
	return set
}

func TestChunkReassemblyIdempotence(t *testing.T) {
	f := evalForcing(t, 30)
	p := model.NewParameters(nil, nil)
	t0 := []float64{0, 10}
	set := testSet(5)

	variants := []EvalConfig{
		{ChunkSize: 1, Workers: 1},
		{ChunkSize: 5, Workers: 1},
		{ChunkSize: 2, Workers: 3},
		{ChunkSize: 1, Workers: 4},
	}
	var first *FitnessArray
	for _, cfg := range variants {
		si := &stubIntegrator{gain: 1}
		dF, err := EvaluateChunked(context.Background(), si, f, p, t0, set, cfg)
		if err != nil {
			t.Fatalf("evaluate (chunk=%d workers=%d): %v", cfg.ChunkSize, cfg.Workers, err)
		}
		if dF.NT != f.Len() || dF.NC != 2 || dF.NS != 5 {
			t.Fatalf("unexpected dims [%d,%d,%d]", dF.NT, dF.NC, dF.NS)
		}
		if first == nil {
			first = dF
			continue
		}
		for i := range dF.Data {
			if dF.Data[i] != first.Data[i] {
				t.Fatalf("chunk=%d workers=%d differs at flat index %d: %g vs %g",
					cfg.ChunkSize, cfg.Workers, i, dF.Data[i], first.Data[i])
			}
		}
	}
}

func TestChunkErrorAbortsEvaluation(t *testing.T) {
	f := evalForcing(t, 10)
	p := model.NewParameters(nil, nil)
	set := testSet(4)
	si := &stubIntegrator{gain: 1, failEgg: set.Dtegg[2]}
	_, err := EvaluateChunked(context.Background(), si, f, p, []float64{0}, set, EvalConfig{ChunkSize: 1, Workers: 2})
	if err == nil {
		t.Fatal("expected integrator error to propagate")
	}
}

func TestEvaluateEmptySet(t *testing.T) {
	f := evalForcing(t, 10)
	p := model.NewParameters(nil, nil)
	si := &stubIntegrator{gain: 1}
	dF, err := EvaluateChunked(context.Background(), si, f, p, []float64{0}, strategy.Set{}, EvalConfig{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if dF.NS != 0 || len(dF.Data) != 0 {
		t.Fatalf("expected empty array, got NS=%d len=%d", dF.NS, len(dF.Data))
	}
	if si.calls.Load() != 0 {
		t.Fatalf("integrator called %d times for empty set", si.calls.Load())
	}
}

func TestEvaluateProgressReachesTotal(t *testing.T) {
	f := evalForcing(t, 10)
	p := model.NewParameters(nil, nil)
	set := testSet(7)
	si := &stubIntegrator{gain: 1}
	var max atomic.Int64
	var calls atomic.Int64
	_, err := EvaluateChunked(context.Background(), si, f, p, []float64{0}, set, EvalConfig{
		ChunkSize: 2,
		Workers:   3,
		Progress: func(done, total int) {
			calls.Add(1)
			if total != 4 {
				t.Errorf("total = %d, want 4", total)
			}
			for {
				cur := max.Load()
				if int64(done) <= cur || max.CompareAndSwap(cur, int64(done)) {
					break
				}
			}
		},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if calls.Load() != 4 {
		t.Fatalf("progress called %d times, want 4", calls.Load())
	}
	if max.Load() != 4 {
		t.Fatalf("max done = %d, want 4", max.Load())
	}
}

func TestEvaluateCancelledContext(t *testing.T) {
	f := evalForcing(t, 10)
	p := model.NewParameters(nil, nil)
	set := testSet(3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	si := &stubIntegrator{gain: 1}
	_, err := EvaluateChunked(ctx, si, f, p, []float64{0}, set, EvalConfig{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
