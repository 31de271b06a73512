package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"coltrane/internal/forcing"
	"coltrane/internal/model"
	"coltrane/internal/strategy"
)

// EvalConfig controls the chunked fitness evaluation.
type EvalConfig struct {
	// ChunkSize is the number of strategies per Integrator call. Defaults
	// to 1: the integrator is the expensive, vectorizable unit.
	ChunkSize int
	Workers   int
	// Progress, when set, is called after each completed chunk with the
	// running completion count. Counts are monotonic but carry no ordering
	// guarantee across chunks.
	Progress func(done, total int)
}

// EvaluateChunked partitions the strategy set into contiguous chunks,
// invokes the integrator per chunk in fitness-only mode, and reassembles
// the dense [NT, NC, NS] fitness array. Chunks are independent; any
// completion order yields identical contents. The first integrator error
// aborts the evaluation.
func EvaluateChunked(ctx context.Context, intg Integrator, f *forcing.Series, p model.Parameters, t0 []float64, set strategy.Set, cfg EvalConfig) (*FitnessArray, error) {
	if intg == nil {
		return nil, fmt.Errorf("integrator is required")
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	nt := f.Len()
	nc := len(t0)
	ns := set.Len()
	dF := NewFitnessArray(nt, nc, ns)
	if ns == 0 || nc == 0 {
		return dF, nil
	}

	nchunks := (ns + chunkSize - 1) / chunkSize
	if workers > nchunks {
		workers = nchunks
	}

	type job struct {
		lo, hi int
	}
	type result struct {
		lo  int
		dF  *FitnessArray
		err error
	}

	jobs := make(chan job)
	results := make(chan result, nchunks)
	var done atomic.Int64

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{lo: j.lo, err: err}
					continue
				}
				out, err := intg.Integrate(ctx, f, p, t0, set.Range(j.lo, j.hi), ModeFitnessOnly)
				if err != nil {
					results <- result{lo: j.lo, err: fmt.Errorf("integrate strategies [%d,%d): %w", j.lo, j.hi, err)}
					continue
				}
				if out.DF == nil {
					results <- result{lo: j.lo, err: fmt.Errorf("integrate strategies [%d,%d): no dF returned", j.lo, j.hi)}
					continue
				}
				results <- result{lo: j.lo, dF: out.DF}
				if cfg.Progress != nil {
					cfg.Progress(int(done.Add(1)), nchunks)
				}
			}
		}()
	}

	for lo := 0; lo < ns; lo += chunkSize {
		hi := lo + chunkSize
		if hi > ns {
			hi = ns
		}
		jobs <- job{lo: lo, hi: hi}
	}
	close(jobs)

	wg.Wait()
	close(results)

	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		if firstErr != nil {
			continue
		}
		if err := dF.SetStrategyBlock(res.lo, res.dF); err != nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return dF, nil
}
