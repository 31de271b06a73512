// Package ensemble expands override grids into model cases and runs them
// across a worker pool, collecting per-case scalar fields into grid-shaped
// summary arrays.
package ensemble

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"coltrane/internal/engine"
	"coltrane/internal/forcing"
	"coltrane/internal/model"
	"coltrane/internal/stats"
	"coltrane/internal/storage"
)

// Target names what an axis overrides.
type Target string

const (
	TargetParam   Target = "param"
	TargetForcing Target = "forcing"
)

// Axis is one dimension of the override grid. Axis order is significant:
// the last axis varies fastest in the linear case index.
type Axis struct {
	Name   string
	Target Target
	Values []float64
}

// Config configures a sweep.
type Config struct {
	Integrator engine.Integrator
	SaveMode   engine.Mode

	// Per-case evaluation settings, passed through to the runner.
	ChunkSize int
	Workers   int

	// CaseWorkers bounds how many cases run concurrently.
	CaseWorkers int

	// Store, when set, receives every case result under key
	// "<base>-case<k>" and the sweep summary under the base key.
	Store storage.Store

	// BaseKey names the sweep; a random one is generated when empty.
	BaseKey string

	// SaveInputs additionally persists each case's forcing and parameters.
	SaveInputs bool

	// MakeForcing rebuilds the forcing series from the forcing-target
	// override values of one case. Required when any axis targets forcing.
	MakeForcing func(overrides map[string]float64) (*forcing.Series, error)

	Progress func(done, total int)
	Logf     func(format string, args ...any)
}

// Sweep is the in-memory outcome of a driver run. Fields hold one
// grid-shaped array per scalar field; cells of failed cases stay NaN.
type Sweep struct {
	Key       string
	AxisNames []string
	Shape     []int
	Fields    map[string]*stats.Array
	Failures  []model.CaseFailureRecord
}

// Record converts the sweep to its persisted form, with summary arrays
// kept at full shape and the squeezed shape recorded alongside.
func (s Sweep) Record() model.SweepRecord {
	rec := model.SweepRecord{
		VersionedRecord: storage.Stamp(),
		Key:             s.Key,
		AxisNames:       s.AxisNames,
		Shape:           s.Shape,
		SqueezedShape:   stats.Squeeze(s.Shape),
		Failures:        s.Failures,
	}
	if len(s.Fields) > 0 {
		rec.Fields = make(map[string][]float64, len(s.Fields))
		for name, arr := range s.Fields {
			rec.Fields[name] = arr.Data
		}
	}
	return rec
}

type Driver struct {
	cfg    Config
	runner *engine.Runner
}

func NewDriver(cfg Config) (*Driver, error) {
	if cfg.CaseWorkers <= 0 {
		cfg.CaseWorkers = 1
	}
	if cfg.BaseKey == "" {
		cfg.BaseKey = "sweep-" + uuid.NewString()
	}
	runner, err := engine.NewRunner(engine.Config{
		Integrator: cfg.Integrator,
		SaveMode:   cfg.SaveMode,
		ChunkSize:  cfg.ChunkSize,
		Workers:    cfg.Workers,
		Logf:       cfg.Logf,
	})
	if err != nil {
		return nil, err
	}
	return &Driver{cfg: cfg, runner: runner}, nil
}

// Run expands the axes into the full case grid, runs every case, and
// returns the summary. A case failure is recorded and the sweep continues;
// only context cancellation or summary persistence aborts the whole run.
func (d *Driver) Run(ctx context.Context, f *forcing.Series, p model.Parameters, axes []Axis) (Sweep, error) {
	shape, names, err := gridShape(axes)
	if err != nil {
		return Sweep{}, err
	}
	for _, ax := range axes {
		if ax.Target == TargetForcing && d.cfg.MakeForcing == nil {
			return Sweep{}, fmt.Errorf("%w: axis %s targets forcing but no forcing builder is configured",
				model.ErrConfiguration, ax.Name)
		}
	}

	total := 1
	for _, extent := range shape {
		total *= extent
	}
	sweep := Sweep{
		Key:       d.cfg.BaseKey,
		AxisNames: names,
		Shape:     shape,
		Fields:    map[string]*stats.Array{},
	}

	var (
		mu   sync.Mutex
		done atomic.Int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.CaseWorkers)

	for k := 0; k < total; k++ {
		k := k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			overrides := caseOverrides(axes, shape, k)
			scalars, err := d.runCase(gctx, f, p, axes, overrides, k)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				d.logf("case %d failed: %v", k, err)
				sweep.Failures = append(sweep.Failures, model.CaseFailureRecord{
					Index:     k,
					Overrides: overrides,
					Error:     err.Error(),
				})
			} else {
				for name, v := range scalars {
					arr, ok := sweep.Fields[name]
					if !ok {
						arr, err = stats.NewArray(shape)
						if err != nil {
							return err
						}
						sweep.Fields[name] = arr
					}
					arr.SetFlat(k, v)
				}
			}
			if d.cfg.Progress != nil {
				d.cfg.Progress(int(done.Add(1)), total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Sweep{}, err
	}

	sort.Slice(sweep.Failures, func(i, j int) bool {
		return sweep.Failures[i].Index < sweep.Failures[j].Index
	})

	if d.cfg.Store != nil {
		if err := d.cfg.Store.SaveSweepSummary(ctx, sweep.Record()); err != nil {
			return Sweep{}, fmt.Errorf("persist sweep summary: %w", err)
		}
	}
	return sweep, nil
}

// runCase derives the case's inputs, runs it, persists the result, and
// returns the extracted scalar fields.
func (d *Driver) runCase(ctx context.Context, f *forcing.Series, p model.Parameters, axes []Axis, overrides map[string]float64, k int) (map[string]float64, error) {
	caseForcing := f
	caseParams := p
	forcingOverrides := map[string]float64{}
	for _, ax := range axes {
		v := overrides[ax.Name]
		switch ax.Target {
		case TargetForcing:
			forcingOverrides[ax.Name] = v
		default:
			caseParams = caseParams.With(ax.Name, v)
		}
	}
	if len(forcingOverrides) > 0 {
		built, err := d.cfg.MakeForcing(forcingOverrides)
		if err != nil {
			return nil, fmt.Errorf("build forcing: %w", err)
		}
		caseForcing = built
	}

	result, err := d.runner.Run(ctx, caseForcing, caseParams)
	if err != nil {
		return nil, err
	}
	scalars := result.ScalarFields()

	if d.cfg.Store != nil {
		if err := d.persistCase(ctx, k, result, scalars, caseForcing, caseParams); err != nil {
			return nil, err
		}
	}
	return scalars, nil
}

func (d *Driver) persistCase(ctx context.Context, k int, result engine.CaseResult, scalars map[string]float64, f *forcing.Series, p model.Parameters) error {
	key := storage.CaseKey(d.cfg.BaseKey, k)
	rec := model.CaseRecord{
		VersionedRecord: storage.Stamp(),
		Key:             key,
		SaveMode:        string(result.SaveMode),
		T0:              result.T0,
		TdiaExit:        result.Strategies.TdiaExit,
		TdiaEnter:       result.Strategies.TdiaEnter,
		Dtegg:           result.Strategies.Dtegg,
		F1:              denseRows(result.F1),
		F2:              denseRows(result.F2),
		Scalars:         scalars,
	}
	if err := d.cfg.Store.SaveCaseResult(ctx, rec); err != nil {
		return fmt.Errorf("persist case %s: %w", key, err)
	}
	if !d.cfg.SaveInputs {
		return nil
	}
	frec := model.ForcingRecord{
		VersionedRecord: storage.Stamp(),
		T:               f.T,
		Yday:            f.Yday,
		Fields:          f.Fields,
	}
	if err := d.cfg.Store.SaveForcing(ctx, key, frec); err != nil {
		return fmt.Errorf("persist forcing %s: %w", key, err)
	}
	prec := model.ParametersRecord{
		VersionedRecord: storage.Stamp(),
		Scalars:         p.Scalars,
		Vectors:         p.Vectors,
	}
	if err := d.cfg.Store.SaveParameters(ctx, key, prec); err != nil {
		return fmt.Errorf("persist parameters %s: %w", key, err)
	}
	return nil
}

func (d *Driver) logf(format string, args ...any) {
	if d.cfg.Logf != nil {
		d.cfg.Logf(format, args...)
	}
}

// gridShape validates the axes and returns the sweep shape and axis names.
// No axes means one case at shape {1}.
func gridShape(axes []Axis) ([]int, []string, error) {
	if len(axes) == 0 {
		return []int{1}, nil, nil
	}
	shape := make([]int, len(axes))
	names := make([]string, len(axes))
	seen := map[string]bool{}
	for i, ax := range axes {
		if ax.Name == "" {
			return nil, nil, fmt.Errorf("%w: axis %d has no name", model.ErrConfiguration, i)
		}
		if seen[ax.Name] {
			return nil, nil, fmt.Errorf("%w: duplicate axis %s", model.ErrConfiguration, ax.Name)
		}
		seen[ax.Name] = true
		if len(ax.Values) == 0 {
			return nil, nil, fmt.Errorf("%w: axis %s has no values", model.ErrConfiguration, ax.Name)
		}
		if ax.Target != TargetParam && ax.Target != TargetForcing && ax.Target != "" {
			return nil, nil, fmt.Errorf("%w: axis %s has unknown target %q", model.ErrConfiguration, ax.Name, ax.Target)
		}
		shape[i] = len(ax.Values)
		names[i] = ax.Name
	}
	return shape, names, nil
}

// caseOverrides maps the linear case index to one override value per axis.
func caseOverrides(axes []Axis, shape []int, k int) map[string]float64 {
	if len(axes) == 0 {
		return map[string]float64{}
	}
	idx := stats.Unflatten(shape, k)
	overrides := make(map[string]float64, len(axes))
	for i, ax := range axes {
		overrides[ax.Name] = ax.Values[idx[i]]
	}
	return overrides
}

func denseRows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		out[i] = make([]float64, c)
		mat.Row(out[i], i, m)
	}
	return out
}
