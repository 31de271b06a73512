// Package coltrane is the public entry point: a thin client over the
// case runner, the ensemble driver, and the result store.
package coltrane

import (
	"context"
	"fmt"

	"coltrane/internal/engine"
	"coltrane/internal/ensemble"
	"coltrane/internal/forcing"
	"coltrane/internal/integrate"
	"coltrane/internal/model"
	"coltrane/internal/storage"
)

const defaultDBPath = "coltrane.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

// CaseRequest describes one model case. A nil Forcing gets the default
// synthetic seasonal cycle, optionally reshaped by Seasonal.
type CaseRequest struct {
	Key      string
	Forcing  *forcing.Series
	Seasonal *forcing.SeasonalConfig
	Scalars  map[string]float64
	Vectors  map[string][]float64

	SaveMode  string
	ChunkSize int
	Workers   int

	Progress func(done, total int)
	Logf     func(format string, args ...any)
}

type CaseSummary struct {
	Key              string
	Strategies       int
	Cohorts          int
	ViableStrategies int
	ViableCohorts    int
	Scalars          map[string]float64
}

// SweepAxis is one swept dimension. Target "param" overrides a scalar
// parameter; "forcing" overrides a seasonal-forcing field (prey_max,
// prey_floor, temp_mean, temp_range, temp_peak_yday, bloom_yday,
// bloom_width).
type SweepAxis struct {
	Name   string
	Target string
	Values []float64
}

type SweepRequest struct {
	Key      string
	Axes     []SweepAxis
	Seasonal *forcing.SeasonalConfig
	Scalars  map[string]float64
	Vectors  map[string][]float64

	SaveMode    string
	ChunkSize   int
	Workers     int
	CaseWorkers int
	SaveInputs  bool

	Progress func(done, total int)
	Logf     func(format string, args ...any)
}

type SweepSummary struct {
	Key           string
	Cases         int
	AxisNames     []string
	Shape         []int
	SqueezedShape []int
	Fields        map[string][]float64
	Failures      []model.CaseFailureRecord
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// RunCase runs one case and, when the request carries a key, persists the
// result under it.
func (c *Client) RunCase(ctx context.Context, req CaseRequest) (CaseSummary, error) {
	f, err := requestForcing(req.Forcing, req.Seasonal)
	if err != nil {
		return CaseSummary{}, err
	}
	runner, err := engine.NewRunner(engine.Config{
		Integrator: integrate.Coltrane{},
		SaveMode:   engine.Mode(req.SaveMode),
		ChunkSize:  req.ChunkSize,
		Workers:    req.Workers,
		Progress:   req.Progress,
		Logf:       req.Logf,
	})
	if err != nil {
		return CaseSummary{}, err
	}

	p := model.NewParameters(req.Scalars, req.Vectors)
	result, err := runner.Run(ctx, f, p)
	if err != nil {
		return CaseSummary{}, err
	}
	scalars := result.ScalarFields()

	if req.Key != "" {
		if err := c.store.SaveCaseResult(ctx, caseRecord(req.Key, result, scalars)); err != nil {
			return CaseSummary{}, fmt.Errorf("persist case %s: %w", req.Key, err)
		}
	}

	summary := CaseSummary{
		Key:              req.Key,
		ViableStrategies: len(result.ViableStrategies),
		ViableCohorts:    len(result.ViableCohorts),
		Scalars:          scalars,
	}
	if result.Landscape != nil && result.Landscape.F2 != nil {
		summary.Cohorts, summary.Strategies = result.Landscape.F2.Dims()
	}
	return summary, nil
}

// RunSweep expands the requested override grid, runs every case on the
// ensemble driver, and persists per-case results plus the sweep summary.
func (c *Client) RunSweep(ctx context.Context, req SweepRequest) (SweepSummary, error) {
	base, err := requestForcing(nil, req.Seasonal)
	if err != nil {
		return SweepSummary{}, err
	}
	seasonal := forcing.DefaultSeasonalConfig()
	if req.Seasonal != nil {
		seasonal = *req.Seasonal
	}

	axes := make([]ensemble.Axis, len(req.Axes))
	for i, ax := range req.Axes {
		axes[i] = ensemble.Axis{Name: ax.Name, Target: ensemble.Target(ax.Target), Values: ax.Values}
	}

	driver, err := ensemble.NewDriver(ensemble.Config{
		Integrator:  integrate.Coltrane{},
		SaveMode:    engine.Mode(req.SaveMode),
		ChunkSize:   req.ChunkSize,
		Workers:     req.Workers,
		CaseWorkers: req.CaseWorkers,
		Store:       c.store,
		BaseKey:     req.Key,
		SaveInputs:  req.SaveInputs,
		MakeForcing: func(overrides map[string]float64) (*forcing.Series, error) {
			return seasonalWithOverrides(seasonal, overrides)
		},
		Progress: req.Progress,
		Logf:     req.Logf,
	})
	if err != nil {
		return SweepSummary{}, err
	}

	p := model.NewParameters(req.Scalars, req.Vectors)
	sweep, err := driver.Run(ctx, base, p, axes)
	if err != nil {
		return SweepSummary{}, err
	}

	rec := sweep.Record()
	cases := 1
	for _, extent := range rec.Shape {
		cases *= extent
	}
	return SweepSummary{
		Key:           sweep.Key,
		Cases:         cases,
		AxisNames:     rec.AxisNames,
		Shape:         rec.Shape,
		SqueezedShape: rec.SqueezedShape,
		Fields:        rec.Fields,
		Failures:      rec.Failures,
	}, nil
}

// Case returns a stored case result.
func (c *Client) Case(ctx context.Context, key string) (model.CaseRecord, bool, error) {
	return c.store.GetCaseResult(ctx, key)
}

// Sweep returns a stored sweep summary.
func (c *Client) Sweep(ctx context.Context, key string) (model.SweepRecord, bool, error) {
	return c.store.GetSweepSummary(ctx, key)
}

// CaseKeys lists every stored case key in sorted order.
func (c *Client) CaseKeys(ctx context.Context) ([]string, error) {
	return c.store.ListCaseKeys(ctx)
}

func requestForcing(f *forcing.Series, seasonal *forcing.SeasonalConfig) (*forcing.Series, error) {
	if f != nil {
		return f, nil
	}
	cfg := forcing.DefaultSeasonalConfig()
	if seasonal != nil {
		cfg = *seasonal
	}
	return forcing.Seasonal(cfg)
}

// seasonalWithOverrides rebuilds the seasonal forcing with named fields
// replaced by sweep override values.
func seasonalWithOverrides(cfg forcing.SeasonalConfig, overrides map[string]float64) (*forcing.Series, error) {
	for name, v := range overrides {
		switch name {
		case "prey_max":
			cfg.PreyMax = v
		case "prey_floor":
			cfg.PreyFloor = v
		case "temp_mean":
			cfg.TempMean = v
		case "temp_range":
			cfg.TempRange = v
		case "temp_peak_yday":
			cfg.TempPeakYday = v
		case "bloom_yday":
			cfg.BloomYday = v
		case "bloom_width":
			cfg.BloomWidth = v
		default:
			return nil, fmt.Errorf("%w: unknown forcing override %s", model.ErrConfiguration, name)
		}
	}
	return forcing.Seasonal(cfg)
}

func caseRecord(key string, result engine.CaseResult, scalars map[string]float64) model.CaseRecord {
	rec := model.CaseRecord{
		VersionedRecord: storage.Stamp(),
		Key:             key,
		SaveMode:        string(result.SaveMode),
		T0:              result.T0,
		TdiaExit:        result.Strategies.TdiaExit,
		TdiaEnter:       result.Strategies.TdiaEnter,
		Dtegg:           result.Strategies.Dtegg,
		Scalars:         scalars,
	}
	if result.F1 != nil {
		r, cols := result.F1.Dims()
		rec.F1 = make([][]float64, r)
		rec.F2 = make([][]float64, r)
		for i := 0; i < r; i++ {
			rec.F1[i] = make([]float64, cols)
			rec.F2[i] = make([]float64, cols)
			for j := 0; j < cols; j++ {
				rec.F1[i][j] = result.F1.At(i, j)
				rec.F2[i][j] = result.F2.At(i, j)
			}
		}
	}
	return rec
}
