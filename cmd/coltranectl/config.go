package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"coltrane/internal/forcing"
	"coltrane/pkg/coltrane"
)

// seasonalConfig mirrors forcing.SeasonalConfig with pointer fields, so a
// config file can override any subset and leave the rest at defaults.
type seasonalConfig struct {
	Years        *int     `yaml:"years"`
	Step         *float64 `yaml:"step"`
	TempMean     *float64 `yaml:"temp_mean"`
	TempRange    *float64 `yaml:"temp_range"`
	TempPeakYday *float64 `yaml:"temp_peak_yday"`
	PreyMax      *float64 `yaml:"prey_max"`
	PreyFloor    *float64 `yaml:"prey_floor"`
	BloomYday    *float64 `yaml:"bloom_yday"`
	BloomWidth   *float64 `yaml:"bloom_width"`
}

func (s *seasonalConfig) apply() *forcing.SeasonalConfig {
	if s == nil {
		return nil
	}
	cfg := forcing.DefaultSeasonalConfig()
	if s.Years != nil {
		cfg.Years = *s.Years
	}
	if s.Step != nil {
		cfg.Step = *s.Step
	}
	if s.TempMean != nil {
		cfg.TempMean = *s.TempMean
	}
	if s.TempRange != nil {
		cfg.TempRange = *s.TempRange
	}
	if s.TempPeakYday != nil {
		cfg.TempPeakYday = *s.TempPeakYday
	}
	if s.PreyMax != nil {
		cfg.PreyMax = *s.PreyMax
	}
	if s.PreyFloor != nil {
		cfg.PreyFloor = *s.PreyFloor
	}
	if s.BloomYday != nil {
		cfg.BloomYday = *s.BloomYday
	}
	if s.BloomWidth != nil {
		cfg.BloomWidth = *s.BloomWidth
	}
	return &cfg
}

// forcingFile is the on-disk form of a forcing series, as written by the
// forcing subcommand.
type forcingFile struct {
	T      []float64            `yaml:"t"`
	Fields map[string][]float64 `yaml:"fields"`
}

type caseConfig struct {
	Key         string               `yaml:"key"`
	SaveMode    string               `yaml:"save_mode"`
	ChunkSize   int                  `yaml:"chunk_size"`
	Workers     int                  `yaml:"workers"`
	ForcingFile string               `yaml:"forcing_file"`
	Seasonal    *seasonalConfig      `yaml:"seasonal"`
	Params      map[string]float64   `yaml:"params"`
	Vectors     map[string][]float64 `yaml:"vectors"`
}

type axisConfig struct {
	Name   string    `yaml:"name"`
	Target string    `yaml:"target"`
	Values []float64 `yaml:"values"`
}

type sweepConfig struct {
	Key         string               `yaml:"key"`
	SaveMode    string               `yaml:"save_mode"`
	ChunkSize   int                  `yaml:"chunk_size"`
	Workers     int                  `yaml:"workers"`
	CaseWorkers int                  `yaml:"case_workers"`
	SaveInputs  bool                 `yaml:"save_inputs"`
	Seasonal    *seasonalConfig      `yaml:"seasonal"`
	Params      map[string]float64   `yaml:"params"`
	Vectors     map[string][]float64 `yaml:"vectors"`
	Axes        []axisConfig         `yaml:"axes"`
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty config")
		}
		return err
	}
	return nil
}

func loadCaseRequest(path string) (coltrane.CaseRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return coltrane.CaseRequest{}, err
	}
	var cfg caseConfig
	if err := decodeStrict(data, &cfg); err != nil {
		return coltrane.CaseRequest{}, fmt.Errorf("parse %s: %w", path, err)
	}

	req := coltrane.CaseRequest{
		Key:       cfg.Key,
		Seasonal:  cfg.Seasonal.apply(),
		Scalars:   cfg.Params,
		Vectors:   cfg.Vectors,
		SaveMode:  cfg.SaveMode,
		ChunkSize: cfg.ChunkSize,
		Workers:   cfg.Workers,
	}
	if cfg.ForcingFile != "" {
		if cfg.Seasonal != nil {
			return coltrane.CaseRequest{}, fmt.Errorf("%s: forcing_file and seasonal are mutually exclusive", path)
		}
		f, err := loadForcingFile(cfg.ForcingFile)
		if err != nil {
			return coltrane.CaseRequest{}, err
		}
		req.Forcing = f
	}
	return req, nil
}

func loadSweepRequest(path string) (coltrane.SweepRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return coltrane.SweepRequest{}, err
	}
	var cfg sweepConfig
	if err := decodeStrict(data, &cfg); err != nil {
		return coltrane.SweepRequest{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Axes) == 0 {
		return coltrane.SweepRequest{}, fmt.Errorf("%s: sweep config needs at least one axis", path)
	}

	req := coltrane.SweepRequest{
		Key:         cfg.Key,
		Seasonal:    cfg.Seasonal.apply(),
		Scalars:     cfg.Params,
		Vectors:     cfg.Vectors,
		SaveMode:    cfg.SaveMode,
		ChunkSize:   cfg.ChunkSize,
		Workers:     cfg.Workers,
		CaseWorkers: cfg.CaseWorkers,
		SaveInputs:  cfg.SaveInputs,
	}
	for _, ax := range cfg.Axes {
		if ax.Name == "" || len(ax.Values) == 0 {
			return coltrane.SweepRequest{}, fmt.Errorf("%s: axis needs a name and values", path)
		}
		target := ax.Target
		if target == "" {
			target = "param"
		}
		req.Axes = append(req.Axes, coltrane.SweepAxis{Name: ax.Name, Target: target, Values: ax.Values})
	}
	return req, nil
}

func loadForcingFile(path string) (*forcing.Series, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ff forcingFile
	if err := decodeStrict(data, &ff); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	f, err := forcing.New(ff.T, ff.Fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func writeForcingFile(path string, f *forcing.Series) error {
	data, err := yaml.Marshal(forcingFile{T: f.T, Fields: f.Fields})
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
