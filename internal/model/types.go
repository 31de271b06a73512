package model

import "errors"

// ErrConfiguration marks malformed or contradictory parameters detected
// during grid or cohort construction. Fatal to the case, never retried.
var ErrConfiguration = errors.New("invalid configuration")

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Parameters is a flat mapping from name to scalar value, plus optional
// explicit vector overrides for the timing dimensions. Read-only within a
// model run; override via With/WithVector which clone.
type Parameters struct {
	Scalars map[string]float64   `json:"scalars"`
	Vectors map[string][]float64 `json:"vectors,omitempty"`
}

func NewParameters(scalars map[string]float64, vectors map[string][]float64) Parameters {
	p := Parameters{
		Scalars: make(map[string]float64, len(scalars)),
		Vectors: make(map[string][]float64, len(vectors)),
	}
	for name, v := range scalars {
		p.Scalars[name] = v
	}
	for name, vec := range vectors {
		p.Vectors[name] = append([]float64(nil), vec...)
	}
	return p
}

// Scalar returns the named scalar or def when unset.
func (p Parameters) Scalar(name string, def float64) float64 {
	if v, ok := p.Scalars[name]; ok {
		return v
	}
	return def
}

// Vector returns the named override vector, or nil when unset. The returned
// slice is shared; callers must not mutate it.
func (p Parameters) Vector(name string) []float64 {
	return p.Vectors[name]
}

// With returns a copy with one scalar overridden.
func (p Parameters) With(name string, value float64) Parameters {
	out := NewParameters(p.Scalars, p.Vectors)
	if out.Scalars == nil {
		out.Scalars = map[string]float64{}
	}
	out.Scalars[name] = value
	return out
}

// WithVector returns a copy with one vector overridden.
func (p Parameters) WithVector(name string, values []float64) Parameters {
	out := NewParameters(p.Scalars, p.Vectors)
	if out.Vectors == nil {
		out.Vectors = map[string][]float64{}
	}
	out.Vectors[name] = append([]float64(nil), values...)
	return out
}

// ForcingRecord is the persisted form of a forcing series.
type ForcingRecord struct {
	VersionedRecord
	T      []float64            `json:"t"`
	Yday   []float64            `json:"yday"`
	Fields map[string][]float64 `json:"fields,omitempty"`
}

// ParametersRecord is the persisted form of a parameter set.
type ParametersRecord struct {
	VersionedRecord
	Scalars map[string]float64   `json:"scalars"`
	Vectors map[string][]float64 `json:"vectors,omitempty"`
}

// CaseRecord is the persisted form of one model-case result: the viable
// subset's timing rows, fitness slices copied from the full landscape, and
// the extracted scalar fields.
type CaseRecord struct {
	VersionedRecord
	Key       string             `json:"key"`
	SaveMode  string             `json:"save_mode"`
	T0        []float64          `json:"t0,omitempty"`
	TdiaExit  []float64          `json:"tdia_exit,omitempty"`
	TdiaEnter []float64          `json:"tdia_enter,omitempty"`
	Dtegg     []float64          `json:"dtegg,omitempty"`
	F1        [][]float64        `json:"f1,omitempty"`
	F2        [][]float64        `json:"f2,omitempty"`
	Scalars   map[string]float64 `json:"scalars,omitempty"`
}

// CaseFailureRecord attributes a failed sweep case to its grid index and
// the override values that produced it.
type CaseFailureRecord struct {
	Index     int                `json:"index"`
	Overrides map[string]float64 `json:"overrides,omitempty"`
	Error     string             `json:"error"`
}

// SweepRecord is the persisted form of an ensemble sweep summary.
type SweepRecord struct {
	VersionedRecord
	Key           string               `json:"key"`
	AxisNames     []string             `json:"axis_names"`
	Shape         []int                `json:"shape"`
	SqueezedShape []int                `json:"squeezed_shape"`
	Fields        map[string][]float64 `json:"fields,omitempty"`
	Failures      []CaseFailureRecord  `json:"failures,omitempty"`
}
