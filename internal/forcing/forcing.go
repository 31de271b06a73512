// Package forcing holds the environmental time series that drives one model
// run: a strictly increasing time axis in days, a derived day-of-year axis,
// and named ancillary series aligned to the time axis. A Series is immutable
// for the duration of a run and safely shared across workers.
package forcing

import (
	"fmt"
	"math"
	"sort"
)

const DaysPerYear = 365.0

type Series struct {
	T      []float64
	Yday   []float64
	Fields map[string][]float64
}

// New validates the time axis and aligned fields and derives yday when the
// caller did not supply one under the "yday" key.
func New(t []float64, fields map[string][]float64) (*Series, error) {
	if len(t) < 2 {
		return nil, fmt.Errorf("forcing requires at least two timestamps, got %d", len(t))
	}
	for i := 1; i < len(t); i++ {
		if t[i] <= t[i-1] {
			return nil, fmt.Errorf("forcing timestamps must be strictly increasing at index %d: %g <= %g", i, t[i], t[i-1])
		}
	}

	s := &Series{
		T:      append([]float64(nil), t...),
		Fields: make(map[string][]float64, len(fields)),
	}
	for name, values := range fields {
		if len(values) != len(t) {
			return nil, fmt.Errorf("forcing field %s has length %d, want %d", name, len(values), len(t))
		}
		if name == "yday" {
			s.Yday = append([]float64(nil), values...)
			continue
		}
		s.Fields[name] = append([]float64(nil), values...)
	}
	if s.Yday == nil {
		s.Yday = make([]float64, len(t))
		for i, ti := range t {
			s.Yday[i] = yearday(ti)
		}
	}
	return s, nil
}

func yearday(t float64) float64 {
	d := math.Mod(t, DaysPerYear)
	if d < 0 {
		d += DaysPerYear
	}
	return d + 1
}

func (s *Series) Len() int { return len(s.T) }

func (s *Series) Start() float64 { return s.T[0] }

func (s *Series) End() float64 { return s.T[len(s.T)-1] }

// Step returns the nominal timestep, taken from the first interval.
func (s *Series) Step() float64 { return s.T[1] - s.T[0] }

// IndexAtOrAfter returns the smallest index i with T[i] >= t, or Len() when
// t falls past the end of the series.
func (s *Series) IndexAtOrAfter(t float64) int {
	return sort.SearchFloat64s(s.T, t)
}

// Field returns the named ancillary series, or nil when absent. The returned
// slice is shared; callers must not mutate it.
func (s *Series) Field(name string) []float64 {
	return s.Fields[name]
}

// At linearly interpolates the named field at time t, clamping outside the
// time axis. Returns def when the field is absent.
func (s *Series) At(name string, t, def float64) float64 {
	values := s.Fields[name]
	if values == nil {
		return def
	}
	if t <= s.T[0] {
		return values[0]
	}
	if t >= s.End() {
		return values[len(values)-1]
	}
	i := sort.SearchFloat64s(s.T, t)
	if s.T[i] == t {
		return values[i]
	}
	span := s.T[i] - s.T[i-1]
	w := (t - s.T[i-1]) / span
	return values[i-1]*(1-w) + values[i]*w
}
