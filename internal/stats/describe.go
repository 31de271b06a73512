package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Description summarizes one extracted scalar field across a sweep,
// skipping NaN cells left by failed cases.
type Description struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Median float64
}

func Describe(values []float64) Description {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	d := Description{Count: len(clean)}
	if len(clean) == 0 {
		d.Mean = math.NaN()
		d.StdDev = math.NaN()
		d.Min = math.NaN()
		d.Max = math.NaN()
		d.Median = math.NaN()
		return d
	}
	sort.Float64s(clean)
	d.Min = clean[0]
	d.Max = clean[len(clean)-1]
	d.Mean = stat.Mean(clean, nil)
	d.StdDev = stat.StdDev(clean, nil)
	if len(clean) == 1 {
		d.StdDev = 0
	}
	d.Median = stat.Quantile(0.5, stat.Empirical, clean, nil)
	return d
}
