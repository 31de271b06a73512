// Package stats holds the grid-shaped summary arrays built across an
// ensemble sweep and descriptive statistics over their contents.
package stats

import (
	"fmt"
	"math"
)

// Array is a dense row-major N-dimensional array of float64. The last axis
// varies fastest, matching the linear case index of an ensemble sweep.
type Array struct {
	Shape []int
	Data  []float64
}

// NewArray allocates an array of the given shape, initialized to NaN so
// cells never written (failed cases) are distinguishable from zeros.
func NewArray(shape []int) (*Array, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("array shape must have at least one axis")
	}
	n := 1
	for i, extent := range shape {
		if extent <= 0 {
			return nil, fmt.Errorf("array axis %d has non-positive extent %d", i, extent)
		}
		n *= extent
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = math.NaN()
	}
	return &Array{Shape: append([]int(nil), shape...), Data: data}, nil
}

func (a *Array) Len() int { return len(a.Data) }

// SetFlat writes the cell at linear index k.
func (a *Array) SetFlat(k int, v float64) { a.Data[k] = v }

// At reads the cell at the multidimensional index.
func (a *Array) At(idx ...int) float64 {
	return a.Data[a.flatten(idx)]
}

func (a *Array) flatten(idx []int) int {
	if len(idx) != len(a.Shape) {
		panic(fmt.Sprintf("index rank %d does not match shape rank %d", len(idx), len(a.Shape)))
	}
	k := 0
	for i, x := range idx {
		if x < 0 || x >= a.Shape[i] {
			panic(fmt.Sprintf("index %d out of range for axis %d (extent %d)", x, i, a.Shape[i]))
		}
		k = k*a.Shape[i] + x
	}
	return k
}

// Unflatten converts a linear case index back to the multidimensional index.
func Unflatten(shape []int, k int) []int {
	idx := make([]int, len(shape))
	for i := len(shape) - 1; i >= 0; i-- {
		idx[i] = k % shape[i]
		k /= shape[i]
	}
	return idx
}

// Squeeze drops every axis of extent 1, except that a result of rank zero
// is kept at rank 1.
func Squeeze(shape []int) []int {
	out := make([]int, 0, len(shape))
	for _, extent := range shape {
		if extent != 1 {
			out = append(out, extent)
		}
	}
	if len(out) == 0 {
		out = append(out, 1)
	}
	return out
}

// Squeezed returns a view of the array with singleton axes dropped per the
// Squeeze rule. Data is shared with the receiver.
func (a *Array) Squeezed() *Array {
	return &Array{Shape: Squeeze(a.Shape), Data: a.Data}
}
