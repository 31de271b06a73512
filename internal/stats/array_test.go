package stats

import (
	"math"
	"reflect"
	"testing"
)

func TestNewArrayShapeAndNaNFill(t *testing.T) {
	a, err := NewArray([]int{3, 2})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if a.Len() != 6 {
		t.Fatalf("len = %d, want 6", a.Len())
	}
	for i := 0; i < a.Len(); i++ {
		if !math.IsNaN(a.Data[i]) {
			t.Fatalf("cell %d not NaN-initialized", i)
		}
	}
	if _, err := NewArray(nil); err == nil {
		t.Fatal("expected error for empty shape")
	}
	if _, err := NewArray([]int{2, 0}); err == nil {
		t.Fatal("expected error for zero extent")
	}
}

func TestFlatIndexRoundTrip(t *testing.T) {
	shape := []int{3, 2, 4}
	a, _ := NewArray(shape)
	for k := 0; k < a.Len(); k++ {
		a.SetFlat(k, float64(k))
	}
	for k := 0; k < a.Len(); k++ {
		idx := Unflatten(shape, k)
		if got := a.At(idx...); got != float64(k) {
			t.Fatalf("At(%v) = %g, want %d", idx, got, k)
		}
	}
	// Last axis varies fastest.
	if !reflect.DeepEqual(Unflatten(shape, 1), []int{0, 0, 1}) {
		t.Fatalf("unexpected unflatten: %v", Unflatten(shape, 1))
	}
	if !reflect.DeepEqual(Unflatten(shape, 8), []int{1, 0, 0}) {
		t.Fatalf("unexpected unflatten: %v", Unflatten(shape, 8))
	}
}

func TestSqueezeRule(t *testing.T) {
	cases := []struct {
		in, want []int
	}{
		{[]int{3, 1, 2}, []int{3, 2}},
		{[]int{1, 5}, []int{5}},
		{[]int{4}, []int{4}},
		{[]int{1}, []int{1}},
		{[]int{1, 1, 1}, []int{1}},
	}
	for _, tc := range cases {
		if got := Squeeze(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Squeeze(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSqueezedSharesData(t *testing.T) {
	a, _ := NewArray([]int{1, 3, 1})
	a.SetFlat(1, 7)
	sq := a.Squeezed()
	if !reflect.DeepEqual(sq.Shape, []int{3}) {
		t.Fatalf("squeezed shape = %v", sq.Shape)
	}
	if sq.At(1) != 7 {
		t.Fatalf("squeezed data not shared: %g", sq.At(1))
	}
}

func TestDescribeSkipsNaN(t *testing.T) {
	d := Describe([]float64{1, math.NaN(), 3, 2})
	if d.Count != 3 {
		t.Fatalf("count = %d, want 3", d.Count)
	}
	if d.Mean != 2 || d.Min != 1 || d.Max != 3 {
		t.Fatalf("unexpected description: %+v", d)
	}
	if d.Median != 2 {
		t.Fatalf("median = %g, want 2", d.Median)
	}
}

func TestDescribeEmpty(t *testing.T) {
	d := Describe([]float64{math.NaN()})
	if d.Count != 0 || !math.IsNaN(d.Mean) {
		t.Fatalf("unexpected description: %+v", d)
	}
}
