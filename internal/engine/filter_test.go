package engine

import (
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"coltrane/internal/strategy"
)

func TestFilterViableScenario(t *testing.T) {
	// Two cohorts, two strategies; the second cohort spawns past the first
	// forcing year.
	l := &Landscape{
		F2: mat.NewDense(2, 2, []float64{
			0.5, 1.2,
			2.0, 0.9,
		}),
	}
	cohorts := strategy.Cohorts{T0: []float64{0, 400}}
	v := FilterViable(l, cohorts)
	if !reflect.DeepEqual(v.Strategies, []int{0, 1}) {
		t.Fatalf("viable strategies = %v, want [0 1]", v.Strategies)
	}
	if !reflect.DeepEqual(v.Cohorts, []int{0}) {
		t.Fatalf("viable cohorts = %v, want [0]", v.Cohorts)
	}
}

func TestFilterViableExactSets(t *testing.T) {
	f2 := mat.NewDense(3, 4, []float64{
		0.2, 0.0, 1.0, 0.3,
		0.9, 0.0, 0.4, 0.3,
		3.0, 0.0, 0.1, 1.1,
	})
	cohorts := strategy.Cohorts{T0: []float64{0, 100, 300}}
	v := FilterViable(&Landscape{F2: f2}, cohorts)

	// Strategy viable iff its column max >= 1, any cohort of any year.
	if !reflect.DeepEqual(v.Strategies, []int{0, 2, 3}) {
		t.Fatalf("viable strategies = %v, want [0 2 3]", v.Strategies)
	}
	// Cohort viable iff row max >= 1 and t0 within first year.
	if !reflect.DeepEqual(v.Cohorts, []int{0, 2}) {
		t.Fatalf("viable cohorts = %v, want [0 2]", v.Cohorts)
	}
}

func TestFilterViableEmpty(t *testing.T) {
	f2 := mat.NewDense(2, 2, []float64{0.1, 0.2, 0.3, 0.4})
	v := FilterViable(&Landscape{F2: f2}, strategy.Cohorts{T0: []float64{0, 50}})
	if len(v.Strategies) != 0 || len(v.Cohorts) != 0 {
		t.Fatalf("expected empty selection, got %+v", v)
	}
}

func TestFilterViableNilLandscape(t *testing.T) {
	v := FilterViable(&Landscape{}, strategy.Cohorts{T0: []float64{0}})
	if len(v.Strategies) != 0 || len(v.Cohorts) != 0 {
		t.Fatalf("expected empty selection, got %+v", v)
	}
}
