package forcing

import (
	"math"
	"testing"
)

func TestNewValidatesTimeAxis(t *testing.T) {
	if _, err := New([]float64{0}, nil); err == nil {
		t.Fatal("expected error for single timestamp")
	}
	if _, err := New([]float64{0, 1, 1}, nil); err == nil {
		t.Fatal("expected error for non-increasing timestamps")
	}
	if _, err := New([]float64{0, 1, 2}, map[string][]float64{"P": {1, 2}}); err == nil {
		t.Fatal("expected error for misaligned field")
	}
}

func TestNewDerivesYday(t *testing.T) {
	s, err := New([]float64{0, 364, 365, 730}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	want := []float64{1, 365, 1, 1}
	for i, w := range want {
		if s.Yday[i] != w {
			t.Fatalf("yday[%d] = %g, want %g", i, s.Yday[i], w)
		}
	}
}

func TestNewKeepsSuppliedYday(t *testing.T) {
	yday := []float64{10, 11, 12}
	s, err := New([]float64{0, 1, 2}, map[string][]float64{"yday": yday})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Yday[0] != 10 || s.Yday[2] != 12 {
		t.Fatalf("unexpected yday: %v", s.Yday)
	}
	if _, ok := s.Fields["yday"]; ok {
		t.Fatal("yday must not be kept as an ancillary field")
	}
}

func TestAtInterpolatesAndClamps(t *testing.T) {
	s, err := New([]float64{0, 10, 20}, map[string][]float64{"P": {0, 100, 200}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := s.At("P", 5, 0); got != 50 {
		t.Fatalf("At(5) = %g, want 50", got)
	}
	if got := s.At("P", -3, 0); got != 0 {
		t.Fatalf("At(-3) = %g, want 0 (clamped)", got)
	}
	if got := s.At("P", 99, 0); got != 200 {
		t.Fatalf("At(99) = %g, want 200 (clamped)", got)
	}
	if got := s.At("missing", 5, -1); got != -1 {
		t.Fatalf("At(missing) = %g, want default", got)
	}
}

func TestIndexAtOrAfter(t *testing.T) {
	s, err := New([]float64{0, 10, 20}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if i := s.IndexAtOrAfter(10); i != 1 {
		t.Fatalf("IndexAtOrAfter(10) = %d, want 1", i)
	}
	if i := s.IndexAtOrAfter(11); i != 2 {
		t.Fatalf("IndexAtOrAfter(11) = %d, want 2", i)
	}
	if i := s.IndexAtOrAfter(25); i != 3 {
		t.Fatalf("IndexAtOrAfter(25) = %d, want Len()", i)
	}
}

func TestSeasonalShapeAndPeriodicity(t *testing.T) {
	cfg := DefaultSeasonalConfig()
	cfg.Years = 2
	s, err := Seasonal(cfg)
	if err != nil {
		t.Fatalf("seasonal: %v", err)
	}
	if s.End() < 2*DaysPerYear-1 {
		t.Fatalf("series too short: end=%g", s.End())
	}
	prey := s.Field("P")
	temp := s.Field("T")
	if prey == nil || temp == nil {
		t.Fatal("expected P and T fields")
	}
	// Bloom repeats year over year.
	y1 := s.At("P", cfg.BloomYday, 0)
	y2 := s.At("P", cfg.BloomYday+DaysPerYear, 0)
	if math.Abs(y1-y2) > 1e-9 {
		t.Fatalf("bloom not periodic: %g vs %g", y1, y2)
	}
	if y1 < cfg.PreyMax*0.95 {
		t.Fatalf("bloom peak too low: %g", y1)
	}
	for i, v := range prey {
		if v < cfg.PreyFloor-1e-9 {
			t.Fatalf("prey below floor at %d: %g", i, v)
		}
	}
}

func TestSeasonalRejectsBadConfig(t *testing.T) {
	cfg := DefaultSeasonalConfig()
	cfg.Years = 0
	if _, err := Seasonal(cfg); err == nil {
		t.Fatal("expected error for years = 0")
	}
	cfg = DefaultSeasonalConfig()
	cfg.Step = 0
	if _, err := Seasonal(cfg); err == nil {
		t.Fatal("expected error for step = 0")
	}
}
