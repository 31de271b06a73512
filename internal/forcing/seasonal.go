package forcing

import (
	"fmt"
	"math"
)

// SeasonalConfig describes a synthetic subarctic forcing: a sinusoidal
// temperature cycle and a Gaussian prey bloom repeating every year.
type SeasonalConfig struct {
	Years        int
	Step         float64
	TempMean     float64
	TempRange    float64
	TempPeakYday float64
	PreyMax      float64
	PreyFloor    float64
	BloomYday    float64
	BloomWidth   float64
}

func DefaultSeasonalConfig() SeasonalConfig {
	return SeasonalConfig{
		Years:        3,
		Step:         1,
		TempMean:     4,
		TempRange:    6,
		TempPeakYday: 200,
		PreyMax:      400,
		PreyFloor:    5,
		BloomYday:    150,
		BloomWidth:   40,
	}
}

// Seasonal builds a synthetic forcing series with "T" (temperature, degC)
// and "P" (prey concentration, mg C m^-3) fields.
func Seasonal(cfg SeasonalConfig) (*Series, error) {
	if cfg.Years <= 0 {
		return nil, fmt.Errorf("seasonal forcing requires years > 0, got %d", cfg.Years)
	}
	if cfg.Step <= 0 {
		return nil, fmt.Errorf("seasonal forcing requires step > 0, got %g", cfg.Step)
	}

	n := int(float64(cfg.Years)*DaysPerYear/cfg.Step) + 1
	t := make([]float64, n)
	temp := make([]float64, n)
	prey := make([]float64, n)
	for i := 0; i < n; i++ {
		ti := float64(i) * cfg.Step
		t[i] = ti
		yday := math.Mod(ti, DaysPerYear)
		temp[i] = cfg.TempMean + 0.5*cfg.TempRange*math.Cos(2*math.Pi*(yday-cfg.TempPeakYday)/DaysPerYear)
		d := yday - cfg.BloomYday
		// Nearest bloom, so late-winter days feel the coming spring bloom.
		if d > DaysPerYear/2 {
			d -= DaysPerYear
		} else if d < -DaysPerYear/2 {
			d += DaysPerYear
		}
		prey[i] = cfg.PreyFloor + (cfg.PreyMax-cfg.PreyFloor)*math.Exp(-d*d/(2*cfg.BloomWidth*cfg.BloomWidth))
	}

	return New(t, map[string][]float64{"T": temp, "P": prey})
}
