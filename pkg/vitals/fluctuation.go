package vitals

import "math"

// Source yields uniform values in [0, 1). *math/rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Params bounds one fluctuation. DefaultParams matches the dashboard demo.
type Params struct {
	SpO2MaxStep       int     `yaml:"spo2_max_step"`
	SpO2BiasThreshold float64 `yaml:"spo2_bias_threshold"`
	SpO2BiasDrop      float64 `yaml:"spo2_bias_drop"`
	SpO2Min           float64 `yaml:"spo2_min"`
	SpO2Max           float64 `yaml:"spo2_max"`
	HeartRateMaxStep  int     `yaml:"heart_rate_max_step"`
	HeartRateMin      float64 `yaml:"heart_rate_min"`
}

func DefaultParams() Params {
	return Params{
		SpO2MaxStep:       3,
		SpO2BiasThreshold: 0.7,
		SpO2BiasDrop:      2,
		SpO2Min:           70,
		SpO2Max:           100,
		HeartRateMaxStep:  5,
		HeartRateMin:      40,
	}
}

// Fluctuate perturbs SpO2 and heart rate with a shared sign and returns the
// new snapshot; every other field is copied through. Draw order from src is
// sign, SpO2 step, SpO2 bias roll, heart-rate step; absent vitals skip their draws.
func Fluctuate(src Source, current Vitals, p Params) Vitals {
	next := current.Clone()

	sign := -1.0
	if src.Float64() > 0.5 {
		sign = 1
	}

	if next.SpO2 != nil {
		change := math.Floor(src.Float64()*float64(p.SpO2MaxStep)) * sign
		if src.Float64() > p.SpO2BiasThreshold {
			change -= p.SpO2BiasDrop
		}
		v := clamp(*next.SpO2+change, p.SpO2Min, p.SpO2Max)
		next.SpO2 = &v
	}

	if next.HeartRate != nil {
		change := math.Floor(src.Float64()*float64(p.HeartRateMaxStep)) * sign
		v := math.Max(p.HeartRateMin, *next.HeartRate+change)
		next.HeartRate = &v
	}

	return next
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
