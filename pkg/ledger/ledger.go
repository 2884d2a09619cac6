// Package ledger owns the hospital bed ledger: the singleton HospitalState
// record and the random-walk tick applied once per simulation step.
package ledger

import "time"

// Source yields uniform values in [0, 1).
type Source interface {
	Float64() float64
}

type Params struct {
	ICUChangeThreshold  float64 `yaml:"icu_change_threshold"`
	WardChangeThreshold float64 `yaml:"ward_change_threshold"`
}

// DefaultParams gives an ICU move probability of 0.3 and a ward move probability of 0.4.
func DefaultParams() Params {
	return Params{
		ICUChangeThreshold:  0.7,
		WardChangeThreshold: 0.6,
	}
}

// Tick returns state after one admission/discharge random walk. Draw order is
// ICU roll, ICU direction (only when the roll hits), ward roll, ward direction.
func Tick(src Source, state HospitalState, p Params, now time.Time) HospitalState {
	next := state

	if src.Float64() > p.ICUChangeThreshold {
		next.ICUBedsOccupied = clampInt(next.ICUBedsOccupied+direction(src), 0, next.ICUBedsTotal)
	}
	if src.Float64() > p.WardChangeThreshold {
		next.WardBedsOccupied = clampInt(next.WardBedsOccupied+direction(src), 0, next.WardBedsTotal)
	}

	next.LastUpdated = now
	return next
}

func direction(src Source) int {
	if src.Float64() > 0.5 {
		return 1
	}
	return -1
}
