// Package vitals holds the vital-sign snapshot type and the fluctuation
// engine used by the triage simulation.
package vitals

import "time"

// Vitals is one captured set of vital signs. Numeric fields are pointers so
// that an unmeasured value is distinguishable from a measured zero.
type Vitals struct {
	HeartRate       *float64  `json:"heartRate,omitempty"`
	BPSystolic      *float64  `json:"bpSystolic,omitempty"`
	BPDiastolic     *float64  `json:"bpDiastolic,omitempty"`
	SpO2            *float64  `json:"spO2,omitempty"`
	Temperature     *float64  `json:"temperature,omitempty"`
	RespiratoryRate *float64  `json:"respiratoryRate,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Float returns a pointer to v, for building Vitals literals.
func Float(v float64) *float64 {
	return &v
}

// Clone returns a deep copy so callers can mutate without aliasing history entries.
func (v Vitals) Clone() Vitals {
	out := Vitals{Timestamp: v.Timestamp}
	out.HeartRate = clonePtr(v.HeartRate)
	out.BPSystolic = clonePtr(v.BPSystolic)
	out.BPDiastolic = clonePtr(v.BPDiastolic)
	out.SpO2 = clonePtr(v.SpO2)
	out.Temperature = clonePtr(v.Temperature)
	out.RespiratoryRate = clonePtr(v.RespiratoryRate)
	return out
}

// Stamped returns a copy with Timestamp set to now when it was left empty.
func (v Vitals) Stamped(now time.Time) Vitals {
	out := v.Clone()
	if out.Timestamp.IsZero() {
		out.Timestamp = now
	}
	return out
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
