package decision

import (
	"github.com/medicast/triage/pkg/ledger"
	"github.com/medicast/triage/pkg/vitals"
)

// Level is the qualitative risk band returned by the decision service.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Subject is the patient view sent for evaluation.
type Subject struct {
	Name          string        `json:"name"`
	Status        string        `json:"status"`
	CurrentVitals vitals.Vitals `json:"currentVitals"`
}

// HospitalSnapshot is the subset of the ledger the decision service reads.
type HospitalSnapshot struct {
	ICUBedsTotal     int     `json:"icuBedsTotal"`
	ICUBedsOccupied  int     `json:"icuBedsOccupied"`
	WardBedsTotal    int     `json:"wardBedsTotal"`
	WardBedsOccupied int     `json:"wardBedsOccupied"`
	StaffLoad        float64 `json:"staffLoad"`
}

func SnapshotOf(state ledger.HospitalState) HospitalSnapshot {
	return HospitalSnapshot{
		ICUBedsTotal:     state.ICUBedsTotal,
		ICUBedsOccupied:  state.ICUBedsOccupied,
		WardBedsTotal:    state.WardBedsTotal,
		WardBedsOccupied: state.WardBedsOccupied,
		StaffLoad:        state.StaffLoad,
	}
}

type EvaluateRequest struct {
	Patient       Subject          `json:"patient"`
	HospitalState HospitalSnapshot `json:"hospital_state"`
}

type RiskAnalysis struct {
	Score float64 `json:"score"`
	Level Level   `json:"level"`
}

type Recommendation struct {
	Action        string   `json:"action"`
	Reason        string   `json:"reason"`
	PriorityScore *float64 `json:"priority_score,omitempty"`
}

// Decision is the decision service response for one patient.
type Decision struct {
	RiskAnalysis RiskAnalysis   `json:"risk_analysis"`
	Decision     Recommendation `json:"decision"`
}
