package triage

import (
	"strings"
	"time"

	"github.com/medicast/triage/pkg/vitals"
	"gorm.io/datatypes"
)

// Status is a patient's care-location tag. Any status may move to any other.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusER         Status = "ER"
	StatusICU        Status = "ICU"
	StatusWard       Status = "WARD"
	StatusDischarged Status = "DISCHARGED"
)

// ParseStatus normalises case and reports whether s names a known status.
func ParseStatus(s string) (Status, bool) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case StatusWaiting, StatusER, StatusICU, StatusWard, StatusDischarged:
		return status, true
	}
	return "", false
}

type Trend string

const (
	TrendStable        Trend = "STABLE"
	TrendImproving     Trend = "IMPROVING"
	TrendDeteriorating Trend = "DETERIORATING"
)

// ActionRecord is one audit entry for an automated decision. Entries are
// appended and never edited.
type ActionRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Reason    string    `json:"reason"`
	Agent     string    `json:"agent"`
}

type Patient struct {
	ID             string                             `json:"id" gorm:"primaryKey;column:id"`
	Name           string                             `json:"name" gorm:"column:name"`
	Age            int                                `json:"age" gorm:"column:age"`
	Gender         string                             `json:"gender" gorm:"column:gender"`
	ChiefComplaint string                             `json:"chiefComplaint" gorm:"column:chief_complaint"`
	AdmissionTime  time.Time                          `json:"admissionTime" gorm:"column:admission_time"`
	Status         Status                             `json:"status" gorm:"column:status;index"`
	CurrentVitals  datatypes.JSONType[vitals.Vitals]  `json:"currentVitals" gorm:"column:current_vitals"`
	RiskScore      int                                `json:"riskScore" gorm:"column:risk_score"`
	AcuityTrend    Trend                              `json:"acuityTrend" gorm:"column:acuity_trend"`
	VitalsHistory  datatypes.JSONSlice[vitals.Vitals] `json:"vitalsHistory" gorm:"column:vitals_history"`
	ActionsHistory datatypes.JSONSlice[ActionRecord]  `json:"actionsHistory" gorm:"column:actions_history"`
	CreatedAt      time.Time                          `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt      time.Time                          `json:"updatedAt" gorm:"column:updated_at"`
}

func (Patient) TableName() string {
	return "patients"
}

func (p Patient) Vitals() vitals.Vitals {
	return p.CurrentVitals.Data()
}

func (p *Patient) SetVitals(v vitals.Vitals) {
	p.CurrentVitals = datatypes.NewJSONType(v)
}

// Clone copies the patient including its history slices, so appends on the
// copy never reach the receiver's backing arrays.
func (p Patient) Clone() Patient {
	out := p
	out.CurrentVitals = datatypes.NewJSONType(p.Vitals().Clone())

	out.VitalsHistory = make(datatypes.JSONSlice[vitals.Vitals], 0, len(p.VitalsHistory))
	for _, v := range p.VitalsHistory {
		out.VitalsHistory = append(out.VitalsHistory, v.Clone())
	}
	out.ActionsHistory = make(datatypes.JSONSlice[ActionRecord], len(p.ActionsHistory))
	copy(out.ActionsHistory, p.ActionsHistory)
	return out
}
