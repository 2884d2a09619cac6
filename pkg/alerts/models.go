// Package alerts turns evaluation events from the triage topic into
// dashboard alerts and serves them over HTTP.
package alerts

import "time"

type Type string

const (
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
	TypeDanger  Type = "danger"
	TypeSuccess Type = "success"
)

type Alert struct {
	ID        string    `json:"id" gorm:"primaryKey;column:id"`
	Title     string    `json:"title" gorm:"column:title"`
	Message   string    `json:"message" gorm:"column:message"`
	Type      Type      `json:"type" gorm:"column:type"`
	PatientID string    `json:"patientId" gorm:"column:patient_id;index"`
	Read      bool      `json:"read" gorm:"column:read;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at;index"`
}

func (Alert) TableName() string {
	return "alerts"
}

// Filter narrows a listing. A nil Read returns both read and unread alerts.
type Filter struct {
	Read  *bool
	Limit int
}
