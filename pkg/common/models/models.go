package models

import (
	"time"
)

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // patient.admitted, patient.evaluated, simulation.step, ...
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Triage event types published on the triage topic.
const (
	EventPatientAdmitted  = "patient.admitted"
	EventPatientUpdated   = "patient.updated"
	EventPatientDeleted   = "patient.deleted"
	EventPatientEvaluated = "patient.evaluated"
	EventSimulationStep   = "simulation.step"
)

// StringField reads a string value from event data, tolerating absent keys.
func (e Event) StringField(key string) string {
	if e.Data == nil {
		return ""
	}
	if v, ok := e.Data[key].(string); ok {
		return v
	}
	return ""
}

// NumberField reads a numeric value from event data. JSON-decoded events carry
// float64; locally built events may carry int.
func (e Event) NumberField(key string) (float64, bool) {
	if e.Data == nil {
		return 0, false
	}
	switch v := e.Data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
