package triage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medicast/triage/pkg/vitals"
)

var (
	ErrNotFound = errors.New("patient not found")
	// ErrStorage marks failures of the persistence layer itself.
	ErrStorage = errors.New("storage failure")

	errMissingField  = errors.New("missing required field")
	errInvalidStatus = errors.New("invalid status")
	errInvalidAge    = errors.New("invalid age")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

type AdmitRequest struct {
	Name           string         `json:"name"`
	Age            *int           `json:"age"`
	Gender         string         `json:"gender"`
	ChiefComplaint string         `json:"chiefComplaint"`
	Vitals         *vitals.Vitals `json:"vitals"`
	Status         string         `json:"status,omitempty"`
}

// Validate checks required fields and resolves the initial status, which
// defaults to WAITING.
func (r AdmitRequest) Validate() (Status, error) {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if r.Age == nil {
		missing = append(missing, "age")
	}
	if strings.TrimSpace(r.Gender) == "" {
		missing = append(missing, "gender")
	}
	if strings.TrimSpace(r.ChiefComplaint) == "" {
		missing = append(missing, "chiefComplaint")
	}
	if len(missing) > 0 {
		return "", ValidationError{reason: fmt.Errorf("%w: %s", errMissingField, strings.Join(missing, ", "))}
	}
	if *r.Age < 0 {
		return "", ValidationError{reason: fmt.Errorf("%w: %d", errInvalidAge, *r.Age)}
	}

	if strings.TrimSpace(r.Status) == "" {
		return StatusWaiting, nil
	}
	status, ok := ParseStatus(r.Status)
	if !ok {
		return "", ValidationError{reason: fmt.Errorf("%w: %q", errInvalidStatus, r.Status)}
	}
	return status, nil
}

// PatientPatch is a partial update. Absent fields and empty strings are
// left untouched; any other provided value overwrites, including numeric zero.
type PatientPatch struct {
	Name           *string        `json:"name,omitempty"`
	Age            *int           `json:"age,omitempty"`
	Gender         *string        `json:"gender,omitempty"`
	ChiefComplaint *string        `json:"chiefComplaint,omitempty"`
	Status         *string        `json:"status,omitempty"`
	Vitals         *vitals.Vitals `json:"vitals,omitempty"`
}

func (pp PatientPatch) Validate() error {
	if pp.Age != nil && *pp.Age < 0 {
		return ValidationError{reason: fmt.Errorf("%w: %d", errInvalidAge, *pp.Age)}
	}
	if status, ok := present(pp.Status); ok {
		if _, valid := ParseStatus(status); !valid {
			return ValidationError{reason: fmt.Errorf("%w: %q", errInvalidStatus, status)}
		}
	}
	return nil
}

// Apply writes the present fields onto p. Vitals replace the current
// snapshot and are appended to the history.
func (pp PatientPatch) Apply(p *Patient, now time.Time) {
	if name, ok := present(pp.Name); ok {
		p.Name = name
	}
	if pp.Age != nil {
		p.Age = *pp.Age
	}
	if gender, ok := present(pp.Gender); ok {
		p.Gender = gender
	}
	if complaint, ok := present(pp.ChiefComplaint); ok {
		p.ChiefComplaint = complaint
	}
	if raw, ok := present(pp.Status); ok {
		if status, valid := ParseStatus(raw); valid {
			p.Status = status
		}
	}
	if pp.Vitals != nil {
		v := pp.Vitals.Stamped(now)
		p.SetVitals(v)
		p.VitalsHistory = append(p.VitalsHistory, v.Clone())
	}
}

// present reports the trimmed value of a non-empty string field.
func present(field *string) (string, bool) {
	if field == nil {
		return "", false
	}
	v := strings.TrimSpace(*field)
	return v, v != ""
}
