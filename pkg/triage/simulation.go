package triage

import (
	"context"
	"fmt"

	"github.com/medicast/triage/pkg/common/logger"
	"github.com/medicast/triage/pkg/common/models"
	"github.com/medicast/triage/pkg/decision"
	"github.com/medicast/triage/pkg/ledger"
	"github.com/medicast/triage/pkg/observability/metrics"
	"github.com/medicast/triage/pkg/vitals"
)

const stepCompleteMessage = "Simulation step complete"

type StepResult struct {
	PatientID string             `json:"patientId"`
	Name      string             `json:"name"`
	Decision  *decision.Decision `json:"decision"`
	Error     string             `json:"error,omitempty"`
}

type StepReport struct {
	Message       string                `json:"message"`
	Results       []StepResult          `json:"results"`
	HospitalState *ledger.HospitalState `json:"hospitalState"`
}

// RunStep advances every non-discharged patient by one tick, one patient at
// a time. All evaluations in the step see the same hospital snapshot, and the
// ledger moves only after the last patient. Only the patient listing is
// fatal. Results cover the patients that reached the decision service; a
// patient whose ticked vitals could not be saved is logged and skipped.
func (s *Service) RunStep(ctx context.Context) (*StepReport, error) {
	patients, err := s.patients.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing active patients: %v", ErrStorage, err)
	}

	hospital, hospitalOK := s.snapshot(ctx)
	results := make([]StepResult, 0, len(patients))
	failed := 0

	for i := range patients {
		p := &patients[i]

		// Tick vitals replace currentVitals in place; vitalsHistory only
		// grows through admission and manual updates.
		p.SetVitals(vitals.Fluctuate(s.rng, p.Vitals(), s.params.Vitals))
		if err := s.patients.Save(ctx, p); err != nil {
			logger.Log.WithError(err).WithField("patient_id", p.ID).Error("failed to persist simulated vitals")
			failed++
			continue
		}

		result := StepResult{PatientID: p.ID, Name: p.Name}

		d, err := s.evaluate(ctx, p, hospital)
		if err != nil {
			logEvaluationFailure(err, p, "simulation")
			result.Error = err.Error()
			failed++
		}
		result.Decision = d
		results = append(results, result)
	}

	report := &StepReport{Message: stepCompleteMessage, Results: results}
	if hospitalOK {
		report.HospitalState = s.tickLedger(ctx, hospital)
	}

	s.invalidate(ctx)
	metrics.ObserveStep(len(patients))

	stepData := map[string]interface{}{
		"patients":  len(patients),
		"evaluated": len(patients) - failed,
		"failed":    failed,
	}
	if report.HospitalState != nil {
		stepData["icuBedsOccupied"] = report.HospitalState.ICUBedsOccupied
		stepData["wardBedsOccupied"] = report.HospitalState.WardBedsOccupied
	}
	s.publish(ctx, models.EventSimulationStep, "simulation", stepData)

	logger.Log.WithFields(map[string]interface{}{
		"patients": len(patients),
		"failed":   failed,
	}).Info("simulation step complete")

	return report, nil
}

// tickLedger applies one ledger tick and writes it back. When the write
// fails the pre-tick snapshot is reported instead.
func (s *Service) tickLedger(ctx context.Context, hospital ledger.HospitalState) *ledger.HospitalState {
	next := ledger.Tick(s.rng, hospital, s.params.Ledger, s.now())
	if err := s.hospital.Save(ctx, &next); err != nil {
		logger.Log.WithError(err).Error("failed to persist hospital state")
		return &hospital
	}
	metrics.ObserveLedger(next.ICUBedsOccupied, next.WardBedsOccupied)
	return &next
}
