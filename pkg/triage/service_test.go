package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/medicast/triage/pkg/common/models"
	"github.com/medicast/triage/pkg/decision"
	"github.com/medicast/triage/pkg/vitals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func admitRequest() AdmitRequest {
	return AdmitRequest{
		Name:           "A",
		Age:            intPtr(40),
		Gender:         "M",
		ChiefComplaint: "Chest pain",
		Vitals: &vitals.Vitals{
			HeartRate:   vitals.Float(90),
			SpO2:        vitals.Float(96),
			BPSystolic:  vitals.Float(120),
			BPDiastolic: vitals.Float(80),
		},
	}
}

func TestAdmitDefaultsStatusAndRecordsInitialDecision(t *testing.T) {
	h := newHarness()
	h.evaluator.decisions["A"] = makeDecision(35, decision.LevelLow, "MONITOR")

	result, err := h.service.Admit(context.Background(), admitRequest())
	require.NoError(t, err)

	p := result.Patient
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, StatusWaiting, p.Status)
	assert.Len(t, p.VitalsHistory, 1)
	assert.Equal(t, h.now, p.VitalsHistory[0].Timestamp)
	assert.Equal(t, 96.0, *p.Vitals().SpO2)
	require.NotNil(t, result.InitialDecision)
	assert.Equal(t, 35, p.RiskScore)
	assert.Equal(t, TrendStable, p.AcuityTrend)
	require.Len(t, p.ActionsHistory, 1)
	assert.Equal(t, "MONITOR", p.ActionsHistory[0].Action)

	stored := h.store.get(p.ID)
	assert.Equal(t, 35, stored.RiskScore)
	assert.Len(t, stored.ActionsHistory, 1)
	assert.Equal(t, []string{models.EventPatientAdmitted, models.EventPatientEvaluated}, h.publisher.types())
	assert.Equal(t, 2, h.cache.invalidated, "entity write and decision save")
}

func TestListAfterAdmitShowsRecordedDecision(t *testing.T) {
	h := newHarness()
	h.evaluator.decisions["A"] = makeDecision(88, decision.LevelCritical, "ESCALATE_ICU")
	h.evaluator.during = func(int) {
		// a dashboard poll while the decision call is in flight warms the cache
		_, err := h.service.List(context.Background())
		require.NoError(t, err)
	}

	result, err := h.service.Admit(context.Background(), admitRequest())
	require.NoError(t, err)
	require.Equal(t, 88, result.Patient.RiskScore)

	patients, err := h.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, 88, patients[0].RiskScore)
	assert.Len(t, patients[0].ActionsHistory, 1)
}

func TestAdmitSurvivesUnavailableDecisionService(t *testing.T) {
	h := newHarness()
	h.evaluator.errs["A"] = decision.ErrServiceUnavailable

	result, err := h.service.Admit(context.Background(), admitRequest())
	require.NoError(t, err)

	assert.Nil(t, result.InitialDecision)
	assert.Equal(t, 0, result.Patient.RiskScore)
	assert.Empty(t, result.Patient.ActionsHistory)

	stored := h.store.get(result.Patient.ID)
	assert.Equal(t, "A", stored.Name)
	assert.Len(t, stored.VitalsHistory, 1)
}

func TestAdmitWithoutVitalsStillSeedsHistory(t *testing.T) {
	h := newHarness()
	req := admitRequest()
	req.Vitals = nil
	req.Status = "er"

	result, err := h.service.Admit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, StatusER, result.Patient.Status)
	require.Len(t, result.Patient.VitalsHistory, 1)
	assert.Nil(t, result.Patient.VitalsHistory[0].SpO2)
}

func TestAdmitRejectsMissingFields(t *testing.T) {
	h := newHarness()
	req := admitRequest()
	req.Name = " "
	req.Age = nil

	_, err := h.service.Admit(context.Background(), req)

	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "age")
	assert.Empty(t, h.store.order)
	assert.Empty(t, h.evaluator.calls)
}

func TestAdmitRejectsUnknownStatus(t *testing.T) {
	h := newHarness()
	req := admitRequest()
	req.Status = "MORGUE"

	_, err := h.service.Admit(context.Background(), req)

	assert.True(t, IsValidationError(err))
	assert.Empty(t, h.store.order)
}

func TestUpdateAppliesPatchAndAppendsVitals(t *testing.T) {
	h := newHarness()
	h.store.put(seededPatient("p1", "A", StatusWaiting))
	h.evaluator.decisions["B"] = makeDecision(91, decision.LevelCritical, "ESCALATE_ICU")

	result, err := h.service.Update(context.Background(), "p1", PatientPatch{
		Name:   strPtr("B"),
		Age:    intPtr(0),
		Status: strPtr("ICU"),
		Vitals: &vitals.Vitals{HeartRate: vitals.Float(130), SpO2: vitals.Float(85)},
	})
	require.NoError(t, err)

	p := result.Patient
	assert.Equal(t, "B", p.Name)
	assert.Equal(t, 0, p.Age, "explicit zero overwrites")
	assert.Equal(t, "M", p.Gender, "absent field untouched")
	assert.Equal(t, StatusICU, p.Status)
	assert.Equal(t, 85.0, *p.Vitals().SpO2)
	require.Len(t, p.VitalsHistory, 2)
	assert.Equal(t, 85.0, *p.VitalsHistory[1].SpO2)
	require.NotNil(t, result.Decision)
	assert.Equal(t, 91, p.RiskScore)
	assert.Equal(t, TrendDeteriorating, p.AcuityTrend)

	stored := h.store.get("p1")
	assert.Len(t, stored.VitalsHistory, 2)
	assert.Len(t, stored.ActionsHistory, 1)
}

func TestUpdateWithoutVitalsKeepsHistory(t *testing.T) {
	h := newHarness()
	h.store.put(seededPatient("p1", "A", StatusWaiting))

	result, err := h.service.Update(context.Background(), "p1", PatientPatch{ChiefComplaint: strPtr("Dyspnoea")})
	require.NoError(t, err)

	assert.Nil(t, result.Decision)
	assert.Equal(t, "Dyspnoea", result.Patient.ChiefComplaint)
	assert.Len(t, result.Patient.VitalsHistory, 1)
	assert.Equal(t, "Dyspnoea", h.store.get("p1").ChiefComplaint)
}

func TestUpdateMissingPatient(t *testing.T) {
	h := newHarness()

	_, err := h.service.Update(context.Background(), "nope", PatientPatch{Name: strPtr("B")})

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, h.evaluator.calls)
}

func TestUpdateIgnoresEmptyStrings(t *testing.T) {
	h := newHarness()
	h.store.put(seededPatient("p1", "A", StatusWaiting))

	result, err := h.service.Update(context.Background(), "p1", PatientPatch{
		Name:   strPtr(""),
		Gender: strPtr(""),
		Status: strPtr(""),
		Vitals: &vitals.Vitals{HeartRate: vitals.Float(110), SpO2: vitals.Float(91)},
	})
	require.NoError(t, err)

	stored := h.store.get("p1")
	assert.Equal(t, "A", stored.Name)
	assert.Equal(t, "M", stored.Gender)
	assert.Equal(t, StatusWaiting, stored.Status)
	assert.Len(t, stored.VitalsHistory, 2)
	assert.Equal(t, 91.0, *result.Patient.Vitals().SpO2)
}

func TestUpdateStorageFailureSkipsEvaluation(t *testing.T) {
	h := newHarness()
	h.store.put(seededPatient("p1", "A", StatusWaiting))
	h.evaluator.decisions["A"] = makeDecision(60, decision.LevelHigh, "ADMIT_WARD")
	h.store.saveErr["p1"] = errors.New("disk full")

	_, err := h.service.Update(context.Background(), "p1", PatientPatch{Name: strPtr("A")})

	assert.True(t, errors.Is(err, ErrStorage))
	assert.Empty(t, h.evaluator.calls, "evaluation only after a durable write")
}

func TestDecisionNotAppliedWhenItsSaveFails(t *testing.T) {
	h := newHarness()
	h.store.put(seededPatient("p1", "A", StatusWaiting))
	h.evaluator.decisions["A"] = makeDecision(60, decision.LevelHigh, "ADMIT_WARD")
	h.store.failSave = 2

	result, err := h.service.Update(context.Background(), "p1", PatientPatch{ChiefComplaint: strPtr("Fever")})
	require.NoError(t, err)

	assert.Nil(t, result.Decision)
	assert.Equal(t, 0, result.Patient.RiskScore)
	assert.Empty(t, result.Patient.ActionsHistory)
	assert.Equal(t, TrendImproving, result.Patient.AcuityTrend)

	stored := h.store.get("p1")
	assert.Equal(t, "Fever", stored.ChiefComplaint)
	assert.Empty(t, stored.ActionsHistory)
	assert.NotContains(t, h.publisher.types(), models.EventPatientEvaluated)
}

func TestDeletePatient(t *testing.T) {
	h := newHarness()
	h.store.put(seededPatient("p1", "A", StatusWaiting))

	deleted, err := h.service.Delete(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", deleted.ID)

	_, err = h.service.Get(context.Background(), "p1")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = h.service.Delete(context.Background(), "p1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, h.publisher.types(), models.EventPatientDeleted)
}

func TestListIsServedFromCacheUntilMutation(t *testing.T) {
	h := newHarness()
	h.store.put(seededPatient("p1", "A", StatusWaiting))

	first, err := h.service.List(context.Background())
	require.NoError(t, err)
	second, err := h.service.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, h.cache.sets)

	_, err = h.service.Update(context.Background(), "p1", PatientPatch{Name: strPtr("Z")})
	require.NoError(t, err)
	assert.False(t, h.cache.warm)

	third, err := h.service.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Z", third[0].Name)
	assert.Equal(t, 2, h.cache.sets)
}

func TestListStorageFailure(t *testing.T) {
	h := newHarness()
	h.store.listErr = errors.New("connection refused")

	_, err := h.service.List(context.Background())

	assert.True(t, errors.Is(err, ErrStorage))
}

func TestPublishFailureDoesNotFailAdmission(t *testing.T) {
	h := newHarness()
	h.publisher.err = errors.New("broker down")

	result, err := h.service.Admit(context.Background(), admitRequest())

	require.NoError(t, err)
	assert.NotNil(t, result.Patient)
}
