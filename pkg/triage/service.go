package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medicast/triage/pkg/common/logger"
	"github.com/medicast/triage/pkg/common/models"
	"github.com/medicast/triage/pkg/decision"
	"github.com/medicast/triage/pkg/ledger"
	"github.com/medicast/triage/pkg/observability/metrics"
	"github.com/medicast/triage/pkg/simulation"
	"github.com/medicast/triage/pkg/vitals"
	"gorm.io/datatypes"
)

type PatientStore interface {
	List(ctx context.Context) ([]Patient, error)
	ListActive(ctx context.Context) ([]Patient, error)
	Get(ctx context.Context, id string) (*Patient, error)
	Create(ctx context.Context, p *Patient) error
	Save(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id string) (*Patient, error)
}

type HospitalStore interface {
	GetOrCreate(ctx context.Context) (*ledger.HospitalState, error)
	Save(ctx context.Context, state *ledger.HospitalState) error
}

// Evaluator is satisfied by *decision.Client.
type Evaluator interface {
	Evaluate(ctx context.Context, subject decision.Subject, hospital ledger.HospitalState) (*decision.Decision, error)
}

type ListCache interface {
	Get(ctx context.Context) ([]Patient, bool, error)
	Set(ctx context.Context, patients []Patient) error
	Invalidate(ctx context.Context) error
}

// Dependencies wires a Service. Publisher, Cache, Random and Params are optional.
type Dependencies struct {
	Patients  PatientStore
	Hospital  HospitalStore
	Evaluator Evaluator
	Publisher Publisher
	Cache     ListCache
	Random    RandomSource
	Params    *simulation.Params
	Now       func() time.Time
}

type Service struct {
	patients  PatientStore
	hospital  HospitalStore
	evaluator Evaluator
	publisher Publisher
	cache     ListCache
	rng       RandomSource
	params    simulation.Params
	now       func() time.Time
}

func NewService(deps Dependencies) *Service {
	s := &Service{
		patients:  deps.Patients,
		hospital:  deps.Hospital,
		evaluator: deps.Evaluator,
		publisher: deps.Publisher,
		cache:     deps.Cache,
		rng:       deps.Random,
		params:    simulation.DefaultParams(),
		now:       deps.Now,
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	if s.rng == nil {
		s.rng = NewLockedSource(0)
	}
	if deps.Params != nil {
		s.params = *deps.Params
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

type AdmitResult struct {
	Patient         *Patient           `json:"patient"`
	InitialDecision *decision.Decision `json:"initialDecision"`
}

type UpdateResult struct {
	Patient  *Patient           `json:"patient"`
	Decision *decision.Decision `json:"decision"`
}

// List returns every patient, newest update first, from the cache when warm.
func (s *Service) List(ctx context.Context) ([]Patient, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil {
			logger.Log.WithError(err).Warn("patient cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing patients: %v", ErrStorage, err)
	}
	if patients == nil {
		patients = []Patient{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, patients); err != nil {
			logger.Log.WithError(err).Warn("patient cache write failed")
		}
	}
	return patients, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	p, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, storageErr("loading patient", err)
	}
	return p, nil
}

// Admit creates the patient, then attempts one evaluation. The admission is
// durable before the decision service is called; an evaluation failure leaves
// InitialDecision nil.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*AdmitResult, error) {
	status, err := req.Validate()
	if err != nil {
		return nil, err
	}

	now := s.now()
	initial := vitals.Vitals{}
	if req.Vitals != nil {
		initial = *req.Vitals
	}
	initial = initial.Stamped(now)

	p := &Patient{
		ID:             uuid.New().String(),
		Name:           strings.TrimSpace(req.Name),
		Age:            *req.Age,
		Gender:         strings.TrimSpace(req.Gender),
		ChiefComplaint: strings.TrimSpace(req.ChiefComplaint),
		AdmissionTime:  now,
		Status:         status,
		RiskScore:      0,
		AcuityTrend:    TrendStable,
		VitalsHistory:  datatypes.JSONSlice[vitals.Vitals]{initial.Clone()},
		ActionsHistory: datatypes.JSONSlice[ActionRecord]{},
		CreatedAt:      now,
	}
	p.SetVitals(initial)

	if err := s.patients.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("%w: admitting patient: %v", ErrStorage, err)
	}
	s.invalidate(ctx)
	metrics.ObserveAdmission()
	s.publish(ctx, models.EventPatientAdmitted, p.ID, patientEventData(p))

	hospital, _ := s.snapshot(ctx)
	d, err := s.evaluate(ctx, p, hospital)
	if err != nil {
		logEvaluationFailure(err, p, "admission")
	}

	return &AdmitResult{Patient: p, InitialDecision: d}, nil
}

// Update applies the patch, persists it, then attempts one re-evaluation
// under the same non-fatal policy as Admit.
func (s *Service) Update(ctx context.Context, id string, patch PatientPatch) (*UpdateResult, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	p, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, storageErr("loading patient", err)
	}

	patch.Apply(p, s.now())
	if err := s.patients.Save(ctx, p); err != nil {
		return nil, storageErr("updating patient", err)
	}
	s.invalidate(ctx)
	s.publish(ctx, models.EventPatientUpdated, p.ID, patientEventData(p))

	hospital, _ := s.snapshot(ctx)
	d, err := s.evaluate(ctx, p, hospital)
	if err != nil {
		logEvaluationFailure(err, p, "update")
	}

	return &UpdateResult{Patient: p, Decision: d}, nil
}

func (s *Service) Delete(ctx context.Context, id string) (*Patient, error) {
	p, err := s.patients.Delete(ctx, id)
	if err != nil {
		return nil, storageErr("deleting patient", err)
	}
	s.invalidate(ctx)
	s.publish(ctx, models.EventPatientDeleted, p.ID, patientEventData(p))
	return p, nil
}

// HospitalState returns the ledger snapshot, creating it on first access.
func (s *Service) HospitalState(ctx context.Context) (*ledger.HospitalState, error) {
	state, err := s.hospital.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading hospital state: %v", ErrStorage, err)
	}
	return state, nil
}

// snapshot reads the hospital state for evaluation payloads. When storage
// cannot produce one, evaluation proceeds against the defaults and ok is false.
func (s *Service) snapshot(ctx context.Context) (state ledger.HospitalState, ok bool) {
	current, err := s.hospital.GetOrCreate(ctx)
	if err != nil || current == nil {
		logger.Log.WithError(err).Warn("hospital state unavailable, evaluating against defaults")
		return ledger.DefaultState(), false
	}
	return *current, true
}

// evaluate calls the decision service and, on success, persists the
// decision on p in a single save. p is only modified once that save succeeds.
func (s *Service) evaluate(ctx context.Context, p *Patient, hospital ledger.HospitalState) (*decision.Decision, error) {
	subject := decision.Subject{
		Name:          p.Name,
		Status:        string(p.Status),
		CurrentVitals: p.Vitals(),
	}

	d, err := s.evaluator.Evaluate(ctx, subject, hospital)
	if err != nil {
		metrics.ObserveEvaluation(false)
		return nil, err
	}

	updated := p.Clone()
	ApplyDecision(&updated, *d, s.now())
	if err := s.patients.Save(ctx, &updated); err != nil {
		metrics.ObserveEvaluation(false)
		return nil, fmt.Errorf("%w: recording decision: %v", ErrStorage, err)
	}
	*p = updated
	s.invalidate(ctx)

	metrics.ObserveEvaluation(true)
	s.publish(ctx, models.EventPatientEvaluated, p.ID, evaluationEventData(p, d))
	return d, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Log.WithError(err).Warn("patient cache invalidation failed")
	}
}

func storageErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

func logEvaluationFailure(err error, p *Patient, trigger string) {
	logger.Log.WithError(err).WithFields(map[string]interface{}{
		"patient_id": p.ID,
		"patient":    p.Name,
		"trigger":    trigger,
	}).Warn("decision service unavailable, continuing without decision")
}
