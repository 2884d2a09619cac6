package triage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/medicast/triage/pkg/decision"
	"github.com/medicast/triage/pkg/ledger"
	"github.com/medicast/triage/pkg/vitals"
)

type fakeStore struct {
	mu       sync.Mutex
	patients map[string]Patient
	order    []string
	listErr  error
	saveErr  map[string]error
	// failSave fails the n-th call to Save (1-based) when non-zero.
	failSave int
	saves    int
	log      *[]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{patients: map[string]Patient{}, saveErr: map[string]error{}}
}

func (f *fakeStore) put(p Patient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.patients[p.ID]; !ok {
		f.order = append(f.order, p.ID)
	}
	f.patients[p.ID] = p.Clone()
}

func (f *fakeStore) get(id string) Patient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.patients[id].Clone()
}

func (f *fakeStore) List(ctx context.Context) ([]Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Patient, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.patients[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeStore) ListActive(ctx context.Context) ([]Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []Patient
	for _, id := range f.order {
		if p := f.patients[id]; p.Status != StatusDischarged {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (*Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := p.Clone()
	return &clone, nil
}

func (f *fakeStore) Create(ctx context.Context, p *Patient) error {
	f.put(*p)
	return nil
}

func (f *fakeStore) Save(ctx context.Context, p *Patient) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.saves++
	if f.failSave != 0 && f.saves == f.failSave {
		f.mu.Unlock()
		return errors.New("write conflict")
	}
	if err := f.saveErr[p.ID]; err != nil {
		f.mu.Unlock()
		return err
	}
	if _, ok := f.patients[p.ID]; !ok {
		f.mu.Unlock()
		return ErrNotFound
	}
	if f.log != nil {
		*f.log = append(*f.log, "save:"+p.Name)
	}
	f.mu.Unlock()
	p.UpdatedAt = time.Now().UTC()
	f.put(*p)
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) (*Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(f.patients, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return &p, nil
}

type fakeHospital struct {
	state   *ledger.HospitalState
	getErr  error
	saveErr error
	saves   []ledger.HospitalState
	log     *[]string
}

func newFakeHospital() *fakeHospital {
	state := ledger.DefaultState()
	state.ID = 1
	return &fakeHospital{state: &state}
}

func (f *fakeHospital) GetOrCreate(ctx context.Context) (*ledger.HospitalState, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copied := *f.state
	return &copied, nil
}

func (f *fakeHospital) Save(ctx context.Context, state *ledger.HospitalState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.log != nil {
		*f.log = append(*f.log, "ledger")
	}
	copied := *state
	f.state = &copied
	f.saves = append(f.saves, copied)
	return nil
}

type evalCall struct {
	subject  decision.Subject
	hospital ledger.HospitalState
}

type fakeEvaluator struct {
	decisions map[string]*decision.Decision
	errs      map[string]error
	calls     []evalCall
	log       *[]string
	// during runs inside Evaluate, before the decision is returned.
	during func(call int)
}

func newFakeEvaluator() *fakeEvaluator {
	return &fakeEvaluator{decisions: map[string]*decision.Decision{}, errs: map[string]error{}}
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, subject decision.Subject, hospital ledger.HospitalState) (*decision.Decision, error) {
	f.calls = append(f.calls, evalCall{subject: subject, hospital: hospital})
	if f.during != nil {
		f.during(len(f.calls))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.log != nil {
		*f.log = append(*f.log, "evaluate:"+subject.Name)
	}
	if err, ok := f.errs[subject.Name]; ok {
		return nil, err
	}
	if d, ok := f.decisions[subject.Name]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, decision.ErrServiceUnavailable
}

type publishedEvent struct {
	eventType string
	source    string
	data      map[string]interface{}
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (f *fakePublisher) PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error {
	f.events = append(f.events, publishedEvent{eventType: eventType, source: source, data: data})
	return f.err
}

func (f *fakePublisher) types() []string {
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.eventType)
	}
	return out
}

type fakeCache struct {
	patients    []Patient
	warm        bool
	sets        int
	invalidated int
}

func (f *fakeCache) Get(ctx context.Context) ([]Patient, bool, error) {
	return f.patients, f.warm, nil
}

func (f *fakeCache) Set(ctx context.Context, patients []Patient) error {
	f.patients = patients
	f.warm = true
	f.sets++
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context) error {
	f.patients = nil
	f.warm = false
	f.invalidated++
	return nil
}

type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

func makeDecision(score float64, level decision.Level, action string) *decision.Decision {
	return &decision.Decision{
		RiskAnalysis: decision.RiskAnalysis{Score: score, Level: level},
		Decision:     decision.Recommendation{Action: action, Reason: "reason for " + action},
	}
}

func seededPatient(id, name string, status Status) Patient {
	v := vitals.Vitals{
		HeartRate:   vitals.Float(90),
		SpO2:        vitals.Float(96),
		BPSystolic:  vitals.Float(120),
		BPDiastolic: vitals.Float(80),
		Timestamp:   time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	p := Patient{
		ID:             id,
		Name:           name,
		Age:            40,
		Gender:         "M",
		ChiefComplaint: "Chest pain",
		Status:         status,
		AcuityTrend:    TrendImproving,
		VitalsHistory:  []vitals.Vitals{v.Clone()},
		ActionsHistory: []ActionRecord{},
		CreatedAt:      time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	p.SetVitals(v)
	return p
}

type harness struct {
	store     *fakeStore
	hospital  *fakeHospital
	evaluator *fakeEvaluator
	publisher *fakePublisher
	cache     *fakeCache
	service   *Service
	now       time.Time
}

func newHarness() *harness {
	h := &harness{
		store:     newFakeStore(),
		hospital:  newFakeHospital(),
		evaluator: newFakeEvaluator(),
		publisher: &fakePublisher{},
		cache:     &fakeCache{},
		now:       time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	h.service = NewService(Dependencies{
		Patients:  h.store,
		Hospital:  h.hospital,
		Evaluator: h.evaluator,
		Publisher: h.publisher,
		Cache:     h.cache,
		Random:    constSource(0.99),
		Now:       func() time.Time { return h.now },
	})
	return h
}
