package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medicast/triage/pkg/common/logger"
	"github.com/medicast/triage/pkg/common/models"
	"github.com/medicast/triage/pkg/observability/metrics"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// alertNamespace derives stable alert ids from event ids.
var alertNamespace = uuid.MustParse("6f1c5a1e-4b7d-4c1e-9a54-0c8e3f2d7b10")

type Store interface {
	Create(ctx context.Context, alert *Alert) error
	List(ctx context.Context, filter Filter) ([]Alert, error)
	MarkRead(ctx context.Context, id string) (*Alert, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// HandleEvent is the consumer callback. Only CRITICAL and HIGH evaluations
// raise an alert; everything else on the topic is acknowledged and dropped.
func (s *Service) HandleEvent(ctx context.Context, event models.Event) error {
	if event.Type != models.EventPatientEvaluated {
		return nil
	}

	alert, ok := s.alertFor(event)
	if !ok {
		return nil
	}

	if err := s.store.Create(ctx, alert); err != nil {
		return fmt.Errorf("storing alert for event %s: %w", event.ID, err)
	}
	metrics.ObserveAlert()

	logger.Log.WithFields(map[string]interface{}{
		"alert_id":   alert.ID,
		"patient_id": alert.PatientID,
		"type":       alert.Type,
	}).Info("alert raised")
	return nil
}

func (s *Service) alertFor(event models.Event) (*Alert, bool) {
	var (
		alertType Type
		title     string
	)
	name := event.StringField("name")
	switch strings.ToUpper(event.StringField("level")) {
	case "CRITICAL":
		alertType = TypeDanger
		title = "Critical risk: " + name
	case "HIGH":
		alertType = TypeWarning
		title = "High risk: " + name
	default:
		return nil, false
	}

	message := event.StringField("action")
	if reason := event.StringField("reason"); reason != "" {
		message = fmt.Sprintf("%s: %s", message, reason)
	}
	if score, ok := event.NumberField("score"); ok {
		message = fmt.Sprintf("%s (risk score %.0f)", message, score)
	}

	patientID := event.StringField("patientId")
	if patientID == "" {
		patientID = event.Source
	}

	id := uuid.New().String()
	if event.ID != "" {
		id = uuid.NewSHA1(alertNamespace, []byte(event.ID)).String()
	}

	createdAt := event.Timestamp
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	return &Alert{
		ID:        id,
		Title:     title,
		Message:   message,
		Type:      alertType,
		PatientID: patientID,
		CreatedAt: createdAt.UTC(),
	}, true
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Alert, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	alerts, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	return alerts, nil
}

func (s *Service) MarkRead(ctx context.Context, id string) (*Alert, error) {
	return s.store.MarkRead(ctx, id)
}
