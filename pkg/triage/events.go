package triage

import (
	"context"

	"github.com/medicast/triage/pkg/common/logger"
	"github.com/medicast/triage/pkg/decision"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type noopPublisher struct{}

func (noopPublisher) PublishEvent(context.Context, string, string, map[string]interface{}) error {
	return nil
}

// publish is best effort; a broker outage never fails a triage request.
func (s *Service) publish(ctx context.Context, eventType, patientID string, data map[string]interface{}) {
	if err := s.publisher.PublishEvent(ctx, eventType, patientID, data); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"event_type": eventType,
			"patient_id": patientID,
		}).Warn("failed to publish triage event")
	}
}

func patientEventData(p *Patient) map[string]interface{} {
	return map[string]interface{}{
		"patientId":   p.ID,
		"name":        p.Name,
		"status":      string(p.Status),
		"riskScore":   p.RiskScore,
		"acuityTrend": string(p.AcuityTrend),
	}
}

func evaluationEventData(p *Patient, d *decision.Decision) map[string]interface{} {
	data := patientEventData(p)
	data["level"] = string(d.RiskAnalysis.Level)
	data["score"] = d.RiskAnalysis.Score
	data["action"] = d.Decision.Action
	data["reason"] = d.Decision.Reason
	return data
}
