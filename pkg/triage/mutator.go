package triage

import (
	"math"
	"time"

	"github.com/medicast/triage/pkg/decision"
)

// OrchestratorAgent is the agent name recorded on every automated action.
const OrchestratorAgent = "Orchestrator"

// ApplyDecision records a decision on p: risk score, trend and one new
// action record. Only CRITICAL and LOW move the trend; MEDIUM and HIGH leave
// it as it was.
func ApplyDecision(p *Patient, d decision.Decision, now time.Time) {
	p.RiskScore = riskScore(d.RiskAnalysis.Score)

	switch d.RiskAnalysis.Level {
	case decision.LevelCritical:
		p.AcuityTrend = TrendDeteriorating
	case decision.LevelLow:
		p.AcuityTrend = TrendStable
	}

	p.ActionsHistory = append(p.ActionsHistory, ActionRecord{
		Timestamp: now,
		Action:    d.Decision.Action,
		Reason:    d.Decision.Reason,
		Agent:     OrchestratorAgent,
	})
}

func riskScore(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
