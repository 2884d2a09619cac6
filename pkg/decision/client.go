// Package decision is the client for the external risk/decision service.
package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/medicast/triage/pkg/common/logger"
	"github.com/medicast/triage/pkg/gateway/httpclient"
	"github.com/medicast/triage/pkg/ledger"
)

const evaluatePath = "/evaluate_patient"

type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration, retryCount int) *Client {
	rc := resty.NewWithClient(httpclient.New(timeout)).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetRetryCount(retryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		AddRetryCondition(func(_ *resty.Response, err error) bool {
			return httpclient.IsRetriable(err)
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(logger.Log)

	return &Client{http: rc}
}

// Evaluate asks the decision service for a risk score and recommended action.
// It never mutates the subject or the hospital state.
func (c *Client) Evaluate(ctx context.Context, subject Subject, hospital ledger.HospitalState) (*Decision, error) {
	payload := EvaluateRequest{
		Patient:       subject,
		HospitalState: SnapshotOf(hospital),
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(evaluatePath)
	if err != nil {
		if httpclient.IsTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"patient":     subject.Name,
		"status_code": resp.StatusCode(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("decision service responded")

	switch {
	case resp.StatusCode() >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode())
	case resp.StatusCode() >= http.StatusBadRequest:
		return nil, &ApplicationError{StatusCode: resp.StatusCode(), Message: errorMessage(resp.Body())}
	}

	var decision Decision
	if err := json.Unmarshal(resp.Body(), &decision); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	decision.RiskAnalysis.Level = Level(strings.ToUpper(strings.TrimSpace(string(decision.RiskAnalysis.Level))))
	if decision.RiskAnalysis.Level == "" || decision.Decision.Action == "" {
		return nil, fmt.Errorf("%w: missing risk level or action", ErrMalformedResponse)
	}

	return &decision, nil
}

// errorMessage extracts the message from either an Express style
// {"message": ...} or a FastAPI style {"detail": ...} body.
func errorMessage(body []byte) string {
	var parsed struct {
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return strings.TrimSpace(string(body))
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	if len(parsed.Detail) > 0 {
		var detail string
		if json.Unmarshal(parsed.Detail, &detail) == nil {
			return detail
		}
		return string(parsed.Detail)
	}
	return ""
}
