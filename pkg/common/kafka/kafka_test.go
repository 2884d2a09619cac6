package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/medicast/triage/pkg/common/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEventKeysBySource(t *testing.T) {
	message, err := encodeEvent(models.Event{
		ID:     "e1",
		Type:   models.EventPatientEvaluated,
		Source: "p1",
		Data:   map[string]interface{}{"level": "HIGH"},
	})
	require.NoError(t, err)

	assert.Equal(t, "p1", string(message.Key))
	assert.Equal(t, []kafka.Header{
		{Key: "event-type", Value: []byte("patient.evaluated")},
		{Key: "source", Value: []byte("p1")},
	}, message.Headers)

	var decoded models.Event
	require.NoError(t, json.Unmarshal(message.Value, &decoded))
	assert.Equal(t, "HIGH", decoded.StringField("level"))
}

func TestConsumerTypeFilter(t *testing.T) {
	c := &Consumer{types: typeSet([]string{models.EventPatientEvaluated})}
	evaluated, err := encodeEvent(models.Event{Type: models.EventPatientEvaluated, Source: "p1"})
	require.NoError(t, err)
	step, err := encodeEvent(models.Event{Type: models.EventSimulationStep, Source: "simulation"})
	require.NoError(t, err)

	assert.True(t, c.wants(evaluated))
	assert.False(t, c.wants(step))
	assert.True(t, c.wants(kafka.Message{}), "untagged messages are decoded first")
	assert.True(t, (&Consumer{}).wants(step))
}

func TestDispatchSkipsFilteredAndRetries(t *testing.T) {
	c := &Consumer{types: typeSet([]string{models.EventPatientEvaluated})}
	step, err := encodeEvent(models.Event{Type: models.EventSimulationStep})
	require.NoError(t, err)
	evaluated, err := encodeEvent(models.Event{Type: models.EventPatientEvaluated})
	require.NoError(t, err)

	calls := 0
	handler := func(ctx context.Context, event models.Event) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	}

	c.dispatch(context.Background(), kafka.Message{Value: step.Value}, handler)
	assert.Equal(t, 0, calls)

	c.dispatch(context.Background(), evaluated, handler)
	assert.Equal(t, 2, calls)
}
