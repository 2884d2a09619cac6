package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/medicast/triage/pkg/common/config"
	"github.com/medicast/triage/pkg/common/logger"
	"github.com/medicast/triage/pkg/common/models"
	"github.com/segmentio/kafka-go"
)

const (
	handlerAttempts = 3
	handlerBackoff  = 500 * time.Millisecond
)

type Consumer struct {
	reader *kafka.Reader
	types  map[string]bool
}

type EventHandler func(ctx context.Context, event models.Event) error

// NewConsumer reads topic as part of groupID. When types is non-empty only
// those event types reach the handler; the rest are committed unread.
func NewConsumer(cfg *config.Config, topic string, groupID string, types ...string) *Consumer {
	if groupID == "" {
		groupID = cfg.KafkaGroupID
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{reader: reader, types: typeSet(types)}
}

func typeSet(types []string) map[string]bool {
	if len(types) == 0 {
		return nil
	}
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

func (c *Consumer) wants(message kafka.Message) bool {
	if c.types == nil {
		return true
	}
	for _, h := range message.Headers {
		if h.Key == headerEventType {
			return c.types[string(h.Value)]
		}
	}
	// Untagged messages are decoded and checked by type below.
	return true
}

// Consume blocks until ctx is cancelled. A handler error is retried a few
// times; after that the message is logged and committed so one bad event
// cannot wedge the partition.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			logger.Log.WithError(err).Error("Failed to fetch message")
			continue
		}

		if c.wants(message) {
			c.dispatch(ctx, message, handler)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			logger.Log.WithError(err).Error("Failed to commit message")
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, message kafka.Message, handler EventHandler) {
	var event models.Event
	if err := json.Unmarshal(message.Value, &event); err != nil {
		logger.Log.WithError(err).WithField("offset", message.Offset).Error("Failed to unmarshal event")
		return
	}
	if c.types != nil && !c.types[event.Type] {
		return
	}

	var err error
	for attempt := 1; attempt <= handlerAttempts; attempt++ {
		if err = handler(ctx, event); err == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * handlerBackoff):
		}
	}

	logger.Log.WithError(err).WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
		"attempts":   handlerAttempts,
	}).Error("Dropping event after repeated handler failures")
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
