// Package events publishes monitoring domain events.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"auditwatch/internal/logger"
	apperrors "auditwatch/pkg/errors"
	"auditwatch/pkg/models"
)

const HeaderEventType = "event_type"

type Notifier interface {
	Publish(ctx context.Context, event models.Event) error
}

// Producer is the slice of broker.Producer the notifier needs.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, value []byte, headers map[string]string) error
}

// KafkaNotifier writes events as JSON to a single topic, keyed by the entity
// the event is about so one entity's events stay ordered.
type KafkaNotifier struct {
	producer Producer
	topic    string
	logger   logger.Logger
}

func NewKafkaNotifier(producer Producer, topic string, log logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic, logger: log}
}

func (n *KafkaNotifier) Publish(ctx context.Context, event models.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", event.EventType(), err)
	}

	headers := map[string]string{
		HeaderEventType:          event.EventType(),
		models.HeaderContentType: "application/json",
	}
	if err := n.producer.Publish(ctx, n.topic, EventKey(event), value, headers); err != nil {
		return apperrors.ErrPublish.WithCause(err).WithDetail("event_type", event.EventType())
	}

	n.logger.DebugwCtx(ctx, "Event published", "event_type", event.EventType(), "topic", n.topic)
	return nil
}

func EventKey(event models.Event) string {
	switch e := event.(type) {
	case models.HeartbeatReceived:
		return e.Endpoint + "@" + e.Machine
	case models.HeartbeatGracePeriodElapsed:
		return e.Endpoint + "@" + e.Machine
	case models.CustomCheckFailed:
		return e.CustomCheckID + "/" + e.Endpoint + "@" + e.Host
	case models.CustomCheckSucceeded:
		return e.CustomCheckID + "/" + e.Endpoint + "@" + e.Host
	default:
		return event.EventType()
	}
}
