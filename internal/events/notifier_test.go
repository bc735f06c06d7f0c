package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditwatch/internal/logger"
	apperrors "auditwatch/pkg/errors"
	"auditwatch/pkg/models"
)

type published struct {
	topic   string
	key     string
	value   []byte
	headers map[string]string
}

type fakeProducer struct {
	messages []published
	err      error
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, value []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, published{topic: topic, key: key, value: value, headers: headers})
	return nil
}

func TestKafkaNotifier_Publish(t *testing.T) {
	producer := &fakeProducer{}
	n := NewKafkaNotifier(producer, "monitoring_events", logger.NopLogger())

	sentAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, n.Publish(context.Background(), models.HeartbeatReceived{
		Endpoint: "Sales", Machine: "m1", LastSentAt: sentAt,
	}))

	require.Len(t, producer.messages, 1)
	msg := producer.messages[0]
	assert.Equal(t, "monitoring_events", msg.topic)
	assert.Equal(t, "Sales@m1", msg.key)
	assert.Equal(t, models.EventTypeHeartbeatReceived, msg.headers[HeaderEventType])
	assert.JSONEq(t, `{"endpoint":"Sales","machine":"m1","last_sent_at":"2024-01-02T03:04:05Z"}`, string(msg.value))
}

func TestKafkaNotifier_PublishFailure(t *testing.T) {
	n := NewKafkaNotifier(&fakeProducer{err: errors.New("broker down")}, "events", logger.NopLogger())

	err := n.Publish(context.Background(), models.CustomCheckFailed{CustomCheckID: "disk"})
	assert.ErrorIs(t, err, apperrors.ErrPublish)
}

func TestEventKey(t *testing.T) {
	tests := []struct {
		event models.Event
		want  string
	}{
		{models.HeartbeatGracePeriodElapsed{Endpoint: "A", Machine: "h"}, "A@h"},
		{models.CustomCheckFailed{CustomCheckID: "c", Endpoint: "A", Host: "h"}, "c/A@h"},
		{models.CustomCheckSucceeded{CustomCheckID: "c", Endpoint: "A", Host: "h"}, "c/A@h"},
	}
	for _, tt := range tests {
		t.Run(tt.event.EventType(), func(t *testing.T) {
			assert.Equal(t, tt.want, EventKey(tt.event))
		})
	}
}
