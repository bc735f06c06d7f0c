package eventlog

import (
	"context"
	"time"

	"auditwatch/internal/events"
	"auditwatch/internal/logger"
	"auditwatch/pkg/metrics"
	"auditwatch/pkg/models"
)

// RecordingNotifier publishes through next and logs every published event.
// A failed log write never fails the publish.
type RecordingNotifier struct {
	next   events.Notifier
	store  Store
	now    func() time.Time
	logger logger.Logger
}

func NewRecordingNotifier(next events.Notifier, store Store, log logger.Logger) *RecordingNotifier {
	return &RecordingNotifier{next: next, store: store, now: time.Now, logger: log}
}

func (n *RecordingNotifier) Publish(ctx context.Context, event models.Event) error {
	if err := n.next.Publish(ctx, event); err != nil {
		return err
	}

	item, ok := FromEvent(event, n.now())
	if !ok {
		return nil
	}

	if err := n.store.Add(ctx, item); err != nil {
		metrics.IncEventLogItem(item.Category, "error")
		n.logger.ErrorwCtx(ctx, "Failed to record event log item", "event_type", item.EventType, "error", err)
		return nil
	}
	metrics.IncEventLogItem(item.Category, "ok")
	return nil
}
