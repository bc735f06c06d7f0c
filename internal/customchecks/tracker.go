// Package customchecks tracks the latest result of every endpoint custom check.
package customchecks

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"auditwatch/internal/events"
	"auditwatch/internal/logger"
	"auditwatch/pkg/errors"
	"auditwatch/pkg/metrics"
	"auditwatch/pkg/models"
)

type Status struct {
	CustomCheckID string    `json:"custom_check_id"`
	Category      string    `json:"category"`
	Endpoint      string    `json:"endpoint"`
	Host          string    `json:"host"`
	Failed        bool      `json:"failed"`
	FailureReason string    `json:"failure_reason,omitempty"`
	ReportedAt    time.Time `json:"reported_at"`
}

type key struct {
	checkID  string
	endpoint string
	host     string
}

// Tracker publishes CustomCheckFailed or CustomCheckSucceeded on the first
// report of a check and whenever its outcome flips.
type Tracker struct {
	mu       sync.Mutex
	checks   map[key]*Status
	notifier events.Notifier
	logger   logger.Logger
}

func NewTracker(notifier events.Notifier, log logger.Logger) *Tracker {
	return &Tracker{
		checks:   make(map[key]*Status),
		notifier: notifier,
		logger:   log,
	}
}

// Report records r. Reports older than the stored one are ignored.
func (t *Tracker) Report(ctx context.Context, r models.CustomCheckReport) error {
	k := key{checkID: r.CustomCheckID, endpoint: r.EndpointName, host: r.Host}
	next := Status{
		CustomCheckID: r.CustomCheckID,
		Category:      r.Category,
		Endpoint:      r.EndpointName,
		Host:          r.Host,
		Failed:        r.HasFailed,
		FailureReason: r.FailureReason,
		ReportedAt:    r.ReportedAt.UTC(),
	}

	t.mu.Lock()
	prev, seen := t.checks[k]
	if seen && next.ReportedAt.Before(prev.ReportedAt) {
		t.mu.Unlock()
		return nil
	}
	changed := !seen || prev.Failed != next.Failed
	stored := &next
	t.checks[k] = stored
	t.mu.Unlock()

	if !changed {
		return nil
	}

	event := toEvent(next)
	metrics.IncCustomCheckEvent(event.EventType())
	if err := t.notifier.Publish(ctx, event); err != nil {
		t.rollback(k, stored, prev)
		return err
	}

	if next.Failed {
		t.logger.WarnwCtx(ctx, "Custom check failed",
			"custom_check_id", next.CustomCheckID,
			"endpoint", next.Endpoint,
			"host", next.Host,
			"reason", next.FailureReason,
		)
	} else {
		t.logger.InfowCtx(ctx, "Custom check succeeded",
			"custom_check_id", next.CustomCheckID,
			"endpoint", next.Endpoint,
			"host", next.Host,
		)
	}
	return nil
}

// rollback undoes a transition whose event was not published, so a redelivered
// report publishes it again.
func (t *Tracker) rollback(k key, stored, prev *Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.checks[k] != stored {
		return
	}
	if prev == nil {
		delete(t.checks, k)
		return
	}
	t.checks[k] = prev
}

func toEvent(s Status) models.Event {
	if s.Failed {
		return models.CustomCheckFailed{
			CustomCheckID: s.CustomCheckID,
			Category:      s.Category,
			Endpoint:      s.Endpoint,
			Host:          s.Host,
			FailureReason: s.FailureReason,
			FailedAt:      s.ReportedAt,
		}
	}
	return models.CustomCheckSucceeded{
		CustomCheckID: s.CustomCheckID,
		Category:      s.Category,
		Endpoint:      s.Endpoint,
		Host:          s.Host,
		SucceededAt:   s.ReportedAt,
	}
}

// HandleMessage decodes a custom check report from the transport.
func (t *Tracker) HandleMessage(ctx context.Context, msg models.TransportMessage) error {
	var report models.CustomCheckReport
	if err := json.Unmarshal(msg.Body, &report); err != nil {
		return errors.ErrMalformedMessage.WithCause(err).WithMessage("custom check body is not valid JSON")
	}
	if err := report.Validate(); err != nil {
		return errors.ErrMalformedMessage.WithCause(err)
	}
	return t.Report(ctx, report)
}

// Statuses lists checks, failed first, then by check id, endpoint and host.
func (t *Tracker) Statuses(onlyFailed bool) []Status {
	t.mu.Lock()
	statuses := make([]Status, 0, len(t.checks))
	for _, s := range t.checks {
		if onlyFailed && !s.Failed {
			continue
		}
		statuses = append(statuses, *s)
	}
	t.mu.Unlock()

	sort.Slice(statuses, func(i, j int) bool {
		a, b := statuses[i], statuses[j]
		if a.Failed != b.Failed {
			return a.Failed
		}
		if a.CustomCheckID != b.CustomCheckID {
			return a.CustomCheckID < b.CustomCheckID
		}
		if a.Endpoint != b.Endpoint {
			return a.Endpoint < b.Endpoint
		}
		return a.Host < b.Host
	})
	return statuses
}
