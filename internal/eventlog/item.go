// Package eventlog keeps a browsable history of published monitoring events.
package eventlog

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"auditwatch/pkg/models"
)

const (
	SeverityInfo  = "info"
	SeverityError = "error"

	CategoryHeartbeats   = "Heartbeats"
	CategoryCustomChecks = "CustomChecks"
)

type Item struct {
	ID          string    `json:"id"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Category    string    `json:"category"`
	RaisedAt    time.Time `json:"raised_at"`
	RelatedTo   []string  `json:"related_to"`
}

// FromEvent describes event as a log item. ok is false for events that are not logged.
func FromEvent(event models.Event, now time.Time) (Item, bool) {
	item := Item{
		ID:        uuid.New().String(),
		EventType: event.EventType(),
		Severity:  SeverityInfo,
		RaisedAt:  now.UTC(),
	}

	switch e := event.(type) {
	case models.HeartbeatReceived:
		item.Category = CategoryHeartbeats
		item.Description = fmt.Sprintf("Endpoint %s on %s is sending heartbeats", e.Endpoint, e.Machine)
		item.RelatedTo = []string{endpointRef(e.Endpoint), hostRef(e.Machine)}
	case models.HeartbeatGracePeriodElapsed:
		item.Category = CategoryHeartbeats
		item.Severity = SeverityError
		item.Description = fmt.Sprintf("Endpoint %s on %s has stopped sending heartbeats, last seen %s",
			e.Endpoint, e.Machine, e.LastSentAt.UTC().Format(time.RFC3339))
		item.RelatedTo = []string{endpointRef(e.Endpoint), hostRef(e.Machine)}
		item.RaisedAt = e.DetectedAt.UTC()
	case models.CustomCheckFailed:
		item.Category = CategoryCustomChecks
		item.Severity = SeverityError
		item.Description = fmt.Sprintf("%s: %s", e.CustomCheckID, e.FailureReason)
		item.RelatedTo = []string{customCheckRef(e.CustomCheckID), endpointRef(e.Endpoint), hostRef(e.Host)}
		item.RaisedAt = e.FailedAt.UTC()
	case models.CustomCheckSucceeded:
		item.Category = CategoryCustomChecks
		item.Description = fmt.Sprintf("%s: working as expected", e.CustomCheckID)
		item.RelatedTo = []string{customCheckRef(e.CustomCheckID), endpointRef(e.Endpoint), hostRef(e.Host)}
		item.RaisedAt = e.SucceededAt.UTC()
	default:
		return Item{}, false
	}

	if item.RaisedAt.IsZero() {
		item.RaisedAt = now.UTC()
	}
	return item, true
}

func endpointRef(name string) string  { return "/endpoint/" + name }
func hostRef(host string) string      { return "/host/" + host }
func customCheckRef(id string) string { return "/customcheck/" + id }
