// Package auditing turns audited transport messages into stored ProcessedMessage records.
package auditing

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"auditwatch/internal/enrichment"
	"auditwatch/internal/identity"
	apperrors "auditwatch/pkg/errors"
	"auditwatch/pkg/models"
)

const (
	KeyMessageID           = "MessageId"
	KeyMessageIntent       = "MessageIntent"
	KeyHeadersForSearching = "HeadersForSearching"
)

type BodyStore interface {
	StoreAuditMessageBody(ctx context.Context, body []byte, headers map[string]string, metadata map[string]interface{}) error
}

type Importer struct {
	pipeline  *enrichment.Pipeline
	bodies    BodyStore
	retention time.Duration
	now       func() time.Time
}

func NewImporter(pipeline *enrichment.Pipeline, bodies BodyStore, retention time.Duration) *Importer {
	return &Importer{
		pipeline:  pipeline,
		bodies:    bodies,
		retention: retention,
		now:       time.Now,
	}
}

// ConvertToSaveMessage builds the record for msg, storing its body on the way.
func (i *Importer) ConvertToSaveMessage(ctx context.Context, msg models.TransportMessage) (*ProcessedMessage, error) {
	messageID := identity.MessageID(msg.Headers, msg.MessageID)

	intent := msg.Headers[models.HeaderMessageIntent]
	if intent == "" {
		intent = models.DefaultMessageIntent
	}

	metadata := map[string]interface{}{
		KeyMessageID:           messageID,
		KeyMessageIntent:       intent,
		KeyHeadersForSearching: headersForSearching(msg.Headers),
	}

	if err := i.pipeline.Enrich(ctx, msg.Headers, metadata); err != nil {
		return nil, err
	}

	if err := i.bodies.StoreAuditMessageBody(ctx, msg.Body, msg.Headers, metadata); err != nil {
		return nil, err
	}

	now := i.now().UTC()
	processedAt := now
	// Without the header the import time stands in for the processing time.
	if raw := msg.Headers[models.HeaderProcessingEnded]; raw != "" {
		t, err := models.ParseWireTime(raw)
		if err != nil {
			return nil, apperrors.ErrMalformedMessage.WithCause(err)
		}
		processedAt = t
	}

	return &ProcessedMessage{
		ID:              "ProcessedMessages/" + uuid.New().String(),
		UniqueMessageID: identity.UniqueID(msg.Headers, messageID),
		MessageMetadata: metadata,
		Headers:         headerList(msg.Headers),
		ProcessedAt:     processedAt,
		ExpiresAt:       now.Add(i.retention),
	}, nil
}

func headersForSearching(headers map[string]string) string {
	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)

	values := make([]string, 0, len(names))
	for _, k := range names {
		values = append(values, headers[k])
	}
	return strings.Join(values, " ")
}
