package enrichment

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "auditwatch/pkg/errors"
	"auditwatch/pkg/models"
)

// Metadata keys written by the built-in enrichers.
const (
	KeyMessageType           = "MessageType"
	KeySearchableMessageType = "SearchableMessageType"
	KeyIsSystemMessage       = "IsSystemMessage"
	KeyConversationID        = "ConversationId"
	KeySendingEndpoint       = "SendingEndpoint"
	KeyReceivingEndpoint     = "ReceivingEndpoint"
	KeyTimeSent              = "TimeSent"
	KeyCriticalTime          = "CriticalTime"
	KeyProcessingTime        = "ProcessingTime"
	KeyDeliveryTime          = "DeliveryTime"
)

type EndpointDetails struct {
	Name string `json:"name" bson:"name"`
	Host string `json:"host" bson:"host"`
}

type messageTypeEnricher struct{}

func (messageTypeEnricher) Name() string       { return "message_type" }
func (messageTypeEnricher) EnrichAudits() bool { return true }

func (messageTypeEnricher) Enrich(_ context.Context, headers map[string]string, metadata map[string]interface{}) error {
	messageType := firstMessageType(headers[models.HeaderEnclosedMessageTypes])
	isControl := strings.EqualFold(headers[models.HeaderControlMessage], "true")

	metadata[KeyIsSystemMessage] = isControl || messageType == ""
	if messageType == "" {
		return nil
	}

	metadata[KeyMessageType] = messageType
	metadata[KeySearchableMessageType] = strings.NewReplacer(".", " ", "+", " ").Replace(messageType)
	return nil
}

// firstMessageType takes the first of a ';' separated list of assembly
// qualified names and drops the assembly part.
func firstMessageType(enclosed string) string {
	first, _, _ := strings.Cut(enclosed, ";")
	name, _, _ := strings.Cut(first, ",")
	return strings.TrimSpace(name)
}

type conversationEnricher struct{}

func (conversationEnricher) Name() string       { return "conversation" }
func (conversationEnricher) EnrichAudits() bool { return true }

func (conversationEnricher) Enrich(_ context.Context, headers map[string]string, metadata map[string]interface{}) error {
	if id, ok := headers[models.HeaderConversationID]; ok && id != "" {
		metadata[KeyConversationID] = id
	}
	return nil
}

type endpointsEnricher struct{}

func (endpointsEnricher) Name() string       { return "endpoints" }
func (endpointsEnricher) EnrichAudits() bool { return true }

func (endpointsEnricher) Enrich(_ context.Context, headers map[string]string, metadata map[string]interface{}) error {
	if name := headers[models.HeaderOriginatingEndpoint]; name != "" {
		metadata[KeySendingEndpoint] = EndpointDetails{Name: name, Host: headers[models.HeaderOriginatingMachine]}
	}
	if name := headers[models.HeaderProcessingEndpoint]; name != "" {
		metadata[KeyReceivingEndpoint] = EndpointDetails{Name: name, Host: headers[models.HeaderProcessingMachine]}
	}
	return nil
}

type processingStatisticsEnricher struct{}

func (processingStatisticsEnricher) Name() string       { return "processing_statistics" }
func (processingStatisticsEnricher) EnrichAudits() bool { return true }

func (processingStatisticsEnricher) Enrich(_ context.Context, headers map[string]string, metadata map[string]interface{}) error {
	sent, hasSent, err := headerTime(headers, models.HeaderTimeSent)
	if err != nil {
		return err
	}
	started, hasStarted, err := headerTime(headers, models.HeaderProcessingStarted)
	if err != nil {
		return err
	}
	ended, hasEnded, err := headerTime(headers, models.HeaderProcessingEnded)
	if err != nil {
		return err
	}

	if hasSent {
		metadata[KeyTimeSent] = sent
	}
	if hasSent && hasEnded {
		metadata[KeyCriticalTime] = ended.Sub(sent)
	}
	if hasStarted && hasEnded {
		metadata[KeyProcessingTime] = ended.Sub(started)
	}
	if hasSent && hasStarted {
		metadata[KeyDeliveryTime] = started.Sub(sent)
	}
	return nil
}

func headerTime(headers map[string]string, name string) (time.Time, bool, error) {
	raw, ok := headers[name]
	if !ok || raw == "" {
		return time.Time{}, false, nil
	}
	t, err := models.ParseWireTime(raw)
	if err != nil {
		return time.Time{}, false, apperrors.ErrMalformedMessage.
			WithCause(err).
			WithMessage(fmt.Sprintf("header %s is not a valid timestamp", name))
	}
	return t, true, nil
}
