package models

import (
	"fmt"
	"strings"
	"time"
)

// Header names used on the wire by bus endpoints.
const (
	HeaderMessageID            = "NServiceBus.MessageId"
	HeaderMessageIntent        = "NServiceBus.MessageIntent"
	HeaderConversationID       = "NServiceBus.ConversationId"
	HeaderEnclosedMessageTypes = "NServiceBus.EnclosedMessageTypes"
	HeaderControlMessage       = "NServiceBus.ControlMessage"
	HeaderContentType          = "NServiceBus.ContentType"
	HeaderTimeSent             = "NServiceBus.TimeSent"
	HeaderProcessingStarted    = "NServiceBus.ProcessingStarted"
	HeaderProcessingEnded      = "NServiceBus.ProcessingEnded"
	HeaderOriginatingEndpoint  = "NServiceBus.OriginatingEndpoint"
	HeaderOriginatingMachine   = "NServiceBus.OriginatingMachine"
	HeaderProcessingEndpoint   = "NServiceBus.ProcessingEndpoint"
	HeaderProcessingMachine    = "NServiceBus.ProcessingMachine"
	HeaderRetryUniqueMessageID = "ServiceControl.Retry.UniqueMessageId"
)

const DefaultMessageIntent = "Send"

// TransportMessage is one inbound message as handed over by the transport.
type TransportMessage struct {
	MessageID string            `json:"id" bson:"id"`
	Headers   map[string]string `json:"headers" bson:"headers"`
	Body      []byte            `json:"body" bson:"body"`
}

func (m TransportMessage) Header(name string) (string, bool) {
	v, ok := m.Headers[name]
	return v, ok
}

// wireTimeLayout is the bus timestamp format, e.g. "2024-01-02 15:04:05:123456 Z".
const wireTimeLayout = "2006-01-02 15:04:05.000000 Z"

// ParseWireTime parses a bus timestamp header. RFC 3339 values are accepted too.
func ParseWireTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 26 && s[19] == ':' {
		normalized := s[:19] + "." + s[20:]
		if t, err := time.Parse(wireTimeLayout, normalized); err == nil {
			return t.UTC(), nil
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid wire timestamp %q", s)
}

// FormatWireTime renders t in the bus timestamp format.
func FormatWireTime(t time.Time) string {
	s := t.UTC().Format(wireTimeLayout)
	return s[:19] + ":" + s[20:]
}
