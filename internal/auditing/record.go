package auditing

import (
	"sort"
	"time"
)

// ProcessedMessage is the stored audit record of one processed message.
type ProcessedMessage struct {
	ID              string                 `json:"id" bson:"_id"`
	UniqueMessageID string                 `json:"unique_message_id" bson:"unique_message_id"`
	MessageMetadata map[string]interface{} `json:"message_metadata" bson:"message_metadata"`
	Headers         []Header               `json:"headers" bson:"headers"`
	ProcessedAt     time.Time              `json:"processed_at" bson:"processed_at"`
	ExpiresAt       time.Time              `json:"expires_at" bson:"expires_at"`
}

// Header is stored as a pair since header names contain dots.
type Header struct {
	Key   string `json:"key" bson:"key"`
	Value string `json:"value" bson:"value"`
}

// headerList orders headers by name; the order they arrived in is not kept.
func headerList(headers map[string]string) []Header {
	list := make([]Header, 0, len(headers))
	for k, v := range headers {
		list = append(list, Header{Key: k, Value: v})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	return list
}

func (m *ProcessedMessage) HeaderMap() map[string]string {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = h.Value
	}
	return headers
}
