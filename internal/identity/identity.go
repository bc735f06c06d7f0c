// Package identity derives the message and deduplication ids used across ingestion.
package identity

import (
	"strings"

	"github.com/google/uuid"

	"auditwatch/pkg/models"
)

// namespace scopes every name-based id minted here.
var namespace = uuid.MustParse("4b1d0c8e-6f0a-5a7e-9c2b-3d1f7e9a8b64")

const separator = "\x1f"

// DeterministicID returns a UUIDv5 over parts. Identical parts always give the same id.
func DeterministicID(parts ...string) string {
	return uuid.NewSHA1(namespace, []byte(strings.Join(parts, separator))).String()
}

// MessageID returns the message id header, or an id derived from the transport id.
func MessageID(headers map[string]string, transportID string) string {
	if id := strings.TrimSpace(headers[models.HeaderMessageID]); id != "" {
		return id
	}
	return DeterministicID(transportID)
}

// UniqueID is the idempotency key of a processed message. A retried message
// carries the original key in a header so the retry lands on the same record.
func UniqueID(headers map[string]string, messageID string) string {
	if id := strings.TrimSpace(headers[models.HeaderRetryUniqueMessageID]); id != "" {
		return id
	}
	return DeterministicID(messageID, headers[models.HeaderProcessingEndpoint])
}
