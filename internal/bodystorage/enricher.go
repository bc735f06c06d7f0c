package bodystorage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"auditwatch/internal/constants"
	"auditwatch/pkg/models"
)

// Metadata keys written for the stored body.
const (
	KeyContentLength = "ContentLength"
	KeyContentType   = "ContentType"
	KeyBodyURL       = "BodyUrl"
	KeyBody          = "Body"
)

// BodyEnricher stores the payload and leaves a reference to it in the record metadata.
type BodyEnricher struct {
	storage       Storage
	maxInlineSize int
}

func NewBodyEnricher(storage Storage, maxInlineSize int) *BodyEnricher {
	return &BodyEnricher{storage: storage, maxInlineSize: maxInlineSize}
}

// StoreAuditMessageBody expects metadata to already carry MessageId.
// BodyUrl is only written once the body is actually stored, so an empty
// body gets no URL.
func (e *BodyEnricher) StoreAuditMessageBody(ctx context.Context, body []byte, headers map[string]string, metadata map[string]interface{}) error {
	messageID, _ := metadata["MessageId"].(string)
	if messageID == "" {
		return fmt.Errorf("store body: metadata has no MessageId")
	}

	contentType := headers[models.HeaderContentType]
	if contentType == "" {
		contentType = constants.DefaultContentType
	}

	metadata[KeyContentLength] = len(body)
	metadata[KeyContentType] = contentType

	if len(body) == 0 {
		return nil
	}

	if err := e.storage.Store(ctx, Body{MessageID: messageID, ContentType: contentType, Data: body}); err != nil {
		return err
	}
	metadata[KeyBodyURL] = BodyURL(messageID)

	if len(body) <= e.maxInlineSize && isText(contentType) && utf8.Valid(body) {
		metadata[KeyBody] = string(body)
	}
	return nil
}

func BodyURL(messageID string) string {
	return "/messages/" + url.PathEscape(messageID) + "/body"
}

func isText(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/") || strings.Contains(ct, "json") || strings.Contains(ct, "xml")
}
