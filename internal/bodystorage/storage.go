// Package bodystorage keeps raw message payloads apart from the audit records
// that reference them.
package bodystorage

import (
	"context"

	apperrors "auditwatch/pkg/errors"
)

var ErrBodyNotFound = apperrors.ErrNotFound.WithMessage("message body not found")

type Body struct {
	MessageID   string
	ContentType string
	Data        []byte
}

type Storage interface {
	Store(ctx context.Context, body Body) error
	Fetch(ctx context.Context, messageID string) (*Body, error)
}
