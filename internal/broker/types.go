package broker

import (
	"context"

	"auditwatch/internal/recoverability"
	"auditwatch/pkg/models"
)

// Delivery is one fetched record and its position in the partition.
type Delivery struct {
	Message   models.TransportMessage
	Topic     string
	Partition int
	Offset    int64
}

// Source yields deliveries in partition order. Commit acknowledges every
// record of the partition up to and including offset.
type Source interface {
	Fetch(ctx context.Context) (Delivery, error)
	Commit(ctx context.Context, d Delivery) error
	Close() error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key string, value []byte, headers map[string]string) error
	Close() error
}

type HandlerFunc func(ctx context.Context, msg models.TransportMessage) error

// Decider chooses what happens to a message after a failed attempt.
type Decider interface {
	Decide(ctx context.Context, ec recoverability.ErrorContext) (recoverability.Decision, error)
}
