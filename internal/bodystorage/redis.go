package bodystorage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"auditwatch/internal/config"
	"auditwatch/internal/constants"
	"auditwatch/pkg/circuitbreaker"
	apperrors "auditwatch/pkg/errors"
	"auditwatch/pkg/metrics"
)

const (
	fieldContentType = "content_type"
	fieldEncoding    = "encoding"
	fieldSize        = "size"
	fieldData        = "data"
)

// RedisStorage stores each body as a hash under body:<message id> that expires
// together with the audit record.
type RedisStorage struct {
	client      redis.Cmdable
	ttl         time.Duration
	threshold   int
	compression string
	breaker     *circuitbreaker.Wrapper
}

func NewRedisStorage(client redis.Cmdable, cfg config.BodyStorageConfig, ttl time.Duration, cb config.CircuitBreakerConfig) *RedisStorage {
	s := &RedisStorage{
		client:      client,
		ttl:         ttl,
		threshold:   cfg.CompressionThreshold,
		compression: cfg.Compression,
	}
	if cb.Enabled {
		s.breaker = circuitbreaker.NewWrapper(circuitbreaker.FromSettings("body-storage", cb))
	}
	return s
}

func bodyKey(messageID string) string {
	return constants.CacheKeyPrefixBody + messageID
}

func (s *RedisStorage) Store(ctx context.Context, body Body) error {
	data, encoding := body.Data, constants.CompressionNone
	if len(body.Data) > s.threshold {
		var err error
		data, encoding, err = encode(body.Data, s.compression)
		if err != nil {
			return apperrors.ErrBodyStorage.WithCause(err).AsFatal()
		}
	}

	metrics.ObserveBodySize(encoding, "raw", len(body.Data))
	metrics.ObserveBodySize(encoding, "stored", len(data))

	write := func(ctx context.Context) error {
		key := bodyKey(body.MessageID)
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldContentType, body.ContentType,
				fieldEncoding, encoding,
				fieldSize, len(body.Data),
				fieldData, data,
			)
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
			}
			return nil
		})
		return err
	}

	var err error
	if s.breaker != nil {
		err = circuitbreaker.Do(ctx, s.breaker, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		return apperrors.ErrBodyStorage.WithCause(err)
	}
	return nil
}

func (s *RedisStorage) Fetch(ctx context.Context, messageID string) (*Body, error) {
	fields, err := s.client.HGetAll(ctx, bodyKey(messageID)).Result()
	if err != nil {
		return nil, apperrors.ErrBodyStorage.WithCause(err)
	}
	if len(fields) == 0 {
		return nil, ErrBodyNotFound.WithDetail("message_id", messageID)
	}

	size, err := strconv.Atoi(fields[fieldSize])
	if err != nil {
		return nil, fmt.Errorf("body %s: invalid size %q: %w", messageID, fields[fieldSize], err)
	}

	data, err := decode([]byte(fields[fieldData]), fields[fieldEncoding], size)
	if err != nil {
		return nil, fmt.Errorf("body %s: %w", messageID, err)
	}

	return &Body{
		MessageID:   messageID,
		ContentType: fields[fieldContentType],
		Data:        data,
	}, nil
}
