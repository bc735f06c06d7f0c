package bodystorage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditwatch/internal/config"
	"auditwatch/internal/constants"
	apperrors "auditwatch/pkg/errors"
	"auditwatch/pkg/models"
)

func newTestStorage(t *testing.T, compression string) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := config.BodyStorageConfig{CompressionThreshold: 64, Compression: compression}
	return NewRedisStorage(client, cfg, time.Hour, config.CircuitBreakerConfig{Enabled: true}), mr
}

func TestRedisStorage_RoundTrip(t *testing.T) {
	large := []byte(strings.Repeat(`{"order":"12345","status":"placed"}`, 100))
	random := make([]byte, 512)
	for i := range random {
		random[i] = byte(i*7919 + i/3)
	}

	for _, compression := range []string{constants.CompressionNone, constants.CompressionZstd, constants.CompressionLZ4} {
		for name, data := range map[string][]byte{"small": []byte("tiny"), "large": large, "binary": random} {
			t.Run(compression+"/"+name, func(t *testing.T) {
				s, _ := newTestStorage(t, compression)
				ctx := context.Background()

				require.NoError(t, s.Store(ctx, Body{MessageID: "m1", ContentType: "application/json", Data: data}))

				got, err := s.Fetch(ctx, "m1")
				require.NoError(t, err)
				assert.Equal(t, "application/json", got.ContentType)
				assert.True(t, bytes.Equal(data, got.Data))
			})
		}
	}
}

func TestRedisStorage_CompressesLargeBodies(t *testing.T) {
	s, mr := newTestStorage(t, constants.CompressionZstd)
	data := []byte(strings.Repeat("a", 4096))

	require.NoError(t, s.Store(context.Background(), Body{MessageID: "big", Data: data}))

	assert.Equal(t, constants.CompressionZstd, mr.HGet("body:big", fieldEncoding))
	assert.Less(t, len(mr.HGet("body:big", fieldData)), len(data))
	assert.Equal(t, time.Hour, mr.TTL("body:big"))
}

func TestRedisStorage_SmallBodiesStoredRaw(t *testing.T) {
	s, mr := newTestStorage(t, constants.CompressionLZ4)

	require.NoError(t, s.Store(context.Background(), Body{MessageID: "s", Data: []byte("hello")}))
	assert.Equal(t, constants.CompressionNone, mr.HGet("body:s", fieldEncoding))
	assert.Equal(t, "hello", mr.HGet("body:s", fieldData))
}

func TestRedisStorage_FetchMissing(t *testing.T) {
	s, _ := newTestStorage(t, constants.CompressionNone)

	_, err := s.Fetch(context.Background(), "nope")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRedisStorage_StoreFailsWhenRedisDown(t *testing.T) {
	s, mr := newTestStorage(t, constants.CompressionNone)
	mr.Close()

	err := s.Store(context.Background(), Body{MessageID: "m", Data: []byte("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBodyStorage)
	assert.False(t, apperrors.IsFatal(err))
}

type fakeStorage struct {
	stored []Body
	err    error
}

func (f *fakeStorage) Store(_ context.Context, b Body) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, b)
	return nil
}

func (f *fakeStorage) Fetch(context.Context, string) (*Body, error) {
	return nil, ErrBodyNotFound
}

func TestBodyEnricher_WritesReference(t *testing.T) {
	storage := &fakeStorage{}
	e := NewBodyEnricher(storage, 1024)
	metadata := map[string]interface{}{"MessageId": "abc"}
	headers := map[string]string{models.HeaderContentType: "application/json"}

	require.NoError(t, e.StoreAuditMessageBody(context.Background(), []byte(`{"a":1}`), headers, metadata))

	assert.Equal(t, 7, metadata[KeyContentLength])
	assert.Equal(t, "application/json", metadata[KeyContentType])
	assert.Equal(t, "/messages/abc/body", metadata[KeyBodyURL])
	assert.Equal(t, `{"a":1}`, metadata[KeyBody])
	require.Len(t, storage.stored, 1)
	assert.Equal(t, "abc", storage.stored[0].MessageID)
}

func TestBodyEnricher_DefaultsAndLimits(t *testing.T) {
	storage := &fakeStorage{}
	e := NewBodyEnricher(storage, 4)
	metadata := map[string]interface{}{"MessageId": "abc"}

	require.NoError(t, e.StoreAuditMessageBody(context.Background(), []byte("<order/>"), nil, metadata))

	assert.Equal(t, constants.DefaultContentType, metadata[KeyContentType])
	assert.NotContains(t, metadata, KeyBody)
	assert.Len(t, storage.stored, 1)
}

func TestBodyEnricher_BinaryNotInlined(t *testing.T) {
	e := NewBodyEnricher(&fakeStorage{}, 1024)
	metadata := map[string]interface{}{"MessageId": "abc"}
	headers := map[string]string{models.HeaderContentType: "application/octet-stream"}

	require.NoError(t, e.StoreAuditMessageBody(context.Background(), []byte{0xff, 0x00}, headers, metadata))
	assert.NotContains(t, metadata, KeyBody)
}

func TestBodyEnricher_EmptyBodySkipsStorage(t *testing.T) {
	storage := &fakeStorage{}
	e := NewBodyEnricher(storage, 1024)
	metadata := map[string]interface{}{"MessageId": "abc"}

	require.NoError(t, e.StoreAuditMessageBody(context.Background(), nil, nil, metadata))

	assert.Equal(t, 0, metadata[KeyContentLength])
	assert.NotContains(t, metadata, KeyBodyURL)
	assert.Empty(t, storage.stored)
}

func TestBodyEnricher_StorageFailurePropagates(t *testing.T) {
	boom := errors.New("redis down")
	e := NewBodyEnricher(&fakeStorage{err: boom}, 1024)
	metadata := map[string]interface{}{"MessageId": "abc"}

	err := e.StoreAuditMessageBody(context.Background(), []byte("x"), nil, metadata)
	assert.ErrorIs(t, err, boom)
	assert.NotContains(t, metadata, KeyBodyURL)
}

func TestBodyEnricher_RequiresMessageID(t *testing.T) {
	e := NewBodyEnricher(&fakeStorage{}, 1024)
	assert.Error(t, e.StoreAuditMessageBody(context.Background(), []byte("x"), nil, map[string]interface{}{}))
}
