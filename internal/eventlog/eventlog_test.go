package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditwatch/internal/logger"
	"auditwatch/pkg/models"
)

type memoryStore struct {
	mu    sync.Mutex
	items []Item
	err   error
	limit int
}

func (s *memoryStore) Add(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.items = append(s.items, item)
	return nil
}

func (s *memoryStore) List(_ context.Context, limit int) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

type notifierFunc func(context.Context, models.Event) error

func (f notifierFunc) Publish(ctx context.Context, e models.Event) error { return f(ctx, e) }

var t0 = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func TestFromEvent(t *testing.T) {
	now := t0.Add(time.Hour)
	tests := []struct {
		name     string
		event    models.Event
		severity string
		category string
		raisedAt time.Time
		related  []string
	}{
		{
			name:     "heartbeat received",
			event:    models.HeartbeatReceived{Endpoint: "Sales", Machine: "M1", LastSentAt: t0},
			severity: SeverityInfo,
			category: CategoryHeartbeats,
			raisedAt: now,
			related:  []string{"/endpoint/Sales", "/host/M1"},
		},
		{
			name:     "grace period elapsed",
			event:    models.HeartbeatGracePeriodElapsed{Endpoint: "Sales", Machine: "M1", LastSentAt: t0, DetectedAt: t0.Add(time.Minute)},
			severity: SeverityError,
			category: CategoryHeartbeats,
			raisedAt: t0.Add(time.Minute),
			related:  []string{"/endpoint/Sales", "/host/M1"},
		},
		{
			name:     "custom check failed",
			event:    models.CustomCheckFailed{CustomCheckID: "disk", Endpoint: "Sales", Host: "M1", FailureReason: "full", FailedAt: t0},
			severity: SeverityError,
			category: CategoryCustomChecks,
			raisedAt: t0,
			related:  []string{"/customcheck/disk", "/endpoint/Sales", "/host/M1"},
		},
		{
			name:     "custom check succeeded",
			event:    models.CustomCheckSucceeded{CustomCheckID: "disk", Endpoint: "Sales", Host: "M1"},
			severity: SeverityInfo,
			category: CategoryCustomChecks,
			raisedAt: now,
			related:  []string{"/customcheck/disk", "/endpoint/Sales", "/host/M1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := FromEvent(tt.event, now)
			require.True(t, ok)
			assert.NotEmpty(t, item.ID)
			assert.NotEmpty(t, item.Description)
			assert.Equal(t, tt.event.EventType(), item.EventType)
			assert.Equal(t, tt.severity, item.Severity)
			assert.Equal(t, tt.category, item.Category)
			assert.Equal(t, tt.raisedAt, item.RaisedAt)
			assert.Equal(t, tt.related, item.RelatedTo)
		})
	}
}

func TestRecordingNotifier_RecordsPublishedEvents(t *testing.T) {
	store := &memoryStore{}
	var published []models.Event
	next := notifierFunc(func(_ context.Context, e models.Event) error {
		published = append(published, e)
		return nil
	})

	n := NewRecordingNotifier(next, store, logger.NopLogger())
	require.NoError(t, n.Publish(context.Background(), models.HeartbeatReceived{Endpoint: "A", Machine: "h"}))

	assert.Len(t, published, 1)
	require.Len(t, store.items, 1)
	assert.Equal(t, models.EventTypeHeartbeatReceived, store.items[0].EventType)
}

func TestRecordingNotifier_PublishFailureIsNotRecorded(t *testing.T) {
	store := &memoryStore{}
	n := NewRecordingNotifier(notifierFunc(func(context.Context, models.Event) error {
		return errors.New("broker down")
	}), store, logger.NopLogger())

	assert.Error(t, n.Publish(context.Background(), models.HeartbeatReceived{}))
	assert.Empty(t, store.items)
}

func TestRecordingNotifier_StoreFailureIsTolerated(t *testing.T) {
	store := &memoryStore{err: errors.New("postgres down")}
	n := NewRecordingNotifier(notifierFunc(func(context.Context, models.Event) error { return nil }), store, logger.NopLogger())

	assert.NoError(t, n.Publish(context.Background(), models.CustomCheckFailed{CustomCheckID: "c"}))
}

func TestHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &memoryStore{}
	router := gin.New()
	NewHandler(store, logger.NopLogger()).RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/eventlogitems", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Equal(t, 100, store.limit)

	item, _ := FromEvent(models.HeartbeatReceived{Endpoint: "A", Machine: "h"}, t0)
	store.items = []Item{item}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/eventlogitems?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, store.limit)

	var got []Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, item.ID, got[0].ID)

	store.err = errors.New("down")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/eventlogitems", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 100, parseLimit(""))
	assert.Equal(t, 100, parseLimit("abc"))
	assert.Equal(t, 100, parseLimit("0"))
	assert.Equal(t, 100, parseLimit("5000"))
	assert.Equal(t, 20, parseLimit("20"))
}
