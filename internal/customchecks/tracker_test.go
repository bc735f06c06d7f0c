package customchecks

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
	apperrors "auditwatch/pkg/errors"
	"auditwatch/pkg/models"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, e models.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, e)
	return nil
}

var t0 = time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

func report(failed bool, at time.Time) models.CustomCheckReport {
	r := models.CustomCheckReport{
		CustomCheckID: "disk-space",
		Category:      "Storage",
		EndpointName:  "Sales",
		Host:          "M1",
		HasFailed:     failed,
		ReportedAt:    at,
	}
	if failed {
		r.FailureReason = "disk full"
	}
	return r
}

func TestTracker_PublishesOnFirstReportAndChanges(t *testing.T) {
	notifier := &recordingNotifier{}
	tr := NewTracker(notifier, logger.NopLogger())
	ctx := context.Background()

	require.NoError(t, tr.Report(ctx, report(false, t0)))
	require.NoError(t, tr.Report(ctx, report(false, t0.Add(time.Minute))))
	require.NoError(t, tr.Report(ctx, report(true, t0.Add(2*time.Minute))))
	require.NoError(t, tr.Report(ctx, report(true, t0.Add(3*time.Minute))))
	require.NoError(t, tr.Report(ctx, report(false, t0.Add(4*time.Minute))))

	require.Len(t, notifier.events, 3)
	assert.Equal(t, models.CustomCheckSucceeded{
		CustomCheckID: "disk-space", Category: "Storage", Endpoint: "Sales", Host: "M1", SucceededAt: t0,
	}, notifier.events[0])
	assert.Equal(t, models.CustomCheckFailed{
		CustomCheckID: "disk-space", Category: "Storage", Endpoint: "Sales", Host: "M1",
		FailureReason: "disk full", FailedAt: t0.Add(2 * time.Minute),
	}, notifier.events[1])
	assert.Equal(t, models.EventTypeCustomCheckSucceeded, notifier.events[2].EventType())
}

func TestTracker_IgnoresOlderReports(t *testing.T) {
	notifier := &recordingNotifier{}
	tr := NewTracker(notifier, logger.NopLogger())
	ctx := context.Background()

	require.NoError(t, tr.Report(ctx, report(true, t0.Add(time.Minute))))
	require.NoError(t, tr.Report(ctx, report(false, t0)))

	assert.Len(t, notifier.events, 1)
	assert.True(t, tr.Statuses(false)[0].Failed)
}

func TestTracker_ChecksAreScopedPerEndpointAndHost(t *testing.T) {
	notifier := &recordingNotifier{}
	tr := NewTracker(notifier, logger.NopLogger())
	ctx := context.Background()

	a := report(true, t0)
	b := report(false, t0)
	b.Host = "M2"

	require.NoError(t, tr.Report(ctx, a))
	require.NoError(t, tr.Report(ctx, b))

	assert.Len(t, notifier.events, 2)
	all := tr.Statuses(false)
	require.Len(t, all, 2)
	assert.True(t, all[0].Failed)

	failing := tr.Statuses(true)
	require.Len(t, failing, 1)
	assert.Equal(t, "M1", failing[0].Host)
}

func TestTracker_PublishErrorIsReturned(t *testing.T) {
	notifier := &recordingNotifier{err: apperrors.ErrPublish.WithCause(errors.New("down"))}
	tr := NewTracker(notifier, logger.NopLogger())

	err := tr.Report(context.Background(), report(true, t0))
	assert.ErrorIs(t, err, apperrors.ErrPublish)
	assert.Empty(t, tr.Statuses(false))

	notifier.err = nil
	require.NoError(t, tr.Report(context.Background(), report(true, t0)))
	assert.Len(t, notifier.events, 1)
}

func TestTracker_HandleMessage(t *testing.T) {
	tr := NewTracker(&recordingNotifier{}, logger.NopLogger())
	ctx := context.Background()

	body, err := json.Marshal(report(true, t0))
	require.NoError(t, err)
	require.NoError(t, tr.HandleMessage(ctx, models.TransportMessage{Body: body}))
	assert.Len(t, tr.Statuses(true), 1)

	err = tr.HandleMessage(ctx, models.TransportMessage{Body: []byte("not json")})
	assert.True(t, apperrors.IsFatal(err))

	err = tr.HandleMessage(ctx, models.TransportMessage{Body: []byte(`{"custom_check_id":"x"}`)})
	assert.ErrorIs(t, err, apperrors.ErrMalformedMessage)
}

func TestHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tr := NewTracker(&recordingNotifier{}, logger.NopLogger())
	ok := report(false, t0)
	ok.CustomCheckID = "ping"
	require.NoError(t, tr.Report(context.Background(), ok))
	require.NoError(t, tr.Report(context.Background(), report(true, t0)))

	router := gin.New()
	NewHandler(tr).RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/customchecks?status=fail", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got []Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "disk-space", got[0].CustomCheckID)
}
