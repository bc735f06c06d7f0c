package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return errors.New("down") }

func TestCheckerRegistry_Status(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *CheckerRegistry)
		expected Status
	}{
		{
			name:     "empty",
			setup:    func(*CheckerRegistry) {},
			expected: StatusHealthy,
		},
		{
			name: "all healthy",
			setup: func(r *CheckerRegistry) {
				r.Register(FuncChecker("a", ok))
				r.RegisterOptional(FuncChecker("b", ok))
			},
			expected: StatusHealthy,
		},
		{
			name: "optional failing",
			setup: func(r *CheckerRegistry) {
				r.Register(FuncChecker("a", ok))
				r.RegisterOptional(FuncChecker("b", fail))
			},
			expected: StatusDegraded,
		},
		{
			name: "required failing",
			setup: func(r *CheckerRegistry) {
				r.Register(FuncChecker("a", fail))
				r.RegisterOptional(FuncChecker("b", fail))
			},
			expected: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewCheckerRegistry()
			tt.setup(r)
			assert.Equal(t, tt.expected, r.Check(context.Background()).Status)
		})
	}
}

func TestCheckerRegistry_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewCheckerRegistry()
	r.Register(FuncChecker("store", fail))

	router := gin.New()
	router.GET("/health", r.Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusUnhealthy, body.Status)
	assert.Equal(t, "down", body.Checks["store"].Message)
}

func TestRedisChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	checker := NewRedisChecker(client)
	assert.Equal(t, "redis", checker.Name())
	assert.NoError(t, checker.Check(context.Background()))

	mr.Close()
	assert.Error(t, checker.Check(context.Background()))
}

func TestKafkaChecker_NoBrokers(t *testing.T) {
	err := NewKafkaChecker(nil).Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no kafka brokers")
}

func TestKafkaChecker_Unreachable(t *testing.T) {
	err := NewKafkaChecker([]string{"127.0.0.1:1"}).Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka dial failed")
}
