package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch/internal/workers"
	"stockwatch/pkg/errors"
	"stockwatch/pkg/logger"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }
func (f pingFunc) Health(ctx context.Context) error      { return f(ctx) }

var (
	up   = pingFunc(func(context.Context) error { return nil })
	down = pingFunc(func(context.Context) error { return errors.ErrUnavailable })
)

func serve(t *testing.T, handler http.HandlerFunc) (*httptest.ResponseRecorder, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec, status
}

func TestHandleLiveness(t *testing.T) {
	h := New(logger.NewNop(), down, nil, nil, "stockwatch", "test")

	rec := httptest.NewRecorder()
	h.HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func TestHandleReadiness(t *testing.T) {
	tests := []struct {
		name     string
		postgres Pinger
		redis    Checker
		code     int
	}{
		{name: "all up", postgres: up, redis: up, code: http.StatusOK},
		{name: "redis not configured", postgres: up, code: http.StatusOK},
		{name: "postgres down", postgres: down, code: http.StatusServiceUnavailable},
		{name: "redis down", postgres: up, redis: down, code: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(logger.NewNop(), tt.postgres, tt.redis, nil, "stockwatch", "test")

			rec, _ := serve(t, h.HandleReadiness)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestHandleHealth(t *testing.T) {
	workerHealth := func() []workers.WorkerHealth {
		return []workers.WorkerHealth{{Name: "price_watch", RunCount: 3, Enabled: true}}
	}

	h := New(logger.NewNop(), up, down, workerHealth, "stockwatch", "test")
	rec, status := serve(t, h.HandleHealth)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "unhealthy", status.Checks["redis"].Status)
	require.Len(t, status.Workers, 1)
	assert.Equal(t, "price_watch", status.Workers[0].Name)

	h = New(logger.NewNop(), down, nil, nil, "stockwatch", "test")
	rec, status = serve(t, h.HandleHealth)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", status.Status)
}
