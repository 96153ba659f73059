package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pingCheck(t *testing.T, pingErr error) CheckFunc {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.ExpectPing().WillReturnError(pingErr)
	return db.PingContext
}

func TestHealthChecker_Liveness(t *testing.T) {
	checker := NewHealthChecker("1.0.0")
	checker.AddCheck("database", true, func(context.Context) error { return errors.New("down") })

	rr := httptest.NewRecorder()
	checker.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rr.Code, "liveness ignores dependencies")
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, StatusHealthy, body["status"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Contains(t, body, "uptime_seconds")
}

func TestHealthChecker_Readiness(t *testing.T) {
	t.Run("no checks is healthy", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewHealthChecker("test").Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("failed database is unhealthy", func(t *testing.T) {
		checker := NewHealthChecker("test")
		checker.AddCheck("database", true, pingCheck(t, errors.New("connection refused")))

		rr := httptest.NewRecorder()
		checker.Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

		var status HealthStatus
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&status))
		assert.Equal(t, StatusUnhealthy, status.Status)
		assert.Equal(t, "connection refused", status.Dependencies["database"].Error)
		assert.True(t, status.Dependencies["database"].Critical)
	})
}

func TestHealthChecker_Check(t *testing.T) {
	t.Run("healthy database and redis", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		checker := NewHealthChecker("1.2.3")
		checker.AddCheck("database", true, pingCheck(t, nil))
		checker.AddCheck("sessions", false, RedisCheck(client))

		status := checker.Check(context.Background())
		assert.Equal(t, StatusHealthy, status.Status)
		assert.Equal(t, "1.2.3", status.Version)
		assert.Equal(t, StatusHealthy, status.Dependencies["database"].Status)
		assert.Equal(t, StatusHealthy, status.Dependencies["sessions"].Status)
	})

	t.Run("optional dependency down degrades", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		defer client.Close()
		mr.Close()

		checker := NewHealthChecker("test")
		checker.AddCheck("sessions", false, RedisCheck(client))

		status := checker.Check(context.Background())
		assert.Equal(t, StatusDegraded, status.Status)
		assert.Equal(t, StatusUnhealthy, status.Dependencies["sessions"].Status)
	})

	t.Run("critical failure wins over degraded", func(t *testing.T) {
		checker := NewHealthChecker("test")
		checker.AddCheck("cache", false, func(context.Context) error { return errors.New("down") })
		checker.AddCheck("database", true, func(context.Context) error { return errors.New("down") })

		assert.Equal(t, StatusUnhealthy, checker.Check(context.Background()).Status)
	})

	t.Run("slow check times out", func(t *testing.T) {
		checker := NewHealthChecker("test")
		checker.AddCheck("database", true, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		status := checker.Check(ctx)
		assert.Equal(t, StatusUnhealthy, status.Status)
		assert.Equal(t, context.DeadlineExceeded.Error(), status.Dependencies["database"].Error)
	})
}

func TestRegisterHealthRoutes(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHealthRoutes(mux, NewHealthChecker("test"))

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}
