package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/subtrack/internal/api/dto"
	"github.com/eshaffer321/subtrack/internal/api/handlers"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	t.Run("returns 200 OK with health status", func(t *testing.T) {
		handler := handlers.NewHealthHandler(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var response dto.HealthResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "ok", response.Status)
		assert.NotEmpty(t, response.Timestamp)
		assert.Empty(t, response.Database)
	})

	t.Run("reports database reachability", func(t *testing.T) {
		handler := handlers.NewHealthHandler(fakePinger{})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		var response dto.HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", response.Database)
	})

	t.Run("returns 503 when database is down", func(t *testing.T) {
		handler := handlers.NewHealthHandler(fakePinger{err: errors.New("connection refused")})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		var response dto.HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "degraded", response.Status)
		assert.Equal(t, "unreachable", response.Database)
	})
}
