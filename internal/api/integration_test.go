package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/subtrack/internal/api"
	"github.com/eshaffer321/subtrack/internal/api/dto"
	"github.com/eshaffer321/subtrack/internal/application/service"
	"github.com/eshaffer321/subtrack/internal/domain/matcher"
	"github.com/eshaffer321/subtrack/internal/infrastructure/auth"
	"github.com/eshaffer321/subtrack/internal/infrastructure/config"
	"github.com/eshaffer321/subtrack/internal/infrastructure/storage"
)

// =============================================================================
// API Integration Tests
// =============================================================================
// These tests use real SQLite databases to test the full stack:
// HTTP request → Router → Auth → Services → Storage → SQLite
//
// This catches issues that mock-based tests miss, like:
// - decimal and timestamp round trips through the driver
// - the transactional insert + link path
// - JSON serialization through the full pipeline

type integrationEnv struct {
	ts     *httptest.Server
	store  *storage.Storage
	tokens *auth.TokenService
}

func createTestServer(t *testing.T) *integrationEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "api_integration.db")
	store, err := storage.NewStorage(dbPath)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenService(config.AuthConfig{JWTSecret: "integration-secret", Issuer: "subtrack", TokenTTL: time.Hour})

	// Create real server with real storage
	server := api.NewServer(api.DefaultConfig(), api.Deps{
		Repo:          store,
		Detection:     service.NewDetectionService(store, matcher.NewMatcher(matcher.DefaultConfig()), nil, logger),
		Subscriptions: service.NewSubscriptionService(store, nil, logger),
		Tokens:        tokens,
	}, logger)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(func() {
		ts.Close()
		store.Close()
		os.Remove(dbPath)
	})

	return &integrationEnv{ts: ts, store: store, tokens: tokens}
}

func (e *integrationEnv) call(t *testing.T, userID, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	if userID != "" {
		token, err := e.tokens.Issue(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func unwrap(t *testing.T, raw []byte, out any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	require.True(t, env.Success, string(raw))
	require.NoError(t, json.Unmarshal(env.Data, out))
}

// monthlyCharges returns six monthly Spotify charges ending last month
func monthlyCharges() []map[string]any {
	var txs []map[string]any
	now := time.Now().UTC()
	for i := 0; i < 6; i++ {
		txs = append(txs, map[string]any{
			"id":        "spotify-" + string(rune('a'+i)),
			"amount":    "-9.99",
			"currency":  "EUR",
			"merchant":  "SPOTIFY",
			"booked_at": now.AddDate(0, i-6, 0).Format("2006-01-02"),
		})
	}
	return txs
}

func TestAPI_Integration_HealthCheck(t *testing.T) {
	env := createTestServer(t)

	resp, raw := env.call(t, "", http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(raw, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.Database)
}

func TestAPI_Integration_DetectAndMaterialize(t *testing.T) {
	env := createTestServer(t)

	// Import
	resp, raw := env.call(t, "user-1", http.MethodPost, "/api/transactions/import", map[string]any{
		"transactions": append(monthlyCharges(), map[string]any{
			"id": "rent", "amount": "-950.00", "currency": "EUR", "description": "Rent", "booked_at": "2025-01-01",
		}),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var imported dto.ImportResponse
	unwrap(t, raw, &imported)
	assert.Equal(t, 7, imported.Inserted)

	// Detect
	resp, raw = env.call(t, "user-1", http.MethodGet, "/api/transactions/spotify-f/detection", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var detection dto.DetectionResponse
	unwrap(t, raw, &detection)
	require.NotNil(t, detection.DetectedFrequency)
	assert.Equal(t, "monthly", *detection.DetectedFrequency)
	assert.GreaterOrEqual(t, detection.Confidence, 80)
	require.Len(t, detection.MatchedTransactions, 6)
	assert.Equal(t, "spotify-a", detection.MatchedTransactions[0].ID)
	assert.Equal(t, "-9.99", detection.MatchedTransactions[0].Amount)

	ids := make([]string, 0, len(detection.MatchedTransactions))
	for _, m := range detection.MatchedTransactions {
		ids = append(ids, m.ID)
	}

	// Materialize
	resp, raw = env.call(t, "user-1", http.MethodPost, "/api/subscriptions/from-detection", map[string]any{
		"transaction_id":          "spotify-f",
		"name":                    detection.SuggestedName,
		"frequency":               *detection.DetectedFrequency,
		"importance":              3,
		"matched_transaction_ids": ids,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var created dto.CreateFromDetectionResponse
	unwrap(t, raw, &created)
	assert.Equal(t, 6, created.LinkedCount)

	// Read back through storage
	resp, raw = env.call(t, "user-1", http.MethodGet, "/api/subscriptions?active=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.SubscriptionListResponse
	unwrap(t, raw, &list)
	require.Equal(t, 1, list.Count)
	sub := list.Subscriptions[0]
	assert.Equal(t, "SPOTIFY", sub.Name)
	assert.Equal(t, "9.99", sub.Amount)
	assert.Equal(t, 3, sub.Importance)
	assert.Equal(t, 6, sub.LinkedCount)

	// Duplicate name is caught by the service check and the constraint
	resp, raw = env.call(t, "user-1", http.MethodPost, "/api/subscriptions/from-detection", map[string]any{
		"transaction_id": "spotify-f",
		"name":           "SPOTIFY",
		"frequency":      "monthly",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(raw))

	// Another user sees nothing
	resp, raw = env.call(t, "user-2", http.MethodGet, "/api/subscriptions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var empty dto.SubscriptionListResponse
	unwrap(t, raw, &empty)
	assert.Equal(t, 0, empty.Count)

	resp, _ = env.call(t, "user-2", http.MethodDelete, "/api/subscriptions/"+created.SubscriptionID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Delete unlinks every transaction
	resp, raw = env.call(t, "user-1", http.MethodDelete, "/api/subscriptions/"+created.SubscriptionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var deleted dto.DeleteSubscriptionResponse
	unwrap(t, raw, &deleted)
	assert.Equal(t, 6, deleted.UnlinkedCount)
}

func TestAPI_Integration_NullHandling(t *testing.T) {
	env := createTestServer(t)
	resp, raw := env.call(t, "user-1", http.MethodPost, "/api/transactions/import", map[string]any{
		"transactions": []map[string]any{
			{"id": "card-1", "amount": "-4.50", "currency": "EUR", "booked_at": "2025-05-02"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = env.call(t, "user-1", http.MethodGet, "/api/transactions/card-1/detection", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Contains(t, string(raw), `"detected_frequency":null`)
	assert.Contains(t, string(raw), `"suggested_merchant":null`)
	var detection dto.DetectionResponse
	unwrap(t, raw, &detection)
	assert.Equal(t, 0, detection.Confidence)
	assert.Equal(t, "", detection.SuggestedName)
	assert.Len(t, detection.MatchedTransactions, 1)
}

func TestAPI_Integration_Unauthenticated(t *testing.T) {
	env := createTestServer(t)

	resp, raw := env.call(t, "", http.MethodGet, "/api/subscriptions", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(raw), `"code":"not_authenticated"`)
}
