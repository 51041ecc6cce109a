package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/golfclub/internal/dependencies/mocks"
)

// conflictServer rejects the first n requests with CONFLICT_RETRY
func conflictServer(t *testing.T, n int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) <= n {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: APIError{Code: CodeConflictRetry, Message: "retry"}})
			return
		}
		_ = json.NewEncoder(w).Encode(HealthResult{Status: "ok"})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(url string, retries int) (*Client, *mocks.MockRandom, *[]time.Duration) {
	rnd := mocks.NewMockRandom()
	c := NewClient(url, rnd, retries)
	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }
	return c, rnd, &slept
}

func TestClientRetriesConflicts(t *testing.T) {
	srv, calls := conflictServer(t, 2)
	c, rnd, slept := newTestClient(srv.URL, 3)
	rnd.QueueIntn(7, 11)

	var result HealthResult
	require.NoError(t, c.Get("/", &result))

	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{57 * time.Millisecond, 111 * time.Millisecond}, *slept)
	assert.Equal(t, []int{50, 50}, rnd.Calls())
}

func TestClientGivesUpAfterRetries(t *testing.T) {
	srv, calls := conflictServer(t, 10)
	c, _, slept := newTestClient(srv.URL, 2)

	err := c.Get("/", nil)
	require.Error(t, err)
	assert.True(t, IsConflictRetry(err))
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, *slept, 2)
}

func TestClientDoesNotRetryOtherErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: APIError{Code: "TOURNAMENT_FULL", Message: "Tournament has reached maximum participants"}})
	}))
	defer srv.Close()
	c, _, slept := newTestClient(srv.URL, 3)

	err := c.Post("/", map[string]int{"x": 1}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "TOURNAMENT_FULL", apiErr.Code)
	assert.Equal(t, "Tournament has reached maximum participants (TOURNAMENT_FULL)", err.Error())
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, *slept)
}

func TestClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()
	c, _, _ := newTestClient(srv.URL, 3)

	err := c.Get("/", nil)
	assert.ErrorContains(t, err, "HTTP 502")
	assert.False(t, IsConflictRetry(err))
}
