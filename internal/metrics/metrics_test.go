package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	m := New()

	m.MemberTransition("EXPIRED")
	m.TournamentTransition("COMPLETED")
	m.TournamentTransition("COMPLETED")
	m.Registration("register", nil)
	m.Registration("register", errors.New("full"))
	m.Conflict("register")

	assert.InDelta(t, 1, testutil.ToFloat64(m.memberTransitions.WithLabelValues("EXPIRED")), 0.001)
	assert.InDelta(t, 2, testutil.ToFloat64(m.tournamentTransitions.WithLabelValues("COMPLETED")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.registrations.WithLabelValues("register", "ok")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.registrations.WithLabelValues("register", "rejected")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.conflicts.WithLabelValues("register")), 0.001)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.MemberTransition("ACTIVE")
		m.TournamentTransition("SCHEDULED")
		m.Registration("withdraw", nil)
		m.Conflict("withdraw")
		m.ObserveHTTP(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/api/v1/members", http.StatusOK, 10*time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "golfclub_http_request_duration_seconds")
	assert.Contains(t, rr.Body.String(), `route="/api/v1/members"`)
}
