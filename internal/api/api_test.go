package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/golfclub/internal/api"
	"github.com/mcoot/golfclub/internal/api/apierr"
	"github.com/mcoot/golfclub/internal/api/response"
	"github.com/mcoot/golfclub/internal/factory"
	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/storage"
	"github.com/mcoot/golfclub/internal/storage/memory"
	"github.com/mcoot/golfclub/internal/testutil"
)

// testServer wraps the API router over a test app with a pinned clock
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithStorage(t, memory.New())
}

func newTestServerWithStorage(t *testing.T, store storage.Storage) *testServer {
	t.Helper()

	app := factory.NewTestAppWithStorage(store)

	router := api.NewRouter(api.RouterConfig{
		Logger:       testutil.NopLogger(),
		Clock:        app.Clock,
		Metrics:      app.Metrics,
		StorageType:  app.StorageType,
		Members:      app.Members,
		Tournaments:  app.Tournaments,
		Registration: app.Registration,
		Queries:      app.Queries,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func memberBody(name, email, phone string) map[string]any {
	return map[string]any{
		"name":            name,
		"address":         "1 Fairway Drive",
		"email":           email,
		"phone":           phone,
		"start_date":      "2024-01-01",
		"duration_months": 12,
	}
}

func tournamentBody(start, end string, maxParticipants int) map[string]any {
	body := map[string]any{
		"start_date": start,
		"end_date":   end,
		"location":   "Oak Hollow",
		"entry_fee":  75.0,
		"cash_prize": 1000.0,
	}
	if maxParticipants > 0 {
		body["min_participants"] = 2
		body["max_participants"] = maxParticipants
	}
	return body
}

func (ts *testServer) createMember(t *testing.T, name, email string) response.Member {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/members", memberBody(name, email, ""))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.Member](t, rr)
}

func (ts *testServer) createTournament(t *testing.T, maxParticipants int) response.Tournament {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/tournaments", tournamentBody("2024-02-01", "2024-02-03", maxParticipants))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.Tournament](t, rr)
}

func TestBanner(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	banner := decode[response.Banner](t, rr)
	assert.Equal(t, "running", banner.Status)
	assert.Equal(t, "Golf Club API is running", banner.Message)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "memory", decode[response.Health](t, rr).Storage)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/clubhouse", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNotFound, errorCode(t, rr))
}

func TestCreateMember(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/members", memberBody("Alice Smith", "alice@example.com", "555-123-4567"))
	require.Equal(t, http.StatusCreated, rr.Code)

	m := decode[response.Member](t, rr)
	assert.Equal(t, "ACTIVE", m.Status)
	assert.Equal(t, "2025-01-01", m.ExpiresOn)
	assert.Zero(t, m.TournamentsPlayed)

	rr = ts.request(http.MethodGet, fmt.Sprintf("/api/v1/members/%d", m.ID), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice@example.com", decode[response.Member](t, rr).Email)
}

func TestCreateMemberDuplicateContact(t *testing.T) {
	ts := newTestServer(t)
	ts.createMember(t, "Alice Smith", "alice@example.com")

	rr := ts.request(http.MethodPost, "/api/v1/members", memberBody("Alice Twin", "alice@example.com", ""))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeDuplicateContact, errorCode(t, rr))
}

func TestCreateMemberValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"bad phone", memberBody("Alice Smith", "alice@example.com", "5551234567")},
		{"bad name", memberBody("A1", "alice@example.com", "")},
		{"unknown field", map[string]any{"name": "Alice Smith", "handicap": 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/members", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
		})
	}
}

func TestMemberNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/members/99", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeMemberNotFound, errorCode(t, rr))
}

func TestMemberStatusAndDuration(t *testing.T) {
	ts := newTestServer(t)
	m := ts.createMember(t, "Alice Smith", "alice@example.com")
	path := fmt.Sprintf("/api/v1/members/%d", m.ID)

	rr := ts.request(http.MethodPatch, path+"/status", map[string]string{"status": "suspended"})
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodPatch, path+"/status", map[string]string{"status": "retired"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPatch, path+"/duration", map[string]int{"months": 6})
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[response.Member](t, rr)
	assert.Equal(t, 18, got.DurationMonths)
	assert.Equal(t, "SUSPENDED", got.Status)
}

func TestCheckStatusExpiresMember(t *testing.T) {
	ts := newTestServer(t)
	m := ts.createMember(t, "Alice Smith", "alice@example.com")

	ts.app.MockClock.Set(time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC))
	rr := ts.request(http.MethodPost, fmt.Sprintf("/api/v1/members/%d/check-status", m.ID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/members/search/status/expired", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]response.Member](t, rr), 1)
}

func TestTournamentValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body any
		code string
	}{
		{"inverted window", tournamentBody("2024-02-03", "2024-02-01", 0), apierr.CodeInvalidWindow},
		{"past start", tournamentBody("2023-12-01", "2023-12-02", 0), apierr.CodePastStart},
		{"zero fee", map[string]any{"start_date": "2024-02-01", "end_date": "2024-02-01", "location": "Oak Hollow"}, apierr.CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/tournaments", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.code, errorCode(t, rr))
		})
	}
}

func TestRegistrationFlow(t *testing.T) {
	ts := newTestServer(t)
	tour := ts.createTournament(t, 2)
	alice := ts.createMember(t, "Alice Smith", "alice@example.com")
	bob := ts.createMember(t, "Bob Jones", "bob@example.com")
	carol := ts.createMember(t, "Carol White", "carol@example.com")
	base := fmt.Sprintf("/api/v1/tournaments/%d", tour.ID)

	rr := ts.request(http.MethodPost, fmt.Sprintf("%s/members/%d", base, alice.ID), nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	detail := decode[response.TournamentDetail](t, rr)
	assert.Equal(t, 1, detail.Participants)
	assert.False(t, detail.HasMinimum)

	rr = ts.request(http.MethodPost, fmt.Sprintf("%s/members/%d", base, alice.ID), nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeAlreadyRegistered, errorCode(t, rr))

	rr = ts.request(http.MethodPost, fmt.Sprintf("%s/members/%d", base, bob.ID), nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 150.0, decode[response.TournamentDetail](t, rr).Revenue)

	rr = ts.request(http.MethodPost, fmt.Sprintf("%s/members/%d", base, carol.ID), nil)
	assert.Equal(t, apierr.CodeTournamentFull, errorCode(t, rr))

	rr = ts.request(http.MethodGet, base+"/members", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]response.Member](t, rr), 2)

	rr = ts.request(http.MethodGet, fmt.Sprintf("/api/v1/members/%d/tournaments", alice.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]response.Tournament](t, rr), 1)

	rr = ts.request(http.MethodDelete, fmt.Sprintf("%s/members/%d", base, bob.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decode[response.TournamentDetail](t, rr).Participants)

	rr = ts.request(http.MethodDelete, fmt.Sprintf("%s/members/%d", base, bob.ID), nil)
	assert.Equal(t, apierr.CodeNotRegistered, errorCode(t, rr))
}

func TestTournamentLifecycle(t *testing.T) {
	ts := newTestServer(t)
	tour := ts.createTournament(t, 0)
	alice := ts.createMember(t, "Alice Smith", "alice@example.com")
	base := fmt.Sprintf("/api/v1/tournaments/%d", tour.ID)

	require.Equal(t, http.StatusCreated, ts.request(http.MethodPost, fmt.Sprintf("%s/members/%d", base, alice.ID), nil).Code)

	rr := ts.request(http.MethodPatch, base+"/status", map[string]string{"status": "IN_PROGRESS"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeInsufficientParticipants, errorCode(t, rr))

	bob := ts.createMember(t, "Bob Jones", "bob@example.com")
	require.Equal(t, http.StatusCreated, ts.request(http.MethodPost, fmt.Sprintf("%s/members/%d", base, bob.ID), nil).Code)

	assert.Equal(t, http.StatusNoContent, ts.request(http.MethodPatch, base+"/status", map[string]string{"status": "IN_PROGRESS"}).Code)
	assert.Equal(t, http.StatusNoContent, ts.request(http.MethodPatch, base+"/status", map[string]string{"status": "COMPLETED"}).Code)

	rr = ts.request(http.MethodPatch, base+"/status", map[string]string{"status": "CANCELLED"})
	assert.Equal(t, apierr.CodeTerminalState, errorCode(t, rr))

	rr = ts.request(http.MethodGet, fmt.Sprintf("/api/v1/members/%d", alice.ID), nil)
	assert.Equal(t, 1, decode[response.Member](t, rr).TournamentsPlayed)

	rr = ts.request(http.MethodGet, base+"/revenue", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rev := decode[response.Revenue](t, rr)
	require.NotNil(t, rev.TournamentID)
	assert.Equal(t, 150.0, rev.Revenue)

	rr = ts.request(http.MethodGet, "/api/v1/tournaments/revenue", nil)
	assert.Equal(t, 150.0, decode[response.Revenue](t, rr).Revenue)

	rr = ts.request(http.MethodGet, "/api/v1/tournaments/recently-completed", nil)
	assert.Len(t, decode[[]response.Tournament](t, rr), 1)

	rr = ts.request(http.MethodGet, "/api/v1/members/top-participants?limit=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	top := decode[[]response.Member](t, rr)
	require.Len(t, top, 1)
	assert.Equal(t, alice.ID, top[0].ID)
}

func TestSearchRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.createTournament(t, 0)
	alice := ts.createMember(t, "Alice Smith", "alice@example.com")
	rr := ts.request(http.MethodPost, "/api/v1/members", memberBody("Bob Jones", "bob@example.com", "555-987-6543"))
	require.Equal(t, http.StatusCreated, rr.Code)

	tests := []struct {
		path  string
		count int
	}{
		{"/api/v1/members/search/name/smith", 1},
		{"/api/v1/members/search/phone/987", 1},
		{"/api/v1/members/search/active", 2},
		{"/api/v1/members/search/start-dates?from=2024-01-01&to=2024-01-01", 2},
		{"/api/v1/members/search/tournaments?minCount=0", 0},
		{"/api/v1/members/search/winnings?min=0", 0},
		{"/api/v1/members/search/tournament-date?date=2024-02-02", 0},
		{"/api/v1/members/search/tournament?tournamentId=1", 0},
		{"/api/v1/tournaments/search/location/oak", 1},
		{"/api/v1/tournaments/search/status/scheduled", 1},
		{"/api/v1/tournaments/search/dates?from=2024-02-01&to=2024-02-28", 1},
		{"/api/v1/tournaments/search/prize?min=1000", 1},
		{"/api/v1/tournaments/search/fee?max=50", 0},
		{"/api/v1/tournaments/search/participants?minCount=1", 0},
		{"/api/v1/tournaments/available", 1},
		{"/api/v1/tournaments/upcoming", 1},
		{"/api/v1/tournaments/current", 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := ts.request(http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			assert.Len(t, decode[[]json.RawMessage](t, rr), tt.count)
		})
	}

	rr = ts.request(http.MethodGet, "/api/v1/members/search/email/alice@example.com", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, alice.ID, decode[response.Member](t, rr).ID)

	rr = ts.request(http.MethodGet, "/api/v1/members/search/phone-exact/555-987-6543", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Bob Jones", decode[response.Member](t, rr).Name)

	rr = ts.request(http.MethodGet, "/api/v1/members/search/phone-exact/555-000-0000", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/tournaments/search/dates?from=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// conflictingStorage fails every registration write with a version conflict
type conflictingStorage struct {
	storage.Storage
}

func (c conflictingStorage) AddRegistration(context.Context, *model.Tournament, *model.Member, time.Time) error {
	return model.ErrVersionConflict
}

func TestVersionConflictIsRetryable(t *testing.T) {
	ts := newTestServerWithStorage(t, conflictingStorage{Storage: memory.New()})
	tour := ts.createTournament(t, 0)
	alice := ts.createMember(t, "Alice Smith", "alice@example.com")

	rr := ts.request(http.MethodPost, fmt.Sprintf("/api/v1/tournaments/%d/members/%d", tour.ID, alice.ID), nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeConflictRetry, errorCode(t, rr))
}

func TestDeleteIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	m := ts.createMember(t, "Alice Smith", "alice@example.com")
	path := fmt.Sprintf("/api/v1/members/%d", m.ID)

	assert.Equal(t, http.StatusNoContent, ts.request(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNoContent, ts.request(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.request(http.MethodGet, path, nil).Code)
}
