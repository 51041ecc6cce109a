package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/golfclub/internal/api"
	"github.com/mcoot/golfclub/internal/cli"
	"github.com/mcoot/golfclub/internal/dependencies/random"
	"github.com/mcoot/golfclub/internal/factory"
	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/storage"
	"github.com/mcoot/golfclub/internal/storage/memory"
	"github.com/mcoot/golfclub/internal/testutil"
	"github.com/mcoot/golfclub/internal/web"
)

// cliRunner drives the golfctl command tree in-process
type cliRunner struct {
	serverURL string
	rnd       random.Random
}

func newRunner(srv *httptest.Server, app *factory.TestApp) *cliRunner {
	return &cliRunner{serverURL: srv.URL, rnd: app.MockRandom}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	var out bytes.Buffer
	cmd := cli.NewRootCmdWithRandom(r.rnd)
	cmd.SetArgs(fullArgs)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

// startTestServer serves the API and dashboard over a test app whose clock
// is pinned to 2024-01-01
func startTestServer(t *testing.T) (*httptest.Server, *factory.TestApp) {
	t.Helper()
	return startTestServerWith(t, factory.NewTestApp())
}

func startTestServerWith(t *testing.T, app *factory.TestApp) (*httptest.Server, *factory.TestApp) {
	t.Helper()

	logger := testutil.NopLogger()

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		Clock:        app.Clock,
		Metrics:      app.Metrics,
		StorageType:  app.StorageType,
		Members:      app.Members,
		Tournaments:  app.Tournaments,
		Registration: app.Registration,
		Queries:      app.Queries,
	})
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:       logger,
		Metrics:      app.Metrics,
		Tournaments:  app.Tournaments,
		Registration: app.Registration,
		Queries:      app.Queries,
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, app
}

// Response types for JSON parsing
type memberResponse struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Status            string  `json:"status"`
	DurationMonths    int     `json:"duration_months"`
	ExpiresOn         string  `json:"expires_on"`
	TournamentsPlayed int     `json:"tournaments_played"`
	TotalWinnings     float64 `json:"total_winnings"`
}

type tournamentResponse struct {
	ID              int64   `json:"id"`
	Location        string  `json:"location"`
	Status          string  `json:"status"`
	EntryFee        float64 `json:"entry_fee"`
	MaxParticipants int     `json:"max_participants"`
}

type detailResponse struct {
	tournamentResponse
	Participants     int     `json:"participants"`
	Revenue          float64 `json:"revenue"`
	RegistrationOpen bool    `json:"registration_open"`
	HasMinimum       bool    `json:"has_minimum"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func decode[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

func id(v int64) string {
	return fmt.Sprint(v)
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	srv, app := startTestServer(t)
	r := newRunner(srv, app)

	output, err := r.run("health")
	require.NoError(t, err, "output: %s", output)

	resp := decode[struct {
		Status  string `json:"status"`
		Storage string `json:"storage"`
	}](t, output)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Storage)
}

func TestCLI_MemberCommands(t *testing.T) {
	srv, app := startTestServer(t)
	r := newRunner(srv, app)

	output, err := r.run("member", "create",
		"--name", "Alice Smith",
		"--address", "1 Fairway Drive",
		"--email", "alice@example.com",
		"--phone", "555-123-4567",
		"--start-date", "2024-01-01",
		"--months", "12",
	)
	require.NoError(t, err, "output: %s", output)
	alice := decode[memberResponse](t, output)
	assert.Equal(t, "ACTIVE", alice.Status)
	assert.Equal(t, "2025-01-01", alice.ExpiresOn)

	// Duplicate contact details are rejected with the API's code
	_, err = r.run("member", "create",
		"--name", "Alice Twin",
		"--address", "2 Fairway Drive",
		"--email", "alice@example.com",
		"--start-date", "2024-01-01",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DUPLICATE_CONTACT")

	// Update keeps fields without a flag
	output, err = r.run("member", "update", id(alice.ID), "--name", "Alice Jones")
	require.NoError(t, err, "output: %s", output)
	updated := decode[memberResponse](t, output)
	assert.Equal(t, "Alice Jones", updated.Name)
	assert.Equal(t, 12, updated.DurationMonths)

	output, err = r.run("member", "extend", id(alice.ID), "6")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "2025-07-01", decode[memberResponse](t, output).ExpiresOn)

	output, err = r.run("member", "winnings", id(alice.ID), "125.5")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, 125.5, decode[memberResponse](t, output).TotalWinnings)

	output, err = r.run("member", "status", id(alice.ID), "SUSPENDED")
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, decode[messageResponse](t, output).Message, "SUSPENDED")

	output, err = r.run("member", "search", "--status", "suspended")
	require.NoError(t, err, "output: %s", output)
	assert.Len(t, decode[[]memberResponse](t, output), 1)

	output, err = r.run("member", "search", "--name", "jones")
	require.NoError(t, err, "output: %s", output)
	assert.Len(t, decode[[]memberResponse](t, output), 1)

	_, err = r.run("member", "search")
	assert.Error(t, err)

	output, err = r.run("member", "delete", id(alice.ID))
	require.NoError(t, err, "output: %s", output)

	_, err = r.run("member", "get", id(alice.ID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEMBER_NOT_FOUND")
}

func TestCLI_TournamentLifecycle(t *testing.T) {
	srv, app := startTestServer(t)
	r := newRunner(srv, app)

	output, err := r.run("tournament", "create",
		"--start-date", "2024-02-01",
		"--end-date", "2024-02-02",
		"--location", "Oak Hollow",
		"--fee", "75",
		"--prize", "500",
		"--max", "2",
	)
	require.NoError(t, err, "output: %s", output)
	tour := decode[tournamentResponse](t, output)
	assert.Equal(t, "SCHEDULED", tour.Status)
	assert.Equal(t, 2, tour.MaxParticipants)

	var members []memberResponse
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		output, err := r.run("member", "create",
			"--name", name+" Golfer",
			"--address", "1 Fairway Drive",
			"--email", name+"@example.com",
			"--start-date", "2024-01-01",
		)
		require.NoError(t, err, "output: %s", output)
		members = append(members, decode[memberResponse](t, output))
	}

	_, err = r.run("tournament", "status", id(tour.ID), "IN_PROGRESS")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSUFFICIENT_PARTICIPANTS")

	for _, m := range members[:2] {
		output, err := r.run("registration", "register", id(tour.ID), id(m.ID))
		require.NoError(t, err, "output: %s", output)
	}

	_, err = r.run("registration", "register", id(tour.ID), id(members[2].ID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOURNAMENT_FULL")

	output, err = r.run("tournament", "get", id(tour.ID))
	require.NoError(t, err, "output: %s", output)
	detail := decode[detailResponse](t, output)
	assert.Equal(t, 2, detail.Participants)
	assert.Equal(t, 150.0, detail.Revenue)
	assert.True(t, detail.HasMinimum)
	assert.False(t, detail.RegistrationOpen)

	output, err = r.run("tournament", "members", id(tour.ID))
	require.NoError(t, err, "output: %s", output)
	assert.Len(t, decode[[]memberResponse](t, output), 2)

	_, err = r.run("tournament", "status", id(tour.ID), "IN_PROGRESS")
	require.NoError(t, err)
	_, err = r.run("tournament", "status", id(tour.ID), "COMPLETED")
	require.NoError(t, err)

	output, err = r.run("member", "get", id(members[0].ID))
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, 1, decode[memberResponse](t, output).TournamentsPlayed)

	output, err = r.run("tournament", "revenue")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, 150.0, decode[struct {
		Revenue float64 `json:"revenue"`
	}](t, output).Revenue)

	output, err = r.run("tournament", "completed")
	require.NoError(t, err, "output: %s", output)
	assert.Len(t, decode[[]tournamentResponse](t, output), 1)

	output, err = r.run("report", "--limit", "2")
	require.NoError(t, err, "output: %s", output)
	report := decode[struct {
		TotalRevenue    float64              `json:"total_revenue"`
		Upcoming        []tournamentResponse `json:"upcoming"`
		TopParticipants []memberResponse     `json:"top_participants"`
	}](t, output)
	assert.Equal(t, 150.0, report.TotalRevenue)
	assert.Empty(t, report.Upcoming)
	assert.Len(t, report.TopParticipants, 2)

	_, err = r.run("tournament", "status", id(tour.ID), "CANCELLED")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TERMINAL_STATE")
}

func TestCLI_TextOutput(t *testing.T) {
	srv, app := startTestServer(t)

	var out bytes.Buffer
	cmd := cli.NewRootCmdWithRandom(app.MockRandom)
	cmd.SetArgs([]string{"--server", srv.URL, "--output", "text", "health"})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Status: ok")
	assert.Contains(t, out.String(), "Storage: memory")
}

// contendedStorage loses the first registration write to a concurrent update
type contendedStorage struct {
	storage.Storage
	conflicts atomic.Int32
}

func (s *contendedStorage) AddRegistration(ctx context.Context, t *model.Tournament, m *model.Member, at time.Time) error {
	if s.conflicts.Add(1) == 1 {
		return model.ErrVersionConflict
	}
	return s.Storage.AddRegistration(ctx, t, m, at)
}

func TestCLI_RegisterRetriesConflict(t *testing.T) {
	store := &contendedStorage{Storage: memory.New()}
	srv, app := startTestServerWith(t, factory.NewTestAppWithStorage(store))
	r := newRunner(srv, app)
	app.MockRandom.QueueIntn(3)

	output, err := r.run("tournament", "create",
		"--start-date", "2024-02-01",
		"--end-date", "2024-02-01",
		"--location", "Oak Hollow",
		"--fee", "40",
	)
	require.NoError(t, err, "output: %s", output)
	tour := decode[tournamentResponse](t, output)

	output, err = r.run("member", "create",
		"--name", "Alice Smith",
		"--address", "1 Fairway Drive",
		"--email", "alice@example.com",
		"--start-date", "2024-01-01",
	)
	require.NoError(t, err, "output: %s", output)
	alice := decode[memberResponse](t, output)

	output, err = r.run("--retries", "1", "registration", "register", id(tour.ID), id(alice.ID))
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, 1, decode[detailResponse](t, output).Participants)

	// One retry, jitter drawn from the app's random source
	assert.Equal(t, []int{50}, app.MockRandom.Calls())
	assert.EqualValues(t, 2, store.conflicts.Load())

	// With retries disabled the conflict reaches the caller
	_, err = r.run("--retries", "0", "registration", "withdraw", id(tour.ID), id(alice.ID))
	require.NoError(t, err)
	store.conflicts.Store(0)
	_, err = r.run("--retries", "0", "registration", "register", id(tour.ID), id(alice.ID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFLICT_RETRY")
}

func TestDashboardServedAtRoot(t *testing.T) {
	srv, _ := startTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}
