package runner

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/realm-engine/internal/handlers"
	"github.com/jwebster45206/realm-engine/pkg/action"
	"github.com/jwebster45206/realm-engine/pkg/storage"
)

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := storage.NewMockStorage()

	mux := http.NewServeMux()
	handlers.NewPlayersHandler(store, log).Register(mux)
	mux.Handle("/v1/action", handlers.NewActionHandler(action.NewDispatcher(store, nil, nil, log), log))
	mux.Handle("/v1/world", handlers.NewWorldHandler(store, log))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testRunner(server *httptest.Server) *Runner {
	r := NewRunner(server.URL + "/")
	r.Client = server.Client()
	return r
}

func TestRunSuite(t *testing.T) {
	server := newTestAPI(t)

	suite := TestSuite{
		Name:       "basics",
		PlayerName: "Ada",
		Steps: []TestStep{
			{
				Name:   "rest",
				Action: "rest",
				Expectations: Expectations{
					Status:          intPtr(http.StatusOK),
					OK:              boolPtr(true),
					Outcome:         []string{"rested"},
					XPMin:           intPtr(10),
					XPMax:           intPtr(10),
					ElementsContain: []string{"Iron", "Gold"},
				},
			},
			{
				Name:    "craft",
				Action:  "craft",
				Payload: json.RawMessage(`{"elements":["Iron","Gold"]}`),
				Expectations: Expectations{
					Outcome:        []string{"crafted"},
					ItemsMin:       intPtr(1),
					DiscoveriesMin: intPtr(1),
					WorldContains:  []string{"Blueprint discovered: Iron, Gold by {player}"},
				},
			},
			{
				Name:    "missing enemy",
				Action:  "fight",
				Payload: json.RawMessage(`{"enemy_id":"nobody"}`),
				Expectations: Expectations{
					Status:    intPtr(http.StatusNotFound),
					ErrorKind: "EncounterNotFound",
				},
			},
		},
	}

	result, err := testRunner(server).RunSuite(context.Background(), suite)
	require.NoError(t, err)
	assert.NotEmpty(t, result.PlayerID)
	require.Len(t, result.Results, 3)
	for _, r := range result.Results {
		assert.True(t, r.Success, r.StepName)
		assert.Equal(t, 1, r.Attempts)
	}
}

func TestRunSuite_ExpectationFailure(t *testing.T) {
	server := newTestAPI(t)
	r := testRunner(server)

	suite := TestSuite{
		Name: "too greedy",
		Steps: []TestStep{
			{Name: "rest", Action: "rest", Expectations: Expectations{XPMin: intPtr(500)}},
			{Name: "rest again", Action: "rest", Expectations: Expectations{XPMin: intPtr(20)}},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected xp >= 500")
	require.Len(t, result.Results, 2, "continue mode runs every step")
	assert.False(t, result.Results[0].Success)
	assert.True(t, result.Results[1].Success)

	r.ErrorHandlingMode = ErrorHandlingExit
	result, err = r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Len(t, result.Results, 1)
}

func TestRunSuite_UntilOutcome(t *testing.T) {
	server := newTestAPI(t)

	suite := TestSuite{
		Steps: []TestStep{
			{
				Name:         "explore",
				Action:       "explore",
				UntilOutcome: "encounter",
				MaxAttempts:  200,
				Expectations: Expectations{EncountersMin: intPtr(1)},
			},
			{
				Name:         "flee",
				Action:       "fight",
				Payload:      json.RawMessage(`{"enemy_id":"$first","cmd":"flee"}`),
				Expectations: Expectations{Status: intPtr(http.StatusOK), Outcome: []string{"fled", "draw", "victory"}},
			},
		},
	}

	result, err := testRunner(server).RunSuite(context.Background(), suite)
	require.NoError(t, err)
	assert.Equal(t, "encounter", result.Results[0].Outcome)
}

func TestRunSuite_UntilOutcomeNeverReached(t *testing.T) {
	server := newTestAPI(t)

	suite := TestSuite{
		Steps: []TestStep{{Name: "rest", Action: "rest", UntilOutcome: "victory", MaxAttempts: 3}},
	}

	result, err := testRunner(server).RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reached after 3 attempts")
	assert.Equal(t, 3, result.Results[0].Attempts)
}

func TestBuildRequestWithoutEncounter(t *testing.T) {
	server := newTestAPI(t)
	suite := TestSuite{
		Steps: []TestStep{{Name: "fight", Action: "fight", Payload: json.RawMessage(`{"enemy_id":"$first"}`)}},
	}
	_, err := testRunner(server).RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no encounter to target")
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	write("a.json", `{"name":"a","steps":[{"action":"rest","expect":{}}]}`)
	write("b.json", `{"name":"b","steps":[{"action":"explore","expect":{}}]}`)
	write("inner.json", `{"name":"inner","cases":["b.json"]}`)
	seq := write("seq.json", `{"name":"seq","cases":["a.json","inner.json"]}`)

	jobs, err := LoadTestSuiteWithExpansion(seq, dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name)
	assert.Equal(t, "b", jobs[1].Name)
	assert.Equal(t, filepath.Join(dir, "b.json"), jobs[1].CaseFile)

	loop := write("loop.json", `{"name":"loop","cases":["loop.json"]}`)
	_, err = LoadTestSuiteWithExpansion(loop, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")

	_, err = LoadTestSuiteWithExpansion(filepath.Join(dir, "missing.json"), dir)
	assert.Error(t, err)
}

func TestCaseFilesParse(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "cases", "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		jobs, err := LoadTestSuiteWithExpansion(f, filepath.Join("..", "cases"))
		require.NoError(t, err, f)
		assert.NotEmpty(t, jobs, f)
	}
}
