package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextstep-polls/internal/config"
	"nextstep-polls/internal/container"
	"nextstep-polls/internal/domain"
	"nextstep-polls/internal/seed"
	"nextstep-polls/pkg/logger"
)

func testPolls() []domain.Poll {
	return []domain.Poll{
		{
			ID:    "single",
			Title: "Ward 12 - MLA Candidate",
			Options: []domain.PollOption{
				{ID: "a", Text: "A, Inc.", Votes: 3},
				{ID: "b", Text: `Bob "B"`, Votes: 1},
			},
			Tags:      []string{"election", "mla"},
			CreatedAt: 1,
		},
		{
			ID:    "revote",
			Title: "Kothrud - Nagar Sevak",
			Options: []domain.PollOption{
				{ID: "x", Text: "X", Votes: 10},
				{ID: "y", Text: "Y", Votes: 0},
			},
			Tags:      []string{"local"},
			Settings:  domain.PollSettings{AllowRevote: true},
			CreatedAt: 2,
		},
	}
}

func setupServer(t *testing.T) (http.Handler, *container.Container) {
	t.Helper()
	c, err := container.New(context.Background(), &config.Config{
		Environment:        "test",
		StoreBackend:       config.BackendMemory,
		SeedOnStart:        true,
		SimulationInterval: 10 * time.Millisecond,
		TrendingLimit:      12,
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Store.SaveAll(context.Background(), testPolls()))
	return NewRouter(c), c
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(v))
}

type errorBody struct {
	Success bool `json:"success"`
	Error   struct {
		Type      string                 `json:"type"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details"`
		RequestID string                 `json:"request_id"`
		Timestamp string                 `json:"timestamp"`
	} `json:"error"`
}

func TestHealth(t *testing.T) {
	h, _ := setupServer(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, config.BackendMemory, body.Store)
}

func TestListAndFilter(t *testing.T) {
	h, _ := setupServer(t)

	tests := []struct {
		name string
		path string
		want []string
	}{
		{"all", "/api/polls", []string{"single", "revote"}},
		{"query", "/api/polls?q=nagar", []string{"revote"}},
		{"tag", "/api/polls?tag=mla", []string{"single"}},
		{"trending", "/api/polls/trending", []string{"revote", "single"}},
		{"trending limit", "/api/polls/trending?limit=1", []string{"revote"}},
		{"trending with tag", "/api/polls/trending?tag=mla", []string{"single"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code)

			var body PollListResponse
			decode(t, rec, &body)
			ids := make([]string, len(body.Polls))
			for i, p := range body.Polls {
				ids[i] = p.ID
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, len(tt.want), body.Count)
		})
	}

	rec := do(t, h, http.MethodGet, "/api/polls/trending?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	h, _ := setupServer(t)

	rec := do(t, h, http.MethodGet, "/api/polls/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats domain.PollStats
	decode(t, rec, &stats)
	assert.Equal(t, domain.PollStats{Polls: 2, Votes: 14, Trending: 2}, stats)
}

func TestGetPoll(t *testing.T) {
	h, _ := setupServer(t)

	rec := do(t, h, http.MethodGet, "/api/polls/single", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.PollResults
	decode(t, rec, &res)
	assert.Equal(t, "single", res.Poll.ID)
	assert.Equal(t, 4, res.TotalVotes)
	assert.Equal(t, 75.0, res.Options[0].Percentage)
	assert.Equal(t, []string{}, res.MyBallot)

	rec = do(t, h, http.MethodGet, "/api/polls/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errorBody
	decode(t, rec, &body)
	assert.False(t, body.Success)
	assert.Equal(t, "not_found", body.Error.Type)
	assert.NotEmpty(t, body.Error.RequestID)
	assert.NotEmpty(t, body.Error.Timestamp)
}

func TestCreatePoll(t *testing.T) {
	h, c := setupServer(t)

	body := `{
		"title": "  Pune Mayoral Preference  ",
		"description": " informal ",
		"options": [
			{"text": "Shalini", "votes": 99},
			{"text": "   "},
			{"id": "arjun", "text": " Arjun "}
		],
		"tags": ["election", " ", "pune "],
		"settings": {"allowMultiple": true}
	}`
	rec := do(t, h, http.MethodPost, "/api/polls", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var poll domain.Poll
	decode(t, rec, &poll)
	assert.True(t, strings.HasPrefix(poll.ID, "ns-"))
	assert.Equal(t, "/api/polls/"+poll.ID, rec.Header().Get("Location"))
	assert.Equal(t, "Pune Mayoral Preference", poll.Title)
	assert.Equal(t, "informal", poll.Description)
	require.Len(t, poll.Options, 2)
	assert.NotEmpty(t, poll.Options[0].ID)
	assert.Equal(t, 0, poll.Options[0].Votes)
	assert.Equal(t, "arjun", poll.Options[1].ID)
	assert.Equal(t, "Arjun", poll.Options[1].Text)
	assert.Equal(t, []string{"election", "pune"}, poll.Tags)
	require.NotNil(t, poll.Creator)
	assert.Equal(t, "You", poll.Creator.Name)
	assert.True(t, poll.Settings.AllowMultiple)

	stored, err := c.Polls.GetPollByID(context.Background(), poll.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestCreatePoll_Validation(t *testing.T) {
	h, _ := setupServer(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"short title", `{"title":"  Hi   ","options":[{"text":"A"},{"text":"B"}]}`, "title"},
		{"one real option", `{"title":"Long enough","options":[{"text":"A"},{"text":"  "}]}`, "options"},
		{"bad image", `{"title":"Long enough","options":[{"text":"A","image":"not a url"},{"text":"B"}]}`, "options[0].image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/polls", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body errorBody
			decode(t, rec, &body)
			assert.Equal(t, "validation", body.Error.Type)
			assert.Contains(t, body.Error.Details, tt.field)
		})
	}

	rec := do(t, h, http.MethodPost, "/api/polls", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertPoll(t *testing.T) {
	h, c := setupServer(t)

	rec := do(t, h, http.MethodPut, "/api/polls/single",
		`{"id":"ignored","title":"Renamed","options":[{"id":"a","text":"A","votes":5}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	polls, err := c.Polls.GetPolls(context.Background())
	require.NoError(t, err)
	require.Len(t, polls, 2)
	assert.Equal(t, "single", polls[0].ID)
	assert.Equal(t, "Renamed", polls[0].Title)

	rec = do(t, h, http.MethodPut, "/api/polls/bad",
		`{"title":"Negative","options":[{"id":"a","text":"A","votes":-1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/polls/dupe",
		`{"title":"Dupes","options":[{"id":"a","text":"A"},{"id":"a","text":"B"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDuplicatePoll(t *testing.T) {
	h, _ := setupServer(t)

	rec := do(t, h, http.MethodPost, "/api/polls/single/duplicate", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var cp domain.Poll
	decode(t, rec, &cp)
	assert.True(t, strings.HasPrefix(cp.ID, "nx-"))
	assert.Equal(t, "Ward 12 - MLA Candidate (Copy)", cp.Title)
	for _, o := range cp.Options {
		assert.Equal(t, 0, o.Votes)
	}

	rec = do(t, h, http.MethodPost, "/api/polls/ghost/duplicate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVote(t *testing.T) {
	h, _ := setupServer(t)

	rec := do(t, h, http.MethodPost, "/api/polls/single/vote", `{"optionIds":["b","a"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res VoteResponse
	decode(t, rec, &res)
	assert.Equal(t, domain.VoteApplied, res.Outcome)
	assert.Equal(t, []string{"b"}, res.MyBallot)
	assert.Equal(t, 2, res.Poll.Options[1].Votes)
	assert.Equal(t, 3, res.Poll.Options[0].Votes)

	// single poll forbids revoting
	rec = do(t, h, http.MethodPost, "/api/polls/single/vote", `{"optionIds":["a"]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "rejected", body.Error.Type)

	rec = do(t, h, http.MethodGet, "/api/polls/single/ballot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ballot map[string]interface{}
	decode(t, rec, &ballot)
	assert.Equal(t, true, ballot["voted"])

	rec = do(t, h, http.MethodPost, "/api/polls/ghost/vote", `{"optionIds":["a"]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVote_Revote(t *testing.T) {
	h, _ := setupServer(t)

	rec := do(t, h, http.MethodPost, "/api/polls/revote/vote", `{"optionIds":["x"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/polls/revote/vote", `{"optionIds":["y"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res VoteResponse
	decode(t, rec, &res)
	assert.Equal(t, 10, res.Poll.Options[0].Votes)
	assert.Equal(t, 1, res.Poll.Options[1].Votes)
}

func TestSimulate(t *testing.T) {
	h, _ := setupServer(t)

	rec := do(t, h, http.MethodPost, "/api/polls/single/simulate", `{"intensity":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var poll domain.Poll
	decode(t, rec, &poll)
	total := 0
	for _, o := range poll.Options {
		total += o.Votes
	}
	assert.GreaterOrEqual(t, total, 4)

	// an empty body simulates one step
	rec = do(t, h, http.MethodPost, "/api/polls/single/simulate", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/polls/single/simulate", `{"intensity":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/polls/ghost/simulate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLiveSimulation(t *testing.T) {
	h, c := setupServer(t)

	rec := do(t, h, http.MethodPost, "/api/polls/single/simulation", `{"intervalMs":5}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, c.Live.Running("single"))

	rec = do(t, h, http.MethodGet, "/api/polls/single/simulation", "")
	var status SimulationStatus
	decode(t, rec, &status)
	assert.True(t, status.Running)

	rec = do(t, h, http.MethodDelete, "/api/polls/single/simulation", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, c.Live.Running("single"))

	rec = do(t, h, http.MethodPost, "/api/polls/ghost/simulation", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportCSV(t *testing.T) {
	h, _ := setupServer(t)

	rec := do(t, h, http.MethodGet, "/api/polls/single/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Ward-12-MLA-Candidate.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Option, Votes\n\"A, Inc.\", 3\n\"Bob \"\"B\"\"\", 1", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/polls/ghost/export.csv", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReset(t *testing.T) {
	h, c := setupServer(t)

	rec := do(t, h, http.MethodPost, "/api/polls/single/vote", `{"optionIds":["a"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)

	polls, err := c.Polls.GetPolls(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, polls)
	for _, p := range polls {
		assert.NotEqual(t, "single", p.ID)
	}

	record, err := c.Store.LoadBallotRecord(context.Background())
	require.NoError(t, err)
	assert.Empty(t, record)
}

func TestReset_StopsLiveSimulations(t *testing.T) {
	h, c := setupServer(t)
	ctx := context.Background()

	// install the demo polls so the simulated id survives the reseed
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/reset", "").Code)

	seeded := seed.DemoPolls()[0]
	seedTotal := 0
	for _, o := range seeded.Options {
		seedTotal += o.Votes
	}

	rec := do(t, h, http.MethodPost, "/api/polls/"+seeded.ID+"/simulation", `{"intervalMs":5,"intensity":5}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	totalOf := func() int {
		p, err := c.Polls.GetPollByID(ctx, seeded.ID)
		require.NoError(t, err)
		require.NotNil(t, p)
		total := 0
		for _, o := range p.Options {
			total += o.Votes
		}
		return total
	}
	require.Eventually(t, func() bool { return totalOf() > seedTotal }, time.Second, 5*time.Millisecond)

	rec = do(t, h, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, c.Live.Running(seeded.ID))

	assert.Equal(t, seedTotal, totalOf())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, seedTotal, totalOf())
}

func TestMetricsAndNotFound(t *testing.T) {
	h, _ := setupServer(t)

	do(t, h, http.MethodPost, "/api/polls/single/vote", `{"optionIds":["a"]}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `nextstep_votes_total{outcome="applied"} 1`)

	rec = do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
