package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextstep-polls/internal/domain"
	"nextstep-polls/internal/repository"
	"nextstep-polls/pkg/metrics"
)

// scriptedRand replays fixed draws
type scriptedRand struct {
	ints   []int
	floats []float64
}

func (s *scriptedRand) IntN(n int) int {
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scriptedRand) Float64() float64 {
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func setupSimulator(t *testing.T, rng RandomSource, polls ...domain.Poll) (*Simulator, *repository.PollRepository, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore(nil)
	require.NoError(t, store.SaveAll(context.Background(), polls))
	repo := repository.NewPollRepository(store, nil)
	return NewSimulator(repo, rng, nil, metrics.NewCollector("test")), repo, store
}

func TestSimulateStep_Scripted(t *testing.T) {
	// pick b, +1; pick c, +2; pick a, +0
	rng := &scriptedRand{
		ints:   []int{1, 2, 2, 0, 0},
		floats: []float64{0.1, 0.9, 0.6},
	}
	sim, repo, _ := setupSimulator(t, rng, newPoll("p", domain.PollSettings{}, 0, 0, 0))

	p, err := sim.SimulateStep(context.Background(), "p", 3)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, []int{0, 1, 2}, votesOf(t, repo, "p"))
	assert.Empty(t, rng.ints)
	assert.Empty(t, rng.floats)
}

func TestSimulateStep_AdditiveAndNonNegative(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(1, 2))
	sim, repo, store := setupSimulator(t, rng, newPoll("p", domain.PollSettings{}, 4, 0, 7))
	require.NoError(t, store.SaveBallotRecord(ctx, domain.BallotRecord{"p": {"a"}}))

	prev := votesOf(t, repo, "p")
	for i := 0; i < 50; i++ {
		_, err := sim.SimulateStep(ctx, "p", 5)
		require.NoError(t, err)
		cur := votesOf(t, repo, "p")
		for j := range cur {
			assert.GreaterOrEqual(t, cur[j], prev[j])
			assert.GreaterOrEqual(t, cur[j], 0)
		}
		prev = cur
	}

	record, err := store.LoadBallotRecord(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.BallotRecord{"p": {"a"}}, record)
}

func TestSimulateStep_EdgeCases(t *testing.T) {
	ctx := context.Background()
	rng := &scriptedRand{ints: []int{0}, floats: []float64{0.0}}
	sim, repo, _ := setupSimulator(t, rng,
		newPoll("p", domain.PollSettings{}, 0),
		domain.Poll{ID: "empty", Title: "No options"},
	)

	p, err := sim.SimulateStep(ctx, "missing", 1)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = sim.SimulateStep(ctx, "empty", 3)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Empty(t, p.Options)

	// zero intensity still runs one iteration
	_, err = sim.SimulateStep(ctx, "p", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, votesOf(t, repo, "p"))
}

func TestLiveSimulator_TicksUntilStopped(t *testing.T) {
	sim, repo, _ := setupSimulator(t, nil, newPoll("p", domain.PollSettings{}, 0, 0))
	live := NewLiveSimulator(sim, 0, nil, nil)

	var ticks atomic.Int32
	live.Start("p", 5*time.Millisecond, 2, func(*domain.Poll) { ticks.Add(1) })
	assert.True(t, live.Running("p"))

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	assert.True(t, live.Stop("p"))
	assert.False(t, live.Running("p"))

	stoppedAt := ticks.Load()
	snapshot := votesOf(t, repo, "p")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stoppedAt, ticks.Load())
	assert.Equal(t, snapshot, votesOf(t, repo, "p"))

	assert.False(t, live.Stop("p"))
}

func TestLiveSimulator_RestartAndStopAll(t *testing.T) {
	sim, _, _ := setupSimulator(t, nil,
		newPoll("p1", domain.PollSettings{}, 0),
		newPoll("p2", domain.PollSettings{}, 0),
	)
	live := NewLiveSimulator(sim, 5*time.Millisecond, nil, nil)

	var mu sync.Mutex
	seen := map[string]int{}
	onTick := func(p *domain.Poll) {
		mu.Lock()
		seen[p.ID]++
		mu.Unlock()
	}

	live.Start("p1", 0, 1, onTick)
	live.Start("p1", 0, 1, onTick)
	live.Start("p2", 0, 1, onTick)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["p1"] > 0 && seen["p2"] > 0
	}, 2*time.Second, 5*time.Millisecond)

	live.StopAll()
	assert.False(t, live.Running("p1"))
	assert.False(t, live.Running("p2"))
}
