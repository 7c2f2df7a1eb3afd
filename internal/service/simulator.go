package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"nextstep-polls/internal/domain"
	"nextstep-polls/internal/repository"
	"nextstep-polls/pkg/logger"
	"nextstep-polls/pkg/metrics"
)

// DefaultSimulationInterval is the live simulation tick when none is configured
const DefaultSimulationInterval = 1200 * time.Millisecond

// singleVoteChance is the probability that a simulated pick adds exactly one vote
const singleVoteChance = 0.6

// RandomSource is the subset of *rand.Rand the simulator draws from
type RandomSource interface {
	IntN(n int) int
	Float64() float64
}

// globalRand draws from the goroutine-safe top-level math/rand/v2 functions
type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// Simulator adds synthetic votes for live previews. Simulated votes never
// touch the ballot record.
type Simulator struct {
	polls   *repository.PollRepository
	rng     RandomSource
	logger  *logger.Logger
	metrics *metrics.Collector
}

// NewSimulator returns a Simulator. A nil rng uses math/rand/v2's global source.
func NewSimulator(polls *repository.PollRepository, rng RandomSource, log *logger.Logger, m *metrics.Collector) *Simulator {
	if rng == nil {
		rng = globalRand{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Simulator{polls: polls, rng: rng, logger: log, metrics: m}
}

// SimulateStep picks a uniformly random option intensity times, adding one
// vote with probability 0.6 and otherwise between zero and two. It returns
// nil when the poll does not exist. Intensity below one counts as one.
func (s *Simulator) SimulateStep(ctx context.Context, pollID string, intensity int) (*domain.Poll, error) {
	poll, err := s.polls.GetPollByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to load poll: %w", err)
	}
	if poll == nil {
		return nil, nil
	}
	if len(poll.Options) == 0 {
		return poll, nil
	}
	if intensity < 1 {
		intensity = 1
	}

	added := 0
	for i := 0; i < intensity; i++ {
		idx := s.rng.IntN(len(poll.Options))
		delta := 1
		if s.rng.Float64() >= singleVoteChance {
			delta = s.rng.IntN(3)
		}
		poll.Options[idx].Votes += delta
		added += delta
	}

	if err := s.polls.UpsertPoll(ctx, *poll); err != nil {
		return nil, fmt.Errorf("failed to save poll: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"poll_id":   pollID,
		"intensity": intensity,
		"added":     added,
	}).Debug("Simulation step")
	s.metrics.RecordSimulated(added)

	return poll, nil
}

type liveRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// LiveSimulator runs SimulateStep for a poll on a repeating ticker until it is
// stopped. At most one simulation runs per poll.
type LiveSimulator struct {
	sim             *Simulator
	logger          *logger.Logger
	metrics         *metrics.Collector
	defaultInterval time.Duration

	mu   sync.Mutex
	runs map[string]*liveRun
}

func NewLiveSimulator(sim *Simulator, defaultInterval time.Duration, log *logger.Logger, m *metrics.Collector) *LiveSimulator {
	if defaultInterval <= 0 {
		defaultInterval = DefaultSimulationInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LiveSimulator{
		sim:             sim,
		logger:          log,
		metrics:         m,
		defaultInterval: defaultInterval,
		runs:            make(map[string]*liveRun),
	}
}

// Start begins simulating pollID every interval (the default when <= 0),
// replacing any simulation already running for it. onTick, when set, receives
// the poll after each step and must not call back into the LiveSimulator.
func (l *LiveSimulator) Start(pollID string, interval time.Duration, intensity int, onTick func(*domain.Poll)) {
	if interval <= 0 {
		interval = l.defaultInterval
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.runs[pollID]; ok {
		prev.cancel()
		<-prev.done
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &liveRun{cancel: cancel, done: make(chan struct{})}
	l.runs[pollID] = run
	l.metrics.SetLiveSimulations(len(l.runs))

	go l.loop(ctx, run, pollID, interval, intensity, onTick)

	l.logger.WithFields(map[string]interface{}{
		"poll_id":   pollID,
		"interval":  interval.String(),
		"intensity": intensity,
	}).Info("Live simulation started")
}

func (l *LiveSimulator) loop(ctx context.Context, run *liveRun, pollID string, interval time.Duration, intensity int, onTick func(*domain.Poll)) {
	defer close(run.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// a tick and a cancel can be ready together; cancel wins
			if ctx.Err() != nil {
				return
			}
			poll, err := l.sim.SimulateStep(ctx, pollID, intensity)
			if err != nil {
				l.logger.WithError(err).WithField("poll_id", pollID).Warn("Live simulation step failed")
				continue
			}
			if poll != nil && onTick != nil {
				onTick(poll)
			}
		}
	}
}

// Stop cancels the simulation for pollID and waits for it to exit, so no step
// runs after Stop returns. It reports whether a simulation was running.
func (l *LiveSimulator) Stop(pollID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	run, ok := l.runs[pollID]
	if !ok {
		return false
	}
	delete(l.runs, pollID)
	run.cancel()
	<-run.done
	l.metrics.SetLiveSimulations(len(l.runs))

	l.logger.WithField("poll_id", pollID).Info("Live simulation stopped")
	return true
}

// StopAll stops every running simulation
func (l *LiveSimulator) StopAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, run := range l.runs {
		run.cancel()
		<-run.done
		delete(l.runs, id)
	}
	l.metrics.SetLiveSimulations(0)
}

// Running reports whether pollID has a live simulation
func (l *LiveSimulator) Running(pollID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.runs[pollID]
	return ok
}
