package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nextstep-polls/internal/domain"
	"nextstep-polls/internal/seed"
	"nextstep-polls/pkg/logger"
)

// Id prefixes. Created and duplicated polls use distinct schemes.
const (
	CreatedIDPrefix    = "ns-"
	DuplicatedIDPrefix = "nx-"
	copySuffix         = " (Copy)"
)

// PollRepository provides CRUD over the poll collection held in a Store
type PollRepository struct {
	store  Store
	logger *logger.Logger
	now    func() time.Time
	newID  func() string
	seed   func() []domain.Poll
}

// Option customizes a PollRepository
type Option func(*PollRepository)

// WithClock overrides the time source used for createdAt stamps
func WithClock(now func() time.Time) Option {
	return func(r *PollRepository) { r.now = now }
}

// WithIDSource overrides the random part of generated poll ids
func WithIDSource(newID func() string) Option {
	return func(r *PollRepository) { r.newID = newID }
}

// WithSeed overrides the dataset installed by SeedIfEmpty
func WithSeed(polls func() []domain.Poll) Option {
	return func(r *PollRepository) { r.seed = polls }
}

func NewPollRepository(store Store, log *logger.Logger, opts ...Option) *PollRepository {
	if log == nil {
		log = logger.Nop()
	}
	r := &PollRepository{
		store:  store,
		logger: log,
		now:    time.Now,
		newID:  uuid.NewString,
		seed:   seed.DemoPolls,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store exposes the underlying store to collaborators that need the ballot record
func (r *PollRepository) Store() Store {
	return r.store
}

// SeedIfEmpty installs the demo dataset when the collection is empty.
// It reports whether anything was written.
func (r *PollRepository) SeedIfEmpty(ctx context.Context) (bool, error) {
	existing, err := r.store.LoadAll(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	polls := r.seed()
	if err := r.store.SaveAll(ctx, polls); err != nil {
		return false, err
	}

	r.logger.WithField("polls", len(polls)).Info("Seeded demo polls")
	return true, nil
}

// GetPolls returns the full collection in insertion order
func (r *PollRepository) GetPolls(ctx context.Context) ([]domain.Poll, error) {
	return r.store.LoadAll(ctx)
}

// GetPollByID returns the poll with id, or nil when there is none
func (r *PollRepository) GetPollByID(ctx context.Context, id string) (*domain.Poll, error) {
	polls, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(polls, id); i >= 0 {
		p := polls[i]
		return &p, nil
	}
	return nil, nil
}

// UpsertPoll replaces the poll with a matching id in place, or appends it
func (r *PollRepository) UpsertPoll(ctx context.Context, poll domain.Poll) error {
	polls, err := r.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	if i := indexOf(polls, poll.ID); i >= 0 {
		polls[i] = poll
	} else {
		polls = append(polls, poll)
	}
	return r.store.SaveAll(ctx, polls)
}

// CreatePoll assigns a fresh id and createdAt to draft and stores it
func (r *PollRepository) CreatePoll(ctx context.Context, draft domain.PollDraft) (*domain.Poll, error) {
	polls, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	poll := domain.Poll{
		ID:          r.uniqueID(CreatedIDPrefix, polls),
		Title:       draft.Title,
		Description: draft.Description,
		Options:     draft.Options,
		CreatedAt:   r.now().UnixMilli(),
		ExpiresAt:   draft.ExpiresAt,
		Creator:     draft.Creator,
		Tags:        draft.Tags,
		Settings:    draft.Settings,
	}
	poll = poll.Clone()
	if poll.Options == nil {
		poll.Options = []domain.PollOption{}
	}

	if err := r.store.SaveAll(ctx, append(polls, poll)); err != nil {
		return nil, err
	}

	r.logger.WithFields(map[string]interface{}{
		"poll_id": poll.ID,
		"options": len(poll.Options),
	}).Info("Poll created")

	return &poll, nil
}

// DuplicatePoll stores a deep copy of the poll with a new id, a "(Copy)"
// title, a new createdAt and every tally reset to zero. It returns nil when
// the source does not exist.
func (r *PollRepository) DuplicatePoll(ctx context.Context, pollID string) (*domain.Poll, error) {
	polls, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(polls, pollID)
	if i < 0 {
		return nil, nil
	}

	cp := polls[i].Clone()
	cp.ID = r.uniqueID(DuplicatedIDPrefix, polls)
	cp.Title = polls[i].Title + copySuffix
	cp.CreatedAt = r.now().UnixMilli()
	for j := range cp.Options {
		cp.Options[j].Votes = 0
	}

	if err := r.store.SaveAll(ctx, append(polls, cp)); err != nil {
		return nil, err
	}

	r.logger.WithFields(map[string]interface{}{
		"source_id": pollID,
		"poll_id":   cp.ID,
	}).Info("Poll duplicated")

	return &cp, nil
}

// Reset clears the poll collection and the ballot record
func (r *PollRepository) Reset(ctx context.Context) error {
	return r.store.Reset(ctx)
}

// uniqueID draws ids until one is unused in polls. Retries carry an attempt
// suffix so a source that keeps repeating itself still terminates.
func (r *PollRepository) uniqueID(prefix string, polls []domain.Poll) string {
	for attempt := 0; ; attempt++ {
		id := prefix + r.newID()
		if attempt > 0 {
			id = fmt.Sprintf("%s-%d", id, attempt)
		}
		if indexOf(polls, id) < 0 {
			return id
		}
		r.logger.WithFields(map[string]interface{}{
			"poll_id": id,
			"attempt": attempt,
		}).Warn("Generated poll id collided, retrying")
	}
}

func indexOf(polls []domain.Poll, id string) int {
	for i := range polls {
		if polls[i].ID == id {
			return i
		}
	}
	return -1
}
