package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"nextstep-polls/internal/domain"
	"nextstep-polls/pkg/logger"
)

// kv is the raw string surface each backend provides
type kv interface {
	get(ctx context.Context, key string) (value string, found bool, err error)
	put(ctx context.Context, key, value string) error
	del(ctx context.Context, keys ...string) error
}

// kvStore implements Store on top of any kv backend using JSON documents
type kvStore struct {
	kv         kv
	pollsKey   string
	ballotsKey string
	logger     *logger.Logger
}

func newKVStore(backend kv, pollsKey, ballotsKey string, log *logger.Logger) *kvStore {
	if log == nil {
		log = logger.Nop()
	}
	return &kvStore{kv: backend, pollsKey: pollsKey, ballotsKey: ballotsKey, logger: log}
}

func (s *kvStore) LoadAll(ctx context.Context) ([]domain.Poll, error) {
	raw, found, err := s.kv.get(ctx, s.pollsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load polls: %w", err)
	}
	if !found || raw == "" {
		return []domain.Poll{}, nil
	}

	var polls []domain.Poll
	if err := json.Unmarshal([]byte(raw), &polls); err != nil {
		s.logger.WithError(err).WithField("key", s.pollsKey).Warn("Poll collection corrupted, treating as empty")
		return []domain.Poll{}, nil
	}
	if polls == nil {
		polls = []domain.Poll{}
	}
	return polls, nil
}

func (s *kvStore) SaveAll(ctx context.Context, polls []domain.Poll) error {
	if polls == nil {
		polls = []domain.Poll{}
	}
	raw, err := json.Marshal(polls)
	if err != nil {
		return fmt.Errorf("failed to encode polls: %w", err)
	}
	if err := s.kv.put(ctx, s.pollsKey, string(raw)); err != nil {
		return fmt.Errorf("failed to save polls: %w", err)
	}
	return nil
}

func (s *kvStore) LoadBallotRecord(ctx context.Context) (domain.BallotRecord, error) {
	raw, found, err := s.kv.get(ctx, s.ballotsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load ballot record: %w", err)
	}
	if !found || raw == "" {
		return domain.BallotRecord{}, nil
	}

	var record domain.BallotRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		s.logger.WithError(err).WithField("key", s.ballotsKey).Warn("Ballot record corrupted, treating as empty")
		return domain.BallotRecord{}, nil
	}
	if record == nil {
		record = domain.BallotRecord{}
	}
	return record, nil
}

func (s *kvStore) SaveBallotRecord(ctx context.Context, record domain.BallotRecord) error {
	if record == nil {
		record = domain.BallotRecord{}
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode ballot record: %w", err)
	}
	if err := s.kv.put(ctx, s.ballotsKey, string(raw)); err != nil {
		return fmt.Errorf("failed to save ballot record: %w", err)
	}
	return nil
}

func (s *kvStore) Reset(ctx context.Context) error {
	if err := s.kv.del(ctx, s.pollsKey, s.ballotsKey); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	s.logger.Info("Poll store reset")
	return nil
}
