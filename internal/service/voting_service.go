package service

import (
	"context"
	"fmt"

	"nextstep-polls/internal/domain"
	"nextstep-polls/internal/repository"
	"nextstep-polls/pkg/logger"
	"nextstep-polls/pkg/metrics"
)

// VotingService applies ballots from this device to polls in the repository.
// All access to one store namespace is treated as a single device.
type VotingService struct {
	polls   *repository.PollRepository
	store   repository.Store
	logger  *logger.Logger
	metrics *metrics.Collector
}

func NewVotingService(polls *repository.PollRepository, log *logger.Logger, m *metrics.Collector) *VotingService {
	if log == nil {
		log = logger.Nop()
	}
	return &VotingService{
		polls:   polls,
		store:   polls.Store(),
		logger:  log,
		metrics: m,
	}
}

// Vote records optionIDs as this device's ballot for pollID.
//
// Evaluation order: a missing poll yields VoteNotFound; a single-choice poll
// keeps only the first id; a prior non-empty ballot on a poll that forbids
// revoting yields VoteRejected with the poll unchanged; otherwise the prior
// ballot is withdrawn (floored at zero), the new one is counted (unknown ids
// are ignored) and both the ballot record and the poll are persisted.
// Errors are returned only when the store fails.
func (s *VotingService) Vote(ctx context.Context, pollID string, optionIDs []string) (*domain.VoteResult, error) {
	poll, err := s.polls.GetPollByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to load poll: %w", err)
	}
	if poll == nil {
		s.metrics.RecordVote(string(domain.VoteNotFound))
		return &domain.VoteResult{Outcome: domain.VoteNotFound}, nil
	}

	chosen := normalizeBallot(optionIDs, poll.Settings.AllowMultiple)

	record, err := s.store.LoadBallotRecord(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ballot record: %w", err)
	}

	prior := record[pollID]
	if len(prior) > 0 && !poll.Settings.AllowRevote {
		s.logger.WithFields(map[string]interface{}{
			"poll_id": pollID,
			"prior":   prior,
		}).Debug("Revote rejected")
		s.metrics.RecordVote(string(domain.VoteRejected))
		return &domain.VoteResult{Outcome: domain.VoteRejected, Poll: poll}, nil
	}

	// each option gives back at most one vote, however the prior ballot was stored
	for _, id := range uniqueIDs(prior) {
		if i := poll.OptionIndex(id); i >= 0 && poll.Options[i].Votes > 0 {
			poll.Options[i].Votes--
		}
	}
	for _, id := range chosen {
		if i := poll.OptionIndex(id); i >= 0 {
			poll.Options[i].Votes++
		}
	}

	record[pollID] = chosen
	if err := s.store.SaveBallotRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save ballot record: %w", err)
	}
	if err := s.polls.UpsertPoll(ctx, *poll); err != nil {
		return nil, fmt.Errorf("failed to save poll: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"poll_id": pollID,
		"chosen":  chosen,
		"revote":  len(prior) > 0,
	}).Info("Vote applied")
	s.metrics.RecordVote(string(domain.VoteApplied))

	return &domain.VoteResult{Outcome: domain.VoteApplied, Poll: poll}, nil
}

// Ballot returns the option ids this device last submitted for pollID.
// The result is empty, never nil, when the device has not voted.
func (s *VotingService) Ballot(ctx context.Context, pollID string) ([]string, error) {
	record, err := s.store.LoadBallotRecord(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ballot record: %w", err)
	}
	out := make([]string, len(record[pollID]))
	copy(out, record[pollID])
	return out, nil
}

// normalizeBallot collapses repeated ids, keeping first-seen order, then
// keeps only the first id when the poll is single-choice.
func normalizeBallot(ids []string, allowMultiple bool) []string {
	out := uniqueIDs(ids)
	if !allowMultiple && len(out) > 1 {
		out = out[:1]
	}
	return out
}

// uniqueIDs returns ids without repeats, in first-seen order
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
