package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"nextstep-polls/internal/domain"
	"nextstep-polls/internal/repository"
)

const (
	// DefaultTrendingLimit applies when a caller passes a limit <= 0
	DefaultTrendingLimit = 12
	// maxTrendingBadge caps the "trending" figure reported by Summarize
	maxTrendingBadge = 8
)

// TotalVotes sums every option's tally
func TotalVotes(poll domain.Poll) int {
	total := 0
	for _, o := range poll.Options {
		total += o.Votes
	}
	return total
}

// Denominator is TotalVotes, or 1 for a poll without votes so shares read 0%
func Denominator(poll domain.Poll) int {
	if t := TotalVotes(poll); t > 0 {
		return t
	}
	return 1
}

// Percentage returns votes as a whole-number share of the poll's total
func Percentage(votes int, poll domain.Poll) float64 {
	return math.Round(float64(votes) * 100 / float64(Denominator(poll)))
}

// SortTrending orders polls by total votes, highest first, keeping collection
// order among equal totals, and truncates to limit.
func SortTrending(polls []domain.Poll, limit int) []domain.Poll {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	sorted := make([]domain.Poll, len(polls))
	copy(sorted, polls)
	sort.SliceStable(sorted, func(i, j int) bool {
		return TotalVotes(sorted[i]) > TotalVotes(sorted[j])
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// FilterPolls keeps polls carrying tag (when tag is set) whose title,
// description or tags contain query, case-insensitively.
func FilterPolls(polls []domain.Poll, query, tag string) []domain.Poll {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Poll, 0, len(polls))
	for _, p := range polls {
		if tag != "" && !p.HasTag(tag) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) &&
			!strings.Contains(strings.ToLower(strings.Join(p.Tags, " ")), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Summarize counts polls and votes across the collection
func Summarize(polls []domain.Poll) domain.PollStats {
	votes := 0
	for _, p := range polls {
		votes += TotalVotes(p)
	}
	return domain.PollStats{
		Polls:    len(polls),
		Votes:    votes,
		Trending: min(maxTrendingBadge, len(polls)),
	}
}

// BuildResults decorates poll with its total, per-option shares and ranks,
// and the device's current ballot.
func BuildResults(poll domain.Poll, ballot []string, now time.Time) domain.PollResults {
	options := make([]domain.OptionResult, len(poll.Options))
	for i, o := range poll.Options {
		rank := 1
		for _, other := range poll.Options {
			if other.Votes > o.Votes {
				rank++
			}
		}
		options[i] = domain.OptionResult{
			PollOption: o,
			Percentage: Percentage(o.Votes, poll),
			Rank:       rank,
		}
	}
	if ballot == nil {
		ballot = []string{}
	}
	return domain.PollResults{
		Poll:       poll,
		TotalVotes: TotalVotes(poll),
		Options:    options,
		MyBallot:   ballot,
		Expired:    poll.Expired(now),
	}
}

// QueryService answers read-only ranking questions against the repository
type QueryService struct {
	polls        *repository.PollRepository
	defaultLimit int
}

// NewQueryService returns a QueryService whose trending lists default to
// defaultLimit entries (DefaultTrendingLimit when <= 0)
func NewQueryService(polls *repository.PollRepository, defaultLimit int) *QueryService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultTrendingLimit
	}
	return &QueryService{polls: polls, defaultLimit: defaultLimit}
}

// GetTrending returns up to limit polls ranked by total votes
func (s *QueryService) GetTrending(ctx context.Context, limit int) ([]domain.Poll, error) {
	polls, err := s.polls.GetPolls(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	return SortTrending(polls, limit), nil
}

// Search lists polls matching query and tag in collection order
func (s *QueryService) Search(ctx context.Context, query, tag string) ([]domain.Poll, error) {
	polls, err := s.polls.GetPolls(ctx)
	if err != nil {
		return nil, err
	}
	return FilterPolls(polls, query, tag), nil
}

// Stats summarizes the whole collection
func (s *QueryService) Stats(ctx context.Context) (domain.PollStats, error) {
	polls, err := s.polls.GetPolls(ctx)
	if err != nil {
		return domain.PollStats{}, err
	}
	return Summarize(polls), nil
}
