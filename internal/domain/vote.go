package domain

// VoteOutcome distinguishes the three results of a ballot
type VoteOutcome string

const (
	// VoteNotFound means the poll does not exist; nothing changed
	VoteNotFound VoteOutcome = "not_found"
	// VoteRejected means the poll forbids a revote and this device already voted
	VoteRejected VoteOutcome = "rejected"
	// VoteApplied means tallies and the ballot record were updated
	VoteApplied VoteOutcome = "applied"
)

// VoteResult is returned by the voting engine. Poll is nil for VoteNotFound
// and holds the unchanged poll for VoteRejected.
type VoteResult struct {
	Outcome VoteOutcome `json:"outcome"`
	Poll    *Poll       `json:"poll,omitempty"`
}

// OptionResult is one option with its share of the poll total
type OptionResult struct {
	PollOption
	Percentage float64 `json:"percentage"`
	Rank       int     `json:"rank"`
}

// PollResults is a poll decorated with totals for display
type PollResults struct {
	Poll       Poll           `json:"poll"`
	TotalVotes int            `json:"totalVotes"`
	Options    []OptionResult `json:"options"`
	MyBallot   []string       `json:"myBallot"`
	Expired    bool           `json:"expired"`
}

// PollStats summarizes a set of polls
type PollStats struct {
	Polls    int `json:"polls"`
	Votes    int `json:"votes"`
	Trending int `json:"trending"`
}
