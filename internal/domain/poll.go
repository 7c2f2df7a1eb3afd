package domain

import "time"

// Poll is an election-style poll with its candidates and running tallies.
// The JSON layout is also the persisted layout.
type Poll struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Options     []PollOption `json:"options"`
	CreatedAt   int64        `json:"createdAt"`           // Unix milliseconds
	ExpiresAt   *int64       `json:"expiresAt,omitempty"` // Unix milliseconds, nil means never
	Creator     *Creator     `json:"creator,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Settings    PollSettings `json:"settings"`
}

// PollOption is one candidate or choice within a poll
type PollOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Party string `json:"party,omitempty"`
	Image string `json:"image,omitempty"`
	Votes int    `json:"votes"`
}

// PollSettings controls ballot policy
type PollSettings struct {
	AllowMultiple bool `json:"allowMultiple"`
	AllowRevote   bool `json:"allowRevote"`
	// ShowResultsBeforeVote is a display hint only; the engine never reads it.
	ShowResultsBeforeVote bool `json:"showResultsBeforeVote"`
}

// Creator describes who made a poll
type Creator struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AvatarColor string `json:"avatarColor,omitempty"` // HSL triplet, e.g. "265 85% 60%"
}

// PollDraft is everything a caller supplies when creating a poll.
// ID and CreatedAt are assigned by the repository.
type PollDraft struct {
	Title       string
	Description string
	Options     []PollOption
	ExpiresAt   *int64
	Creator     *Creator
	Tags        []string
	Settings    PollSettings
}

// BallotRecord maps poll id to the option ids this device last submitted.
// Only the most recent ballot per poll is kept.
type BallotRecord map[string][]string

// Clone returns a deep copy of the poll. Options and tags never share
// backing arrays with the source.
func (p Poll) Clone() Poll {
	c := p
	if p.Options != nil {
		c.Options = make([]PollOption, len(p.Options))
		copy(c.Options, p.Options)
	}
	if p.Tags != nil {
		c.Tags = make([]string, len(p.Tags))
		copy(c.Tags, p.Tags)
	}
	if p.ExpiresAt != nil {
		v := *p.ExpiresAt
		c.ExpiresAt = &v
	}
	if p.Creator != nil {
		cr := *p.Creator
		c.Creator = &cr
	}
	return c
}

// OptionIndex returns the index of the option with the given id, or -1
func (p *Poll) OptionIndex(optionID string) int {
	for i := range p.Options {
		if p.Options[i].ID == optionID {
			return i
		}
	}
	return -1
}

// HasTag reports whether the poll carries tag exactly
func (p *Poll) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Expired reports whether the poll has an expiry at or before now.
// Voting does not consult it; it is informational for callers.
func (p *Poll) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && *p.ExpiresAt <= now.UnixMilli()
}

// Clone returns a deep copy of the record
func (r BallotRecord) Clone() BallotRecord {
	out := make(BallotRecord, len(r))
	for k, v := range r {
		ids := make([]string, len(v))
		copy(ids, v)
		out[k] = ids
	}
	return out
}
