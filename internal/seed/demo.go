// Package seed holds the fixed demo dataset installed into an empty store.
package seed

import "nextstep-polls/internal/domain"

// demoEpoch anchors demo timestamps so the dataset is identical on every install
const demoEpoch int64 = 1735689600000 // 2025-01-01T00:00:00Z

const hour int64 = 60 * 60 * 1000

var demoCreator = domain.Creator{ID: "nextstep", Name: "NextStep Team", AvatarColor: "265 85% 60%"}

// DemoPolls returns a fresh copy of the demo dataset. Callers may mutate the
// result freely.
func DemoPolls() []domain.Poll {
	polls := []domain.Poll{
		{
			ID:          "ns-ward12-mla",
			Title:       "Ward 12 - MLA Candidate",
			Description: "Who should represent Ward 12 in the state assembly?",
			Options: []domain.PollOption{
				{ID: "w12-a", Text: "Anita Deshmukh", Party: "Lok Vikas Party", Votes: 412},
				{ID: "w12-b", Text: "Rahul Patil", Party: "Jan Seva Morcha", Votes: 389},
				{ID: "w12-c", Text: "Sameer Khan", Party: "Independent", Votes: 121},
			},
			CreatedAt: demoEpoch,
			Creator:   &demoCreator,
			Tags:      []string{"election", "mla"},
			Settings:  domain.PollSettings{AllowMultiple: false, AllowRevote: false, ShowResultsBeforeVote: true},
		},
		{
			ID:          "ns-kothrud-sevak",
			Title:       "Kothrud - Nagar Sevak",
			Description: "Pick your municipal corporator for the Kothrud ward.",
			Options: []domain.PollOption{
				{ID: "kth-a", Text: "Meera Kulkarni", Party: "Lok Vikas Party", Votes: 268},
				{ID: "kth-b", Text: "Vikram Joshi", Party: "Jan Seva Morcha", Votes: 301},
				{ID: "kth-c", Text: "Farah Shaikh", Party: "Independent", Votes: 97},
				{ID: "kth-d", Text: "Nilesh Pawar", Party: "Nagrik Aghadi", Votes: 55},
			},
			CreatedAt: demoEpoch + 2*hour,
			Creator:   &demoCreator,
			Tags:      []string{"election", "nagar-sevak", "local"},
			Settings:  domain.PollSettings{AllowMultiple: false, AllowRevote: true, ShowResultsBeforeVote: true},
		},
		{
			ID:          "ns-civic-priorities",
			Title:       "Top civic priorities for 2025",
			Description: "Select every issue you want the new council to tackle first.",
			Options: []domain.PollOption{
				{ID: "civ-roads", Text: "Roads & potholes", Votes: 530},
				{ID: "civ-water", Text: "Water supply", Votes: 488},
				{ID: "civ-waste", Text: "Waste management", Votes: 342},
				{ID: "civ-transit", Text: "Public transport", Votes: 275},
				{ID: "civ-parks", Text: "Parks, lakes & green cover", Votes: 164},
			},
			CreatedAt: demoEpoch + 5*hour,
			Creator:   &demoCreator,
			Tags:      []string{"local"},
			Settings:  domain.PollSettings{AllowMultiple: true, AllowRevote: true, ShowResultsBeforeVote: true},
		},
		{
			ID:          "ns-pune-mayor",
			Title:       "Pune Mayoral Preference",
			Description: "An informal preview of the mayoral race.",
			Options: []domain.PollOption{
				{ID: "pm-a", Text: "Shalini Gokhale", Party: "Lok Vikas Party", Votes: 77},
				{ID: "pm-b", Text: "Arjun Rao", Party: "Jan Seva Morcha", Votes: 84},
			},
			CreatedAt: demoEpoch + 9*hour,
			Creator:   &demoCreator,
			Tags:      []string{"election"},
			Settings:  domain.PollSettings{AllowMultiple: false, AllowRevote: false, ShowResultsBeforeVote: false},
		},
		{
			ID:          "ns-youth-turnout",
			Title:       "Will you vote in the upcoming local elections?",
			Description: "First-time voters especially welcome.",
			Options: []domain.PollOption{
				{ID: "yt-yes", Text: "Yes, definitely", Votes: 640},
				{ID: "yt-maybe", Text: "Maybe", Votes: 210},
				{ID: "yt-no", Text: "No", Votes: 58},
			},
			CreatedAt: demoEpoch + 12*hour,
			Creator:   &demoCreator,
			Tags:      []string{"local", "election"},
			Settings:  domain.PollSettings{AllowMultiple: false, AllowRevote: true, ShowResultsBeforeVote: true},
		},
	}

	out := make([]domain.Poll, len(polls))
	for i := range polls {
		out[i] = polls[i].Clone()
	}
	return out
}
