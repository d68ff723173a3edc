package bracket

import "github.com/AdamBeresnev/cupmaker/internal/utils"

type Match struct {
	ID        string `json:"id"`
	Home      Slot   `json:"home"`
	Away      Slot   `json:"away"`
	HomeScore *int   `json:"homeScore"`
	AwayScore *int   `json:"awayScore"`
	Played    bool   `json:"played"`

	// Group stage only
	GroupID  string `json:"group,omitempty"`
	Matchday int    `json:"matchday,omitempty"`

	// Knockout only
	Round string `json:"round,omitempty"`
}

func NewFixture(id string, home, away Player, groupID string, matchday int) Match {
	return Match{
		ID:       id,
		Home:     Resolved(home),
		Away:     Resolved(away),
		GroupID:  groupID,
		Matchday: matchday,
	}
}

// Playable means both sides are known and nothing has been recorded yet
func (m Match) Playable() bool {
	return !m.Played && m.Home.IsResolved() && m.Away.IsResolved()
}

func (m Match) IsGroupMatch() bool {
	return m.GroupID != ""
}

// Winner is the side with the strictly higher score. A bye walks the other side through.
func (m Match) Winner() (Player, bool) {
	if m.Home.IsResolved() && m.Away.IsBye() {
		return *m.Home.Player, true
	}
	if m.Away.IsResolved() && m.Home.IsBye() {
		return *m.Away.Player, true
	}
	if !m.Played || m.HomeScore == nil || m.AwayScore == nil {
		return Player{}, false
	}
	switch {
	case *m.HomeScore > *m.AwayScore:
		return *m.Home.Player, true
	case *m.AwayScore > *m.HomeScore:
		return *m.Away.Player, true
	}
	return Player{}, false
}

func (m Match) IsDraw() bool {
	return m.Played && m.HomeScore != nil && m.AwayScore != nil && *m.HomeScore == *m.AwayScore
}

func (m *Match) record(home, away int) {
	m.HomeScore = utils.Ptr(home)
	m.AwayScore = utils.Ptr(away)
	m.Played = true
}

func (m Match) clone() Match {
	out := m
	out.Home = m.Home.clone()
	out.Away = m.Away.clone()
	if m.HomeScore != nil {
		out.HomeScore = utils.Ptr(*m.HomeScore)
	}
	if m.AwayScore != nil {
		out.AwayScore = utils.Ptr(*m.AwayScore)
	}
	return out
}
