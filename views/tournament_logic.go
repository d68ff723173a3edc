package views

import (
	"github.com/AdamBeresnev/cupmaker/internal/bracket"
)

type MatchCard struct {
	ID        string
	Home      string
	Away      string
	HomeScore string
	AwayScore string
	Played    bool
	// 0 when undecided, 1 home, 2 away
	WinnerSide int
}

type BracketColumn struct {
	Name  string
	Cards []MatchCard
}

type GroupTable struct {
	Group     bracket.Group
	Standings []bracket.Standing
	Matches   []MatchCard
}

func newMatchCard(m bracket.Match) MatchCard {
	card := MatchCard{
		ID:        m.ID,
		Home:      SlotLabel(m.Home),
		Away:      SlotLabel(m.Away),
		HomeScore: scoreLabel(m.HomeScore),
		AwayScore: scoreLabel(m.AwayScore),
		Played:    m.Played,
	}
	if winner, ok := m.Winner(); ok {
		card.WinnerSide = 2
		if winner.ID == m.Home.PlayerID() {
			card.WinnerSide = 1
		}
	}
	return card
}

// PrepareBracketData lays the bracket out column by column, first round on the left
func PrepareBracketData(b bracket.KnockoutBracket) []BracketColumn {
	columns := make([]BracketColumn, len(b.Rounds))
	for i, round := range b.Rounds {
		columns[i] = BracketColumn{Name: round.Name, Cards: make([]MatchCard, len(round.Matches))}
		for j, m := range round.Matches {
			columns[i].Cards[j] = newMatchCard(m)
		}
	}
	return columns
}

// PrepareGroupTables pairs every group with its table and fixtures, in group order
func PrepareGroupTables(groups []bracket.Group, standings map[string][]bracket.Standing, matches []bracket.Match) []GroupTable {
	tables := make([]GroupTable, len(groups))
	index := make(map[string]int, len(groups))
	for i, g := range groups {
		tables[i] = GroupTable{Group: g, Standings: standings[g.ID]}
		index[g.ID] = i
	}
	for _, m := range matches {
		if i, ok := index[m.GroupID]; ok {
			tables[i].Matches = append(tables[i].Matches, newMatchCard(m))
		}
	}
	return tables
}
