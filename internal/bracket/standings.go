package bracket

import "sort"

type Standing struct {
	Rank           int    `json:"rank"`
	PlayerID       string `json:"playerId"`
	PlayerName     string `json:"playerName"`
	TeamName       string `json:"teamName,omitempty"`
	GroupID        string `json:"groupId"`
	GroupName      string `json:"groupName"`
	Played         int    `json:"played"`
	Wins           int    `json:"wins"`
	Draws          int    `json:"draws"`
	Losses         int    `json:"losses"`
	GoalsFor       int    `json:"goalsFor"`
	GoalsAgainst   int    `json:"goalsAgainst"`
	GoalDifference int    `json:"goalDifference"`
	Points         int    `json:"points"`
}

func (s Standing) Player() Player {
	return Player{ID: s.PlayerID, Name: s.PlayerName, TeamName: s.TeamName}
}

func (s *Standing) addResult(scored, conceded int) {
	s.Played++
	s.GoalsFor += scored
	s.GoalsAgainst += conceded
	s.GoalDifference = s.GoalsFor - s.GoalsAgainst

	switch {
	case scored > conceded:
		s.Wins++
		s.Points += 3
	case scored == conceded:
		s.Draws++
		s.Points++
	default:
		s.Losses++
	}
}

// rankedBefore is the one ordering used for group tables and for picking
// qualifiers across groups: points, goal difference, goals scored, then name
// and id so the order is total.
func rankedBefore(a, b Standing) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.GoalDifference != b.GoalDifference {
		return a.GoalDifference > b.GoalDifference
	}
	if a.GoalsFor != b.GoalsFor {
		return a.GoalsFor > b.GoalsFor
	}
	if a.PlayerName != b.PlayerName {
		return a.PlayerName < b.PlayerName
	}
	return a.PlayerID < b.PlayerID
}

func sortStandings(standings []Standing) {
	sort.SliceStable(standings, func(i, j int) bool {
		return rankedBefore(standings[i], standings[j])
	})
}

// CalculateStandingsForGroup builds the table of one group from its played
// matches. Every member gets a row even without a single result.
// Matches involving outsiders are ignored.
func CalculateStandingsForGroup(group Group, matches []Match) []Standing {
	standings := make([]Standing, len(group.Players))
	index := make(map[string]int, len(group.Players))
	for i, p := range group.Players {
		standings[i] = Standing{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			TeamName:   p.TeamName,
			GroupID:    group.ID,
			GroupName:  group.Name,
		}
		index[p.ID] = i
	}

	for _, m := range matches {
		if !m.Played || m.HomeScore == nil || m.AwayScore == nil {
			continue
		}
		if m.GroupID != "" && m.GroupID != group.ID {
			continue
		}
		home, okHome := index[m.Home.PlayerID()]
		away, okAway := index[m.Away.PlayerID()]
		if !okHome || !okAway || home == away {
			continue
		}
		standings[home].addResult(*m.HomeScore, *m.AwayScore)
		standings[away].addResult(*m.AwayScore, *m.HomeScore)
	}

	sortStandings(standings)
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// CalculateAllStandings keys every group's table by group id
func CalculateAllStandings(groups []Group, matches []Match) map[string][]Standing {
	byGroup := make(map[string][]Match, len(groups))
	for _, m := range matches {
		if m.IsGroupMatch() {
			byGroup[m.GroupID] = append(byGroup[m.GroupID], m)
		}
	}

	all := make(map[string][]Standing, len(groups))
	for _, g := range groups {
		all[g.ID] = CalculateStandingsForGroup(g, byGroup[g.ID])
	}
	return all
}

// GroupStageComplete reports whether there is at least one group match and all of them are played
func GroupStageComplete(matches []Match) bool {
	found := false
	for _, m := range matches {
		if !m.IsGroupMatch() {
			continue
		}
		if !m.Played {
			return false
		}
		found = true
	}
	return found
}
