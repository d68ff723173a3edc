package bracket

import "fmt"

// RecordGroupResult returns a copy of matches with the score of matchID filled in.
// Group matches may end level and may be corrected later; the tables are
// rebuilt from scratch anyway.
func RecordGroupResult(matches []Match, matchID string, homeScore, awayScore int) ([]Match, error) {
	idx := -1
	for i, m := range matches {
		if m.ID == matchID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return matches, fmt.Errorf("%w: group match %q", ErrNotFound, matchID)
	}
	if !matches[idx].IsGroupMatch() {
		return matches, fmt.Errorf("%w: %s is not a group match", ErrInvalidInput, matchID)
	}
	if homeScore < 0 || awayScore < 0 {
		return matches, fmt.Errorf("%w: scores can't be negative, got %d-%d", ErrInvalidResult, homeScore, awayScore)
	}
	if !matches[idx].Home.IsResolved() || !matches[idx].Away.IsResolved() {
		return matches, fmt.Errorf("%w: match %s is missing a player", ErrPreconditionFailed, matchID)
	}

	out := make([]Match, len(matches))
	for i, m := range matches {
		out[i] = m.clone()
	}
	out[idx].record(homeScore, awayScore)
	return out, nil
}

// NewManualFixture schedules one extra match between two members of group.
// It lands on a fresh matchday after everything already in the group.
func NewManualFixture(group Group, existing []Match, homeID, awayID string) (Match, error) {
	if homeID == awayID {
		return Match{}, fmt.Errorf("%w: a player can't be paired with themselves", ErrInvalidInput)
	}

	var home, away *Player
	for i := range group.Players {
		switch group.Players[i].ID {
		case homeID:
			home = &group.Players[i]
		case awayID:
			away = &group.Players[i]
		}
	}
	if home == nil || away == nil {
		return Match{}, fmt.Errorf("%w: both players must be in %s", ErrPreconditionFailed, group.Name)
	}

	used := make(map[string]bool, len(existing))
	count, matchday := 0, 0
	for _, m := range existing {
		used[m.ID] = true
		if m.GroupID == group.ID {
			count++
			matchday = max(matchday, m.Matchday)
		}
	}

	n := count + 1
	id := fmt.Sprintf("%s-%d", group.ID, n)
	for used[id] {
		n++
		id = fmt.Sprintf("%s-%d", group.ID, n)
	}
	return NewFixture(id, *home, *away, group.ID, matchday+1), nil
}
