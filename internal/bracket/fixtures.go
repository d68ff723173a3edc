package bracket

import (
	"fmt"
	"math/rand/v2"
)

func shuffled[T any](items []T, rng *rand.Rand) []T {
	out := make([]T, len(items))
	copy(out, items)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// A, B, ..., Z, AA, AB, ...
func groupLabel(i int) string {
	label := ""
	for i >= 0 {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
	}
	return label
}

// GenerateGroupsAndFixtures shuffles the roster, deals it into groups of roughly
// rules.GroupSize players and emits a round robin for every group.
func GenerateGroupsAndFixtures(players []Player, rules Rules, rng *rand.Rand) ([]Group, []Match, error) {
	rules = rules.normalized()

	if err := checkUniquePlayers(players); err != nil {
		return nil, nil, err
	}
	if len(players) < rules.MinPlayers {
		return nil, nil, fmt.Errorf("%w: need at least %d players, have %d (%d short)",
			ErrPreconditionFailed, rules.MinPlayers, len(players), rules.MinPlayers-len(players))
	}

	numGroups := max(1, len(players)/rules.GroupSize)
	groups := make([]Group, numGroups)
	for i := range groups {
		label := groupLabel(i)
		groups[i] = Group{ID: label, Name: "Group " + label}
	}

	// Dealing one by one keeps the sizes within one of each other
	for i, p := range shuffled(players, rng) {
		g := &groups[i%numGroups]
		g.Players = append(g.Players, p)
	}

	matches, err := GenerateFixturesForGroups(groups)
	if err != nil {
		return nil, nil, err
	}
	return groups, matches, nil
}

// ValidateGroups checks a group assignment before anything is scheduled:
// ids are set and distinct, every group has two players and nobody is in two groups.
func ValidateGroups(groups []Group) error {
	if len(groups) == 0 {
		return fmt.Errorf("%w: no groups to schedule", ErrPreconditionFailed)
	}

	seenGroups := make(map[string]bool, len(groups))
	owner := make(map[string]string)
	for _, g := range groups {
		if g.ID == "" {
			return fmt.Errorf("%w: group %q has no id", ErrInvalidInput, g.Name)
		}
		if seenGroups[g.ID] {
			return fmt.Errorf("%w: duplicate group id %q", ErrInvalidInput, g.ID)
		}
		seenGroups[g.ID] = true

		if len(g.Players) < 2 {
			return fmt.Errorf("%w: %s needs at least 2 players, has %d", ErrPreconditionFailed, g.Name, len(g.Players))
		}
		for _, p := range g.Players {
			if other, ok := owner[p.ID]; ok {
				return fmt.Errorf("%w: player %s is in groups %s and %s", ErrPreconditionFailed, p.Name, other, g.ID)
			}
			owner[p.ID] = g.ID
		}
	}
	return nil
}

// GenerateFixturesForGroups emits the full round robin of already assigned groups
func GenerateFixturesForGroups(groups []Group) ([]Match, error) {
	if err := ValidateGroups(groups); err != nil {
		return nil, err
	}

	var matches []Match
	for _, g := range groups {
		matches = append(matches, roundRobin(g)...)
	}
	return matches, nil
}

// Circle method: the first player stays put while the rest rotate, which yields
// every pairing exactly once over n-1 matchdays (n rounded up to even).
func roundRobin(g Group) []Match {
	players := make([]*Player, len(g.Players), len(g.Players)+1)
	for i := range g.Players {
		players[i] = &g.Players[i]
	}
	if len(players)%2 != 0 {
		players = append(players, nil)
	}
	n := len(players)

	matches := make([]Match, 0, len(g.Players)*(len(g.Players)-1)/2)
	for day := 1; day < n; day++ {
		for i := 0; i < n/2; i++ {
			home, away := players[i], players[n-1-i]
			if home == nil || away == nil {
				continue
			}
			// Otherwise the fixed player is at home every single matchday
			if i == 0 && day%2 == 0 {
				home, away = away, home
			}
			id := fmt.Sprintf("%s-%d", g.ID, len(matches)+1)
			matches = append(matches, NewFixture(id, *home, *away, g.ID, day))
		}

		last := players[n-1]
		copy(players[2:], players[1:n-1])
		players[1] = last
	}
	return matches
}

func checkUniquePlayers(players []Player) error {
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if p.ID == "" {
			return fmt.Errorf("%w: player %q has no id", ErrInvalidInput, p.Name)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: player id %q appears twice", ErrPreconditionFailed, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

func (r Rules) normalized() Rules {
	def := DefaultRules()
	if r.MinPlayers <= 0 {
		r.MinPlayers = def.MinPlayers
	}
	if r.GroupSize < 2 {
		r.GroupSize = def.GroupSize
	}
	return r
}
