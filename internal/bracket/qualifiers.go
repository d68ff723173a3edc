package bracket

import "sort"

// KnockoutSize is how many players go through to the knockout stage:
// 4 below eight players, otherwise the largest power of two that fits.
func KnockoutSize(totalPlayers int) int {
	if totalPlayers < 8 {
		return 4
	}
	size := 1
	// Halving the bound keeps size*2 from overflowing
	for size <= totalPlayers/2 {
		size *= 2
	}
	return max(4, size)
}

// DetermineKnockoutQualifiers pools every group's table and takes the best
// KnockoutSize(totalPlayers) rows, best first. When the pool is smaller than
// that everyone qualifies. The input tables are left untouched.
func DetermineKnockoutQualifiers(standings map[string][]Standing, groups []Group, totalPlayers int) []Player {
	size := KnockoutSize(totalPlayers)

	var pool []Standing
	for _, g := range groups {
		pool = append(pool, standings[g.ID]...)
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return rankedBefore(pool[i], pool[j])
	})

	qualifiers := make([]Player, 0, min(size, len(pool)))
	seen := make(map[string]bool, len(pool))
	for _, s := range pool {
		if len(qualifiers) == size {
			break
		}
		if seen[s.PlayerID] {
			continue
		}
		seen[s.PlayerID] = true
		qualifiers = append(qualifiers, s.Player())
	}
	return qualifiers
}
