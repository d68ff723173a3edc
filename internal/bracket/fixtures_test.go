package bracket

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func makePlayers(n int) []Player {
	players := make([]Player, n)
	for i := range players {
		players[i] = Player{ID: fmt.Sprintf("p%d", i+1), Name: fmt.Sprintf("Player %d", i+1)}
	}
	return players
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func TestGroupLabel(t *testing.T) {
	assert.Equal(t, "A", groupLabel(0))
	assert.Equal(t, "B", groupLabel(1))
	assert.Equal(t, "Z", groupLabel(25))
	assert.Equal(t, "AA", groupLabel(26))
	assert.Equal(t, "AB", groupLabel(27))
}

func TestGenerateGroupsAndFixtures(t *testing.T) {
	testCases := []struct {
		name       string
		numPlayers int
		numGroups  int
	}{
		{name: "4 players", numPlayers: 4, numGroups: 1},
		{name: "5 players", numPlayers: 5, numGroups: 1},
		{name: "8 players", numPlayers: 8, numGroups: 2},
		{name: "10 players", numPlayers: 10, numGroups: 2},
		{name: "13 players", numPlayers: 13, numGroups: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			players := makePlayers(tc.numPlayers)
			groups, matches, err := GenerateGroupsAndFixtures(players, DefaultRules(), newTestRand(7))
			require.NoError(t, err)
			require.Len(t, groups, tc.numGroups)

			// Every player lands in exactly one group and sizes differ by at most one
			seen := map[string]string{}
			minSize, maxSize := tc.numPlayers, 0
			for i, g := range groups {
				assert.Equal(t, groupLabel(i), g.ID)
				assert.Equal(t, "Group "+g.ID, g.Name)
				minSize = min(minSize, len(g.Players))
				maxSize = max(maxSize, len(g.Players))
				for _, p := range g.Players {
					_, dup := seen[p.ID]
					assert.False(t, dup, "player %s assigned twice", p.ID)
					seen[p.ID] = g.ID
				}
			}
			assert.Len(t, seen, tc.numPlayers)
			assert.LessOrEqual(t, maxSize-minSize, 1)

			expected := 0
			for _, g := range groups {
				k := len(g.Players)
				expected += k * (k - 1) / 2
			}
			assert.Len(t, matches, expected)

			// Each pair meets once and never across groups
			pairs := map[string]int{}
			ids := map[string]bool{}
			for _, m := range matches {
				assert.False(t, ids[m.ID], "duplicate match id %s", m.ID)
				ids[m.ID] = true

				home, away := m.Home.PlayerID(), m.Away.PlayerID()
				assert.NotEqual(t, home, away)
				assert.Equal(t, m.GroupID, seen[home])
				assert.Equal(t, m.GroupID, seen[away])
				assert.False(t, m.Played)
				assert.Nil(t, m.HomeScore)
				assert.Nil(t, m.AwayScore)
				pairs[pairKey(home, away)]++
			}
			for key, count := range pairs {
				assert.Equal(t, 1, count, "pair %s", key)
			}
		})
	}
}

func TestGenerateGroupsAndFixturesNotEnoughPlayers(t *testing.T) {
	_, _, err := GenerateGroupsAndFixtures(makePlayers(3), DefaultRules(), newTestRand(1))
	require.ErrorIs(t, err, ErrPreconditionFailed)
	assert.Contains(t, err.Error(), "1 short")

	_, _, err = GenerateGroupsAndFixtures(nil, DefaultRules(), newTestRand(1))
	require.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestGenerateGroupsAndFixturesCustomRules(t *testing.T) {
	rules := Rules{MinPlayers: 2, GroupSize: 3}

	groups, matches, err := GenerateGroupsAndFixtures(makePlayers(2), rules, newTestRand(3))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, matches, 1)

	groups, _, err = GenerateGroupsAndFixtures(makePlayers(9), rules, newTestRand(3))
	require.NoError(t, err)
	assert.Len(t, groups, 3)
}

func TestGenerateGroupsAndFixturesDuplicatePlayer(t *testing.T) {
	players := makePlayers(4)
	players[3].ID = players[0].ID

	_, _, err := GenerateGroupsAndFixtures(players, DefaultRules(), newTestRand(1))
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestGenerateGroupsAndFixturesSameSeedSameDraw(t *testing.T) {
	players := makePlayers(12)

	groupsA, matchesA, err := GenerateGroupsAndFixtures(players, DefaultRules(), newTestRand(42))
	require.NoError(t, err)
	groupsB, matchesB, err := GenerateGroupsAndFixtures(players, DefaultRules(), newTestRand(42))
	require.NoError(t, err)

	assert.Equal(t, groupsA, groupsB)
	assert.Equal(t, matchesA, matchesB)
}

func TestRoundRobinMatchdays(t *testing.T) {
	for _, size := range []int{2, 3, 4, 5, 6, 7} {
		t.Run(fmt.Sprintf("%d players", size), func(t *testing.T) {
			g := Group{ID: "A", Name: "Group A", Players: makePlayers(size)}
			matches := roundRobin(g)
			require.Len(t, matches, size*(size-1)/2)

			// Nobody plays twice on the same matchday
			busy := map[string]bool{}
			days := map[int]bool{}
			for _, m := range matches {
				days[m.Matchday] = true
				for _, id := range []string{m.Home.PlayerID(), m.Away.PlayerID()} {
					key := fmt.Sprintf("%d/%s", m.Matchday, id)
					assert.False(t, busy[key], "%s plays twice on matchday %d", id, m.Matchday)
					busy[key] = true
				}
			}

			expectedDays := size - 1
			if size%2 != 0 {
				expectedDays = size
			}
			assert.Len(t, days, expectedDays)
			assert.Equal(t, "A-1", matches[0].ID)
		})
	}
}

func TestGenerateFixturesForGroups(t *testing.T) {
	players := makePlayers(6)

	t.Run("manual groups", func(t *testing.T) {
		groups := []Group{
			{ID: "A", Name: "Group A", Players: players[:3]},
			{ID: "B", Name: "Group B", Players: players[3:]},
		}
		matches, err := GenerateFixturesForGroups(groups)
		require.NoError(t, err)
		assert.Len(t, matches, 6)
	})

	t.Run("group too small", func(t *testing.T) {
		groups := []Group{
			{ID: "A", Name: "Group A", Players: players[:5]},
			{ID: "B", Name: "Group B", Players: players[5:]},
		}
		_, err := GenerateFixturesForGroups(groups)
		assert.ErrorIs(t, err, ErrPreconditionFailed)
	})

	t.Run("player in two groups", func(t *testing.T) {
		groups := []Group{
			{ID: "A", Name: "Group A", Players: players[:3]},
			{ID: "B", Name: "Group B", Players: players[2:]},
		}
		_, err := GenerateFixturesForGroups(groups)
		assert.ErrorIs(t, err, ErrPreconditionFailed)
	})

	t.Run("duplicate group id", func(t *testing.T) {
		groups := []Group{
			{ID: "A", Name: "Group A", Players: players[:3]},
			{ID: "A", Name: "Group A again", Players: players[3:]},
		}
		_, err := GenerateFixturesForGroups(groups)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("no groups", func(t *testing.T) {
		_, err := GenerateFixturesForGroups(nil)
		assert.ErrorIs(t, err, ErrPreconditionFailed)
	})
}
