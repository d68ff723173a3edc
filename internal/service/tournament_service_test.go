package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTournament(t *testing.T) {
	env := newTestEnv(t)
	host := env.signIn(t, "host")

	_, err := env.service.CreateTournament(context.Background(), CreateTournamentInput{Name: "Cup"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = env.service.CreateTournament(host, CreateTournamentInput{Name: "   "})
	assert.ErrorIs(t, err, bracket.ErrInvalidInput)

	_, err = env.service.CreateTournament(host, CreateTournamentInput{Name: "Cup", RegistrationType: "invite"})
	assert.ErrorIs(t, err, bracket.ErrInvalidInput)

	id, err := env.service.CreateTournament(host, CreateTournamentInput{Name: " Friday Cup ", Game: "FIFA"})
	require.NoError(t, err)

	data, err := env.service.GetTournamentData(host, id)
	require.NoError(t, err)
	assert.Equal(t, "Friday Cup", data.Tournament.Name)
	assert.Equal(t, "FIFA", data.Tournament.Game)
	assert.Equal(t, bracket.StageRegistration, data.Tournament.Stage)
	assert.Equal(t, bracket.RegistrationLobby, data.Tournament.RegistrationType)
	assert.True(t, testNow.Equal(data.Tournament.CreatedAt))
	assert.Empty(t, data.Players)
	assert.True(t, data.Bracket.IsEmpty())
	assert.Nil(t, data.Champion)
	assert.Nil(t, data.NextMatch())

	mine, err := env.service.GetTournamentsForUser(host)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, id, mine[0].ID)

	other := env.signIn(t, "other")
	theirs, err := env.service.GetTournamentsForUser(other)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestGetTournamentDataNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.service.GetTournamentData(context.Background(), uuid.New())
	assert.ErrorIs(t, err, bracket.ErrNotFound)
}

func TestDeleteTournament(t *testing.T) {
	env := newTestEnv(t)
	host := env.signIn(t, "host")
	other := env.signIn(t, "other")

	id, err := env.service.CreateTournament(host, CreateTournamentInput{Name: "Cup"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.service.DeleteTournament(other, id), ErrForbidden)
	require.NoError(t, env.service.DeleteTournament(host, id))
	assert.Equal(t, 1, env.notifier.count())

	_, err = env.service.GetTournamentData(host, id)
	assert.ErrorIs(t, err, bracket.ErrNotFound)
	assert.ErrorIs(t, env.service.DeleteTournament(host, id), bracket.ErrNotFound)
}

func TestLobbyTournamentFlow(t *testing.T) {
	env := newTestEnv(t)
	host := env.signIn(t, "host")
	ctx := host

	id, err := env.service.CreateTournament(host, CreateTournamentInput{Name: "Lobby Cup", RegistrationType: bracket.RegistrationLobby})
	require.NoError(t, err)

	// Not enough players yet
	_, err = env.service.JoinTournament(host, id, "Arsenal")
	require.NoError(t, err)
	assert.ErrorIs(t, env.service.StartGroupStage(host, id), bracket.ErrPreconditionFailed)

	for i := 1; i <= 4; i++ {
		player := env.signIn(t, fmt.Sprintf("player%d", i))
		joined, err := env.service.JoinTournament(player, id, "")
		require.NoError(t, err)

		// Joining again is harmless
		again, err := env.service.JoinTournament(player, id, "")
		require.NoError(t, err)
		assert.Equal(t, joined, again)
	}

	// Hosts type players in only in manual tournaments
	_, err = env.service.AddPlayer(host, id, PlayerInput{Name: "Walk-in"})
	assert.ErrorIs(t, err, bracket.ErrPreconditionFailed)

	outsider := env.signIn(t, "outsider")
	assert.ErrorIs(t, env.service.StartGroupStage(outsider, id), ErrForbidden)
	require.NoError(t, env.service.StartGroupStage(ctx, id))

	// Registration is closed now
	_, err = env.service.JoinTournament(outsider, id, "")
	assert.ErrorIs(t, err, bracket.ErrPreconditionFailed)

	data, err := env.service.GetTournamentData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bracket.StageGroup, data.Tournament.Stage)
	require.Len(t, data.Players, 5)
	require.Len(t, data.Groups, 1)
	require.Len(t, data.Matches, 10)

	// Too early for the knockout
	_, err = env.service.StartKnockout(ctx, id)
	assert.ErrorIs(t, err, bracket.ErrPreconditionFailed)

	for i, m := range data.Matches {
		require.NoError(t, env.service.RecordResult(ctx, id, m.ID, scores(i%3, 1)))
	}

	data, err = env.service.GetTournamentData(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, data.NextMatch())
	require.Len(t, data.Standings["A"], 5)
	for _, s := range data.Standings["A"] {
		assert.Equal(t, 4, s.Played)
	}

	b, err := env.service.StartKnockout(ctx, id)
	require.NoError(t, err)
	require.Len(t, b.Rounds, 2)
	assert.Equal(t, "Semi-Finals", b.Rounds[0].Name)

	// The bottom of the table is out
	last := data.Standings["A"][4].PlayerID
	for _, m := range b.Rounds[0].Matches {
		assert.NotEqual(t, last, m.Home.PlayerID())
		assert.NotEqual(t, last, m.Away.PlayerID())
	}

	_, err = env.service.StartKnockout(ctx, id)
	assert.ErrorIs(t, err, bracket.ErrPreconditionFailed)

	// Group results are frozen once the knockout starts
	err = env.service.RecordResult(ctx, id, data.Matches[0].ID, scores(5, 0))
	assert.ErrorIs(t, err, bracket.ErrNotFound)

	require.NoError(t, env.service.RecordResult(ctx, id, "R1M1", scores(2, 1)))
	require.NoError(t, env.service.RecordResult(ctx, id, "R1M2", scores(0, 3)))

	data, err = env.service.GetTournamentData(ctx, id)
	require.NoError(t, err)
	final := data.Bracket.Rounds[1].Matches[0]
	assert.Equal(t, b.Rounds[0].Matches[0].Home.PlayerID(), final.Home.PlayerID())
	assert.Equal(t, b.Rounds[0].Matches[1].Away.PlayerID(), final.Away.PlayerID())
	require.NotNil(t, data.NextMatch())
	assert.Equal(t, "R2M1", data.NextMatch().ID)
	assert.Equal(t, bracket.StageKnockout, data.Tournament.Stage)

	require.NoError(t, env.service.RecordResult(ctx, id, "R2M1", scores(1, 4)))

	data, err = env.service.GetTournamentData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bracket.StageFinished, data.Tournament.Stage)
	require.NotNil(t, data.Champion)
	assert.Equal(t, final.Away.PlayerID(), data.Champion.ID)

	// Nothing left to score
	err = env.service.RecordResult(ctx, id, "R2M1", scores(1, 4))
	assert.ErrorIs(t, err, bracket.ErrPreconditionFailed)

	assert.Greater(t, env.notifier.count(), 10)
}

func TestManualTournamentFlow(t *testing.T) {
	env := newTestEnv(t)
	host := env.signIn(t, "host")

	id, err := env.service.CreateTournament(host, CreateTournamentInput{Name: "Office Cup", RegistrationType: bracket.RegistrationManual})
	require.NoError(t, err)

	player := env.signIn(t, "player")
	_, err = env.service.JoinTournament(player, id, "")
	assert.ErrorIs(t, err, bracket.ErrPreconditionFailed)

	_, err = env.service.AddPlayer(player, id, PlayerInput{Name: "Sneaky"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.service.AddPlayer(host, id, PlayerInput{Name: " "})
	assert.ErrorIs(t, err, bracket.ErrInvalidInput)

	var players []bracket.Player
	for _, name := range []string{"Ann", "Bob", "Cid", "Dan"} {
		p, err := env.service.AddPlayer(host, id, PlayerInput{Name: name, TeamName: name + " FC"})
		require.NoError(t, err)
		players = append(players, p)
	}

	// Nobody is placed yet
	assert.ErrorIs(t, env.service.StartGroupStage(host, id), bracket.ErrPreconditionFailed)

	_, err = env.service.SetGroups(host, id, []GroupInput{{PlayerIDs: []string{players[0].ID, "nobody"}}})
	assert.ErrorIs(t, err, bracket.ErrNotFound)

	_, err = env.service.SetGroups(host, id, []GroupInput{
		{PlayerIDs: []string{players[0].ID, players[1].ID}},
		{PlayerIDs: []string{players[1].ID, players[2].ID, players[3].ID}},
	})
	assert.ErrorIs(t, err, bracket.ErrPreconditionFailed)

	groups, err := env.service.SetGroups(host, id, []GroupInput{
		{Name: "North", PlayerIDs: []string{players[0].ID, players[1].ID}},
		{PlayerIDs: []string{players[2].ID, players[3].ID}},
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "North", groups[0].Name)
	assert.Equal(t, "Group B", groups[1].Name)

	require.NoError(t, env.service.StartGroupStage(host, id))

	data, err := env.service.GetTournamentData(host, id)
	require.NoError(t, err)
	require.Len(t, data.Matches, 2)

	// A rematch in group A
	_, err = env.service.AddFixture(host, id, FixtureInput{GroupID: "A", HomeID: players[0].ID, AwayID: players[0].ID})
	assert.ErrorIs(t, err, bracket.ErrInvalidInput)
	_, err = env.service.AddFixture(host, id, FixtureInput{GroupID: "A", HomeID: players[0].ID, AwayID: players[2].ID})
	assert.ErrorIs(t, err, bracket.ErrPreconditionFailed)
	_, err = env.service.AddFixture(host, id, FixtureInput{GroupID: "Z", HomeID: players[0].ID, AwayID: players[1].ID})
	assert.ErrorIs(t, err, bracket.ErrNotFound)

	rematch, err := env.service.AddFixture(host, id, FixtureInput{GroupID: "A", HomeID: players[1].ID, AwayID: players[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "A-2", rematch.ID)

	data, err = env.service.GetTournamentData(host, id)
	require.NoError(t, err)
	require.Len(t, data.Matches, 3)

	err = env.service.RecordResult(host, id, "A-1", ResultInput{})
	assert.ErrorIs(t, err, bracket.ErrInvalidResult)
	err = env.service.RecordResult(host, id, "A-9", scores(1, 0))
	assert.ErrorIs(t, err, bracket.ErrNotFound)
	err = env.service.RecordResult(player, id, "A-1", scores(1, 0))
	assert.ErrorIs(t, err, ErrForbidden)

	for _, m := range data.Matches {
		require.NoError(t, env.service.RecordResult(host, id, m.ID, scores(2, 2)))
	}

	b, err := env.service.StartKnockout(host, id)
	require.NoError(t, err)
	require.Len(t, b.Rounds, 2)

	seen := map[string]bool{}
	for _, m := range b.Rounds[0].Matches {
		seen[m.Home.PlayerID()] = true
		seen[m.Away.PlayerID()] = true
	}
	assert.Len(t, seen, 4)

	// Knockout matches can't be drawn
	err = env.service.RecordResult(host, id, "R1M1", scores(1, 1))
	assert.ErrorIs(t, err, bracket.ErrInvalidResult)
	err = env.service.RecordResult(host, id, "R2M1", scores(1, 0))
	assert.ErrorIs(t, err, bracket.ErrPreconditionFailed)
}

func TestSeedMakesDrawReproducible(t *testing.T) {
	draw := func() []bracket.Group {
		env := newTestEnv(t)
		host := env.signIn(t, "host")
		id, err := env.service.CreateTournament(host, CreateTournamentInput{Name: "Cup"})
		require.NoError(t, err)

		for i := 0; i < 8; i++ {
			_, err := env.service.JoinTournament(env.signIn(t, fmt.Sprintf("p%d", i)), id, "")
			require.NoError(t, err)
		}
		require.NoError(t, env.service.StartGroupStage(host, id))

		data, err := env.service.GetTournamentData(host, id)
		require.NoError(t, err)

		// Player ids are random per run, names are not
		for gi := range data.Groups {
			for pi := range data.Groups[gi].Players {
				data.Groups[gi].Players[pi].ID = ""
			}
		}
		return data.Groups
	}

	assert.Equal(t, draw(), draw())
}
