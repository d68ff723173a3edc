package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type GroupInput struct {
	Name      string   `json:"name"`
	PlayerIDs []string `json:"playerIds"`
}

type FixtureInput struct {
	GroupID string `json:"groupId"`
	HomeID  string `json:"homeId"`
	AwayID  string `json:"awayId"`
}

func indexPlayers(players []bracket.Player) map[string]bracket.Player {
	index := make(map[string]bracket.Player, len(players))
	for _, p := range players {
		index[p.ID] = p
	}
	return index
}

// SetGroups stores the host's own group assignment for a manual tournament.
// Groups get ids A, B, ... in the order given.
func (s *TournamentService) SetGroups(ctx context.Context, id uuid.UUID, inputs []GroupInput) ([]bracket.Group, error) {
	var groups []bracket.Group
	err := s.update(ctx, id, func(tx *sqlx.Tx, tournament *bracket.Tournament) error {
		if err := requireOwner(ctx, tournament); err != nil {
			return err
		}
		if tournament.RegistrationType != bracket.RegistrationManual {
			return fmt.Errorf("%w: groups are drawn automatically in lobby tournaments", bracket.ErrPreconditionFailed)
		}
		if err := requireStage(tournament, bracket.StageRegistration); err != nil {
			return err
		}

		players, err := s.store.GetPlayers(ctx, tx, id)
		if err != nil {
			return err
		}
		registered := indexPlayers(players)

		groups = make([]bracket.Group, len(inputs))
		for i, input := range inputs {
			if i >= 26 {
				return fmt.Errorf("%w: at most 26 groups", bracket.ErrInvalidInput)
			}
			groupID := string(rune('A' + i))
			name := strings.TrimSpace(input.Name)
			if name == "" {
				name = "Group " + groupID
			}

			groups[i] = bracket.Group{ID: groupID, Name: name, Players: make([]bracket.Player, 0, len(input.PlayerIDs))}
			for _, playerID := range input.PlayerIDs {
				p, ok := registered[playerID]
				if !ok {
					return fmt.Errorf("%w: player %s is not registered", bracket.ErrNotFound, playerID)
				}
				groups[i].Players = append(groups[i].Players, p)
			}
		}

		if err := bracket.ValidateGroups(groups); err != nil {
			return err
		}
		return s.store.ReplaceGroups(ctx, tx, id, groups)
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// StartGroupStage closes registration. Lobby tournaments get their groups
// drawn now; manual tournaments need every player already placed in a group.
// Either way every group gets its round robin.
func (s *TournamentService) StartGroupStage(ctx context.Context, id uuid.UUID) error {
	return s.update(ctx, id, func(tx *sqlx.Tx, tournament *bracket.Tournament) error {
		if err := requireOwner(ctx, tournament); err != nil {
			return err
		}
		if err := requireStage(tournament, bracket.StageRegistration); err != nil {
			return err
		}

		players, err := s.store.GetPlayers(ctx, tx, id)
		if err != nil {
			return err
		}

		var groups []bracket.Group
		var matches []bracket.Match
		if tournament.RegistrationType == bracket.RegistrationLobby {
			err = s.draw(func(rng *rand.Rand) error {
				groups, matches, err = bracket.GenerateGroupsAndFixtures(players, s.rules, rng)
				return err
			})
			if err != nil {
				return err
			}
			if err := s.store.ReplaceGroups(ctx, tx, id, groups); err != nil {
				return err
			}
		} else {
			if len(players) < s.rules.MinPlayers {
				return fmt.Errorf("%w: need at least %d players, have %d (%d short)",
					bracket.ErrPreconditionFailed, s.rules.MinPlayers, len(players), s.rules.MinPlayers-len(players))
			}
			groups, err = s.store.GetGroups(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := allPlaced(players, groups); err != nil {
				return err
			}
			matches, err = bracket.GenerateFixturesForGroups(groups)
			if err != nil {
				return err
			}
		}

		if err := s.store.SaveGroupMatches(ctx, tx, id, matches); err != nil {
			return err
		}
		tournament.Stage = bracket.StageGroup
		return nil
	})
}

func allPlaced(players []bracket.Player, groups []bracket.Group) error {
	placed := make(map[string]bool)
	for _, g := range groups {
		for _, p := range g.Players {
			placed[p.ID] = true
		}
	}

	var missing []string
	for _, p := range players {
		if !placed[p.ID] {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: not in a group yet: %s", bracket.ErrPreconditionFailed, strings.Join(missing, ", "))
	}
	return nil
}

// AddFixture schedules an extra group match picked by the host
func (s *TournamentService) AddFixture(ctx context.Context, id uuid.UUID, input FixtureInput) (bracket.Match, error) {
	var match bracket.Match
	err := s.update(ctx, id, func(tx *sqlx.Tx, tournament *bracket.Tournament) error {
		if err := requireOwner(ctx, tournament); err != nil {
			return err
		}
		if err := requireStage(tournament, bracket.StageGroup); err != nil {
			return err
		}

		players, err := s.store.GetPlayers(ctx, tx, id)
		if err != nil {
			return err
		}
		registered := indexPlayers(players)
		for _, playerID := range []string{input.HomeID, input.AwayID} {
			if _, ok := registered[playerID]; !ok {
				return fmt.Errorf("%w: player %s is not registered", bracket.ErrNotFound, playerID)
			}
		}

		groups, err := s.store.GetGroups(ctx, tx, id)
		if err != nil {
			return err
		}
		var group *bracket.Group
		for i := range groups {
			if groups[i].ID == input.GroupID {
				group = &groups[i]
			}
		}
		if group == nil {
			return fmt.Errorf("%w: group %q", bracket.ErrNotFound, input.GroupID)
		}

		existing, err := s.store.GetGroupMatches(ctx, tx, id)
		if err != nil {
			return err
		}
		match, err = bracket.NewManualFixture(*group, existing, input.HomeID, input.AwayID)
		if err != nil {
			return err
		}
		return s.store.SaveGroupMatches(ctx, tx, id, append(existing, match))
	})
	return match, err
}
