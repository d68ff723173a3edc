package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func countUnplayed(matches []bracket.Match) int {
	n := 0
	for _, m := range matches {
		if !m.Played {
			n++
		}
	}
	return n
}

// StartKnockout closes the group stage once every group match has a result,
// picks the qualifiers across all groups and draws the bracket. The bracket is
// drawn exactly once; after that it only changes through results.
func (s *TournamentService) StartKnockout(ctx context.Context, id uuid.UUID) (bracket.KnockoutBracket, error) {
	var drawn bracket.KnockoutBracket
	err := s.update(ctx, id, func(tx *sqlx.Tx, tournament *bracket.Tournament) error {
		if err := requireOwner(ctx, tournament); err != nil {
			return err
		}
		if err := requireStage(tournament, bracket.StageGroup); err != nil {
			return err
		}

		existing, err := s.store.GetBracket(ctx, tx, id)
		if err != nil {
			return err
		}
		if !existing.IsEmpty() {
			return fmt.Errorf("%w: the knockout bracket has already been drawn", bracket.ErrPreconditionFailed)
		}

		matches, err := s.store.GetGroupMatches(ctx, tx, id)
		if err != nil {
			return err
		}
		if !bracket.GroupStageComplete(matches) {
			return fmt.Errorf("%w: %d group matches still to play", bracket.ErrPreconditionFailed, countUnplayed(matches))
		}

		players, err := s.store.GetPlayers(ctx, tx, id)
		if err != nil {
			return err
		}
		groups, err := s.store.GetGroups(ctx, tx, id)
		if err != nil {
			return err
		}

		standings := bracket.CalculateAllStandings(groups, matches)
		qualifiers := bracket.DetermineKnockoutQualifiers(standings, groups, len(players))

		err = s.draw(func(rng *rand.Rand) error {
			drawn, err = bracket.GenerateKnockoutBracket(qualifiers, rng)
			return err
		})
		if err != nil {
			return err
		}

		if err := s.store.SaveBracket(ctx, tx, id, drawn); err != nil {
			return err
		}
		tournament.Stage = bracket.StageKnockout
		return nil
	})
	if err != nil {
		return bracket.KnockoutBracket{}, err
	}
	return drawn, nil
}
