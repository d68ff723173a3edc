package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ResultInput struct {
	HomeScore *int `json:"homeScore"`
	AwayScore *int `json:"awayScore"`
}

// RecordResult scores a group match during the group stage or a knockout match
// during the knockout stage. Scoring the final finishes the tournament.
func (s *TournamentService) RecordResult(ctx context.Context, id uuid.UUID, matchID string, input ResultInput) error {
	if input.HomeScore == nil || input.AwayScore == nil {
		return fmt.Errorf("%w: both scores are required", bracket.ErrInvalidResult)
	}
	home, away := *input.HomeScore, *input.AwayScore

	return s.update(ctx, id, func(tx *sqlx.Tx, tournament *bracket.Tournament) error {
		if err := requireOwner(ctx, tournament); err != nil {
			return err
		}

		switch tournament.Stage {
		case bracket.StageGroup:
			return s.recordGroupResult(ctx, tx, tournament, matchID, home, away)
		case bracket.StageKnockout:
			return s.recordKnockoutResult(ctx, tx, tournament, matchID, home, away)
		}
		return fmt.Errorf("%w: no matches are being played in %s", bracket.ErrPreconditionFailed, tournament.Stage)
	})
}

func (s *TournamentService) recordGroupResult(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament, matchID string, home, away int) error {
	matches, err := s.store.GetGroupMatches(ctx, tx, tournament.ID)
	if err != nil {
		return err
	}

	updated, err := bracket.RecordGroupResult(matches, matchID, home, away)
	if err != nil {
		return err
	}
	return s.store.SaveGroupMatches(ctx, tx, tournament.ID, updated)
}

func (s *TournamentService) recordKnockoutResult(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament, matchID string, home, away int) error {
	b, err := s.store.GetBracket(ctx, tx, tournament.ID)
	if err != nil {
		return err
	}

	advanced, err := bracket.AdvanceBracket(b, matchID, home, away)
	if err != nil {
		return err
	}
	if err := s.store.SaveBracket(ctx, tx, tournament.ID, advanced); err != nil {
		return err
	}

	if _, ok := bracket.Champion(advanced); ok {
		tournament.Stage = bracket.StageFinished
	}
	return nil
}
