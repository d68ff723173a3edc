package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/AdamBeresnev/cupmaker/internal/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PlayerInput struct {
	Name     string `json:"name"`
	TeamName string `json:"teamName"`
}

// JoinTournament signs the current user up for a lobby tournament. Joining twice
// hands back the existing player.
func (s *TournamentService) JoinTournament(ctx context.Context, id uuid.UUID, teamName string) (bracket.Player, error) {
	user := middleware.GetAuthenticatedUser(ctx)
	if user == nil {
		return bracket.Player{}, ErrUnauthenticated
	}

	var player bracket.Player
	err := s.update(ctx, id, func(tx *sqlx.Tx, tournament *bracket.Tournament) error {
		existing, err := s.store.GetPlayerByUser(ctx, tx, id, user.ID)
		if err == nil {
			player = *existing
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if tournament.RegistrationType != bracket.RegistrationLobby {
			return fmt.Errorf("%w: players are added by the host in this tournament", bracket.ErrPreconditionFailed)
		}
		if err := requireStage(tournament, bracket.StageRegistration); err != nil {
			return err
		}

		player = bracket.Player{
			ID:       uuid.NewString(),
			Name:     user.Username,
			TeamName: strings.TrimSpace(teamName),
		}
		return s.store.AddPlayer(ctx, tx, id, player, &user.ID)
	})
	return player, err
}

// AddPlayer lets the host of a manual tournament type a player in
func (s *TournamentService) AddPlayer(ctx context.Context, id uuid.UUID, input PlayerInput) (bracket.Player, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return bracket.Player{}, fmt.Errorf("%w: player name is required", bracket.ErrInvalidInput)
	}

	var player bracket.Player
	err := s.update(ctx, id, func(tx *sqlx.Tx, tournament *bracket.Tournament) error {
		if err := requireOwner(ctx, tournament); err != nil {
			return err
		}
		if tournament.RegistrationType != bracket.RegistrationManual {
			return fmt.Errorf("%w: players join this tournament themselves", bracket.ErrPreconditionFailed)
		}
		if err := requireStage(tournament, bracket.StageRegistration); err != nil {
			return err
		}

		player = bracket.Player{
			ID:       uuid.NewString(),
			Name:     name,
			TeamName: strings.TrimSpace(input.TeamName),
		}
		return s.store.AddPlayer(ctx, tx, id, player, nil)
	})
	return player, err
}
