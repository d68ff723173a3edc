package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/AdamBeresnev/cupmaker/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// ErrStaleTournament means somebody else wrote the tournament since it was loaded
var ErrStaleTournament = errors.New("tournament was modified concurrently")

const (
	stageGroup    = "group"
	stageKnockout = "knockout"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

// DB is handed to read helpers when no transaction is open
func (s *TournamentStore) DB() *sqlx.DB {
	return s.db
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	if tournament.Version == 0 {
		tournament.Version = 1
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, owner_id, name, game, stage, registration_type, version, created_at)
		VALUES (:id, :owner_id, :name, :game, :stage, :registration_type, :version, :created_at)`, tournament)
	return err
}

// UpdateTournament writes name, game and stage back and bumps the version.
// It fails with ErrStaleTournament when the stored version moved on.
func (s *TournamentStore) UpdateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	res, err := tx.NamedExecContext(ctx, `UPDATE tournaments SET
		name = :name,
		game = :game,
		stage = :stage,
		version = version + 1
		WHERE id = :id AND version = :version`, tournament)
	if isBusy(err) {
		return fmt.Errorf("%w: %s: %v", ErrStaleTournament, tournament.ID, err)
	}
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s at version %d", ErrStaleTournament, tournament.ID, tournament.Version)
	}

	tournament.Version++
	return nil
}

// isBusy reports SQLite refusing a write because another connection holds the lock
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

func (s *TournamentStore) DeleteTournament(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM tournaments WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *TournamentStore) GetTournament(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := sqlx.GetContext(ctx, q, &tournament, "SELECT id, owner_id, name, game, stage, registration_type, version, created_at FROM tournaments WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) GetTournamentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]bracket.Tournament, error) {
	tournaments := []bracket.Tournament{}
	err := s.db.SelectContext(ctx, &tournaments, "SELECT id, owner_id, name, game, stage, registration_type, version, created_at FROM tournaments WHERE owner_id = ? ORDER BY created_at DESC, name ASC", ownerID)
	return tournaments, err
}

type playerRow struct {
	TournamentID uuid.UUID `db:"tournament_id"`
	ID           string    `db:"id"`
	UserID       *string   `db:"user_id"`
	Name         string    `db:"name"`
	TeamName     string    `db:"team_name"`
	Position     int       `db:"position"`
}

func (r playerRow) player() bracket.Player {
	return bracket.Player{ID: r.ID, Name: r.Name, TeamName: r.TeamName}
}

// AddPlayer appends a player to the roster. userID is nil for players the host typed in.
func (s *TournamentStore) AddPlayer(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, player bracket.Player, userID *uuid.UUID) error {
	var position int
	if err := tx.GetContext(ctx, &position, "SELECT COUNT(*) FROM players WHERE tournament_id = ?", tournamentID); err != nil {
		return err
	}

	row := playerRow{
		TournamentID: tournamentID,
		ID:           player.ID,
		Name:         player.Name,
		TeamName:     player.TeamName,
		Position:     position,
		UserID:       utils.Map(userID, uuid.UUID.String),
	}

	_, err := tx.NamedExecContext(ctx, `INSERT INTO players (tournament_id, id, user_id, name, team_name, position)
		VALUES (:tournament_id, :id, :user_id, :name, :team_name, :position)`, row)
	return err
}

func (s *TournamentStore) GetPlayers(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]bracket.Player, error) {
	var rows []playerRow
	err := sqlx.SelectContext(ctx, q, &rows, "SELECT tournament_id, id, user_id, name, team_name, position FROM players WHERE tournament_id = ? ORDER BY position ASC", tournamentID)
	if err != nil {
		return nil, err
	}

	players := make([]bracket.Player, len(rows))
	for i, r := range rows {
		players[i] = r.player()
	}
	return players, nil
}

func (s *TournamentStore) GetPlayerByUser(ctx context.Context, q sqlx.QueryerContext, tournamentID, userID uuid.UUID) (*bracket.Player, error) {
	var row playerRow
	err := sqlx.GetContext(ctx, q, &row, "SELECT tournament_id, id, user_id, name, team_name, position FROM players WHERE tournament_id = ? AND user_id = ?", tournamentID, userID.String())
	if err != nil {
		return nil, err
	}
	p := row.player()
	return &p, nil
}

// ReplaceGroups drops the current group assignment and writes groups in its place
func (s *TournamentStore) ReplaceGroups(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, groups []bracket.Group) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM group_members WHERE tournament_id = ?", tournamentID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tournament_groups WHERE tournament_id = ?", tournamentID); err != nil {
		return err
	}

	for i, g := range groups {
		_, err := tx.ExecContext(ctx, "INSERT INTO tournament_groups (tournament_id, id, name, position) VALUES (?, ?, ?, ?)",
			tournamentID, g.ID, g.Name, i)
		if err != nil {
			return fmt.Errorf("insert group %s: %w", g.ID, err)
		}

		for j, p := range g.Players {
			_, err := tx.ExecContext(ctx, "INSERT INTO group_members (tournament_id, group_id, player_id, position) VALUES (?, ?, ?, ?)",
				tournamentID, g.ID, p.ID, j)
			if err != nil {
				return fmt.Errorf("add %s to group %s: %w", p.ID, g.ID, err)
			}
		}
	}
	return nil
}

func (s *TournamentStore) GetGroups(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]bracket.Group, error) {
	var groupRows []struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	err := sqlx.SelectContext(ctx, q, &groupRows, "SELECT id, name FROM tournament_groups WHERE tournament_id = ? ORDER BY position ASC", tournamentID)
	if err != nil {
		return nil, err
	}

	var members []struct {
		GroupID string `db:"group_id"`
		playerRow
	}
	err = sqlx.SelectContext(ctx, q, &members, `SELECT gm.group_id, p.tournament_id, p.id, p.user_id, p.name, p.team_name, p.position
		FROM group_members gm
		JOIN players p ON p.tournament_id = gm.tournament_id AND p.id = gm.player_id
		WHERE gm.tournament_id = ?
		ORDER BY gm.position ASC`, tournamentID)
	if err != nil {
		return nil, err
	}

	groups := make([]bracket.Group, len(groupRows))
	index := make(map[string]int, len(groupRows))
	for i, g := range groupRows {
		groups[i] = bracket.Group{ID: g.ID, Name: g.Name, Players: []bracket.Player{}}
		index[g.ID] = i
	}
	for _, m := range members {
		if i, ok := index[m.GroupID]; ok {
			groups[i].Players = append(groups[i].Players, m.player())
		}
	}
	return groups, nil
}

type matchRow struct {
	TournamentID uuid.UUID `db:"tournament_id"`
	ID           string    `db:"id"`
	Stage        string    `db:"stage"`
	GroupID      *string   `db:"group_id"`
	Matchday     int       `db:"matchday"`
	RoundIndex   int       `db:"round_index"`
	Position     int       `db:"position"`
	RoundName    string    `db:"round_name"`
	HomeState    string    `db:"home_state"`
	HomePlayerID *string   `db:"home_player_id"`
	AwayState    string    `db:"away_state"`
	AwayPlayerID *string   `db:"away_player_id"`
	HomeScore    *int      `db:"home_score"`
	AwayScore    *int      `db:"away_score"`
	Played       bool      `db:"played"`
}

func newMatchRow(tournamentID uuid.UUID, stage string, m bracket.Match) matchRow {
	return matchRow{
		TournamentID: tournamentID,
		ID:           m.ID,
		Stage:        stage,
		GroupID:      utils.StringOrNil(m.GroupID),
		Matchday:     m.Matchday,
		RoundName:    m.Round,
		HomeState:    string(m.Home.State),
		HomePlayerID: utils.StringOrNil(m.Home.PlayerID()),
		AwayState:    string(m.Away.State),
		AwayPlayerID: utils.StringOrNil(m.Away.PlayerID()),
		HomeScore:    m.HomeScore,
		AwayScore:    m.AwayScore,
		Played:       m.Played,
	}
}

func (r matchRow) match(players map[string]bracket.Player) (bracket.Match, error) {
	home, err := restoreSlot(r.HomeState, r.HomePlayerID, players)
	if err != nil {
		return bracket.Match{}, fmt.Errorf("match %s home: %w", r.ID, err)
	}
	away, err := restoreSlot(r.AwayState, r.AwayPlayerID, players)
	if err != nil {
		return bracket.Match{}, fmt.Errorf("match %s away: %w", r.ID, err)
	}

	return bracket.Match{
		ID:        r.ID,
		Home:      home,
		Away:      away,
		HomeScore: r.HomeScore,
		AwayScore: r.AwayScore,
		Played:    r.Played,
		GroupID:   utils.OrZero(r.GroupID),
		Matchday:  r.Matchday,
		Round:     r.RoundName,
	}, nil
}

func restoreSlot(state string, playerID *string, players map[string]bracket.Player) (bracket.Slot, error) {
	switch bracket.SlotState(state) {
	case bracket.SlotPending:
		return bracket.Pending(), nil
	case bracket.SlotBye:
		return bracket.Bye(), nil
	case bracket.SlotResolved:
		p, ok := players[utils.OrZero(playerID)]
		if !ok {
			return bracket.Slot{}, fmt.Errorf("unknown player %q", utils.OrZero(playerID))
		}
		return bracket.Resolved(p), nil
	}
	return bracket.Slot{}, fmt.Errorf("unknown slot state %q", state)
}

const upsertMatchQuery = `INSERT INTO matches (tournament_id, id, stage, group_id, matchday, round_index, position, round_name,
		home_state, home_player_id, away_state, away_player_id, home_score, away_score, played)
	VALUES (:tournament_id, :id, :stage, :group_id, :matchday, :round_index, :position, :round_name,
		:home_state, :home_player_id, :away_state, :away_player_id, :home_score, :away_score, :played)
	ON CONFLICT (tournament_id, id) DO UPDATE SET
		home_state = excluded.home_state,
		home_player_id = excluded.home_player_id,
		away_state = excluded.away_state,
		away_player_id = excluded.away_player_id,
		home_score = excluded.home_score,
		away_score = excluded.away_score,
		played = excluded.played`

// SaveGroupMatches inserts new group fixtures and updates the ones already stored.
// The list order is kept as the display order.
func (s *TournamentStore) SaveGroupMatches(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, matches []bracket.Match) error {
	for i, m := range matches {
		row := newMatchRow(tournamentID, stageGroup, m)
		row.Position = i
		if _, err := tx.NamedExecContext(ctx, upsertMatchQuery, row); err != nil {
			return fmt.Errorf("save match %s: %w", m.ID, err)
		}
	}
	return nil
}

func (s *TournamentStore) SaveBracket(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, b bracket.KnockoutBracket) error {
	for r, round := range b.Rounds {
		for i, m := range round.Matches {
			row := newMatchRow(tournamentID, stageKnockout, m)
			row.RoundIndex = r
			row.Position = i
			if _, err := tx.NamedExecContext(ctx, upsertMatchQuery, row); err != nil {
				return fmt.Errorf("save match %s: %w", m.ID, err)
			}
		}
	}
	return nil
}

func (s *TournamentStore) getMatchRows(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID, stage string) ([]matchRow, error) {
	var rows []matchRow
	err := sqlx.SelectContext(ctx, q, &rows, `SELECT tournament_id, id, stage, group_id, matchday, round_index, position, round_name,
		home_state, home_player_id, away_state, away_player_id, home_score, away_score, played
		FROM matches WHERE tournament_id = ? AND stage = ?
		ORDER BY round_index ASC, position ASC`, tournamentID, stage)
	return rows, err
}

func (s *TournamentStore) playerIndex(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) (map[string]bracket.Player, error) {
	players, err := s.GetPlayers(ctx, q, tournamentID)
	if err != nil {
		return nil, err
	}
	index := make(map[string]bracket.Player, len(players))
	for _, p := range players {
		index[p.ID] = p
	}
	return index, nil
}

func (s *TournamentStore) GetGroupMatches(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]bracket.Match, error) {
	players, err := s.playerIndex(ctx, q, tournamentID)
	if err != nil {
		return nil, err
	}
	rows, err := s.getMatchRows(ctx, q, tournamentID, stageGroup)
	if err != nil {
		return nil, err
	}

	matches := make([]bracket.Match, 0, len(rows))
	for _, r := range rows {
		m, err := r.match(players)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// GetBracket returns an empty bracket when the knockout stage hasn't been drawn yet
func (s *TournamentStore) GetBracket(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) (bracket.KnockoutBracket, error) {
	players, err := s.playerIndex(ctx, q, tournamentID)
	if err != nil {
		return bracket.KnockoutBracket{}, err
	}
	rows, err := s.getMatchRows(ctx, q, tournamentID, stageKnockout)
	if err != nil {
		return bracket.KnockoutBracket{}, err
	}

	var b bracket.KnockoutBracket
	for _, r := range rows {
		for len(b.Rounds) <= r.RoundIndex {
			b.Rounds = append(b.Rounds, bracket.Round{})
		}
		m, err := r.match(players)
		if err != nil {
			return bracket.KnockoutBracket{}, err
		}
		round := &b.Rounds[r.RoundIndex]
		round.Name = r.RoundName
		round.Matches = append(round.Matches, m)
	}
	return b, nil
}
