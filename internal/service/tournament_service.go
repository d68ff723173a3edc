package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/AdamBeresnev/cupmaker/internal/middleware"
	"github.com/AdamBeresnev/cupmaker/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Notifier hears about every committed change to a tournament
type Notifier interface {
	TournamentUpdated(ctx context.Context, tournamentID uuid.UUID)
}

type noopNotifier struct{}

func (noopNotifier) TournamentUpdated(context.Context, uuid.UUID) {}

type TournamentService struct {
	db       *sqlx.DB
	store    *store.TournamentStore
	clock    clockwork.Clock
	rules    bracket.Rules
	notifier Notifier

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*TournamentService)

func WithClock(clock clockwork.Clock) Option {
	return func(s *TournamentService) { s.clock = clock }
}

func WithRules(rules bracket.Rules) Option {
	return func(s *TournamentService) { s.rules = rules }
}

func WithNotifier(n Notifier) Option {
	return func(s *TournamentService) { s.notifier = n }
}

// WithSeed makes group draws and bracket seeding reproducible
func WithSeed(seed uint64) Option {
	return func(s *TournamentService) { s.rng = rand.New(rand.NewPCG(seed, seed)) }
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, opts ...Option) *TournamentService {
	s := &TournamentService{
		db:       db,
		store:    store,
		clock:    clockwork.NewRealClock(),
		rules:    bracket.DefaultRules(),
		notifier: noopNotifier{},
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TournamentService) Rules() bracket.Rules {
	return s.rules
}

// draw hands out the shared generator; *rand.Rand is not safe for concurrent use
func (s *TournamentService) draw(fn func(rng *rand.Rand) error) error {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return fn(s.rng)
}

type CreateTournamentInput struct {
	Name             string                   `json:"name"`
	Game             string                   `json:"game"`
	RegistrationType bracket.RegistrationType `json:"registrationType"`
}

func (s *TournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (uuid.UUID, error) {
	ownerID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: tournament name is required", bracket.ErrInvalidInput)
	}
	if input.RegistrationType == "" {
		input.RegistrationType = bracket.RegistrationLobby
	}
	if !input.RegistrationType.Valid() {
		return uuid.Nil, fmt.Errorf("%w: unknown registration type %q", bracket.ErrInvalidInput, input.RegistrationType)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	tournament := bracket.Tournament{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Name:             name,
		Game:             strings.TrimSpace(input.Game),
		Stage:            bracket.StageRegistration,
		RegistrationType: input.RegistrationType,
		CreatedAt:        s.clock.Now().UTC(),
	}
	if err := s.store.CreateTournament(ctx, tx, &tournament); err != nil {
		return uuid.Nil, err
	}

	return tournament.ID, tx.Commit()
}

type TournamentData struct {
	Tournament *bracket.Tournament           `json:"tournament"`
	Players    []bracket.Player              `json:"players"`
	Groups     []bracket.Group               `json:"groups"`
	Matches    []bracket.Match               `json:"matches"`
	Standings  map[string][]bracket.Standing `json:"standings"`
	Bracket    bracket.KnockoutBracket       `json:"bracket"`
	Champion   *bracket.Player               `json:"champion,omitempty"`
}

// NextMatch is the first group or knockout match that can be played right now
func (d *TournamentData) NextMatch() *bracket.Match {
	for i := range d.Matches {
		if d.Matches[i].Playable() {
			return &d.Matches[i]
		}
	}
	for r := range d.Bracket.Rounds {
		for i := range d.Bracket.Rounds[r].Matches {
			if m := &d.Bracket.Rounds[r].Matches[i]; m.Playable() {
				return m
			}
		}
	}
	return nil
}

func (s *TournamentService) GetTournamentData(ctx context.Context, id uuid.UUID) (*TournamentData, error) {
	data := &TournamentData{}
	q := s.store.DB()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.store.GetTournament(gctx, q, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: tournament %s", bracket.ErrNotFound, id)
		}
		data.Tournament = t
		return err
	})
	g.Go(func() error {
		var err error
		data.Players, err = s.store.GetPlayers(gctx, q, id)
		return err
	})
	g.Go(func() error {
		var err error
		data.Groups, err = s.store.GetGroups(gctx, q, id)
		return err
	})
	g.Go(func() error {
		var err error
		data.Matches, err = s.store.GetGroupMatches(gctx, q, id)
		return err
	})
	g.Go(func() error {
		var err error
		data.Bracket, err = s.store.GetBracket(gctx, q, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data.Standings = bracket.CalculateAllStandings(data.Groups, data.Matches)
	if champion, ok := bracket.Champion(data.Bracket); ok {
		data.Champion = &champion
	}
	return data, nil
}

func (s *TournamentService) GetTournamentsForUser(ctx context.Context) ([]bracket.Tournament, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return s.store.GetTournamentsByOwner(ctx, userID)
}

func (s *TournamentService) DeleteTournament(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tournament, err := s.getTournament(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(ctx, tournament); err != nil {
		return err
	}
	if err := s.store.DeleteTournament(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.notifier.TournamentUpdated(ctx, id)
	return nil
}

func (s *TournamentService) getTournament(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Tournament, error) {
	tournament, err := s.store.GetTournament(ctx, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tournament %s", bracket.ErrNotFound, id)
	}
	return tournament, err
}

func requireOwner(ctx context.Context, tournament *bracket.Tournament) error {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if userID != tournament.OwnerID {
		return ErrForbidden
	}
	return nil
}

func requireStage(tournament *bracket.Tournament, stage bracket.TournamentStage) error {
	if tournament.Stage != stage {
		return fmt.Errorf("%w: tournament is in %s, not %s", bracket.ErrPreconditionFailed, tournament.Stage, stage)
	}
	return nil
}

// update runs fn against the tournament inside one transaction and bumps its
// version, so two writers racing on the same tournament can't both win.
func (s *TournamentService) update(ctx context.Context, id uuid.UUID, fn func(tx *sqlx.Tx, tournament *bracket.Tournament) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tournament, err := s.getTournament(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := fn(tx, tournament); err != nil {
		return err
	}
	if err := s.store.UpdateTournament(ctx, tx, tournament); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.notifier.TournamentUpdated(ctx, id)
	return nil
}
