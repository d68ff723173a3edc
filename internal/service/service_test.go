package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/cupmaker/internal/db"
	"github.com/AdamBeresnev/cupmaker/internal/middleware"
	"github.com/AdamBeresnev/cupmaker/internal/store"
	users "github.com/AdamBeresnev/cupmaker/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 14, 18, 30, 0, 0, time.UTC)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	// Every connection would get its own empty in-memory database
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database.DB), "Failed to apply migrations")
	t.Cleanup(func() { database.Close() })

	return database
}

type recordingNotifier struct {
	mu      sync.Mutex
	updates []uuid.UUID
}

func (n *recordingNotifier) TournamentUpdated(_ context.Context, id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, id)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.updates)
}

type testEnv struct {
	db       *sqlx.DB
	users    *store.UserStore
	service  *TournamentService
	notifier *recordingNotifier
	clock    *clockwork.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := setupTestDB(t)
	notifier := &recordingNotifier{}
	clock := clockwork.NewFakeClockAt(testNow)

	return &testEnv{
		db:       database,
		users:    store.NewUserStore(database),
		notifier: notifier,
		clock:    clock,
		service: NewTournamentService(database, store.NewTournamentStore(database),
			WithClock(clock),
			WithNotifier(notifier),
			WithSeed(42),
		),
	}
}

// signIn creates an account and returns a context carrying it
func (e *testEnv) signIn(t *testing.T, name string) context.Context {
	t.Helper()

	user := &users.User{ID: uuid.New(), Username: name, CreatedAt: testNow}
	require.NoError(t, e.users.CreateUser(context.Background(), user))
	return middleware.WithUser(context.Background(), user)
}

func scores(home, away int) ResultInput {
	return ResultInput{HomeScore: &home, AwayScore: &away}
}
