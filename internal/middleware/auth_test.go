package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AdamBeresnev/cupmaker/internal/db"
	"github.com/AdamBeresnev/cupmaker/internal/store"
	users "github.com/AdamBeresnev/cupmaker/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	testCases := []struct {
		name     string
		path     string
		user     *users.User
		expected int
	}{
		{name: "api anonymous", path: "/api/tournaments", expected: http.StatusUnauthorized},
		{name: "page anonymous", path: "/tournaments/new", expected: http.StatusFound},
		{name: "signed in", path: "/api/tournaments", user: &users.User{ID: uuid.New()}, expected: http.StatusTeapot},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), tc.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.expected, rec.Code)
		})
	}
}

func TestContextHelpers(t *testing.T) {
	_, ok := GetUserIDFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, GetAuthenticatedUser(context.Background()))

	user := &users.User{ID: uuid.New(), Username: "ann"}
	ctx := WithUser(context.Background(), user)

	id, ok := GetUserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, user.ID, id)
	assert.Same(t, user, GetAuthenticatedUser(ctx))
}

func TestLoadAuthenticatedUser(t *testing.T) {
	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	defer database.Close()
	require.NoError(t, db.RunMigrations(database.DB))

	userStore := store.NewUserStore(database)
	user := &users.User{ID: uuid.New(), Username: "ann", CreatedAt: time.Now().UTC()}
	require.NoError(t, userStore.CreateUser(context.Background(), user))

	sessionManager := scs.New()

	var seen *users.User
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAuthenticatedUser(r.Context())
	})
	login := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionManager.Put(r.Context(), SessionUserKey, user.ID.String())
	})

	mux := http.NewServeMux()
	mux.Handle("/login", login)
	mux.Handle("/", LoadAuthenticatedUser(sessionManager, userStore)(inner))
	handler := sessionManager.LoadAndSave(mux)

	// Anonymous first
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, seen)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)
}
