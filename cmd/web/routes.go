package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/AdamBeresnev/cupmaker/internal/httputil"
	"github.com/AdamBeresnev/cupmaker/internal/live"
	"github.com/AdamBeresnev/cupmaker/internal/middleware"
	"github.com/AdamBeresnev/cupmaker/internal/service"
	"github.com/AdamBeresnev/cupmaker/internal/store"
	users "github.com/AdamBeresnev/cupmaker/internal/user"
	"github.com/AdamBeresnev/cupmaker/views"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/markbates/goth/gothic"
)

type application struct {
	sessionManager *scs.SessionManager
	userStore      *store.UserStore
	users          *service.UserService
	tournaments    *service.TournamentService
	hub            *live.Hub
	upgrader       websocket.Upgrader
	frontendURL    string
}

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	if app.frontendURL != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{app.frontendURL},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(app.sessionManager.LoadAndSave)
	r.Use(middleware.LoadAuthenticatedUser(app.sessionManager, app.userStore))

	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		views.Render(w, r, views.LoginPage())
	})

	r.Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var creds service.Credentials
		if err := httputil.DecodeJSON(r, &creds); err != nil {
			httputil.Error(w, r, "Invalid request body", err)
			return
		}
		user, err := app.users.Register(r.Context(), creds)
		if err != nil {
			httputil.Error(w, r, "Failed to register", err)
			return
		}
		if err := app.signIn(r.Context(), user); err != nil {
			httputil.Error(w, r, "Failed to start session", err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, user)
	})

	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds service.Credentials
		if err := httputil.DecodeJSON(r, &creds); err != nil {
			httputil.Error(w, r, "Invalid request body", err)
			return
		}
		user, err := app.users.Login(r.Context(), creds)
		if err != nil {
			httputil.Error(w, r, "Failed to log in", err)
			return
		}
		if err := app.signIn(r.Context(), user); err != nil {
			httputil.Error(w, r, "Failed to start session", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, user)
	})

	r.Post("/auth/guest", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		if isJSON(r) {
			if err := httputil.DecodeJSON(r, &body); err != nil {
				httputil.Error(w, r, "Invalid request body", err)
				return
			}
		} else {
			body.Name = r.FormValue("name")
		}

		user, err := app.users.CreateGuest(r.Context(), body.Name)
		if err != nil {
			httputil.Error(w, r, "Failed to login as guest", err)
			return
		}
		if err := app.signIn(r.Context(), user); err != nil {
			httputil.Error(w, r, "Failed to start session", err)
			return
		}

		if isJSON(r) {
			httputil.WriteJSON(w, http.StatusCreated, user)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		if err := app.sessionManager.Destroy(r.Context()); err != nil {
			httputil.Error(w, r, "Failed to log out", err)
			return
		}
		if isJSON(r) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Redirect(w, r, "/login", http.StatusFound)
	})

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		gothic.BeginAuthHandler(w, withProvider(r))
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		gothUser, err := gothic.CompleteUserAuth(w, withProvider(r))
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		user, err := app.users.FindOrCreateUserByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.InternalServerError(w, "Failed to find or create user", err)
			return
		}
		if err := app.signIn(r.Context(), user); err != nil {
			httputil.InternalServerError(w, "Failed to start session", err)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	})

	// Anyone with the link can follow a tournament
	r.Get("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := tournamentID(w, r)
		if !ok {
			return
		}
		data, err := app.tournaments.GetTournamentData(r.Context(), id)
		if err != nil {
			httputil.Error(w, r, "Failed to get tournament", err)
			return
		}
		views.Render(w, r, views.TournamentView(data))
	})

	r.Get("/ws/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := tournamentID(w, r)
		if !ok {
			return
		}
		app.hub.Serve(app.upgrader, w, r, id)
	})

	r.With(middleware.RequireAuth).Get("/", func(w http.ResponseWriter, r *http.Request) {
		tournaments, err := app.tournaments.GetTournamentsForUser(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to get tournaments", err)
			return
		}
		views.Render(w, r, views.Index(tournaments))
	})

	r.Route("/api/tournaments", func(r chi.Router) {
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := tournamentID(w, r)
			if !ok {
				return
			}
			data, err := app.tournaments.GetTournamentData(r.Context(), id)
			if err != nil {
				httputil.Error(w, r, "Failed to get tournament", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, data)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				tournaments, err := app.tournaments.GetTournamentsForUser(r.Context())
				if err != nil {
					httputil.Error(w, r, "Failed to get tournaments", err)
					return
				}
				httputil.WriteJSON(w, http.StatusOK, tournaments)
			})

			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				var input service.CreateTournamentInput
				if err := httputil.DecodeJSON(r, &input); err != nil {
					httputil.Error(w, r, "Invalid request body", err)
					return
				}
				id, err := app.tournaments.CreateTournament(r.Context(), input)
				if err != nil {
					httputil.Error(w, r, "Failed to create tournament", err)
					return
				}
				httputil.WriteJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": id})
			})

			r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
				id, ok := tournamentID(w, r)
				if !ok {
					return
				}
				if err := app.tournaments.DeleteTournament(r.Context(), id); err != nil {
					httputil.Error(w, r, "Failed to delete tournament", err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/{id}/players", func(w http.ResponseWriter, r *http.Request) {
				id, ok := tournamentID(w, r)
				if !ok {
					return
				}
				var input service.PlayerInput
				if err := httputil.DecodeJSON(r, &input); err != nil {
					httputil.Error(w, r, "Invalid request body", err)
					return
				}

				// A name means the host is entering someone, otherwise the caller joins
				var player bracket.Player
				var err error
				if strings.TrimSpace(input.Name) != "" {
					player, err = app.tournaments.AddPlayer(r.Context(), id, input)
				} else {
					player, err = app.tournaments.JoinTournament(r.Context(), id, input.TeamName)
				}
				if err != nil {
					httputil.Error(w, r, "Failed to add player", err)
					return
				}
				httputil.WriteJSON(w, http.StatusCreated, player)
			})

			r.Put("/{id}/groups", func(w http.ResponseWriter, r *http.Request) {
				id, ok := tournamentID(w, r)
				if !ok {
					return
				}
				var body struct {
					Groups []service.GroupInput `json:"groups"`
				}
				if err := httputil.DecodeJSON(r, &body); err != nil {
					httputil.Error(w, r, "Invalid request body", err)
					return
				}
				groups, err := app.tournaments.SetGroups(r.Context(), id, body.Groups)
				if err != nil {
					httputil.Error(w, r, "Failed to set groups", err)
					return
				}
				httputil.WriteJSON(w, http.StatusOK, groups)
			})

			r.Post("/{id}/group-stage", func(w http.ResponseWriter, r *http.Request) {
				id, ok := tournamentID(w, r)
				if !ok {
					return
				}
				if err := app.tournaments.StartGroupStage(r.Context(), id); err != nil {
					httputil.Error(w, r, "Failed to start group stage", err)
					return
				}
				app.writeTournament(w, r, id)
			})

			r.Post("/{id}/fixtures", func(w http.ResponseWriter, r *http.Request) {
				id, ok := tournamentID(w, r)
				if !ok {
					return
				}
				var input service.FixtureInput
				if err := httputil.DecodeJSON(r, &input); err != nil {
					httputil.Error(w, r, "Invalid request body", err)
					return
				}
				match, err := app.tournaments.AddFixture(r.Context(), id, input)
				if err != nil {
					httputil.Error(w, r, "Failed to add fixture", err)
					return
				}
				httputil.WriteJSON(w, http.StatusCreated, match)
			})

			r.Post("/{id}/matches/{matchID}/result", func(w http.ResponseWriter, r *http.Request) {
				id, ok := tournamentID(w, r)
				if !ok {
					return
				}
				var input service.ResultInput
				if err := httputil.DecodeJSON(r, &input); err != nil {
					httputil.Error(w, r, "Invalid request body", err)
					return
				}
				if err := app.tournaments.RecordResult(r.Context(), id, chi.URLParam(r, "matchID"), input); err != nil {
					httputil.Error(w, r, "Failed to record result", err)
					return
				}
				app.writeTournament(w, r, id)
			})

			r.Post("/{id}/knockout", func(w http.ResponseWriter, r *http.Request) {
				id, ok := tournamentID(w, r)
				if !ok {
					return
				}
				b, err := app.tournaments.StartKnockout(r.Context(), id)
				if err != nil {
					httputil.Error(w, r, "Failed to start knockout stage", err)
					return
				}
				httputil.WriteJSON(w, http.StatusOK, b)
			})
		})
	})

	return r
}

// signIn swaps the session token before storing the user, so a token issued
// before login cannot be reused
func (app *application) signIn(ctx context.Context, user *users.User) error {
	if err := app.sessionManager.RenewToken(ctx); err != nil {
		return err
	}
	app.sessionManager.Put(ctx, middleware.SessionUserKey, user.ID.String())
	return nil
}

func (app *application) writeTournament(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	data, err := app.tournaments.GetTournamentData(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, "Failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

func tournamentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, "Invalid tournament ID", fmt.Errorf("%w: %v", bracket.ErrInvalidInput, err))
		return uuid.Nil, false
	}
	return id, true
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// gothic looks the provider up under this context key
func withProvider(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), "provider", chi.URLParam(r, "provider")))
}
