package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/cupmaker/internal/config"
	"github.com/AdamBeresnev/cupmaker/internal/db"
	"github.com/AdamBeresnev/cupmaker/internal/live"
	"github.com/AdamBeresnev/cupmaker/internal/middleware"
	"github.com/AdamBeresnev/cupmaker/internal/service"
	"github.com/AdamBeresnev/cupmaker/internal/store"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jonboulle/clockwork"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		return err
	}

	middleware.InitAuth()

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Store = sqlite3store.New(database.DB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := live.NewHub()
	go hub.Run(ctx)

	var notifier service.Notifier = hub
	if cfg.NATSURL != "" {
		nc, err := live.Connect(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer nc.Drain()

		relay, err := live.StartRelay(nc, hub)
		if err != nil {
			return err
		}
		defer relay.Stop()

		notifier = live.NewPublisher(nc)
		logger.Info("Live updates go through NATS", "url", cfg.NATSURL)
	}

	clock := clockwork.NewRealClock()
	userStore := store.NewUserStore(database)
	app := &application{
		sessionManager: sessionManager,
		userStore:      userStore,
		users:          service.NewUserService(userStore, clock),
		tournaments: service.NewTournamentService(database, store.NewTournamentStore(database),
			service.WithClock(clock),
			service.WithRules(cfg.Rules),
			service.WithNotifier(notifier),
		),
		hub:         hub,
		upgrader:    live.NewUpgrader(cfg.FrontendURL),
		frontendURL: cfg.FrontendURL,
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      newRouter(app),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
