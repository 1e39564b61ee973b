package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/pkordes/tripvote/internal/config"
	"github.com/pkordes/tripvote/internal/handler"
	"github.com/pkordes/tripvote/internal/middleware"
	"github.com/pkordes/tripvote/internal/repo"
	"github.com/pkordes/tripvote/internal/service"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

// serve opens the configured store, builds the router and runs the HTTP
// server until SIGINT or SIGTERM.
func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// --- Storage ----------------------------------------------------------
	var trips repo.TripRepo
	switch cfg.Store {
	case config.StoreMemory:
		slog.Warn("using in-memory store; trips are lost on restart")
		trips = repo.NewMemTripRepo()
	default:
		if cfg.AutoMigrate {
			if err := migrateUp(ctx, cfg.DatabaseURL); err != nil {
				slog.Error("failed to apply migrations", "error", err)
				return err
			}
		}

		pool, err := repo.OpenPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			return err
		}
		defer pool.Close()
		slog.Info("database connection established")
		trips = repo.NewTripRepo(pool)
	}

	// --- Router -----------------------------------------------------------
	r, err := newRouter(cfg, trips, logger)
	if err != nil {
		slog.Error("failed to build router", "error", err)
		return err
	}

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		slog.Error("server error", "error", err)
		return err
	case <-stop:
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}

// newRouter assembles the middleware chain and mounts the API.
//
// Order: RequestID → RealIP → SlogLogger → Recoverer → CORS → RateLimit → MaxBodySize.
// RealIP must run before the rate limiter, which keys on RemoteAddr.
// Recoverer sits inside the logger so a panic is still logged as a 500.
func newRouter(cfg config.Config, trips repo.TripRepo, logger *slog.Logger) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	if cfg.RateLimit != "" {
		limit, err := middleware.NewRateLimitHandler(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("RATE_LIMIT: %w", err)
		}
		r.Use(limit)
	}
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	if cfg.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}

	api := handler.NewServer(service.NewTripService(trips), logger)
	r.Mount("/", api.Routes())

	return r, nil
}
