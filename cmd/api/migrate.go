package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/pkordes/tripvote/internal/config"
	"github.com/pkordes/tripvote/internal/repo"
	"github.com/pkordes/tripvote/migrations"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Applies every pending migration to DATABASE_URL. Use --down to roll back the latest one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			down, _ := cmd.Flags().GetBool("down")
			status, _ := cmd.Flags().GetBool("status")
			if down && status {
				return errors.New("--down and --status are mutually exclusive")
			}

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store != config.StorePostgres {
				return fmt.Errorf("migrate needs STORE=%s", config.StorePostgres)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			switch {
			case status:
				return migrationStatus(ctx, cfg.DatabaseURL)
			case down:
				return migrateDown(ctx, cfg.DatabaseURL)
			default:
				return migrateUp(ctx, cfg.DatabaseURL)
			}
		},
	}

	cmd.Flags().BoolP("down", "d", false, "roll back the most recent migration")
	cmd.Flags().Bool("status", false, "print the state of every migration")
	return cmd
}

// newProvider opens dsn through the pgx database/sql driver and returns a
// goose provider over the embedded migrations. The caller closes the provider.
func newProvider(ctx context.Context, dsn string) (*goose.Provider, error) {
	db, err := repo.OpenSQLDB(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	provider, err := migrations.NewProvider(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create goose provider: %w", err)
	}
	return provider, nil
}

func migrateUp(ctx context.Context, dsn string) error {
	provider, err := newProvider(ctx, dsn)
	if err != nil {
		return err
	}
	defer provider.Close()

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		slog.Info("migration applied", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration)
	}
	slog.Info("migrations up to date", "applied", len(results))
	return nil
}

func migrateDown(ctx context.Context, dsn string) error {
	provider, err := newProvider(ctx, dsn)
	if err != nil {
		return err
	}
	defer provider.Close()

	result, err := provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	slog.Info("migration rolled back", "version", result.Source.Version, "path", result.Source.Path)
	return nil
}

func migrationStatus(ctx context.Context, dsn string) error {
	provider, err := newProvider(ctx, dsn)
	if err != nil {
		return err
	}
	defer provider.Close()

	statuses, err := provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("goose status: %w", err)
	}
	for _, s := range statuses {
		slog.Info("migration", "version", s.Source.Version, "path", s.Source.Path, "state", s.State, "applied_at", s.AppliedAt)
	}
	return nil
}
