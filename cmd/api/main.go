// Package main is the entry point for the Trip Vote API.
// Its sole responsibility is wiring dependencies together and running the
// requested command. No business logic belongs here.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkordes/tripvote/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the tripvote command tree. Running it without a
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	serve := serveCmd()
	root := &cobra.Command{
		Use:           "tripvote",
		Short:         "Store trips and vote on them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv()
		},
		RunE: serve.RunE,
	}
	root.AddCommand(serve, migrateCmd())
	return root
}

// loadConfig reads the configuration and installs the JSON logger as the
// slog default. Unknown log levels fall back to info.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		return config.Config{}, nil, err
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	return cfg, logger, nil
}
