package main

import (
	"context"
	"flag"
	"os"

	"github.com/repoboard/repoboard"
	"github.com/rs/zerolog"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	configPath := flag.String("config", "repoboard.yaml", "path to config file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	syncOnStart := flag.Bool("sync", true, "sync configured repositories before serving")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("service", "repoboard").Logger().
		Level(level)

	logger.Info().Str("version", version).Str("commit", commit).Msg("starting")

	cfg, err := repoboard.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := repoboard.OpenDatabase(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	shutdown, err := repoboard.InitTracer("repoboard")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tracer")
	}
	defer shutdown(context.Background())

	srv := repoboard.NewServer(cfg.Web.Address, db, logger)

	if *syncOnStart && len(cfg.GitHub.Repositories) > 0 {
		syncer := repoboard.NewSyncer(cfg.GitHub.Token, db, logger, srv.Metrics())
		if err := syncer.Sync(context.Background(), cfg.GitHub.Repositories); err != nil {
			logger.Error().Err(err).Msg("initial sync failed")
		}
	}

	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
