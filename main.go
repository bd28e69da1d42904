package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"interviewd/internal/app"
	"interviewd/internal/config"
	"interviewd/internal/database"
	"interviewd/pkg/logger"
)

func main() {
	cfg, err := config.Load("./configs")
	if err != nil {
		panic(err)
	}

	log := logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrations(cfg, log)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Application error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	application.Shutdown(shutdownCtx)
}

func runMigrations(cfg *config.Config, log zerolog.Logger) {
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations", log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrator")
	}
	defer migrator.Close()

	if len(os.Args) > 2 && os.Args[2] == "down" {
		if err := migrator.Down(); err != nil {
			log.Fatal().Err(err).Msg("Migration rollback failed")
		}
		return
	}

	if err := migrator.Up(); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
