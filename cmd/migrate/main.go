package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/ispbilling/ispbilling/internal/config"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/internal/postgres"
)

func main() {
	command := flag.String("command", "up", "Migration command: up, down or status")
	timeout := flag.Duration("timeout", 30*time.Second, "Timeout for the whole migration run")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)
	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *command {
	case "up":
		logger.Info("Running database migrations...")
		err = postgres.Migrate(ctx, db, logger)
	case "down":
		logger.Info("Rolling back the last migration...")
		err = postgres.Rollback(ctx, db, logger)
	case "status":
		err = postgres.MigrationStatus(ctx, db, logger)
	default:
		logger.Fatalw("Unknown migration command", "command", *command)
	}
	if err != nil {
		logger.Fatalw("Migration failed", "command", *command, "error", err)
	}

	logger.Infow("Migration completed", "command", *command)
}
