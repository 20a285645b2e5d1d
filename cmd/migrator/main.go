package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"petcare-backend/internal/adapters/storage/postgres"
	"petcare-backend/internal/platform/config"
	"petcare-backend/internal/platform/logger"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log := logger.NewFromEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	if cfg.DB.DSN == "" {
		log.Error("DB_DSN is required", nil)
		os.Exit(1)
	}

	if err := migrate(cfg.DB.DSN, args[0]); err != nil {
		log.Error("migration failed", map[string]any{"command": args[0], "error": err.Error()})
		os.Exit(1)
	}
	log.Info("migration finished", map[string]any{"command": args[0]})
}

func migrate(dsn, command string) error {
	db, err := postgres.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch command {
	case "up":
		return postgres.Migrate(ctx, db)
	case "down":
		return postgres.MigrateDown(ctx, db)
	case "status":
		return postgres.MigrationStatus(ctx, db)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <up|down|status>\n", os.Args[0])
	flag.PrintDefaults()
}
