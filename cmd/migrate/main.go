// Command migrate applies goose SQL migrations to the configured
// database. It is run before the server on deploy.
//
// Flags:
//
//	--dir   migrations directory (default: migrations)
//	--down  roll back the most recent migration instead of migrating up
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/leaddesk/crm-backend/internal/app"
	"github.com/leaddesk/crm-backend/internal/config"
)

func main() {
	dirFlag := flag.String("dir", "migrations", "migrations directory")
	downFlag := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(*dirFlag))
	if err != nil {
		logger.Error("create goose provider", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *downFlag {
		result, downErr := provider.Down(ctx)
		if downErr != nil {
			logger.Error("migrate down", slog.String("error", downErr.Error()))
			os.Exit(1)
		}
		logger.Info("migration rolled back", slog.String("migration", result.Source.Path))
		return
	}

	results, err := provider.Up(ctx)
	if err != nil {
		logger.Error("migrate up", slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, r := range results {
		logger.Info("migration applied",
			slog.String("migration", r.Source.Path),
			slog.Duration("took", r.Duration),
		)
	}
	logger.Info("migrations up to date", slog.Int("applied", len(results)))
}
