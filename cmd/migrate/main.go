package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/flexprice/coupon-service/internal/config"
	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/postgres"
	"github.com/flexprice/coupon-service/migrations"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	files, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		logger.Fatalw("Failed to list migrations", "error", err)
	}
	sort.Strings(files)

	if *dryRun {
		logger.Info("Dry run mode - printing migration SQL without executing")
		for _, name := range files {
			body, err := migrations.FS.ReadFile(name)
			if err != nil {
				logger.Fatalw("Failed to read migration", "file", name, "error", err)
			}
			fmt.Printf("-- %s\n%s\n", name, body)
		}
		return
	}

	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		logger.Fatalw("Failed to create schema_migrations table", "error", err)
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		logger.Fatalw("Failed to read applied migrations", "error", err)
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	logger.Info("Running database migrations...")
	for _, name := range files {
		version := strings.TrimSuffix(name, ".up.sql")
		if done[version] {
			continue
		}

		body, err := migrations.FS.ReadFile(name)
		if err != nil {
			logger.Fatalw("Failed to read migration", "file", name, "error", err)
		}

		err = db.WithTx(ctx, func(ctx context.Context) error {
			q := db.GetQuerier(ctx)
			if _, err := q.ExecContext(ctx, string(body)); err != nil {
				return err
			}
			_, err := q.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err != nil {
			logger.Fatalw("Failed to apply migration", "version", version, "error", err)
		}
		logger.Infow("Applied migration", "version", version)
	}

	logger.Info("Migration completed successfully")
}
