package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"catalog/internal/config"
	"catalog/internal/infra/db"
	infraRepo "catalog/internal/infra/repository"
	"catalog/internal/pkg/logger"

	database "cloud.google.com/go/spanner/admin/database/apiv1"
	databasepb "cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
)

// STORE に応じてスキーマを作る。
//
//	STORE=postgres go run ./cmd/migrate
//	STORE=spanner SPANNER_DATABASE=projects/p/instances/i/databases/d go run ./cmd/migrate
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Read()
	if err != nil {
		return err
	}
	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	switch cfg.Store {
	case config.StorePostgres:
		gormDB, err := db.Connect(cfg)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(gormDB); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("postgres schema migrated")
		return nil

	case config.StoreSpanner:
		if cfg.SpannerDatabase == "" {
			return fmt.Errorf("SPANNER_DATABASE is required")
		}
		admin, err := database.NewDatabaseAdminClient(ctx)
		if err != nil {
			return fmt.Errorf("database admin client: %w", err)
		}
		defer admin.Close()

		op, err := admin.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
			Database:   cfg.SpannerDatabase,
			Statements: infraRepo.SpannerDDL,
		})
		if err != nil {
			return fmt.Errorf("UpdateDatabaseDdl: %w", err)
		}
		if err := op.Wait(ctx); err != nil {
			return fmt.Errorf("UpdateDatabaseDdl wait: %w", err)
		}
		log.Info("spanner schema applied", "statements", len(infraRepo.SpannerDDL), "database", cfg.SpannerDatabase)
		return nil
	}

	log.Info("nothing to migrate", "store", cfg.Store)
	return nil
}
