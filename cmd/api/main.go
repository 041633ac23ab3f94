package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"catalog/internal/config"
	"catalog/internal/handler"
	"catalog/internal/infra/db"
	"catalog/internal/infra/messaging"
	infraRepo "catalog/internal/infra/repository"
	"catalog/internal/metrics"
	"catalog/internal/pkg/logger"
	repo "catalog/internal/repository"
	"catalog/internal/server"
	"catalog/internal/usecase"
	"catalog/internal/validator"

	"cloud.google.com/go/spanner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("catalog exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	//設定（PAGE_SIZE <= 0 などはここで止まる）
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	//Repository生成
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	products := st.products
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis is not reachable, cache will fall through", "addr", cfg.RedisAddr, "error", err)
		}
		products = infraRepo.NewCachedProductRepository(products, rdb, cfg.CacheTTL, log)
	}

	//Usecase生成
	catalogOpts := []usecase.CatalogOption{usecase.WithCatalogMetrics(m)}
	if cfg.CategoryCaseInsensitive {
		catalogOpts = append(catalogOpts, usecase.WithCaseInsensitiveCategory())
	}
	catalogUC, err := usecase.NewCatalogUsecase(products, cfg.PageSize, catalogOpts...)
	if err != nil {
		return err
	}

	adminOpts := []usecase.AdminOption{
		usecase.WithAuditLog(st.audit),
		usecase.WithAdminMetrics(m),
		usecase.WithLogger(log),
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub := messaging.NewKafkaEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer pub.Close()
		adminOpts = append(adminOpts, usecase.WithEventPublisher(pub))
	}
	adminUC := usecase.NewAdminProductUsecase(products, adminOpts...)

	//Handler生成
	e := server.New(log, m)
	server.RegisterRoutes(e, server.Handlers{
		Product:      handler.NewProductHandler(catalogUC),
		AdminProduct: handler.NewAdminProductHandler(adminUC, validator.NewProductValidator()),
	}, cfg.JWTSecret, reg)

	//Server起動
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server starting", "addr", cfg.Addr(), "store", cfg.Store, "page_size", cfg.PageSize)
		return server.Start(gctx, e, cfg.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return nil
	})

	return g.Wait()
}

type stores struct {
	products repo.ProductRepository
	audit    repo.AuditLogRepository
	closers  []io.Closer
}

func (s *stores) Close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// STORE に応じて商品ストアと監査ログを用意する
func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return &stores{
			products: infraRepo.NewProductMemoryRepository(demoProducts()...),
			audit:    infraRepo.NewAuditLogMemoryRepository(),
		}, nil

	case config.StorePostgres:
		gormDB, err := db.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(gormDB); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, err
		}
		return &stores{
			products: infraRepo.NewProductGormRepository(gormDB),
			audit:    infraRepo.NewAuditLogGormRepository(gormDB),
			closers:  []io.Closer{sqlDB},
		}, nil

	case config.StoreSpanner:
		client, err := spanner.NewClient(ctx, cfg.SpannerDatabase)
		if err != nil {
			return nil, fmt.Errorf("connect spanner: %w", err)
		}
		// 監査ログのテーブルは Spanner 側に持たない
		return &stores{
			products: infraRepo.NewProductSpannerRepository(client),
			audit:    infraRepo.NewAuditLogMemoryRepository(),
			closers:  []io.Closer{closerFunc(func() error { client.Close(); return nil })},
		}, nil
	}
	return nil, errors.New("unknown store: " + cfg.Store)
}
