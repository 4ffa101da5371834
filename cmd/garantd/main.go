package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kombinator/garant/internal/auth"
	"github.com/kombinator/garant/internal/common"
	"github.com/kombinator/garant/internal/export"
	"github.com/kombinator/garant/internal/receipts"
	"github.com/kombinator/garant/internal/repository"
	"github.com/kombinator/garant/internal/server"
	"github.com/kombinator/garant/internal/storage"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cfg.Database.DSN == "" {
		log.Fatal("DB_URL env var is required")
	}

	// DB pool + migrations
	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("opening DB: %v", err)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
		log.Fatalf("DB health failed: %v", err)
	}
	if err := repository.Migrate(pool, logger); err != nil {
		log.Fatalf("migrating DB: %v", err)
	}

	// Redis sessions
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("parsing REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis ping failed: %v", err)
	}

	// Object storage
	s3Client, err := storage.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("creating S3 client: %v", err)
	}
	blobs := storage.NewReceiptStore(s3Client, cfg.Storage.Bucket, logger)
	if err := blobs.EnsureBucket(ctx); err != nil {
		log.Fatalf("ensuring bucket %q: %v", cfg.Storage.Bucket, err)
	}

	// Repositories and services
	receiptRepo := repository.NewReceiptRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)

	receiptsSvc := receipts.NewService(receiptRepo, blobs, cfg.Storage.SignedURLTTL, logger)
	authSvc := auth.NewService(userRepo, auth.NewRedisSessions(rdb), cfg.Auth.SessionTTL, logger)
	exporter := export.NewService(receiptsSvc, logger)

	router := server.NewRouter(server.Deps{
		Auth:          authSvc,
		Receipts:      server.NewReceiptsHandler(receiptsSvc, exporter, logger),
		Notifications: server.NewNotificationsHandler(receiptsSvc),
		Pool:          pool,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Infof("HTTP serving on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown: %v", err)
	}
	log.Info("stopped.")
}
