// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"quickscreen/internal/config"
	"quickscreen/internal/domain/ports/adapter"
	"quickscreen/internal/infra/api/apiv1"
	pg "quickscreen/internal/infra/db/postgres"
	"quickscreen/internal/infra/logging"
	"quickscreen/internal/infra/metrics"
	"quickscreen/internal/infra/notify"
	red "quickscreen/internal/infra/redis"
	"quickscreen/internal/infra/sched"
	"quickscreen/internal/infra/security"
	"quickscreen/internal/infra/storage"
	"quickscreen/internal/infra/worker"
	"quickscreen/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Local .env is optional; hosted environments inject real env vars.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Runtime.Dev {
		log.Printf("[DEV MODE] Enabled")
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer func() { _ = redisClient.Close() }()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Supabase storage ----
	contentStore, err := storage.NewSupabaseContentStore(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, cfg.Storage.Bucket, logger)
	if err != nil {
		log.Fatalf("content store: %v", err)
	}
	profileRepo, err := storage.NewSupabaseProfileRepo(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey)
	if err != nil {
		log.Fatalf("profile repo: %v", err)
	}

	// ---- Repositories ----
	subRepo := pg.NewPostgresSubmissionRepo(pool)
	jobRepo := pg.NewJobRepoCacheDecorator(pg.NewPostgresJobRepo(pool), redisClient, cfg.Redis.JobTTL)
	txManager := pg.NewTxManager(pool)

	// ---- Identity ----
	identitySvc, err := security.NewJWTIdentityService(cfg.API.JWTSecret)
	if err != nil {
		log.Fatalf("identity: %v", err)
	}

	// ---- Use cases ----
	guard := usecase.GuardPerSlot
	if cfg.Upload.Guard == "per_job" {
		guard = usecase.GuardPerJob
	}
	uploaderUC := usecase.NewUploaderUseCase(subRepo, jobRepo, contentStore, txManager, guard, logger)
	reviewUC := usecase.NewReviewUseCase(subRepo, jobRepo, logger)

	// ---- Notification sweep ----
	var notifier adapter.RecruiterNotifier = notify.NoopNotifier{}
	if cfg.Notify.TelegramToken != "" {
		notifier, err = notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.RecruiterChats, logger)
		if err != nil {
			log.Fatalf("telegram notifier: %v", err)
		}
	}
	workerPool := worker.NewPool(cfg.Upload.Workers, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	watcher := sched.NewSubmissionWatcher(cfg.Notify.SweepInterval, subRepo, jobRepo, notifier, logger)
	go func() { _ = watcher.Run(ctx, workerPool) }()

	// ---- HTTP API ----
	router := chi.NewRouter()
	apiSrv := apiv1.NewServer(uploaderUC, reviewUC, jobRepo, profileRepo, identitySvc, rateLimiter, cfg.API.SubmitRateLimit, logger)
	apiv1.RegisterAPIV1(router, apiSrv)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}
