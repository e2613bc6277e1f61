// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-content-platform/internal/config"
	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/adapter"
	aiAdapters "ai-content-platform/internal/infra/adapters/ai"
	pg "ai-content-platform/internal/infra/db/postgres"
	"ai-content-platform/internal/infra/i18n"
	"ai-content-platform/internal/infra/logging"
	"ai-content-platform/internal/infra/metrics"
	red "ai-content-platform/internal/infra/redis"
	"ai-content-platform/internal/infra/sched"
	"ai-content-platform/internal/infra/web"
	"ai-content-platform/internal/infra/worker"
	"ai-content-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop AI backends)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis (optional: session cache + rate limiting) ----
	var (
		limiter      *red.RateLimiter
		sessionCache *red.SessionCache
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
		sessionCache = red.NewSessionCache(redisClient, cfg.Redis.TTL)
	}

	// ---- i18n ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, "en", "zh-TW")
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n init failed")
	}

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	jobRepo := pg.NewGenerationJobRepo(pool)
	blogRepo := pg.NewBlogPostRepo(pool)
	toolRepo := pg.NewAIToolRepo(pool)

	// ---- AI backends ----
	var (
		textGen  adapter.TextGenerator
		imageGen adapter.ImageGenerator
	)
	if cfg.Runtime.Dev {
		noop := aiAdapters.NewNoopGenerator()
		textGen, imageGen = noop, noop
		logger.Info().Msg("AI backend: noop")
	} else {
		genClient, err := aiAdapters.NewGenerationClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.DefaultModel, cfg.AI.MaxTextLength, cfg.AI.RequestTimeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("generation client init failed")
		}
		textGen, imageGen = genClient, genClient
		logger.Info().Str("base_url", cfg.AI.BaseURL).Msg("AI backend: http")
	}

	// ---- Workers and use cases ----
	taskPool := worker.NewPool(cfg.Jobs.Workers, logger)
	taskPool.Start(ctx)
	defer taskPool.Stop()

	orchestrator := usecase.NewJobOrchestrator(jobRepo, textGen, imageGen, taskPool, logger)
	persister := usecase.NewResultPersister(blogRepo, toolRepo, txManager, logger)

	// ---- Assistant chat surface ----
	chatClient, err := aiAdapters.NewChatClient(cfg.AI.BaseURL, cfg.AI.APIKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("chat client init failed")
	}
	var store usecase.SessionStore
	if sessionCache != nil {
		store = sessionCache
	}
	hub := web.NewSessionHub(chatClient, translator, store, logger)

	// ---- Admin API ----
	auth := web.NewAuthManager(cfg.Admin.APIKey, 30*time.Minute)
	jobPoller := sched.NewJobPoller(cfg.Jobs.PollInterval, orchestrator, func(jobs []*model.GenerationJob) {
		logger.Debug().Int("jobs", len(jobs)).Msg("job list refreshed")
	}, logger)
	go func() { _ = jobPoller.Run(ctx) }()

	server := web.NewServer(orchestrator, persister, auth, hub, limiter, jobPoller, logger)
	go func() {
		if err := server.Start(cfg.Admin.Port); err != nil {
			logger.Error().Err(err).Msg("admin API stopped")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logger.Info().Msg("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
}
