package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"companion-llm/internal/config"
	"companion-llm/internal/db"
	apihttp "companion-llm/internal/http"
	"companion-llm/internal/llm"
	"companion-llm/internal/repository"
	"companion-llm/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	ctxPing, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := db.Ping(ctxPing, pool); err != nil {
		cancelPing()
		logger.Fatal("db ping", zap.Error(err))
	}
	cancelPing()

	progressRepo := repository.NewPgProgressRepository(pool)
	artifactRepo := repository.NewPgArtifactRepository(pool)
	viewedRepo := repository.NewPgViewedRepository(pool)
	characterRepo := repository.NewPgCharacterRepository(pool)

	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	generationSvc := service.NewGenerationService(llmClient, logger)

	var (
		statsSvc     *service.StatsService
		quotaLimiter service.QuotaLimiter
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			statsSvc = service.NewStatsService(redisClient, logger)
			quotaLimiter = service.NewRedisQuotaLimiter(redisClient, 24*time.Hour, cfg.ContentQuotaDaily)
		}
		cancel()
	}

	// El orden de armado importa: el assessment dispara prewarm en el cache,
	// y el cache consulta los scores del assessment.
	assessmentSvc := service.NewAssessmentService(progressRepo, nil, statsSvc, logger)
	contentSvc := service.NewContentService(artifactRepo, viewedRepo, characterRepo, assessmentSvc, generationSvc, quotaLimiter, logger)
	assessmentSvc.SetPrewarmer(contentSvc)

	scheduleProvider := service.NewDisabledScheduleProvider("schedule service not wired")
	chatProvider := service.NewDisabledChatProvider("I'm listening. Tell me more.")
	messageSvc := service.NewMessageService(assessmentSvc, contentSvc, scheduleProvider, chatProvider, logger)

	jwtSvc := service.NewJWTService(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	assessmentHandler := apihttp.NewAssessmentHandler(logger, assessmentSvc)
	contentHandler := apihttp.NewContentHandler(logger, contentSvc, statsSvc, assessmentSvc)
	characterHandler := apihttp.NewCharacterHandler(logger, characterRepo)
	messageHandler := apihttp.NewMessageHandler(logger, messageSvc)
	router := apihttp.NewRouter(logger, jwtSvc, assessmentHandler, contentHandler, characterHandler, messageHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
