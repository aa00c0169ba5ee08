package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/careloop/clinic-assistant/internal/api/router"
	"github.com/careloop/clinic-assistant/internal/chat"
	appconfig "github.com/careloop/clinic-assistant/internal/config"
	"github.com/careloop/clinic-assistant/internal/observability/metrics"
	"github.com/careloop/clinic-assistant/internal/scheduling"
	"github.com/careloop/clinic-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer func() { _ = redisClient.Close() }()

	llmClient, modelID, err := buildLLMClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize LLM client", "error", err)
		os.Exit(1)
	}

	store := scheduling.NewStore(pool)
	engine := scheduling.NewEngine(store, logger.Component("scheduling"))

	chatMetrics := metrics.NewChatMetrics(nil)
	resolver := chat.NewResolver(llmClient, modelID, int32(cfg.LLMMaxTokens), float32(cfg.LLMTemperature))
	sessions := chat.NewSessionStore(redisClient, cfg.SessionTTL)
	chatService := chat.NewService(resolver, sessions, engine, chatMetrics, logger.Component("chat"))

	routerCfg := &router.Config{
		Logger:            logger,
		ChatHandler:       chat.NewHandler(chatService, logger.Component("chat")),
		SchedulingHandler: scheduling.NewHandler(engine, logger.Component("scheduling")),
		MetricsHandler:    promhttp.Handler(),
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildLLMClient selects the intent-resolution backend. Gemini is the
// default; Bedrock is available for AWS deployments.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config) (chat.LLMClient, string, error) {
	if cfg.LLMProvider == "bedrock" {
		awsCfg, err := appconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		return chat.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg)), cfg.BedrockModelID, nil
	}

	client, err := chat.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		return nil, "", err
	}
	return client, cfg.GeminiModelID, nil
}
