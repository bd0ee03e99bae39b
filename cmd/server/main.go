package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/megumi-soft/slack-chatgpt/common/id"
	"github.com/megumi-soft/slack-chatgpt/common/llm"
	"github.com/megumi-soft/slack-chatgpt/common/logger"
	"github.com/megumi-soft/slack-chatgpt/common/otel"
	"github.com/megumi-soft/slack-chatgpt/core/config"
	"github.com/megumi-soft/slack-chatgpt/core/db"
	"github.com/megumi-soft/slack-chatgpt/internal/brain"
	"github.com/megumi-soft/slack-chatgpt/internal/http/handler/webhook"
	"github.com/megumi-soft/slack-chatgpt/internal/http/middleware"
	httprouter "github.com/megumi-soft/slack-chatgpt/internal/http/router"
	"github.com/megumi-soft/slack-chatgpt/internal/service"
	"github.com/megumi-soft/slack-chatgpt/internal/slack"
	"github.com/megumi-soft/slack-chatgpt/internal/store"
	"github.com/megumi-soft/slack-chatgpt/internal/webfetch"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "slack-chatgpt starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	events, closeStore, err := openProcessedEventStore(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open dedup store", "error", err, "backend", cfg.Dedup.Backend)
		os.Exit(1)
	}
	defer closeStore()

	llmClient, err := llm.New(llm.Config{
		APIKey:    cfg.OpenAI.APIKey,
		BaseURL:   cfg.OpenAI.BaseURL,
		Model:     cfg.OpenAI.Model,
		MaxTokens: cfg.OpenAI.MaxTokens,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm client", "error", err)
		os.Exit(1)
	}

	persona, err := brain.LoadPersona(cfg.Persona.Prompt, cfg.Persona.PromptFile)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load persona", "error", err)
		os.Exit(1)
	}

	orchestrator := brain.NewOrchestrator(
		brain.OrchestratorConfig{
			Bot:           brain.BotIdentity{UserID: cfg.Slack.BotUserID, BotID: cfg.Slack.BotID},
			FallbackReply: cfg.Pipeline.FallbackReply,
		},
		service.NewDedupGuard(events),
		slack.NewClient(nil, cfg.Slack.APIBaseURL, cfg.Slack.BotToken),
		llmClient,
		webfetch.NewFetcher(webfetch.Options{
			Timeout:   cfg.WebFetch.Timeout,
			MaxBytes:  cfg.WebFetch.MaxBytes,
			MaxChars:  cfg.WebFetch.MaxChars,
			UserAgent: cfg.WebFetch.UserAgent,
		}),
		persona,
	)

	slackHandler := webhook.NewSlackWebhookHandler(orchestrator, webhook.SlackWebhookConfig{
		Async:   cfg.Pipeline.Async,
		Timeout: cfg.Pipeline.Timeout,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, slackHandler)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Pipeline.Timeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting",
			"port", cfg.Port,
			"dedup_backend", cfg.Dedup.Backend,
			"async", cfg.Pipeline.Async,
			"signature_verification", cfg.Slack.SignatureVerificationEnabled())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	drained := make(chan struct{})
	go func() {
		slackHandler.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		slog.WarnContext(shutdownCtx, "in-flight mentions still running at shutdown")
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func openProcessedEventStore(ctx context.Context, cfg config.Config) (store.ProcessedEventStore, func(), error) {
	switch cfg.Dedup.Backend {
	case config.DedupBackendRedis:
		redisOpts, err := redis.ParseURL(cfg.Dedup.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing redis url: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		slog.InfoContext(ctx, "redis connected", "key_prefix", cfg.Dedup.KeyPrefix, "ttl", cfg.Dedup.TTL)
		return store.NewRedisProcessedEventStore(redisClient, cfg.Dedup.KeyPrefix, cfg.Dedup.TTL), func() { _ = redisClient.Close() }, nil

	case config.DedupBackendPostgres:
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("migrating database: %w", err)
		}
		slog.InfoContext(ctx, "database connected")
		return store.NewPostgresProcessedEventStore(database.Pool()), database.Close, nil

	default:
		slog.WarnContext(ctx, "using in-memory dedup store; duplicates are not suppressed across restarts")
		return store.NewMemoryProcessedEventStore(), func() {}, nil
	}
}

func setupRouter(cfg config.Config, slackHandler *webhook.SlackWebhookHandler) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, slackHandler, httprouter.RouterConfig{
		SlackSigningSecret: cfg.Slack.SigningSecret,
	})

	return router
}

const banner = `
 ____  _            _       ____ ____ _____
/ ___|| | __ _  ___| | __  / ___|  _ \_   _|
\___ \| |/ _' |/ __| |/ / | |  _| |_) || |
 ___) | | (_| | (__|   <  | |_| |  __/ | |
|____/|_|\__,_|\___|_|\_\  \____|_|    |_|
`
