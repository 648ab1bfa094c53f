package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"bot-call/internal/cache"
	"bot-call/internal/callflow"
	"bot-call/internal/config"
	"bot-call/internal/httpserver"
	"bot-call/internal/llm"
	"bot-call/internal/logging"
	"bot-call/internal/metrics"
	"bot-call/internal/orders"
	"bot-call/internal/speech"
	"bot-call/internal/telephony"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("starting order-confirmation bot", "env", cfg.AppEnv)
	logger.Info("public base url configured",
		"base_url", cfg.PublicBaseURL,
		"voice_webhook", cfg.PublicBaseURL+"/voice/{id}/entry")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	var redisClient *cache.Redis
	if cfg.RedisAddr != "" {
		redisClient = cache.New(cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
		}, logger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("failed closing redis", "error", err)
			}
		}()
		if err := redisClient.Ping(ctx); err != nil {
			logger.Warn("redis ping failed", "error", err)
		}
	} else {
		logger.Info("redis not configured, reply dedupe relies on order state only")
	}

	llmClient := llm.New(llm.Config{
		BaseURL: cfg.GroqBaseURL,
		APIKey:  cfg.GroqAPIKey,
		Model:   cfg.GroqModel,
		Timeout: cfg.GroqTimeout,
	}, logger, metricRegistry)

	telClient := telephony.New(telephony.Config{
		ProjectID: cfg.SignalWireProjectID,
		APIToken:  cfg.SignalWireAPIToken,
		SpaceURL:  cfg.SignalWireSpaceURL,
		CallerID:  cfg.SignalWireCallerID,
		Timeout:   cfg.SignalWireTimeout,
	}, logger, metricRegistry)

	ttsClient := speech.NewClient(speech.Config{
		BaseURL:   cfg.TTSBaseURL,
		SpeakerID: cfg.TTSSpeakerID,
		Timeout:   cfg.TTSTimeout,
	}, logger, metricRegistry)
	synthesizer := speech.NewSynthesizer(ttsClient, redisClient, logger, cfg.TTSOutputDir)

	engine := callflow.New(callflow.Config{
		PublicBaseURL:  cfg.PublicBaseURL,
		ReplyDedupeTTL: cfg.ReplyDedupeTTL,
	},
		orders.NewStore(),
		llmClient,
		llmClient,
		telClient,
		synthesizer,
		redisClient,
		metricRegistry,
		logger,
	)

	staticDir := filepath.Dir(cfg.TTSOutputDir)
	httpSrv := httpserver.New(cfg.HTTPListenAddr, engine, logger, metricRegistry, staticDir, cfg.PublicBasePath)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return nil
}
