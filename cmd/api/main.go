package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/AlexandreLkhaoua/charlie-app-sub000/internal/advisor"
	"github.com/AlexandreLkhaoua/charlie-app-sub000/internal/api"
	"github.com/AlexandreLkhaoua/charlie-app-sub000/internal/config"
	"github.com/AlexandreLkhaoua/charlie-app-sub000/internal/llm"
	"github.com/AlexandreLkhaoua/charlie-app-sub000/internal/ratelimit"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	log.Info().Str("environment", cfg.App.Environment).Msg("Starting Charlie Advisory API")

	if cfg.LLM.APIKey == "" {
		log.Warn().Msg("Completion provider API key is not set; advisory requests will be refused")
	}

	var limiter ratelimit.Store
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetRedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = ratelimit.NewRedisStore(rdb, cfg.RateLimit.MaxRequests, cfg.RateLimit.GetWindow())
		log.Info().Str("addr", cfg.Redis.GetRedisAddr()).Msg("Using Redis rate-limit store")
	} else {
		store := ratelimit.NewMemoryStore(cfg.RateLimit.MaxRequests, cfg.RateLimit.GetWindow())
		stop := make(chan struct{})
		defer close(stop)
		store.StartCleanupWorker(5*time.Minute, stop)
		limiter = store
	}

	client := llm.NewClient(llm.Config{
		Endpoint:    cfg.LLM.Endpoint,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.GetTimeout(),
		Schema:      advisor.ResponseSchema(),
	})

	server := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		AllowOrigins: cfg.CORS.AllowOrigins,
		Limiter:      limiter,
		Client:       client,
	})

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error().Err(err).Msg("Server error")
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to stop server gracefully")
		os.Exit(1)
	}

	log.Info().Msg("Server stopped")
}
