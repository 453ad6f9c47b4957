package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"quiz-relay/api/internal/config"
	"quiz-relay/api/internal/gemini"
	"quiz-relay/api/internal/handle"
	"quiz-relay/api/internal/httpserver"
	"quiz-relay/api/internal/logging"
)

func main() {
	// .env необязателен
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.InitLogger(logging.ParseLevel(cfg.LogLevel))

	if config.GeminiAPIKey() == "" {
		log.Warnf("%s is not set; %s will answer 500 until it is", config.GeminiAPIKeyEnv, cfg.RelayPath)
	}

	client := gemini.New(cfg.GeminiEndpoint, cfg.GeminiTimeout)
	h := handle.New(client, config.GeminiAPIKey)
	mux := httpserver.NewMux(cfg.RelayPath, h.Extract)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, ":"+cfg.Port, httpserver.WithRequestID(mux))
	})

	log.Infof("quiz-relay: POST %s -> %s", cfg.RelayPath, client.Endpoint)
	if err := g.Wait(); err != nil {
		log.Fatalf("server: %v", err)
	}
	log.Info("bye")
}
