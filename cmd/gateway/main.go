package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"infographify/internal/gateway/app"
	"infographify/internal/logging"
)

func main() {
	a, err := app.New(context.Background())
	if err != nil {
		boot := logging.New(logging.Config{Format: "console", ServiceName: "infographify-gateway"})
		boot.Fatal().Err(err).Msg("failed to initialize app")
	}
	log := a.Log()

	go func() {
		if err := a.Start(); err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.Shutdown(ctx); err != nil {
		log.WithLevel(zerolog.FatalLevel).Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("server exiting")
}
