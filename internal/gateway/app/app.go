package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"infographify/internal/gateway/config"
	"infographify/internal/gateway/handler"
	"infographify/internal/gateway/server"
	runsvc "infographify/internal/gateway/service/run"
	scriptsvc "infographify/internal/gateway/service/script"
	"infographify/internal/logging"
)

type App struct {
	server *server.Server
	runs   *runsvc.Service
	stores *gatewayStores
	log    zerolog.Logger
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, ServiceName: "infographify-gateway"})

	// Dependencies
	clients, err := NewClients(ctx, cfg.LLM, log)
	if err != nil {
		return nil, err
	}
	stores, err := initStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	runs := runsvc.New(clients.Image, stores.artifact, stores.runs, log.With().Str("component", "runs").Logger())
	scripts := scriptsvc.New(clients.Script, log.With().Str("component", "script").Logger())

	// Routing & Server
	mux := server.NewMux(
		handler.NewRunHandler(runs, log),
		handler.NewScriptHandler(scripts, log),
		log,
	)
	return &App{
		server: server.New(cfg.Port, mux, log),
		runs:   runs,
		stores: stores,
		log:    log,
	}, nil
}

func (a *App) Log() zerolog.Logger { return a.log }

func (a *App) Start() error {
	return a.server.Start()
}

// Shutdown stops accepting requests, then aborts the running batches so
// their final state is stored before the stores close.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	err = errors.Join(err, a.runs.Shutdown(ctx))
	a.stores.close()
	return err
}
