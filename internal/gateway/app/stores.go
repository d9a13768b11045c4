package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"infographify/internal/gateway/config"
	artifactrepo "infographify/internal/gateway/repository/artifact"
	"infographify/internal/gateway/repository/runstore"
)

type gatewayStores struct {
	artifact artifactrepo.Store
	runs     runstore.Store
	closers  []func() error
}

func initStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gatewayStores, error) {
	stores := &gatewayStores{}

	art, closeArt, err := NewArtifactStore(ctx, cfg.Artifact)
	if err != nil {
		return nil, err
	}
	stores.artifact = art
	if closeArt != nil {
		stores.closers = append(stores.closers, closeArt)
	}
	log.Info().Str("backend", cfg.Artifact.Backend).Msg("artifact store ready")

	if dsn := cfg.RunStore.PostgresDSN; dsn != "" {
		pg, err := runstore.NewPostgres(ctx, dsn)
		if err != nil {
			stores.close()
			return nil, fmt.Errorf("run store: %w", err)
		}
		stores.runs = pg
		stores.closers = append(stores.closers, pg.Close)
		log.Info().Msg("run store: postgres")
	} else {
		stores.runs = runstore.NewMemoryStore()
		log.Info().Msg("run store: memory")
	}
	return stores, nil
}

func (s *gatewayStores) close() {
	for _, c := range s.closers {
		_ = c()
	}
}

// NewArtifactStore builds the configured image store. The returned closer
// may be nil.
func NewArtifactStore(ctx context.Context, cfg config.ArtifactConfig) (artifactrepo.Store, func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		return artifactrepo.NewMemoryStore(), nil, nil
	case "s3":
		st, err := artifactrepo.NewS3Store(artifactrepo.S3Config{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("artifact s3 store: %w", err)
		}
		return st, nil, nil
	case "postgres":
		db, err := artifactrepo.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("artifact postgres store: %w", err)
		}
		return artifactrepo.NewPostgresStore(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown artifact backend %q", cfg.Backend)
	}
}
