package app

import (
	"context"
	"fmt"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/config"
	"github.com/vidshare/backend/internal/db"
	"github.com/vidshare/backend/internal/handlers"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	media, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure media storage: %w", err)
	}

	return handlers.Dependencies{
		Health:   pool,
		Users:    repositories.NewPostgresUserRepository(pool),
		Videos:   repositories.NewPostgresVideoRepository(pool),
		Media:    media,
		Sessions: auth.NewCodec(cfg.Session.Secret, cfg.Session.TTL),
		Cookie: handlers.CookieSettings{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
		},
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, nil
}
