package server

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/quizdeck/backend/config"
	"github.com/quizdeck/backend/internal/authgate"
	"github.com/quizdeck/backend/internal/db"
	"github.com/quizdeck/backend/internal/handlers"
	"github.com/quizdeck/backend/internal/services"
	"github.com/quizdeck/backend/internal/storage"
	"github.com/quizdeck/backend/internal/store"
)

// NewUsers constructs the user-record service: the Postgres-backed
// credential store plus profile and avatar routes.
func NewUsers(ctx context.Context, cfg config.Config) (*Server, error) {
	if strings.TrimSpace(cfg.Secrets.BypassSecret) == "" {
		return nil, errors.New("BYPASS_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	avatars, err := storage.NewObjectStore(ctx, cfg)
	if err == nil {
		err = avatars.EnsureBucket(ctx)
	}
	if err != nil {
		// The record store must come up even when object storage is
		// missing; avatar routes then return errors.
		log.Printf("users: object storage unavailable: %v", err)
		avatars = nil
	}

	userService := services.NewUserService(store.NewUserRepository(dbConn))
	gate := authgate.New(cfg.Peers.IdentityURL, cfg.Secrets.BypassSecret)

	router := newRouter()
	handlers.UserRouter(router, userService, avatars, gate, dbConn.PingContext)

	return newServer(cfg.UsersPort, router, dbConn), nil
}
