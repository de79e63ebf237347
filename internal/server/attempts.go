package server

import (
	"context"

	"github.com/quizdeck/backend/config"
	"github.com/quizdeck/backend/internal/authgate"
	"github.com/quizdeck/backend/internal/db"
	"github.com/quizdeck/backend/internal/handlers"
	"github.com/quizdeck/backend/internal/services"
	"github.com/quizdeck/backend/internal/store"
)

// NewAttempts constructs the attempt-history service.
func NewAttempts(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	attemptService := services.NewAttemptService(store.NewAttemptRepository(dbConn))
	gate := authgate.New(cfg.Peers.IdentityURL, cfg.Secrets.BypassSecret)

	router := newRouter()
	handlers.AttemptRouter(router, attemptService, gate, dbConn.PingContext)

	return newServer(cfg.AttemptsPort, router, dbConn), nil
}
