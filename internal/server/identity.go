package server

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/quizdeck/backend/config"
	"github.com/quizdeck/backend/internal/handlers"
	"github.com/quizdeck/backend/internal/mailer"
	"github.com/quizdeck/backend/internal/mq"
	"github.com/quizdeck/backend/internal/services"
	"github.com/quizdeck/backend/internal/token"
	"github.com/quizdeck/backend/internal/userclient"
)

// NewIdentity constructs the identity service. It owns no database;
// every account read and write goes to the user-record service over
// the trust channel.
func NewIdentity(ctx context.Context, cfg config.Config) (*Server, error) {
	if strings.TrimSpace(cfg.Secrets.BypassSecret) == "" {
		return nil, errors.New("BYPASS_SECRET is required")
	}

	codec, err := token.NewCodec(cfg.Secrets)
	if err != nil {
		return nil, err
	}

	var closers []io.Closer
	var broker mq.Broker
	if cfg.MailDriver == "queue" {
		broker, err = mq.NewBroker(ctx, cfg)
		if err != nil {
			return nil, err
		}
		closers = append(closers, broker)
	}

	mail, err := mailer.New(cfg, broker)
	if err != nil {
		return nil, err
	}

	directory := userclient.New(cfg.Peers.UsersURL, cfg.Secrets.BypassSecret)
	identityService := services.NewIdentityService(directory, codec, mail, cfg.Peers.FrontendURL)

	router := newRouter()
	handlers.IdentityRouter(router, identityService)

	return newServer(cfg.IdentityPort, router, nil, closers...), nil
}
