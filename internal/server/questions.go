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

// NewQuestions constructs the question-catalog service.
func NewQuestions(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	questionService := services.NewQuestionService(store.NewQuestionRepository(dbConn))
	gate := authgate.New(cfg.Peers.IdentityURL, cfg.Secrets.BypassSecret)

	router := newRouter()
	handlers.QuestionRouter(router, questionService, gate, dbConn.PingContext)

	return newServer(cfg.QuestionsPort, router, dbConn), nil
}
