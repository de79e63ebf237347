package services

import (
	"context"

	"github.com/quizdeck/backend/types"
)

// AttemptRepository defines persistence operations for attempt history.
type AttemptRepository interface {
	Get(ctx context.Context, userID string, questionID int64) (types.Attempt, error)
	ListByUser(ctx context.Context, userID string) ([]types.Attempt, error)
	Create(ctx context.Context, a types.Attempt) (types.Attempt, error)
	Record(ctx context.Context, userID string, questionID int64, correct bool, answer string) (types.Attempt, error)
}

// AttemptService encapsulates attempt-history use-cases.
type AttemptService struct {
	repo AttemptRepository
}

func NewAttemptService(repo AttemptRepository) *AttemptService {
	return &AttemptService{repo: repo}
}

func (s *AttemptService) Get(ctx context.Context, userID string, questionID int64) (types.Attempt, error) {
	return s.repo.Get(ctx, userID, questionID)
}

func (s *AttemptService) ListByUser(ctx context.Context, userID string) ([]types.Attempt, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *AttemptService) Create(ctx context.Context, a types.Attempt) (types.Attempt, error) {
	return s.repo.Create(ctx, a)
}

func (s *AttemptService) Record(ctx context.Context, userID string, questionID int64, correct bool, answer string) (types.Attempt, error) {
	return s.repo.Record(ctx, userID, questionID, correct, answer)
}
