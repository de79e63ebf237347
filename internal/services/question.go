package services

import (
	"context"

	"github.com/quizdeck/backend/types"
)

// QuestionRepository defines persistence operations for questions.
type QuestionRepository interface {
	Get(ctx context.Context, id int64) (types.Question, error)
	List(ctx context.Context, topic string, limit, offset int) ([]types.Question, error)
	Create(ctx context.Context, q types.Question) (types.Question, error)
	Update(ctx context.Context, q types.Question) (types.Question, error)
	Delete(ctx context.Context, id int64) error
}

// QuestionService encapsulates catalog use-cases.
type QuestionService struct {
	repo QuestionRepository
}

func NewQuestionService(repo QuestionRepository) *QuestionService {
	return &QuestionService{repo: repo}
}

func (s *QuestionService) Get(ctx context.Context, id int64) (types.Question, error) {
	return s.repo.Get(ctx, id)
}

func (s *QuestionService) List(ctx context.Context, topic string, limit, offset int) ([]types.Question, error) {
	return s.repo.List(ctx, topic, limit, offset)
}

func (s *QuestionService) Create(ctx context.Context, q types.Question) (types.Question, error) {
	return s.repo.Create(ctx, q)
}

func (s *QuestionService) Update(ctx context.Context, q types.Question) (types.Question, error) {
	return s.repo.Update(ctx, q)
}

func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
