package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/quizdeck/backend/types"
)

// QuestionRepository handles persistence for catalog questions.
type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) Get(ctx context.Context, id int64) (types.Question, error) {
	const query = `
		SELECT id, topic, difficulty, prompt, answer, created_at, updated_at
		FROM questions
		WHERE id = $1`
	var q types.Question
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&q.ID,
		&q.Topic,
		&q.Difficulty,
		&q.Prompt,
		&q.Answer,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Question{}, ErrNotFound
		}
		return types.Question{}, err
	}
	return q, nil
}

func (r *QuestionRepository) List(ctx context.Context, topic string, limit, offset int) ([]types.Question, error) {
	const query = `
		SELECT id, topic, difficulty, prompt, answer, created_at, updated_at
		FROM questions
		WHERE ($1 = '' OR topic = $1)
		ORDER BY id
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, topic, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []types.Question{}
	for rows.Next() {
		var q types.Question
		if err := rows.Scan(
			&q.ID,
			&q.Topic,
			&q.Difficulty,
			&q.Prompt,
			&q.Answer,
			&q.CreatedAt,
			&q.UpdatedAt,
		); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *QuestionRepository) Create(ctx context.Context, q types.Question) (types.Question, error) {
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now

	const query = `
		INSERT INTO questions (topic, difficulty, prompt, answer, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		q.Topic,
		q.Difficulty,
		q.Prompt,
		q.Answer,
		q.CreatedAt,
		q.UpdatedAt,
	).Scan(&q.ID); err != nil {
		return types.Question{}, err
	}
	return q, nil
}

func (r *QuestionRepository) Update(ctx context.Context, q types.Question) (types.Question, error) {
	q.UpdatedAt = time.Now()

	const query = `
		UPDATE questions
		SET topic = $1,
			difficulty = $2,
			prompt = $3,
			answer = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query, q.Topic, q.Difficulty, q.Prompt, q.Answer, q.UpdatedAt, q.ID)
	if err != nil {
		return types.Question{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Question{}, err
	}
	if affected == 0 {
		return types.Question{}, ErrNotFound
	}
	return q, nil
}

func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM questions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
