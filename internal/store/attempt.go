package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/quizdeck/backend/types"
)

// AttemptRepository handles persistence for attempt-history rows.
// The table enforces one row per (user_id, question_id).
type AttemptRepository struct {
	db *sql.DB
}

func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Get(ctx context.Context, userID string, questionID int64) (types.Attempt, error) {
	const query = `
		SELECT id, user_id, question_id, attempt_count, correct_count, last_answer, created_at, updated_at
		FROM attempts
		WHERE user_id = $1 AND question_id = $2`
	var a types.Attempt
	err := r.db.QueryRowContext(ctx, query, userID, questionID).Scan(
		&a.ID,
		&a.UserID,
		&a.QuestionID,
		&a.AttemptCount,
		&a.CorrectCount,
		&a.LastAnswer,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Attempt{}, ErrNotFound
		}
		return types.Attempt{}, err
	}
	return a, nil
}

func (r *AttemptRepository) ListByUser(ctx context.Context, userID string) ([]types.Attempt, error) {
	const query = `
		SELECT id, user_id, question_id, attempt_count, correct_count, last_answer, created_at, updated_at
		FROM attempts
		WHERE user_id = $1
		ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []types.Attempt{}
	for rows.Next() {
		var a types.Attempt
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.QuestionID,
			&a.AttemptCount,
			&a.CorrectCount,
			&a.LastAnswer,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func (r *AttemptRepository) Create(ctx context.Context, a types.Attempt) (types.Attempt, error) {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	const query = `
		INSERT INTO attempts (user_id, question_id, attempt_count, correct_count, last_answer, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		a.UserID,
		a.QuestionID,
		a.AttemptCount,
		a.CorrectCount,
		a.LastAnswer,
		a.CreatedAt,
		a.UpdatedAt,
	).Scan(&a.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return types.Attempt{}, ErrDuplicate
		}
		return types.Attempt{}, err
	}
	return a, nil
}

// Record adds one attempt to an existing history row.
func (r *AttemptRepository) Record(ctx context.Context, userID string, questionID int64, correct bool, answer string) (types.Attempt, error) {
	const query = `
		UPDATE attempts
		SET attempt_count = attempt_count + 1,
			correct_count = correct_count + CASE WHEN $3 THEN 1 ELSE 0 END,
			last_answer = $4,
			updated_at = $5
		WHERE user_id = $1 AND question_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, questionID, correct, answer, time.Now())
	if err != nil {
		return types.Attempt{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Attempt{}, err
	}
	if affected == 0 {
		return types.Attempt{}, ErrNotFound
	}
	return r.Get(ctx, userID, questionID)
}
