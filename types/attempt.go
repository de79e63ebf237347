package types

import "time"

// Attempt is the per-user, per-question history row. There is exactly
// one row per (UserID, QuestionID) pair; repeated attempts update the
// counters on the existing row.
type Attempt struct {
	// ID is the unique identifier of the history row.
	ID int64 `json:"id" db:"id"`

	// UserID is the account the history belongs to.
	UserID string `json:"userId" db:"user_id"`

	// QuestionID references the catalog question attempted.
	QuestionID int64 `json:"questionId" db:"question_id"`

	// AttemptCount is the total number of attempts recorded.
	AttemptCount int `json:"attemptCount" db:"attempt_count"`

	// CorrectCount is how many of those attempts were correct.
	CorrectCount int `json:"correctCount" db:"correct_count"`

	// LastAnswer is the answer given on the most recent attempt.
	LastAnswer string `json:"lastAnswer" db:"last_answer"`

	// CreatedAt is the timestamp of the first attempt.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent attempt.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
