package types

import "time"

// Question is a single entry in the question catalog.
type Question struct {
	// ID is the unique identifier of the question.
	ID int64 `json:"id" db:"id"`

	// Topic groups related questions (e.g. "networking", "algebra").
	Topic string `json:"topic" db:"topic"`

	// Difficulty is a coarse 1-5 rating.
	Difficulty int `json:"difficulty" db:"difficulty"`

	// Prompt is the question text shown to the user.
	Prompt string `json:"prompt" db:"prompt"`

	// Answer is the expected answer. It is stripped from catalog
	// responses unless the caller holds the ADMIN role.
	Answer string `json:"answer,omitempty" db:"answer"`

	// CreatedAt is the timestamp at which the question was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
