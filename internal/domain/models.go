package domain

import "time"

// Quiz is catalog metadata for a single quiz. Immutable once seeded.
type Quiz struct {
	ID          string    `json:"quiz_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Question is the caller-facing view of a catalog question. The correct
// option index deliberately never leaves the catalog through this type.
type Question struct {
	ID         string   `json:"question_id"`
	Prompt     string   `json:"prompt"`
	Options    []string `json:"options"`
	Topic      string   `json:"topic,omitempty"`
	Difficulty int      `json:"difficulty"`
}

// AnswerKey pairs a question with its correct option index, in quiz order.
// This is the only catalog shape the scorer needs.
type AnswerKey struct {
	QuestionID   string
	CorrectIndex int
}

// User is an optional attribution record, created lazily on first use of a
// username and never mutated afterwards.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// Attempt is one pass at a quiz. Score, MaxScore and SubmittedAt are nil
// until the attempt is sealed by submission, then all three are set together.
type Attempt struct {
	ID          string
	QuizID      string
	UserID      *string
	CreatedAt   time.Time
	SubmittedAt *time.Time
	Score       *int
	MaxScore    *int
}

// Sealed reports whether the attempt has been submitted and scored.
func (a Attempt) Sealed() bool {
	return a.SubmittedAt != nil
}

// Answer is the chosen option for one (attempt, question) pair. The pair is
// unique; resubmitting replaces ChosenIndex in place.
type Answer struct {
	AttemptID   string
	QuestionID  string
	ChosenIndex int
	UpdatedAt   time.Time
}

// Grade is the outcome of scoring an attempt.
type Grade struct {
	Score    int `json:"score"`
	MaxScore int `json:"max_score"`
}

// AttemptResult is the sealed outcome broadcast on the live results feed.
type AttemptResult struct {
	AttemptID   string    `json:"attemptId"`
	QuizID      string    `json:"quizId"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"maxScore"`
	SubmittedAt time.Time `json:"submittedAt"`
}
