package domain

import "errors"

var (
	// ErrQuizNotFound indicates the referenced quiz does not exist or has no questions.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound indicates the referenced attempt was never created.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrQuestionNotFound indicates an answer references an unknown question.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptSubmitted is returned when an answer write targets a sealed attempt.
	ErrAttemptSubmitted = errors.New("attempt already submitted")
	// ErrInvalidChosenIndex rejects negative option indexes before they reach the store.
	ErrInvalidChosenIndex = errors.New("chosen index must be non-negative")
)
