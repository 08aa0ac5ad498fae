package app

import (
	"context"
	"time"

	"quizops-service/internal/domain"
)

// CatalogRepository reads quiz/question content (from cache/backing store).
type CatalogRepository interface {
	ListQuizzes(ctx context.Context, limit, offset int) ([]domain.Quiz, error)
	QuizQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
	// AnswerKeys returns (question, correct index) pairs in quiz order and
	// fails with domain.ErrQuizNotFound when the quiz is unknown or empty.
	AnswerKeys(ctx context.Context, quizID string) ([]domain.AnswerKey, error)
}

// AttemptRepository persists attempts, answers and lazily-created users.
// Implementations scope each call to its own transaction; partial writes
// never become visible.
type AttemptRepository interface {
	FindOrCreateUser(ctx context.Context, username string) (domain.User, error)
	CreateAttempt(ctx context.Context, quizID string, userID *string) (domain.Attempt, error)
	Attempt(ctx context.Context, attemptID string) (domain.Attempt, error)
	// UpsertAnswer is an atomic insert-or-replace on the (attempt, question)
	// pair so concurrent resubmissions cannot lose updates.
	UpsertAnswer(ctx context.Context, attemptID, questionID string, chosenIndex int) error
	// AnswersFor reads the attempt's answers as one consistent set.
	AnswersFor(ctx context.Context, attemptID string) (map[string]int, error)
	Seal(ctx context.Context, attemptID string, grade domain.Grade, at time.Time) error
	Ping(ctx context.Context) error
}

// AttemptService contains the attempt lifecycle use cases: opening an
// attempt, recording answers, and sealing it with a final score.
type AttemptService struct {
	store   AttemptRepository
	catalog CatalogRepository
	results *ResultsHub
	now     func() time.Time
}

func NewAttemptService(store AttemptRepository, catalog CatalogRepository) *AttemptService {
	return newAttemptServiceWithClock(store, catalog, time.Now)
}

// NewAttemptServiceWithClock is test-only for deterministic submission timestamps.
func NewAttemptServiceWithClock(store AttemptRepository, catalog CatalogRepository, now func() time.Time) *AttemptService {
	return newAttemptServiceWithClock(store, catalog, now)
}

func newAttemptServiceWithClock(store AttemptRepository, catalog CatalogRepository, now func() time.Time) *AttemptService {
	return &AttemptService{
		store:   store,
		catalog: catalog,
		results: NewResultsHub(),
		now:     now,
	}
}

// CreateAttempt opens a new attempt against quizID. A non-empty username is
// resolved to its user, creating one on first sight; resolution and the
// attempt insert are separate writes, but user creation itself is
// race-tolerant. An empty quiz is not an error here; that surfaces at
// submission time.
func (s *AttemptService) CreateAttempt(ctx context.Context, quizID, username string) (domain.Attempt, error) {
	var userID *string
	if username != "" {
		user, err := s.store.FindOrCreateUser(ctx, username)
		if err != nil {
			return domain.Attempt{}, err
		}
		userID = &user.ID
	}
	return s.store.CreateAttempt(ctx, quizID, userID)
}

// RecordAnswer upserts the chosen option for one question of an open attempt.
// Writes against a sealed attempt are rejected with domain.ErrAttemptSubmitted.
// The chosen index is not checked against the question's option count: an
// out-of-range value is stored as-is and never matches at scoring time.
func (s *AttemptService) RecordAnswer(ctx context.Context, attemptID, questionID string, chosenIndex int) error {
	if chosenIndex < 0 {
		return domain.ErrInvalidChosenIndex
	}
	attempt, err := s.store.Attempt(ctx, attemptID)
	if err != nil {
		return err
	}
	if attempt.Sealed() {
		return domain.ErrAttemptSubmitted
	}
	return s.store.UpsertAnswer(ctx, attemptID, questionID, chosenIndex)
}

// SubmitAttempt scores the attempt against the quiz answer key and seals it.
// Resubmitting an already-sealed attempt recomputes and overwrites; the
// operation is idempotent given unchanged answers.
func (s *AttemptService) SubmitAttempt(ctx context.Context, attemptID string) (domain.AttemptResult, error) {
	attempt, err := s.store.Attempt(ctx, attemptID)
	if err != nil {
		return domain.AttemptResult{}, err
	}

	keys, err := s.catalog.AnswerKeys(ctx, attempt.QuizID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	chosen, err := s.store.AnswersFor(ctx, attemptID)
	if err != nil {
		return domain.AttemptResult{}, err
	}

	grade := domain.GradeSheet(keys, chosen)
	submittedAt := s.now().UTC()
	if err := s.store.Seal(ctx, attemptID, grade, submittedAt); err != nil {
		return domain.AttemptResult{}, err
	}

	result := domain.AttemptResult{
		AttemptID:   attemptID,
		QuizID:      attempt.QuizID,
		Score:       grade.Score,
		MaxScore:    grade.MaxScore,
		SubmittedAt: submittedAt,
	}
	s.results.Publish(result)
	return result, nil
}

// ListQuizzes pages through the catalog, newest first.
func (s *AttemptService) ListQuizzes(ctx context.Context, limit, offset int) ([]domain.Quiz, error) {
	return s.catalog.ListQuizzes(ctx, limit, offset)
}

// QuizQuestions returns the quiz's questions without their answer key.
func (s *AttemptService) QuizQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	return s.catalog.QuizQuestions(ctx, quizID)
}

// Feed subscribes to the sealed-attempt results of one quiz. The quiz must
// exist in the catalog; the caller must invoke cancel to avoid leaks.
func (s *AttemptService) Feed(ctx context.Context, quizID string) (<-chan domain.AttemptResult, func(), error) {
	if _, err := s.catalog.AnswerKeys(ctx, quizID); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.results.Subscribe(quizID)
	return ch, cancel, nil
}

// Ping verifies store connectivity for health checks.
func (s *AttemptService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
