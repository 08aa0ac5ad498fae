package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizops-service/internal/domain"
)

// Store is an in-memory implementation of app.AttemptRepository. It mirrors
// the relational constraints the Postgres store relies on: a quiz foreign key
// on attempts, a unique username, and one answer per (attempt, question).
type Store struct {
	mu       sync.Mutex
	quizzes  map[string]struct{}
	users    map[string]domain.User
	attempts map[string]domain.Attempt
	answers  map[string]map[string]int
	now      func() time.Time
}

func NewStore(quizIDs ...string) *Store {
	known := make(map[string]struct{}, len(quizIDs))
	for _, id := range quizIDs {
		known[id] = struct{}{}
	}
	return &Store{
		quizzes:  known,
		users:    make(map[string]domain.User),
		attempts: make(map[string]domain.Attempt),
		answers:  make(map[string]map[string]int),
		now:      time.Now,
	}
}

func (s *Store) FindOrCreateUser(_ context.Context, username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[username]; ok {
		return user, nil
	}
	user := domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: s.now().UTC(),
	}
	s.users[username] = user
	return user, nil
}

func (s *Store) CreateAttempt(_ context.Context, quizID string, userID *string) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.Attempt{}, domain.ErrQuizNotFound
	}
	attempt := domain.Attempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	s.attempts[attempt.ID] = attempt
	return attempt, nil
}

func (s *Store) Attempt(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *Store) UpsertAnswer(_ context.Context, attemptID, questionID string, chosenIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attemptID]; !ok {
		return domain.ErrAttemptNotFound
	}
	sheet, ok := s.answers[attemptID]
	if !ok {
		sheet = make(map[string]int)
		s.answers[attemptID] = sheet
	}
	sheet[questionID] = chosenIndex
	return nil
}

func (s *Store) AnswersFor(_ context.Context, attemptID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chosen := make(map[string]int, len(s.answers[attemptID]))
	for questionID, idx := range s.answers[attemptID] {
		chosen[questionID] = idx
	}
	return chosen, nil
}

func (s *Store) Seal(_ context.Context, attemptID string, grade domain.Grade, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	score, maxScore, submittedAt := grade.Score, grade.MaxScore, at
	attempt.Score = &score
	attempt.MaxScore = &maxScore
	attempt.SubmittedAt = &submittedAt
	s.attempts[attemptID] = attempt
	return nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}
