package memory

import (
	"context"
	"sort"

	"quizops-service/internal/domain"
)

// QuizFixture bundles the catalog data for one quiz (useful for tests/demos).
type QuizFixture struct {
	Quiz      domain.Quiz
	Questions []domain.Question
	Keys      []domain.AnswerKey
}

// Catalog is a static in-memory implementation of app.CatalogRepository.
type Catalog struct {
	fixtures map[string]QuizFixture
}

func NewCatalog(fixtures map[string]QuizFixture) *Catalog {
	return &Catalog{fixtures: fixtures}
}

func (c *Catalog) ListQuizzes(_ context.Context, limit, offset int) ([]domain.Quiz, error) {
	quizzes := make([]domain.Quiz, 0, len(c.fixtures))
	for _, f := range c.fixtures {
		quizzes = append(quizzes, f.Quiz)
	}
	sort.Slice(quizzes, func(i, j int) bool {
		if !quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
		}
		return quizzes[i].ID < quizzes[j].ID
	})

	if offset >= len(quizzes) {
		return []domain.Quiz{}, nil
	}
	quizzes = quizzes[offset:]
	if limit > 0 && limit < len(quizzes) {
		quizzes = quizzes[:limit]
	}
	return quizzes, nil
}

func (c *Catalog) QuizQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	fixture, ok := c.fixtures[quizID]
	if !ok || len(fixture.Questions) == 0 {
		return nil, domain.ErrQuizNotFound
	}
	out := make([]domain.Question, len(fixture.Questions))
	copy(out, fixture.Questions)
	return out, nil
}

func (c *Catalog) AnswerKeys(_ context.Context, quizID string) ([]domain.AnswerKey, error) {
	fixture, ok := c.fixtures[quizID]
	if !ok || len(fixture.Keys) == 0 {
		return nil, domain.ErrQuizNotFound
	}
	out := make([]domain.AnswerKey, len(fixture.Keys))
	copy(out, fixture.Keys)
	return out, nil
}
