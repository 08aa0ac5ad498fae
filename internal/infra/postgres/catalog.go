package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizops-service/internal/domain"
)

// Catalog reads quiz and question content from Postgres. Read-only: the
// catalog is provisioned by seeding and never mutated by the service.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) ListQuizzes(ctx context.Context, limit, offset int) ([]domain.Quiz, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT quiz_id, title, description, created_at
		FROM quizzes
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := []domain.Quiz{}
	for rows.Next() {
		var quiz domain.Quiz
		var description *string
		if err := rows.Scan(&quiz.ID, &quiz.Title, &description, &quiz.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		if description != nil {
			quiz.Description = *description
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

func (c *Catalog) QuizQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT question_id, prompt, options, topic, difficulty
		FROM questions
		WHERE quiz_id = $1
		ORDER BY position ASC`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var question domain.Question
		var options []byte
		var topic *string
		if err := rows.Scan(&question.ID, &question.Prompt, &options, &topic, &question.Difficulty); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(options, &question.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		if topic != nil {
			question.Topic = *topic
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, domain.ErrQuizNotFound
	}
	return questions, nil
}

func (c *Catalog) AnswerKeys(ctx context.Context, quizID string) ([]domain.AnswerKey, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT question_id, correct_index
		FROM questions
		WHERE quiz_id = $1
		ORDER BY position ASC`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load answer keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.AnswerKey
	for rows.Next() {
		var key domain.AnswerKey
		if err := rows.Scan(&key.QuestionID, &key.CorrectIndex); err != nil {
			return nil, fmt.Errorf("scan answer key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load answer keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, domain.ErrQuizNotFound
	}
	return keys, nil
}
