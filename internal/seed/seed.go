package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// File is the on-disk quiz format consumed by the seed command: one quiz and
// its questions, with the zero-based correct option index per question.
type File struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Topic        string   `json:"topic"`
	Difficulty   int      `json:"difficulty"`
}

// Load reads and validates a quiz seed file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

func (f File) validate() error {
	if f.Title == "" {
		return fmt.Errorf("seed file: title is required")
	}
	if len(f.Questions) == 0 {
		return fmt.Errorf("seed file: at least one question is required")
	}
	for i, q := range f.Questions {
		if q.Prompt == "" {
			return fmt.Errorf("seed file: question %d: prompt is required", i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("seed file: question %d: at least two options are required", i)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("seed file: question %d: correct_index %d out of range for %d options",
				i, q.CorrectIndex, len(q.Options))
		}
	}
	return nil
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID          string    `bun:"quiz_id,pk"`
	Title       string    `bun:"title"`
	Description *string   `bun:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:now()"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID           string    `bun:"question_id,pk"`
	QuizID       string    `bun:"quiz_id"`
	Prompt       string    `bun:"prompt"`
	Options      string    `bun:"options,type:jsonb"`
	CorrectIndex int       `bun:"correct_index"`
	Topic        *string   `bun:"topic"`
	Difficulty   int       `bun:"difficulty"`
	Position     int       `bun:"position"`
	CreatedAt    time.Time `bun:"created_at,nullzero,default:now()"`
}

// Apply inserts the quiz and its questions in a single transaction and
// returns the new quiz id. Question positions follow file order.
func Apply(ctx context.Context, db *bun.DB, f File) (string, error) {
	quizID := uuid.NewString()

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		quiz := &quizRow{ID: quizID, Title: f.Title}
		if f.Description != "" {
			quiz.Description = &f.Description
		}
		if _, err := tx.NewInsert().Model(quiz).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}

		rows := make([]questionRow, 0, len(f.Questions))
		for i, q := range f.Questions {
			options, err := json.Marshal(q.Options)
			if err != nil {
				return fmt.Errorf("marshal options: %w", err)
			}
			difficulty := q.Difficulty
			if difficulty == 0 {
				difficulty = 1
			}
			row := questionRow{
				ID:           uuid.NewString(),
				QuizID:       quizID,
				Prompt:       q.Prompt,
				Options:      string(options),
				CorrectIndex: q.CorrectIndex,
				Difficulty:   difficulty,
				Position:     i,
			}
			if q.Topic != "" {
				topic := q.Topic
				row.Topic = &topic
			}
			rows = append(rows, row)
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return quizID, nil
}
