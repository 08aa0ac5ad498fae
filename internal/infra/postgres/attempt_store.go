package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizops-service/internal/domain"
)

const (
	sqlStateForeignKeyViolation = "23503"

	constraintAttemptQuiz    = "attempts_quiz_id_fkey"
	constraintAnswerAttempt  = "answers_attempt_id_fkey"
	constraintAnswerQuestion = "answers_question_id_fkey"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"user_id,pk"`
	Username  string    `bun:"username"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:now()"`
}

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts,alias:a"`

	ID          string     `bun:"attempt_id,pk"`
	QuizID      string     `bun:"quiz_id"`
	UserID      *string    `bun:"user_id"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,default:now()"`
	SubmittedAt *time.Time `bun:"submitted_at"`
	Score       *int       `bun:"score"`
	MaxScore    *int       `bun:"max_score"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:ans"`

	AttemptID   string    `bun:"attempt_id,pk"`
	QuestionID  string    `bun:"question_id,pk"`
	ChosenIndex int       `bun:"chosen_index"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,default:now()"`
}

// AttemptStore persists attempts, answers and users in Postgres. Every method
// is a single statement, so the store's transactional guarantees are exactly
// the statement-level atomicity the engine provides.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

// FindOrCreateUser resolves a username to its user, creating one on first
// sight. The conflict clause makes concurrent first sights of the same
// username converge on a single row instead of failing.
func (s *AttemptStore) FindOrCreateUser(ctx context.Context, username string) (domain.User, error) {
	row := &userRow{ID: uuid.NewString(), Username: username}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (username) DO UPDATE").
		Set("username = EXCLUDED.username").
		Returning("user_id, username, created_at").
		Exec(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("find or create user: %w", err)
	}
	return domain.User{ID: row.ID, Username: row.Username, CreatedAt: row.CreatedAt}, nil
}

func (s *AttemptStore) CreateAttempt(ctx context.Context, quizID string, userID *string) (domain.Attempt, error) {
	row := &attemptRow{ID: uuid.NewString(), QuizID: quizID, UserID: userID}
	_, err := s.db.NewInsert().
		Model(row).
		Returning("created_at").
		Exec(ctx)
	if err != nil {
		if violatesConstraint(err, constraintAttemptQuiz) {
			return domain.Attempt{}, domain.ErrQuizNotFound
		}
		return domain.Attempt{}, fmt.Errorf("create attempt: %w", err)
	}
	return domain.Attempt{
		ID:        row.ID,
		QuizID:    row.QuizID,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (s *AttemptStore) Attempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	row := new(attemptRow)
	err := s.db.NewSelect().
		Model(row).
		Where("attempt_id = ?", attemptID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Attempt{}, domain.ErrAttemptNotFound
		}
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	return domain.Attempt{
		ID:          row.ID,
		QuizID:      row.QuizID,
		UserID:      row.UserID,
		CreatedAt:   row.CreatedAt,
		SubmittedAt: row.SubmittedAt,
		Score:       row.Score,
		MaxScore:    row.MaxScore,
	}, nil
}

// UpsertAnswer writes the chosen option for one (attempt, question) pair as a
// single conflict-resolving insert, so concurrent resubmissions settle on
// last-committed-wins without lost updates.
func (s *AttemptStore) UpsertAnswer(ctx context.Context, attemptID, questionID string, chosenIndex int) error {
	row := &answerRow{
		AttemptID:   attemptID,
		QuestionID:  questionID,
		ChosenIndex: chosenIndex,
		UpdatedAt:   time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (attempt_id, question_id) DO UPDATE").
		Set("chosen_index = EXCLUDED.chosen_index").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		switch {
		case violatesConstraint(err, constraintAnswerAttempt):
			return domain.ErrAttemptNotFound
		case violatesConstraint(err, constraintAnswerQuestion):
			return domain.ErrQuestionNotFound
		}
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}

// AnswersFor reads the attempt's answer sheet in one statement, giving the
// scorer a consistent snapshot relative to concurrent answer writes.
func (s *AttemptStore) AnswersFor(ctx context.Context, attemptID string) (map[string]int, error) {
	var rows []answerRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("attempt_id = ?", attemptID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	chosen := make(map[string]int, len(rows))
	for _, row := range rows {
		chosen[row.QuestionID] = row.ChosenIndex
	}
	return chosen, nil
}

// Seal writes score, max score and the submission timestamp together.
// Resealing overwrites the previous values.
func (s *AttemptStore) Seal(ctx context.Context, attemptID string, grade domain.Grade, at time.Time) error {
	res, err := s.db.NewUpdate().
		Model((*attemptRow)(nil)).
		Set("score = ?", grade.Score).
		Set("max_score = ?", grade.MaxScore).
		Set("submitted_at = ?", at).
		Where("attempt_id = ?", attemptID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seal attempt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("seal attempt: %w", err)
	}
	if affected == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *AttemptStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func violatesConstraint(err error, constraint string) bool {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Field('C') == sqlStateForeignKeyViolation && pgErr.Field('n') == constraint
}
