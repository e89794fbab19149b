package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// ErrNotFound is returned when the requested quiz or record does not exist
var ErrNotFound = errors.New("record not found")

// QuestionSource yields the raw question records of a quiz, in quiz order
type QuestionSource interface {
	GetQuestions(ctx context.Context, quizID string) ([]models.QuizQuestion, error)
}

// ScoreSubmitter records a finished quiz score
type ScoreSubmitter interface {
	SubmitScore(ctx context.Context, submission models.ScoreSubmission) error
}

type QuizRepository interface {
	QuestionSource
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByExternalID(ctx context.Context, externalID string) (*models.Quiz, error)
}

type SessionRecordRepository interface {
	Save(ctx context.Context, record *models.SessionRecord) error
	GetByID(ctx context.Context, id string) (*models.SessionRecord, error)
	List(ctx context.Context, filters SessionRecordFilters) ([]*models.SessionRecord, error)
}

type SessionRecordFilters struct {
	QuizID   string     `json:"quiz_id"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}
