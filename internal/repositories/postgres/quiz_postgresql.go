package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

func (q QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questions := quiz.Questions
		quiz.Questions = nil
		if err := tx.Create(quiz).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].QuizID = quiz.ID
			questions[i].Position = i
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		quiz.Questions = questions
		return nil
	})
}

func (q QuizPostgreSQL) GetByExternalID(ctx context.Context, externalID string) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz %s: %w", externalID, repositories.ErrNotFound)
		}
		return nil, err
	}
	return &quiz, nil
}

func (q QuizPostgreSQL) GetQuestions(ctx context.Context, quizID string) ([]models.QuizQuestion, error) {
	quiz, err := q.GetByExternalID(ctx, quizID)
	if err != nil {
		return nil, err
	}

	records := make([]models.QuizQuestion, len(quiz.Questions))
	for i, stored := range quiz.Questions {
		records[i] = stored.ToQuizQuestion()
	}
	return records, nil
}
