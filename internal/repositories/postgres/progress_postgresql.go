package postgres

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ScoreSubmitter {
	return &ProgressPostgreSQL{db: db}
}

func (p ProgressPostgreSQL) SubmitScore(ctx context.Context, submission models.ScoreSubmission) error {
	record := models.ProgressRecord{
		ContentID: submission.ContentID,
		QuizID:    submission.QuizID,
		Score:     submission.Score,
	}
	return p.db.WithContext(ctx).Create(&record).Error
}
