package postgres

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type SessionRecordPostgreSQL struct {
	db *gorm.DB
}

func NewSessionRecordPostgreSQL(db *gorm.DB) repositories.SessionRecordRepository {
	return &SessionRecordPostgreSQL{db: db}
}

func (s SessionRecordPostgreSQL) Save(ctx context.Context, record *models.SessionRecord) error {
	return s.db.WithContext(ctx).Save(record).Error
}

func (s SessionRecordPostgreSQL) GetByID(ctx context.Context, id string) (*models.SessionRecord, error) {
	var record models.SessionRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s SessionRecordPostgreSQL) List(ctx context.Context, filters repositories.SessionRecordFilters) ([]*models.SessionRecord, error) {
	var records []*models.SessionRecord

	query := s.db.WithContext(ctx).Model(&models.SessionRecord{})
	if filters.QuizID != "" {
		query = query.Where("quiz_id = ?", filters.QuizID)
	}
	if filters.DateFrom != nil {
		query = query.Where("completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("completed_at <= ?", *filters.DateTo)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("completed_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
