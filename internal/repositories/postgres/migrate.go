package postgres

import (
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Quiz{},
		&models.StoredQuestion{},
		&models.ProgressRecord{},
		&models.SessionRecord{},
	)
}
