package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Quiz struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	ExternalID  string         `json:"external_id" gorm:"not null;size:64;uniqueIndex"`
	ContentID   string         `json:"content_id" gorm:"not null;size:64;index"`
	Title       string         `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description string         `json:"description" gorm:"type:text" validate:"max=1000"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []StoredQuestion `json:"questions" gorm:"foreignKey:QuizID"`
}

// StoredQuestion keeps the wire payloads as jsonb so the record round-trips untouched
type StoredQuestion struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	QuizID        uint           `json:"quiz_id" gorm:"not null;index"`
	Position      int            `json:"position" gorm:"not null"`
	QuestionText  string         `json:"question_text" gorm:"type:text;not null"`
	Type          QuestionType   `json:"type" gorm:"not null;size:32;index"`
	Options       datatypes.JSON `json:"options" gorm:"type:jsonb"`
	CorrectAnswer datatypes.JSON `json:"correct_answer" gorm:"type:jsonb"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ProgressRecord is one submitted quiz score
type ProgressRecord struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ContentID   string    `json:"content_id" gorm:"not null;size:64;index"`
	QuizID      string    `json:"quiz_id" gorm:"not null;size:64;index"`
	Score       int       `json:"score" gorm:"not null"`
	SubmittedAt time.Time `json:"submitted_at" gorm:"autoCreateTime"`
}

// SessionRecord is the summary of a finished quiz session kept for reporting
type SessionRecord struct {
	ID              string         `json:"id" gorm:"primaryKey;size:36"`
	ContentID       string         `json:"content_id" gorm:"size:64;index"`
	QuizID          string         `json:"quiz_id" gorm:"size:64;index"`
	Score           int            `json:"score"`
	Total           int            `json:"total"`
	Percentage      float64        `json:"percentage"`
	Rating          string         `json:"rating" gorm:"size:16"`
	Language        string         `json:"language" gorm:"size:8"`
	TeacherTestMode bool           `json:"teacher_test_mode"`
	Results         datatypes.JSON `json:"results" gorm:"type:jsonb"` // []bool, one per question
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     time.Time      `json:"completed_at"`
}

func (q StoredQuestion) ToQuizQuestion() QuizQuestion {
	id := formatUint(q.ID)
	return QuizQuestion{
		ID:            &id,
		QuestionText:  q.QuestionText,
		Type:          q.Type,
		Options:       []byte(q.Options),
		CorrectAnswer: []byte(q.CorrectAnswer),
	}
}

func NewStoredQuestion(quizID uint, position int, record QuizQuestion) StoredQuestion {
	return StoredQuestion{
		QuizID:        quizID,
		Position:      position,
		QuestionText:  record.QuestionText,
		Type:          record.Type,
		Options:       datatypes.JSON(record.Options),
		CorrectAnswer: datatypes.JSON(record.CorrectAnswer),
	}
}
