package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the lifecycle events emitted for quiz sessions
type EventType string

const (
	// Session events
	EventSessionStarted EventType = "quiz.session_started"
	EventQuestionGraded EventType = "quiz.question_graded"
	EventQuizCompleted  EventType = "quiz.completed"
	EventSessionClosed  EventType = "quiz.session_closed"

	// Progress events
	EventScoreSubmissionFailed EventType = "quiz.score_submission_failed"

	// Authoring events
	EventQuizPublished EventType = "quiz.published"
)

const (
	eventSource  = "quiz-service"
	eventVersion = "1.0"
)

// QuizEvent is the envelope shared by every quiz event
type QuizEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Session event payloads

type SessionStartedEvent struct {
	SessionID       string `json:"session_id"`
	ContentID       string `json:"content_id"`
	QuizID          string `json:"quiz_id"`
	QuestionCount   int    `json:"question_count"`
	Language        string `json:"language"`
	TeacherTestMode bool   `json:"teacher_test_mode"`
}

type QuestionGradedEvent struct {
	SessionID     string `json:"session_id"`
	QuizID        string `json:"quiz_id"`
	QuestionIndex int    `json:"question_index"`
	QuestionType  string `json:"question_type"`
	Correct       bool   `json:"correct"`
	TimedOut      bool   `json:"timed_out"`
	Score         int    `json:"score"`
}

type QuizCompletedEvent struct {
	SessionID       string    `json:"session_id"`
	ContentID       string    `json:"content_id"`
	QuizID          string    `json:"quiz_id"`
	Score           int       `json:"score"`
	Total           int       `json:"total"`
	Percentage      float64   `json:"percentage"`
	Rating          string    `json:"rating"`
	TeacherTestMode bool      `json:"teacher_test_mode"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Reasons a session leaves the registry
const (
	CloseReasonClient    = "client"
	CloseReasonRetention = "retention_expired"
	CloseReasonIdle      = "idle_timeout"
	CloseReasonShutdown  = "shutdown"
)

type SessionClosedEvent struct {
	SessionID string `json:"session_id"`
	QuizID    string `json:"quiz_id"`
	Phase     string `json:"phase"`
	Reason    string `json:"reason"`
}

type ScoreSubmissionFailedEvent struct {
	ContentID string `json:"content_id"`
	QuizID    string `json:"quiz_id"`
	Score     int    `json:"score"`
	Error     string `json:"error"`
}

type QuizPublishedEvent struct {
	ContentID     string `json:"content_id"`
	Title         string `json:"title"`
	QuestionCount int    `json:"question_count"`
}

// NewQuizEvent wraps a payload in a fresh envelope
func NewQuizEvent(eventType EventType, data interface{}) *QuizEvent {
	return &QuizEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func GenerateEventID() string {
	return uuid.NewString()
}
