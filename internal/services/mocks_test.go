package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// MockQuestionSource is a mock implementation of QuestionSource
type MockQuestionSource struct {
	mock.Mock
}

func (m *MockQuestionSource) GetQuestions(ctx context.Context, quizID string) ([]models.QuizQuestion, error) {
	args := m.Called(ctx, quizID)
	records, _ := args.Get(0).([]models.QuizQuestion)
	return records, args.Error(1)
}

// recordingSubmitter hands every submission to a channel so tests can wait on it
type recordingSubmitter struct {
	err         error
	submissions chan models.ScoreSubmission
}

func newRecordingSubmitter(err error) *recordingSubmitter {
	return &recordingSubmitter{err: err, submissions: make(chan models.ScoreSubmission, 8)}
}

func (r *recordingSubmitter) SubmitScore(ctx context.Context, submission models.ScoreSubmission) error {
	r.submissions <- submission
	return r.err
}

type memoryRecords struct {
	mu      sync.Mutex
	records map[string]*models.SessionRecord
	saved   chan string
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{records: make(map[string]*models.SessionRecord), saved: make(chan string, 8)}
}

func (m *memoryRecords) Save(ctx context.Context, record *models.SessionRecord) error {
	m.mu.Lock()
	m.records[record.ID] = record
	m.mu.Unlock()
	m.saved <- record.ID
	return nil
}

func (m *memoryRecords) GetByID(ctx context.Context, id string) (*models.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return record, nil
}

func (m *memoryRecords) List(ctx context.Context, filters repositories.SessionRecordFilters) ([]*models.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SessionRecord
	for _, record := range m.records {
		if filters.QuizID == "" || record.QuizID == filters.QuizID {
			out = append(out, record)
		}
	}
	return out, nil
}

// MockQuizRepository is a mock implementation of QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) GetQuestions(ctx context.Context, quizID string) ([]models.QuizQuestion, error) {
	args := m.Called(ctx, quizID)
	records, _ := args.Get(0).([]models.QuizQuestion)
	return records, args.Error(1)
}

func (m *MockQuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Quiz, error) {
	args := m.Called(ctx, externalID)
	quiz, _ := args.Get(0).(*models.Quiz)
	return quiz, args.Error(1)
}

// MockQuizPublisher is a mock implementation of QuizPublisher
type MockQuizPublisher struct {
	mock.Mock
}

func (m *MockQuizPublisher) PublishQuiz(ctx context.Context, req models.PublishQuizRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	reply, _ := args.Get(0).(json.RawMessage)
	return reply, args.Error(1)
}

type MockCacheInvalidator struct {
	mock.Mock
}

func (m *MockCacheInvalidator) Invalidate(ctx context.Context, quizID string) error {
	args := m.Called(ctx, quizID)
	return args.Error(0)
}

func question(text string, t models.QuestionType, options, correct string) models.QuizQuestion {
	return models.QuizQuestion{
		QuestionText:  text,
		Type:          t,
		Options:       json.RawMessage(options),
		CorrectAnswer: json.RawMessage(correct),
	}
}

func twoQuestions() []models.QuizQuestion {
	return []models.QuizQuestion{
		question("2+2 ?", models.QCM, `["3","4","5"]`, `"4"`),
		question("Le soleil est une étoile", models.TrueFalse, `null`, `"Vrai"`),
	}
}
