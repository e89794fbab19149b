package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/google/uuid"
)

// QuizPublisher hands a validated quiz to the platform backend
type QuizPublisher interface {
	PublishQuiz(ctx context.Context, req models.PublishQuizRequest) (json.RawMessage, error)
}

// QuestionCacheInvalidator drops cached question records of a quiz
type QuestionCacheInvalidator interface {
	Invalidate(ctx context.Context, quizID string) error
}

type AuthoringService interface {
	ValidateQuestions(ctx context.Context, records []models.QuizQuestion) error
	Publish(ctx context.Context, req *models.PublishQuizRequest) (json.RawMessage, error)
}

type authoringService struct {
	publisher QuizPublisher
	quizzes   repositories.QuizRepository
	cache     QuestionCacheInvalidator
	events    events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger
}

// NewAuthoringService publishes to quizzes when it is set, otherwise to the
// backend publisher. cache may be nil.
func NewAuthoringService(
	publisher QuizPublisher,
	quizzes repositories.QuizRepository,
	cache QuestionCacheInvalidator,
	eventPublisher events.EventPublisher,
	v *validator.Validator,
	logger *slog.Logger,
) AuthoringService {
	return &authoringService{
		publisher: publisher,
		quizzes:   quizzes,
		cache:     cache,
		events:    eventPublisher,
		validator: v,
		logger:    NewServiceLogger(logger, LogConfig{Service: "quiz", Component: "authoring"}),
	}
}

func (s *authoringService) ValidateQuestions(ctx context.Context, records []models.QuizQuestion) (err error) {
	op := s.logger.WithOperation(ctx, "validate_questions")
	defer func() { op.LogResult("", "question", err) }()

	if errs := s.validator.Question().ValidateBatch(records); len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *authoringService) Publish(ctx context.Context, req *models.PublishQuizRequest) (reply json.RawMessage, err error) {
	op := s.logger.WithOperation(ctx, "publish_quiz")
	defer func() { op.LogResult(req.ContentID, "content", err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if s.quizzes != nil {
		reply, err = s.storeQuiz(ctx, req)
	} else {
		reply, err = s.publisher.PublishQuiz(ctx, *req)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		// the backend assigns quiz ids, so drop every cached quiz of this service
		if cacheErr := s.cache.Invalidate(ctx, ""); cacheErr != nil {
			s.logger.Logger().Warn("Failed to invalidate question cache", "error", cacheErr)
		}
	}

	if s.events != nil {
		event := events.NewQuizEvent(events.EventQuizPublished, events.QuizPublishedEvent{
			ContentID:     req.ContentID,
			Title:         req.Quiz.Title,
			QuestionCount: len(req.Questions),
		})
		if pubErr := s.events.PublishQuizEvent(ctx, event); pubErr != nil {
			s.logger.Logger().Warn("Failed to publish quiz event", "event_type", event.Type, "error", pubErr)
		}
	}
	return reply, nil
}

func (s *authoringService) storeQuiz(ctx context.Context, req *models.PublishQuizRequest) (json.RawMessage, error) {
	quiz := &models.Quiz{
		ExternalID:  uuid.NewString(),
		ContentID:   req.ContentID,
		Title:       req.Quiz.Title,
		Description: req.Quiz.Description,
	}
	for i, record := range req.Questions {
		quiz.Questions = append(quiz.Questions, models.NewStoredQuestion(0, i, record))
	}

	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to store quiz: %w", err)
	}

	return json.Marshal(map[string]interface{}{
		"quiz_id":        quiz.ExternalID,
		"content_id":     quiz.ContentID,
		"question_count": len(quiz.Questions),
	})
}
