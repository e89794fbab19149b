package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

const questionKeyPrefix = "quiz:questions:"

func QuestionKey(quizID string) string {
	return questionKeyPrefix + quizID
}

// CachedQuestionSource serves question records from the cache and falls
// back to the wrapped source on a miss. Cache failures never fail a fetch.
type CachedQuestionSource struct {
	source repositories.QuestionSource
	cache  CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedQuestionSource(source repositories.QuestionSource, cache CacheService, ttl time.Duration, logger *slog.Logger) *CachedQuestionSource {
	return &CachedQuestionSource{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedQuestionSource) GetQuestions(ctx context.Context, quizID string) ([]models.QuizQuestion, error) {
	key := QuestionKey(quizID)

	var cached []models.QuizQuestion
	err := c.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("Question cache unavailable", "quiz_id", quizID, "error", err)
	}

	records, err := c.source.GetQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, records, c.ttl); err != nil {
		c.logger.Warn("Failed to cache questions", "quiz_id", quizID, "error", err)
	}
	return records, nil
}

// Invalidate drops the cached records of one quiz, or of every quiz when quizID is empty
func (c *CachedQuestionSource) Invalidate(ctx context.Context, quizID string) error {
	if quizID == "" {
		return c.cache.DeletePattern(ctx, questionKeyPrefix+"*")
	}
	if err := c.cache.Delete(ctx, QuestionKey(quizID)); err != nil {
		return fmt.Errorf("failed to invalidate questions of quiz %s: %w", quizID, err)
	}
	return nil
}
