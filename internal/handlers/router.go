package handlers

import (
	"net/http"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	quizHandler    *QuizHandler
	metrics        *metrics.Metrics
	config         RouterConfig
}

type RouterConfig struct {
	SessionRateLimit float64
	SessionRateBurst int
	// Done stops background router work such as the rate limiter sweeper
	Done <-chan struct{}
}

// NewHandlerManager builds the handlers. m may be nil to skip metrics.
func NewHandlerManager(
	sessionService services.QuizSessionService,
	authoringService services.AuthoringService,
	reportService services.ReportService,
	m *metrics.Metrics,
	logger utils.Logger,
	config RouterConfig,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(sessionService, reportService, logger),
		quizHandler:    NewQuizHandler(authoringService, logger),
		metrics:        m,
		config:         config,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	if hm.metrics != nil {
		router.Use(hm.metrics.MetricsMiddleware())
		router.GET("/metrics", hm.metrics.PrometheusHandler())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})

	startLimiter := func(c *gin.Context) { c.Next() }
	if hm.config.SessionRateLimit > 0 {
		startLimiter = RateLimiter(rate.Limit(hm.config.SessionRateLimit), hm.config.SessionRateBurst, 10*time.Minute, hm.config.Done)
	}

	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", startLimiter, hm.sessionHandler.StartSession)
			sessions.GET("/reports/export", hm.sessionHandler.ExportSessions)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.PUT("/:id/answer", hm.sessionHandler.EditAnswer)
			sessions.POST("/:id/submit", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/next", hm.sessionHandler.NextQuestion)
			sessions.POST("/:id/continue", hm.sessionHandler.ContinueSession)
			sessions.POST("/:id/retry", hm.sessionHandler.RetrySession)
			sessions.DELETE("/:id", hm.sessionHandler.CloseSession)
		}

		v1.POST("/questions/validate", hm.quizHandler.ValidateQuestions)
		v1.POST("/quizzes/publish", hm.quizHandler.PublishQuiz)
	}
}
